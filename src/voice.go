package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	One sounding note: the synthesis voice.
 *
 * Description:	A voice owns a phase accumulator into its sample, two
 *		six stage envelopes, two triangle LFOs, a resonant
 *		lowpass biquad and the list of modulators gathered from
 *		the matched zones.  The DSP entry point is write(),
 *		which produces one 64 sample block into the dry and
 *		effect send buses.
 *
 *		The phase accumulator is 64 bits: the upper 32 bits are
 *		the integer sample index, the lower 32 the fraction.
 *
 *----------------------------------------------------------------*/

import "math"

// VoiceStatus is the lifecycle state of a pool slot.
type VoiceStatus uint8

const (
	VoiceClean VoiceStatus = iota
	VoiceOn
	VoiceSustained
	VoiceOff
)

// Sample loop modes (GenSampleMode values).
const (
	loopNone          = 0
	loopDuringRelease = 1
	loopUntilRelease  = 3
)

// How add_mod treats an identical existing modulator.
type voiceAddMode uint8

const (
	voiceOverwrite voiceAddMode = iota // instrument level: replace
	voiceAdd                           // preset level: amounts sum
	voiceDefault                       // default modulator: no check
)

// Sample sanity flags.
const (
	sanityCheck   = 1 << 0
	sanityStartup = 1 << 1
)

const voiceModMax = 64

// voiceDescriptor carries everything needed to bind a fresh voice.
type voiceDescriptor struct {
	sample     *Sample
	channel    *Channel
	key        uint8
	vel        uint8
	start_time uint
	gain       float32
}

// Voice is one synthesis process.  About 4 KB; pooled and reused.
type Voice struct {
	note_id    uint
	channel_id int

	key uint8
	vel uint8

	interp_method InterpMethod
	mod_count     int
	mods          [voiceModMax]Mod

	sample     *Sample
	start_time uint

	ticks         uint
	noteoff_ticks uint

	has_looped     bool
	filter_startup bool

	volenv_count   uint32
	volenv_section EnvStep
	volenv_val     float32

	amp            float32
	modenv_count   uint32
	modenv_section EnvStep
	modenv_val     float32

	modlfo_val float32
	viblfo_val float32

	hist1 float32
	hist2 float32

	gen        [GenLast]Gen
	synth_gain float32

	amp_reaches_noise_floor_nonloop float32
	amp_reaches_noise_floor_loop    float32

	status                   VoiceStatus
	check_sample_sanity_flag uint32
	min_attenuation_cb       float32

	last_fres float32

	// Cached results of update_param, read by the DSP loop.
	pan_val   float32
	amp_left  float32
	amp_right float32

	attenuation float32
	pitch       float32

	reverb_send float32
	amp_reverb  float32
	chorus_send float32
	amp_chorus  float32

	root_pitch float32
	fres       float32

	q_lin       float32
	filter_gain float32

	modlfo_to_pitch float32
	modlfo_to_vol   float32
	modlfo_to_fc    float32
	modlfo_delay    uint
	modlfo_incr     float32

	viblfo_incr     float32
	viblfo_delay    uint
	viblfo_to_pitch float32

	modenv_to_pitch float32
	modenv_to_fc    float32

	start     int32
	end       int32
	loopstart int32
	loopend   int32

	volenv_data envelope
	modenv_data envelope

	output_rate float32

	phase uint64

	filter_coeff_incr_count int32

	a1  float32
	a2  float32
	b02 float32
	b1  float32

	a1_incr  float32
	a2_incr  float32
	b02_incr float32
	b1_incr  float32
}

// init_voice rebinds a pool slot to a new note.
func init_voice(v *Voice, output_rate float32, desc voiceDescriptor, note_id uint) {
	gain := desc.gain
	if gain < 0.0000001 {
		gain = 0.0000001
	}

	*v = Voice{
		note_id:    note_id,
		channel_id: desc.channel.id,

		key: desc.key,
		vel: desc.vel,

		interp_method: desc.channel.interp_method,

		sample:     desc.sample,
		start_time: desc.start_time,

		last_fres:      -1.0,
		filter_startup: true,

		volenv_section: EnvDelay,
		modenv_section: EnvDelay,

		synth_gain:  gain,
		output_rate: output_rate,

		amp_reaches_noise_floor_nonloop: 0.00003 / gain,
		amp_reaches_noise_floor_loop:    0.00003 / gain,

		status:      VoiceClean,
		volenv_data: new_envelope(),
		modenv_data: new_envelope(),
	}
	gen_init(&v.gen, desc.channel)
}

func (v *Voice) is_available() bool {
	return v.status == VoiceClean || v.status == VoiceOff
}

func (v *Voice) is_on() bool {
	return v.status == VoiceOn && v.volenv_section < EnvRelease
}

func (v *Voice) is_playing() bool {
	return v.status == VoiceOn || v.status == VoiceSustained
}

// gen_sum is the effective value of a generator slot: static zone
// value plus modulators plus NRPN offset.
func (v *Voice) gen_sum(g GenType) float32 {
	gen := &v.gen[g]
	return float32(gen.Val + gen.Mod + gen.Nrpn)
}

/*------------------------------------------------------------------
 *
 * Name:	add_mod
 *
 * Purpose:	Add a modulator to the voice.
 *
 * Inputs:	mode	- what to do when an identical modulator is
 *			  already present:
 *			  voiceAdd: amounts sum (preset level)
 *			  voiceOverwrite: replace (instrument level)
 *			  voiceDefault: no identity check
 *
 *----------------------------------------------------------------*/

func (v *Voice) add_mod(m *Mod, mode voiceAddMode) {
	/* Some sound fonts come with a huge number of non-standard
	 * controllers, designed for one particular sound card.
	 * Discard them. */
	if !m.Src1.CC {
		switch m.Src1.Index {
		case ModSrcNone, ModSrcVelocity, ModSrcKeyNumber, ModSrcPolyPressure,
			ModSrcChannelPressure, ModSrcPitchWheel, ModSrcPitchWheelSensitivity:
		default:
			diag.Warnf("ignoring modulator with invalid non-CC source %d", m.Src1.Index)
			return
		}
	}

	switch mode {
	case voiceAdd:
		for i := 0; i < v.mod_count; i++ {
			if v.mods[i].test_identity(m) {
				v.mods[i].Amount += m.Amount
				return
			}
		}
	case voiceOverwrite:
		for i := 0; i < v.mod_count; i++ {
			if v.mods[i].test_identity(m) {
				v.mods[i].Amount = m.Amount
				return
			}
		}
	}

	if v.mod_count < voiceModMax {
		v.mods[v.mod_count] = *m
		v.mod_count++
	}
}

// add_default_mods installs the ten SF2.01 default modulators.
func (v *Voice) add_default_mods() {
	v.add_mod(&default_vel2att_mod, voiceDefault)
	v.add_mod(&default_vel2filter_mod, voiceDefault)
	v.add_mod(&default_at2viblfo_mod, voiceDefault)
	v.add_mod(&default_mod2viblfo_mod, voiceDefault)
	v.add_mod(&default_att_mod, voiceDefault)
	v.add_mod(&default_pan_mod, voiceDefault)
	v.add_mod(&default_expr_mod, voiceDefault)
	v.add_mod(&default_reverb_mod, voiceDefault)
	v.add_mod(&default_chorus_mod, voiceDefault)
	v.add_mod(&default_pitch_bend_mod, voiceDefault)
}

func (v *Voice) gen_incr(g GenType, val float64) {
	v.gen[g].Val += val
	v.gen[g].Flags = genSet
}

func (v *Voice) gen_set(g GenType, val float64) {
	v.gen[g].Val = val
	v.gen[g].Flags = genSet
}

func (v *Voice) exclusive_class() int {
	return int(v.gen[GenExclusiveClass].Val)
}

/*------------------------------------------------------------------
 *
 * Name:	kill_excl
 *
 * Purpose:	Terminate this voice because a newer voice with the
 *		same exclusive class started.  A 'closed hihat' cutting
 *		off an 'open hihat' is the classic case.
 *
 * Description:	The voice is hurried into release with a very short
 *		release time, and its exclusive class is zeroed so it
 *		cannot be killed twice.  The -200 tc release was found
 *		through listening tests with hi-hat samples.
 *
 *----------------------------------------------------------------*/

func (v *Voice) kill_excl() {
	if !v.is_playing() {
		return
	}

	v.gen_set(GenExclusiveClass, 0.0)

	if v.volenv_section != EnvRelease {
		v.volenv_section = EnvRelease
		v.volenv_count = 0
		v.modenv_section = EnvRelease
		v.modenv_count = 0
	}

	v.gen_set(GenVolEnvRelease, -200.0)
	v.update_param(GenVolEnvRelease)
	v.gen_set(GenModEnvRelease, -200.0)
	v.update_param(GenModEnvRelease)
}

// voice_start runs the voice after all zone generators and modulators
// have been applied.  The initial phase is set on the first DSP block,
// not here, because it depends on modulator output.
func (v *Voice) voice_start(channel *Channel) {
	v.calculate_runtime_synthesis_parameters(channel)
	v.check_sample_sanity_flag = sanityStartup
	v.status = VoiceOn
}

func (v *Voice) noteoff(channel *Channel, min_note_length_ticks uint) {
	if min_note_length_ticks > v.ticks {
		/* Delay the noteoff until the note has had its minimum length. */
		v.noteoff_ticks = min_note_length_ticks
		return
	}

	if channel.cc(ccSustainSwitch) >= 64 {
		v.status = VoiceSustained
		return
	}

	if v.volenv_section == EnvAttack && v.volenv_val > 0.0 {
		/* The attack section ramps up linearly while the other
		 * sections use logarithmic scaling.  Convert the current
		 * amplitude into an equivalent release-phase envelope value
		 * so the volume does not jump. */
		lfo := v.modlfo_val * -v.modlfo_to_vol
		amp := v.volenv_val * float32(math.Pow(10.0, float64(lfo)/-200.0))
		env_value := -((-200.0*float32(math.Log10(float64(amp))) - lfo) / 960.0 - 1.0)
		if env_value < 0.0 {
			env_value = 0.0
		} else if env_value > 1.0 {
			env_value = 1.0
		}
		v.volenv_val = env_value
	}
	v.volenv_section = EnvRelease
	v.volenv_count = 0
	v.modenv_section = EnvRelease
	v.modenv_count = 0
}

/*------------------------------------------------------------------
 *
 * Name:	modulate
 *
 * Purpose:	A controller value changed; recompute the generators
 *		fed by modulators that listen to it.
 *
 * Inputs:	is_cc	- true when ctrl is a MIDI CC number, false
 *			  when it is a general source id.
 *
 *----------------------------------------------------------------*/

func (v *Voice) modulate(channel *Channel, is_cc bool, ctrl uint8) {
	for i := 0; i < v.mod_count; i++ {
		if !v.mods[i].has_source(is_cc, ctrl) {
			continue
		}
		dest := v.mods[i].Dest
		var modval float32
		for k := 0; k < v.mod_count; k++ {
			if v.mods[k].Dest == dest {
				modval += v.mods[k].value(channel, v)
			}
		}
		v.gen[dest].Mod = float64(modval)
		v.update_param(dest)
	}
}

// modulate_all recomputes every modulated generator (used after CC 121).
func (v *Voice) modulate_all(channel *Channel) {
	for i := 0; i < v.mod_count; i++ {
		dest := v.mods[i].Dest
		var modval float32
		for k := 0; k < v.mod_count; k++ {
			if v.mods[k].Dest == dest {
				modval += v.mods[k].value(channel, v)
			}
		}
		v.gen[dest].Mod = float64(modval)
		v.update_param(dest)
	}
}

// off turns the voice off immediately; it will not be processed again.
func (v *Voice) off() {
	v.channel_id = 0xff
	v.volenv_section = EnvFinished
	v.volenv_count = 0
	v.modenv_section = EnvFinished
	v.modenv_count = 0
	v.status = VoiceOff
}

// set_param applies an NRPN driven generator change in real time.
func (v *Voice) set_param(g GenType, nrpn_value float32, abs bool) {
	v.gen[g].Nrpn = float64(nrpn_value)
	if abs {
		v.gen[g].Flags = genAbsNrpn
	} else {
		v.gen[g].Flags = genSet
	}
	v.update_param(g)
}

// set_gain updates the cached output amplitudes after a synth gain
// change.
func (v *Voice) set_gain(gain float32) {
	if gain < 0.0000001 {
		gain = 0.0000001
	}
	v.synth_gain = gain
	v.amp_left = pan(v.pan_val, true) * gain / 32768.0
	v.amp_right = pan(v.pan_val, false) * gain / 32768.0
	v.amp_reverb = v.reverb_send * gain / 32768.0
	v.amp_chorus = v.chorus_send * gain / 32768.0
}

/*------------------------------------------------------------------
 *
 * Name:	get_lower_boundary_for_attenuation
 *
 * Purpose:	Compute a lower bound for the attenuation this voice
 *		can ever reach, considering every modulator that feeds
 *		the attenuation generator.  Used by the noise floor
 *		turn-off optimization: the attenuation now and in the
 *		future cannot fall below this many centibels.
 *
 *----------------------------------------------------------------*/

func (v *Voice) get_lower_boundary_for_attenuation(channel *Channel) float32 {
	var possible_att_reduction_cb float32

	for i := 0; i < v.mod_count; i++ {
		m := &v.mods[i]
		if m.Dest != GenAttenuation || (!m.Src1.CC && !m.Src2.CC) {
			continue
		}
		current_val := m.value(channel, v)
		val := float32(math.Abs(m.Amount))

		if (m.Src1.Index == ModSrcPitchWheel && !m.Src1.CC) ||
			m.Src1.Bipolar || m.Src2.Bipolar || m.Amount < 0.0 {
			/* This modulator can produce a negative contribution. */
			val *= -1.0
		} else {
			val = 0.0
		}

		if current_val > val {
			possible_att_reduction_cb += current_val - val
		}
	}

	lower_bound := v.attenuation - possible_att_reduction_cb
	if lower_bound < 0.0 {
		lower_bound = 0.0
	}
	return lower_bound
}

// Generators whose cached values must be computed when the voice
// starts.  The address offsets run first so the sample sanity check
// sees their final values.
var runtime_gen_list = [...]GenType{
	GenStartAddrOfs, GenEndAddrOfs, GenStartLoopAddrOfs, GenEndLoopAddrOfs,
	GenModLfoToPitch, GenVibLfoToPitch, GenModEnvToPitch,
	GenFilterFc, GenFilterQ, GenModLfoToFilterFc, GenModEnvToFilterFc,
	GenModLfoToVol, GenChorusSend, GenReverbSend, GenPan,
	GenModLfoDelay, GenModLfoFreq, GenVibLfoDelay, GenVibLfoFreq,
	GenModEnvDelay, GenModEnvAttack, GenModEnvHold, GenModEnvDecay, GenModEnvRelease,
	GenVolEnvDelay, GenVolEnvAttack, GenVolEnvHold, GenVolEnvDecay, GenVolEnvRelease,
	GenKeyNum, GenVelocity, GenAttenuation, GenOverrideRootKey, GenPitch,
}

func (v *Voice) calculate_runtime_synthesis_parameters(channel *Channel) {
	// Run all modulators once and accumulate their output.
	for i := 0; i < v.mod_count; i++ {
		m := &v.mods[i]
		v.gen[m.Dest].Mod += float64(m.value(channel, v))
	}

	// The pitch generator: key position on the scale, in cents.
	if tuning := channel.tuning; tuning != nil {
		v.gen[GenPitch].Val = tuning.pitch[60] +
			v.gen[GenScaleTune].Val/100.0*(tuning.pitch[v.key]-tuning.pitch[60])
	} else {
		v.gen[GenPitch].Val = v.gen[GenScaleTune].Val*float64(float32(v.key)-60.0) +
			100.0*60.0
	}

	for _, g := range runtime_gen_list {
		v.update_param(g)
	}

	v.min_attenuation_cb = v.get_lower_boundary_for_attenuation(channel)
}

func (v *Voice) looping() bool {
	mode := int(v.gen[GenSampleMode].Val)
	return mode == loopDuringRelease ||
		(mode == loopUntilRelease && v.volenv_section < EnvRelease)
}

/*------------------------------------------------------------------
 *
 * Name:	check_sample_sanity
 *
 * Purpose:	Force the sample start / end and loop points into a
 *		proper order inside the sample span, and set the
 *		initial phase on voice startup.
 *
 * Description:	Modulators may move the points through illegal
 *		intermediate states while the voice is being set up, so
 *		this check runs from the DSP loop, not from
 *		update_param.
 *
 *----------------------------------------------------------------*/

func (v *Voice) check_sample_sanity() {
	if v.check_sample_sanity_flag == 0 {
		return
	}

	min_index_nonloop := int32(v.sample.Start)
	max_index_nonloop := int32(v.sample.End)

	min_index_loop := int32(v.sample.Start)
	/* End is the last valid sample; loopend may be one past it. */
	max_index_loop := int32(v.sample.End) + 1

	if v.start < min_index_nonloop {
		v.start = min_index_nonloop
	} else if v.start > max_index_nonloop {
		v.start = max_index_nonloop
	}
	if v.end < min_index_nonloop {
		v.end = min_index_nonloop
	} else if v.end > max_index_nonloop {
		v.end = max_index_nonloop
	}

	if v.start > v.end {
		v.start, v.end = v.end, v.start
	}
	if v.start == v.end {
		v.off()
		return
	}

	mode := int(v.gen[GenSampleMode].Val)
	if mode == loopUntilRelease || mode == loopDuringRelease {
		if v.loopstart < min_index_loop {
			v.loopstart = min_index_loop
		} else if v.loopstart > max_index_loop {
			v.loopstart = max_index_loop
		}
		if v.loopend < min_index_loop {
			v.loopend = min_index_loop
		} else if v.loopend > max_index_loop {
			v.loopend = max_index_loop
		}

		if v.loopstart > v.loopend {
			v.loopstart, v.loopend = v.loopend, v.loopstart
		}

		/* Loop too short?  Then don't loop. */
		if v.loopend < v.loopstart+2 {
			v.gen[GenSampleMode].Val = loopNone
		}

		/* The loop points may have moved; refresh the loop volume
		 * estimate when the voice loop sits inside the sample loop. */
		if v.loopstart >= int32(v.sample.LoopStart) && v.loopend <= int32(v.sample.LoopEnd) {
			if v.sample.amplitude_valid {
				v.amp_reaches_noise_floor_loop =
					float32(v.sample.amplitude_that_reaches_noise_floor / float64(v.synth_gain))
			} else {
				v.amp_reaches_noise_floor_loop = v.amp_reaches_noise_floor_nonloop
			}
		}
	}

	if v.check_sample_sanity_flag&sanityStartup != 0 {
		if max_index_loop-min_index_loop < 2 {
			mode := int(v.gen[GenSampleMode].Val)
			if mode == loopUntilRelease || mode == loopDuringRelease {
				v.gen[GenSampleMode].Val = loopNone
			}
		}
		/* Set the initial phase, using the result of the start
		 * offset modulators. */
		v.phase = uint64(v.start) << 32
	}

	if v.looping() {
		/* The loop end may have moved behind the playback pointer;
		 * the DSP loop cannot cope with that, so wrap the phase
		 * back to the loop start.  Some noise is unavoidable. */
		index_in_sample := int32(v.phase >> 32)
		if index_in_sample >= v.loopend {
			v.phase = uint64(v.loopstart) << 32
		}
	}

	v.check_sample_sanity_flag = 0
}

// calculate_hold_decay_buffers converts an envelope hold or decay time
// (with its key scaling partner generator) into a number of 64 sample
// blocks.
func (v *Voice) calculate_hold_decay_buffers(gen_base, gen_key2base GenType, is_decay bool) int32 {
	timecents := float64(v.gen_sum(gen_base)) +
		float64(v.gen_sum(gen_key2base))*(60.0-float64(v.key))

	if is_decay {
		if timecents > 8000.0 {
			timecents = 8000.0
		}
	} else {
		if timecents > 5000.0 {
			timecents = 5000.0
		}
		if timecents <= -32768.0 {
			return 0
		}
	}
	if timecents < -12000.0 {
		timecents = -12000.0
	}

	seconds := tc2sec(float32(timecents))
	return int32(float64(v.output_rate)*float64(seconds)/64.0 + 0.5)
}

/*------------------------------------------------------------------
 *
 * Name:	update_param
 *
 * Purpose:	The value of a generator changed (during voice setup,
 *		or at runtime through a modulator or NRPN); recompute
 *		the dependent cached voice parameters.
 *
 *----------------------------------------------------------------*/

func (v *Voice) update_param(g GenType) {
	switch g {
	case GenPan:
		// Range checking happens inside the pan curve.
		v.pan_val = v.gen_sum(GenPan)
		v.amp_left = pan(v.pan_val, true) * v.synth_gain / 32768.0
		v.amp_right = pan(v.pan_val, false) * v.synth_gain / 32768.0

	case GenAttenuation:
		/* EMU10K1 cards scale the attenuation set at preset or
		 * instrument level by 0.4; sound fonts are written against
		 * that behavior. */
		const altAttenuationScale = 0.4

		v.attenuation = float32(v.gen[GenAttenuation].Val*altAttenuationScale +
			v.gen[GenAttenuation].Mod + v.gen[GenAttenuation].Nrpn)

		/* Range per SF2.01 section 8.1.3 #48.  OHPiano.SF2 sets
		 * initial attenuation to a whopping -96 dB. */
		if v.attenuation < 0.0 {
			v.attenuation = 0.0
		} else if v.attenuation > 1440.0 {
			v.attenuation = 1440.0
		}

	case GenPitch, GenCoarseTune, GenFineTune:
		// Range testing happens in ct2hz.
		v.pitch = v.gen_sum(GenPitch) +
			100.0*v.gen_sum(GenCoarseTune) +
			v.gen_sum(GenFineTune)

	case GenReverbSend:
		// The generator unit is tenths of a percent.
		v.reverb_send = v.gen_sum(GenReverbSend) / 1000.0
		if v.reverb_send < 0.0 {
			v.reverb_send = 0.0
		} else if v.reverb_send > 1.0 {
			v.reverb_send = 1.0
		}
		v.amp_reverb = v.reverb_send * v.synth_gain / 32768.0

	case GenChorusSend:
		v.chorus_send = v.gen_sum(GenChorusSend) / 1000.0
		if v.chorus_send < 0.0 {
			v.chorus_send = 0.0
		} else if v.chorus_send > 1.0 {
			v.chorus_send = 1.0
		}
		v.amp_chorus = v.chorus_send * v.synth_gain / 32768.0

	case GenOverrideRootKey:
		/* OrigPitch sets the MIDI root note while PitchAdj is a fine
		 * tuning amount that offsets the original rate, so it is
		 * subtracted, not added.  Non-realtime: the Mod part is
		 * ignored; the default -1 marks the generator unset. */
		if v.gen[GenOverrideRootKey].Val > -1.0 {
			v.root_pitch = float32(v.gen[GenOverrideRootKey].Val*100.0 -
				float64(v.sample.PitchAdj))
		} else {
			v.root_pitch = float32(v.sample.OrigPitch)*100.0 - float32(v.sample.PitchAdj)
		}
		v.root_pitch = ct2hz(v.root_pitch)
		v.root_pitch *= v.output_rate / float32(v.sample.SampleRate)

	case GenFilterFc:
		// Absolute cents; range testing happens in ct2hz.
		v.fres = v.gen_sum(GenFilterFc)
		v.last_fres = -1.0 // force a coefficient recalculation

	case GenFilterQ:
		q_db := v.gen_sum(GenFilterQ) / 10.0
		if q_db < 0.0 {
			q_db = 0.0
		} else if q_db > 96.0 {
			q_db = 96.0
		}
		/* SF2.01 page 39 item 9: a Q of 0 dB means no resonance
		 * hump, which is a linear Q of 1/sqrt(2), 3 dB down at fc. */
		q_db -= 3.01
		v.q_lin = float32(math.Pow(10.0, float64(q_db)/20.0))
		/* SF2.01 page 59: reduce the gain by half the height of the
		 * resonance peak. */
		v.filter_gain = float32(1.0 / math.Sqrt(float64(v.q_lin)))
		v.last_fres = -1.0

	case GenModLfoToPitch:
		v.modlfo_to_pitch = clampf(v.gen_sum(GenModLfoToPitch), -12000.0, 12000.0)

	case GenModLfoToVol:
		v.modlfo_to_vol = clampf(v.gen_sum(GenModLfoToVol), -960.0, 960.0)

	case GenModLfoToFilterFc:
		v.modlfo_to_fc = clampf(v.gen_sum(GenModLfoToFilterFc), -12000.0, 12000.0)

	case GenModLfoDelay:
		val := clampf(v.gen_sum(GenModLfoDelay), -12000.0, 5000.0)
		v.modlfo_delay = uint(v.output_rate * tc2sec_delay(val))

	case GenModLfoFreq:
		/* The frequency becomes a delta per 64 sample block: a full
		 * triangle period covers 4 units of LFO value. */
		val := clampf(v.gen_sum(GenModLfoFreq), -16000.0, 4500.0)
		v.modlfo_incr = 4.0 * 64.0 * act2hz(val) / v.output_rate

	case GenVibLfoFreq:
		val := clampf(v.gen_sum(GenVibLfoFreq), -16000.0, 4500.0)
		v.viblfo_incr = 4.0 * 64.0 * act2hz(val) / v.output_rate

	case GenVibLfoDelay:
		val := clampf(v.gen_sum(GenVibLfoDelay), -12000.0, 5000.0)
		v.viblfo_delay = uint(v.output_rate * tc2sec_delay(val))

	case GenVibLfoToPitch:
		v.viblfo_to_pitch = clampf(v.gen_sum(GenVibLfoToPitch), -12000.0, 12000.0)

	case GenKeyNum:
		/* SF2.01 page 46 item 46: a set value forces the key number.
		 * Non-realtime; the default -1 marks it unset. */
		if val := v.gen_sum(GenKeyNum); val >= 0.0 {
			v.key = uint8(val)
		}

	case GenVelocity:
		if val := v.gen_sum(GenVelocity); val > 0.0 {
			v.vel = uint8(val)
		}

	case GenModEnvToPitch:
		v.modenv_to_pitch = clampf(v.gen_sum(GenModEnvToPitch), -12000.0, 12000.0)

	case GenModEnvToFilterFc:
		v.modenv_to_fc = clampf(v.gen_sum(GenModEnvToFilterFc), -12000.0, 12000.0)

	/* Sample start, end and loop points.  Range checking goes through
	 * the sample sanity flag: during voice setup the points may pass
	 * through illegal intermediate states. */
	case GenStartAddrOfs, GenStartAddrCoarseOfs:
		v.start = int32(v.sample.Start) + int32(v.gen_sum(GenStartAddrOfs)) +
			32768*int32(v.gen_sum(GenStartAddrCoarseOfs))
		v.check_sample_sanity_flag |= sanityCheck

	case GenEndAddrOfs, GenEndAddrCoarseOfs:
		v.end = int32(v.sample.End) + int32(v.gen_sum(GenEndAddrOfs)) +
			32768*int32(v.gen_sum(GenEndAddrCoarseOfs))
		v.check_sample_sanity_flag |= sanityCheck

	case GenStartLoopAddrOfs, GenStartLoopAddrCoarseOfs:
		v.loopstart = int32(v.sample.LoopStart) + int32(v.gen_sum(GenStartLoopAddrOfs)) +
			32768*int32(v.gen_sum(GenStartLoopAddrCoarseOfs))
		v.check_sample_sanity_flag |= sanityCheck

	case GenEndLoopAddrOfs, GenEndLoopAddrCoarseOfs:
		v.loopend = int32(v.sample.LoopEnd) + int32(v.gen_sum(GenEndLoopAddrOfs)) +
			32768*int32(v.gen_sum(GenEndLoopAddrCoarseOfs))
		v.check_sample_sanity_flag |= sanityCheck

	/* Volume envelope: delay and hold become block counts, sustain an
	 * absolute level, attack/decay/release an increment per block. */
	case GenVolEnvDelay:
		val := clampf(v.gen_sum(GenVolEnvDelay), -12000.0, 5000.0)
		count := uint32(v.output_rate * tc2sec_delay(val) / 64.0)
		v.volenv_data[EnvDelay] = envPortion{count: count, coeff: 0.0, incr: 0.0, min: -1.0, max: 1.0}

	case GenVolEnvAttack:
		val := clampf(v.gen_sum(GenVolEnvAttack), -12000.0, 8000.0)
		count := 1 + uint32(v.output_rate*tc2sec_attack(val)/64.0)
		v.volenv_data[EnvAttack] = envPortion{count: count, coeff: 1.0, incr: env_incr(count, 1.0), min: -1.0, max: 1.0}

	case GenVolEnvHold, GenKeyToVolEnvHold:
		count := uint32(v.calculate_hold_decay_buffers(GenVolEnvHold, GenKeyToVolEnvHold, false))
		v.volenv_data[EnvHold] = envPortion{count: count, coeff: 1.0, incr: 0.0, min: -1.0, max: 2.0}

	case GenVolEnvDecay, GenVolEnvSustain, GenKeyToVolEnvDecay:
		y := clampf(1.0-0.001*v.gen_sum(GenVolEnvSustain), 0.0, 1.0)
		count := uint32(v.calculate_hold_decay_buffers(GenVolEnvDecay, GenKeyToVolEnvDecay, true))
		v.volenv_data[EnvDecay] = envPortion{count: count, coeff: 1.0, incr: env_incr(count, -1.0), min: y, max: 2.0}

	case GenVolEnvRelease:
		val := clampf(v.gen_sum(GenVolEnvRelease), -7200.0, 8000.0)
		count := 1 + uint32(v.output_rate*tc2sec_release(val)/64.0)
		v.volenv_data[EnvRelease] = envPortion{count: count, coeff: 1.0, incr: env_incr(count, -1.0), min: 0.0, max: 1.0}

	/* Modulation envelope. */
	case GenModEnvDelay:
		val := clampf(v.gen_sum(GenModEnvDelay), -12000.0, 5000.0)
		count := uint32(v.output_rate * tc2sec_delay(val) / 64.0)
		v.modenv_data[EnvDelay] = envPortion{count: count, coeff: 0.0, incr: 0.0, min: -1.0, max: 1.0}

	case GenModEnvAttack:
		val := clampf(v.gen_sum(GenModEnvAttack), -12000.0, 8000.0)
		count := 1 + uint32(v.output_rate*tc2sec_attack(val)/64.0)
		v.modenv_data[EnvAttack] = envPortion{count: count, coeff: 1.0, incr: env_incr(count, 1.0), min: -1.0, max: 1.0}

	case GenModEnvHold, GenKeyToModEnvHold:
		count := uint32(v.calculate_hold_decay_buffers(GenModEnvHold, GenKeyToModEnvHold, false))
		v.modenv_data[EnvHold] = envPortion{count: count, coeff: 1.0, incr: 0.0, min: -1.0, max: 2.0}

	case GenModEnvDecay, GenModEnvSustain, GenKeyToModEnvDecay:
		count := uint32(v.calculate_hold_decay_buffers(GenModEnvDecay, GenKeyToModEnvDecay, true))
		y := clampf(1.0-0.001*v.gen_sum(GenModEnvSustain), 0.0, 1.0)
		v.modenv_data[EnvDecay] = envPortion{count: count, coeff: 1.0, incr: env_incr(count, -1.0), min: y, max: 2.0}

	case GenModEnvRelease:
		val := clampf(v.gen_sum(GenModEnvRelease), -12000.0, 8000.0)
		count := 1 + uint32(v.output_rate*tc2sec_release(val)/64.0)
		v.modenv_data[EnvRelease] = envPortion{count: count, coeff: 1.0, incr: env_incr(count, -1.0), min: 0.0, max: 2.0}
	}
}

func env_incr(count uint32, span float32) float32 {
	if count == 0 {
		return 0.0
	}
	return span / float32(count)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
