package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The synthesizer top: owns the channel pool, the voice
 *		pool, the font bank and the two effect units, and
 *		drives synthesis one 64 sample block at a time.
 *
 * Description:	The Synth is single threaded.  The audio host calls
 *		ReadNext (or a batched Write variant) from its callback
 *		and delivers MIDI events in between; events take effect
 *		from the next block boundary.  No allocation happens in
 *		the audio path once the voice pool has grown to its
 *		polyphony limit.
 *
 *----------------------------------------------------------------*/

import "fmt"

// SynthDescriptor carries the construction options.
type SynthDescriptor struct {
	SampleRate float32 // 8000..96000
	Gain       float32 // >= 0
	Polyphony  uint16  // voice limit, typically 64..512
	Channels   uint8   // MIDI channels, at least 1, typically 16

	AudioGroups     uint8 // dry stereo bus pairs, at least 1
	AudioChannels   uint8
	EffectsChannels uint8

	ReverbActive       bool
	ChorusActive       bool
	DrumsChannelActive bool // lock channel 9 to bank 128

	MinNoteLengthMs uint16

	InterpolationMethod InterpMethod
}

// DefaultSynthDescriptor returns the power-on settings.  NewSynth takes
// SampleRate, Polyphony, Channels, AudioGroups and MinNoteLengthMs from
// it when they are left zero; the other fields are used as given.
func DefaultSynthDescriptor() SynthDescriptor {
	return SynthDescriptor{
		SampleRate:          44100.0,
		Gain:                0.2,
		Polyphony:           256,
		Channels:            16,
		AudioGroups:         1,
		AudioChannels:       1,
		EffectsChannels:     2,
		ReverbActive:        true,
		ChorusActive:        true,
		DrumsChannelActive:  true,
		MinNoteLengthMs:     10,
		InterpolationMethod: InterpFourthOrder,
	}
}

// Synth is a complete SoundFont synthesizer.
type Synth struct {
	ticks uint

	font_bank *fontBank
	channels  []*Channel
	voices    *VoicePool
	reverb    *Reverb
	chorus    *Chorus
	tunings   *tuningTable

	sample_rate  float32
	gain         float32
	polyphony    int
	audio_groups int

	reverb_active        bool
	chorus_active        bool
	drums_channel_active bool

	min_note_length_ms    uint16
	min_note_length_ticks uint

	left_buf  [][blockSize]float32
	right_buf [][blockSize]float32

	fx_reverb_buf [blockSize]float32
	fx_chorus_buf [blockSize]float32

	// Read cursor into the current block; blockSize means empty.
	cur int
}

/*------------------------------------------------------------------
 *
 * Name:	NewSynth
 *
 * Purpose:	Build a synthesizer from a descriptor.  Out of range
 *		options are rejected; a zero SampleRate, Polyphony,
 *		Channels, AudioGroups or MinNoteLengthMs takes its
 *		default.  Gain and the flags are used as given.
 *
 *----------------------------------------------------------------*/

func NewSynth(desc SynthDescriptor) (*Synth, error) {
	def := DefaultSynthDescriptor()
	if desc.SampleRate == 0 {
		desc.SampleRate = def.SampleRate
	}
	if desc.Polyphony == 0 {
		desc.Polyphony = def.Polyphony
	}
	if desc.Channels == 0 {
		desc.Channels = def.Channels
	}
	if desc.AudioGroups == 0 {
		desc.AudioGroups = def.AudioGroups
	}
	if desc.MinNoteLengthMs == 0 {
		desc.MinNoteLengthMs = def.MinNoteLengthMs
	}

	if desc.SampleRate < 8000.0 || desc.SampleRate > 96000.0 {
		return nil, fmt.Errorf("sample rate %v out of range (8000..96000)", desc.SampleRate)
	}
	if desc.Gain < 0.0 {
		return nil, fmt.Errorf("gain %v out of range (>= 0)", desc.Gain)
	}

	s := &Synth{
		font_bank: new_font_bank(),
		voices:    new_voice_pool(int(desc.Polyphony), desc.SampleRate),
		reverb:    new_reverb(desc.ReverbActive),
		chorus:    new_chorus(desc.SampleRate),
		tunings:   new_tuning_table(),

		sample_rate:  desc.SampleRate,
		gain:         desc.Gain,
		polyphony:    int(desc.Polyphony),
		audio_groups: int(desc.AudioGroups),

		reverb_active:        desc.ReverbActive,
		chorus_active:        desc.ChorusActive,
		drums_channel_active: desc.DrumsChannelActive,

		min_note_length_ms: desc.MinNoteLengthMs,

		cur: blockSize,
	}
	s.min_note_length_ticks = uint(float32(desc.MinNoteLengthMs) * desc.SampleRate / 1000.0)

	s.channels = make([]*Channel, desc.Channels)
	for i := range s.channels {
		ch := new_channel(i)
		ch.interp_method = desc.InterpolationMethod
		s.channels[i] = ch
	}

	s.left_buf = make([][blockSize]float32, s.audio_groups)
	s.right_buf = make([][blockSize]float32, s.audio_groups)

	return s, nil
}

func (s *Synth) channel(id uint8) (*Channel, error) {
	if int(id) >= len(s.channels) {
		return nil, ErrChannelOutOfRange
	}
	return s.channels[id], nil
}

/*------------------------------------------------------------------
 *
 * Name:	SendEvent
 *
 * Purpose:	Apply one MIDI event.  Invalid parameters are rejected
 *		without touching any state; routing failures (no
 *		preset, bad channel) are reported the same way.
 *
 *----------------------------------------------------------------*/

func (s *Synth) SendEvent(ev MidiEvent) error {
	if err := ev.check(); err != nil {
		return err
	}

	switch e := ev.(type) {
	case NoteOn:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		return noteon(ch, s.voices, s.ticks, s.min_note_length_ticks, s.gain, e.Key, e.Vel)

	case NoteOff:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		s.voices.noteoff(ch, s.min_note_length_ticks, e.Key)

	case ControlChange:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		cc(ch, s.voices, s.min_note_length_ticks, s.drums_channel_active, e.Ctrl, e.Value)

	case AllNotesOff:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		s.voices.all_notes_off(ch, s.min_note_length_ticks)

	case AllSoundOff:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		s.voices.all_sounds_off(ch.id)

	case PitchBend:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		ch.pitch_bend = e.Value
		s.voices.modulate_voices(ch, false, ModSrcPitchWheel)

	case ProgramChange:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		program_change(ch, s.font_bank, e.Program, s.drums_channel_active)

	case ChannelPressure:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		ch.channel_pressure = e.Value
		s.voices.modulate_voices(ch, false, ModSrcChannelPressure)

	case PolyphonicKeyPressure:
		ch, err := s.channel(e.Channel)
		if err != nil {
			return err
		}
		ch.key_pressure[e.Key] = int8(e.Value)
		s.voices.key_pressure(ch, e.Key)

	case SystemReset:
		s.SystemReset()
	}

	return nil
}

// SystemReset turns all voices off, resets every channel and clears
// the effect units.  It never fails.
func (s *Synth) SystemReset() {
	s.voices.system_reset()
	for _, ch := range s.channels {
		ch.reset(nil)
	}
	s.program_reset()
	s.chorus.reset()
	s.reverb.reset()
}

// program_reset re-runs the preset lookup for every channel with its
// current bank and program numbers.
func (s *Synth) program_reset() {
	for _, ch := range s.channels {
		program_change(ch, s.font_bank, ch.prognum, s.drums_channel_active)
	}
}

// update_presets refreshes each channel's preset pointer against the
// current font stack without changing bank or program numbers.
func (s *Synth) update_presets() {
	for _, ch := range s.channels {
		if !ch.has_font {
			continue
		}
		preset := s.font_bank.preset(ch.sfont_id, ch.banknum, uint32(ch.prognum))
		ch.preset = preset
		ch.has_font = preset != nil
	}
}

/*------------------------------------------------------------------
 *
 * Name:	one_block
 *
 * Purpose:	Produce the next 64 sample block: run every playing
 *		voice into the dry and send buses, then mix the effect
 *		units into the first dry bus pair.
 *
 *----------------------------------------------------------------*/

func (s *Synth) one_block() {
	for g := 0; g < s.audio_groups; g++ {
		s.left_buf[g] = [blockSize]float32{}
		s.right_buf[g] = [blockSize]float32{}
	}
	s.fx_reverb_buf = [blockSize]float32{}
	s.fx_chorus_buf = [blockSize]float32{}

	s.voices.write_voices(s.channels,
		s.min_note_length_ticks, s.audio_groups,
		s.left_buf, s.right_buf,
		&s.fx_reverb_buf, &s.fx_chorus_buf,
		s.reverb_active, s.chorus_active)

	if s.reverb_active {
		s.reverb.process_mix(&s.fx_reverb_buf, &s.left_buf[0], &s.right_buf[0])
	}
	if s.chorus_active {
		s.chorus.process_mix(&s.fx_chorus_buf, &s.left_buf[0], &s.right_buf[0])
	}

	s.ticks += blockSize
}

// ReadNext pulls one stereo frame, synthesizing a fresh block when the
// previous one has been consumed.
func (s *Synth) ReadNext() (float32, float32) {
	if s.cur >= blockSize {
		s.one_block()
		s.cur = 0
	}
	l := s.left_buf[0][s.cur]
	r := s.right_buf[0][s.cur]
	s.cur++
	return l, r
}

// WriteF32 fills two strided float32 buffers.  For interleaved stereo
// let both slices share a backing array and use strides of 2:
//
//	synth.WriteF32(samples, samples[1:], 2, 2)
func (s *Synth) WriteF32(left, right []float32, lstride, rstride int) {
	nframes := (len(left) + lstride - 1) / lstride
	if r := (len(right) + rstride - 1) / rstride; r < nframes {
		nframes = r
	}
	for i := 0; i < nframes; i++ {
		l, r := s.ReadNext()
		left[i*lstride] = l
		right[i*rstride] = r
	}
}

// WriteS16 is WriteF32 for signed 16-bit samples.
func (s *Synth) WriteS16(left, right []int16, lstride, rstride int) {
	nframes := (len(left) + lstride - 1) / lstride
	if r := (len(right) + rstride - 1) / rstride; r < nframes {
		nframes = r
	}
	for i := 0; i < nframes; i++ {
		l, r := s.ReadNext()
		left[i*lstride] = clamp_s16(l)
		right[i*rstride] = clamp_s16(r)
	}
}

func clamp_s16(v float32) int16 {
	v *= 32768.0
	if v < -32768.0 {
		return -32768
	}
	if v > 32767.0 {
		return 32767
	}
	return int16(v)
}

/*------------------------------------------------------------------
 *
 * Font management.
 *
 *----------------------------------------------------------------*/

// AddFont puts a SoundFont on top of the stack.  With reset_presets
// every channel re-runs its preset lookup against the new stack.
func (s *Synth) AddFont(font *SoundFont, reset_presets bool) FontID {
	id := s.font_bank.add_font(font)
	if reset_presets {
		s.program_reset()
	}
	return id
}

// RemoveFont takes a font off the stack and returns it.
func (s *Synth) RemoveFont(id FontID, reset_presets bool) (*SoundFont, error) {
	font := s.font_bank.remove_font(id)
	if font == nil {
		diag.Errorf("no SoundFont with id %d", id)
		return nil, ErrFontNotFound
	}
	if reset_presets {
		s.program_reset()
	} else {
		s.update_presets()
	}
	return font, nil
}

// SoundFontCount returns the number of loaded fonts.
func (s *Synth) SoundFontCount() int {
	return s.font_bank.count()
}

// NthSoundFont returns a font by stack position; 0 is the top.
func (s *Synth) NthSoundFont(num int) *SoundFont {
	return s.font_bank.nth_font(num)
}

// SoundFont returns a font by id.
func (s *Synth) SoundFont(id FontID) *SoundFont {
	return s.font_bank.font(id)
}

// SetBankOffset offsets the bank numbers of one font.
func (s *Synth) SetBankOffset(id FontID, offset uint32) {
	s.font_bank.set_bank_offset(id, offset)
}

// BankOffset returns the bank offset of one font.
func (s *Synth) BankOffset(id FontID) uint32 {
	return s.font_bank.bank_offset(id)
}

// ChannelPreset returns the preset selected on a channel, or nil.
func (s *Synth) ChannelPreset(channel uint8) *Preset {
	ch, err := s.channel(channel)
	if err != nil {
		diag.Warnf("channel out of range")
		return nil
	}
	return ch.preset
}

/*------------------------------------------------------------------
 *
 * Runtime settings.
 *
 *----------------------------------------------------------------*/

// SetSampleRate changes the output rate.  All voices stop; the chorus
// unit is rebuilt for the new rate (the reverb tunings are fixed).
func (s *Synth) SetSampleRate(sample_rate float32) {
	s.sample_rate = sample_rate
	s.min_note_length_ticks = uint(float32(s.min_note_length_ms) * sample_rate / 1000.0)
	s.voices.set_sample_rate(sample_rate)
	s.chorus = new_chorus(sample_rate)
}

// SampleRate returns the output rate.
func (s *Synth) SampleRate() float32 { return s.sample_rate }

// SetGain sets the master gain.  Values below 1e-7 are clamped up to
// avoid a division by zero in the voice amplitude path.
func (s *Synth) SetGain(gain float32) {
	if gain < 0.0000001 {
		gain = 0.0000001
	}
	s.gain = gain
	s.voices.set_gain(gain)
}

// Gain returns the master gain.
func (s *Synth) Gain() float32 { return s.gain }

// SetPolyphony changes the voice limit; excess voices stop playing.
func (s *Synth) SetPolyphony(polyphony uint16) {
	s.polyphony = int(polyphony)
	s.voices.set_polyphony_limit(int(polyphony))
}

// Polyphony returns the voice limit.
func (s *Synth) Polyphony() int { return s.polyphony }

// SetReverbParams applies reverb settings.
func (s *Synth) SetReverbParams(p ReverbParams) {
	s.reverb.set_params(p)
}

// ReverbParams returns the active reverb settings.
func (s *Synth) ReverbParams() ReverbParams {
	return s.reverb.params()
}

// SetReverbActive switches the reverb unit on or off.
func (s *Synth) SetReverbActive(on bool) { s.reverb_active = on }

// SetChorusParams applies chorus settings, clamped to the documented
// ranges.
func (s *Synth) SetChorusParams(p ChorusParams) {
	s.chorus.set_params(p)
}

// ChorusParams returns the active chorus settings.
func (s *Synth) ChorusParams() ChorusParams {
	return s.chorus.params()
}

// SetChorusActive switches the chorus unit on or off.
func (s *Synth) SetChorusActive(on bool) { s.chorus_active = on }

// SetInterpMethod selects the resampler for one channel, or for every
// channel when chan_id is negative.  Running voices keep their method;
// new voices pick up the change.
func (s *Synth) SetInterpMethod(chan_id int, method InterpMethod) error {
	if chan_id < 0 {
		for _, ch := range s.channels {
			ch.interp_method = method
		}
		return nil
	}
	if chan_id >= len(s.channels) {
		return ErrChannelOutOfRange
	}
	s.channels[chan_id].interp_method = method
	return nil
}

/*------------------------------------------------------------------
 *
 * Generator access.
 *
 *----------------------------------------------------------------*/

// SetGen changes a synthesis parameter on a channel in real time, like
// an NRPN message: the value adds to the existing parameter on every
// running and future voice of the channel.
func (s *Synth) SetGen(channel uint8, param GenType, value float32) error {
	ch, err := s.channel(channel)
	if err != nil {
		return err
	}
	if param >= GenLast {
		return fmt.Errorf("generator %d out of range", param)
	}
	set_gen(ch, s.voices, param, value)
	return nil
}

// Gen returns the value staged by SetGen or an NRPN message.
func (s *Synth) Gen(channel uint8, param GenType) (float32, error) {
	ch, err := s.channel(channel)
	if err != nil {
		return 0, err
	}
	if param >= GenLast {
		return 0, fmt.Errorf("generator %d out of range", param)
	}
	return ch.gen[param], nil
}

/*------------------------------------------------------------------
 *
 * Tuning.
 *
 *----------------------------------------------------------------*/

// CreateKeyTuning creates (or replaces) a key tuning with a pitch in
// cents for each of the 128 keys.
func (s *Synth) CreateKeyTuning(bank, prog uint32, name string, pitch *[128]float64) error {
	if err := s.tunings.check(bank, prog); err != nil {
		return err
	}
	t := NewTuning(name, bank, prog)
	if pitch != nil {
		t.pitch = *pitch
	}
	s.tunings.set(t)
	return nil
}

// CreateOctaveTuning creates (or replaces) an octave tuning from 12
// derivations in cents from the well tempered scale.
func (s *Synth) CreateOctaveTuning(bank, prog uint32, name string, pitch *[12]float64) error {
	if err := s.tunings.check(bank, prog); err != nil {
		return err
	}
	t := NewTuning(name, bank, prog)
	t.SetOctave(pitch)
	s.tunings.set(t)
	return nil
}

// TuneNotes changes individual keys of a tuning, creating it first if
// needed.  Sounding notes keep their pitch; the change applies to
// newly triggered notes.
func (s *Synth) TuneNotes(bank, prog uint32, keys []uint8, pitches []float64) error {
	if err := s.tunings.check(bank, prog); err != nil {
		return err
	}
	t := s.tunings.get_or_create(bank, prog)
	for i, key := range keys {
		if i < len(pitches) {
			t.SetKey(key, pitches[i])
		}
	}
	return nil
}

// SelectTuning puts a channel on a tuning.
func (s *Synth) SelectTuning(channel uint8, bank, prog uint32) error {
	ch, err := s.channel(channel)
	if err != nil {
		return err
	}
	if err := s.tunings.check(bank, prog); err != nil {
		return err
	}
	t := s.tunings.get(bank, prog)
	if t == nil {
		return ErrTuningOutOfRange
	}
	ch.tuning = t
	return nil
}

// ResetTuning puts a channel back on the well tempered default.
func (s *Synth) ResetTuning(channel uint8) error {
	ch, err := s.channel(channel)
	if err != nil {
		return err
	}
	ch.tuning = nil
	return nil
}

// Tunings returns every defined tuning.
func (s *Synth) Tunings() []*Tuning {
	return s.tunings.all()
}

// TuningDump returns the name and pitch table of one tuning.
func (s *Synth) TuningDump(bank, prog uint32) (string, *[128]float64, error) {
	if err := s.tunings.check(bank, prog); err != nil {
		return "", nil, err
	}
	t := s.tunings.get(bank, prog)
	if t == nil {
		return "", nil, ErrTuningOutOfRange
	}
	return t.Name, &t.pitch, nil
}
