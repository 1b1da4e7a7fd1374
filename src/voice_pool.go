package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The voice pool: a fixed capacity array of synthesis
 *		voices with the allocation, stealing and exclusive
 *		class policies.
 *
 * Description:	The pool grows on demand up to the polyphony limit and
 *		then reuses slots; voices never move.  When every slot
 *		is busy the lowest priority voice is stolen: released
 *		and sustained voices go first, then the oldest and
 *		quietest notes.
 *
 *----------------------------------------------------------------*/

type voiceID int

// VoicePool owns every voice of a synth.
type VoicePool struct {
	voices         []*Voice
	sample_rate    float32
	polyphony_limit int

	noteid  uint
	storeid uint
}

func new_voice_pool(polyphony int, sample_rate float32) *VoicePool {
	return &VoicePool{
		voices:          make([]*Voice, 0, polyphony),
		sample_rate:     sample_rate,
		polyphony_limit: polyphony,
	}
}

// noteid_add hands out the note id for the next noteon event.  All
// voices started by one noteon share the id (stereo samples start two).
func (p *VoicePool) noteid_add() {
	p.storeid = p.noteid
	p.noteid++
}

func (p *VoicePool) set_sample_rate(sample_rate float32) {
	p.voices = p.voices[:0]
	p.sample_rate = sample_rate
}

// set_polyphony_limit drops any voices above the new limit.
func (p *VoicePool) set_polyphony_limit(polyphony int) {
	if polyphony < len(p.voices) {
		p.voices = p.voices[:polyphony]
	}
	p.polyphony_limit = polyphony
}

// set_gen pushes a SetGen / NRPN generator change into every voice of
// a channel.
func (p *VoicePool) set_gen(chan_id int, param GenType, value float32) {
	for _, v := range p.voices {
		if v.channel_id == chan_id {
			v.set_param(param, value, false)
		}
	}
}

func (p *VoicePool) set_gain(gain float32) {
	for _, v := range p.voices {
		if v.is_playing() {
			v.set_gain(gain)
		}
	}
}

func (p *VoicePool) noteoff(channel *Channel, min_note_length_ticks uint, key uint8) {
	for _, v := range p.voices {
		if v.is_on() && v.channel_id == channel.id && v.key == key {
			v.noteoff(channel, min_note_length_ticks)
		}
	}
}

func (p *VoicePool) all_notes_off(channel *Channel, min_note_length_ticks uint) {
	for _, v := range p.voices {
		if v.channel_id == channel.id && v.is_playing() {
			v.noteoff(channel, min_note_length_ticks)
		}
	}
}

func (p *VoicePool) all_sounds_off(chan_id int) {
	for _, v := range p.voices {
		if v.channel_id == chan_id && v.is_playing() {
			v.off()
		}
	}
}

// system_reset turns every voice off.
func (p *VoicePool) system_reset() {
	for _, v := range p.voices {
		v.off()
	}
}

func (p *VoicePool) key_pressure(channel *Channel, key uint8) {
	for _, v := range p.voices {
		if v.channel_id == channel.id && v.key == key {
			v.modulate(channel, false, ModSrcPolyPressure)
		}
	}
}

// damp_voices releases every sustained voice of a channel (sustain
// pedal up).
func (p *VoicePool) damp_voices(channel *Channel, min_note_length_ticks uint) {
	for _, v := range p.voices {
		if v.channel_id == channel.id && v.status == VoiceSustained {
			v.noteoff(channel, min_note_length_ticks)
		}
	}
}

func (p *VoicePool) modulate_voices(channel *Channel, is_cc bool, ctrl uint8) {
	for _, v := range p.voices {
		if v.channel_id == channel.id {
			v.modulate(channel, is_cc, ctrl)
		}
	}
}

func (p *VoicePool) modulate_voices_all(channel *Channel) {
	for _, v := range p.voices {
		if v.channel_id == channel.id {
			v.modulate_all(channel)
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	free_voice_by_kill
 *
 * Purpose:	Steal the lowest priority voice when the pool is full.
 *
 * Description:	Every voice starts at priority 10000.  Voices already
 *		killed once (channel 0xff) lose 2000, sustained voices
 *		lose 1000, older notes lose their age in note ids, and
 *		voices past the attack gain up to 1000 times their
 *		current envelope level so loud voices survive.
 *
 *----------------------------------------------------------------*/

func (p *VoicePool) free_voice_by_kill(noteid uint) (voiceID, bool) {
	best_prio := float32(999999.0)
	best_voice := voiceID(-1)

	for id, v := range p.voices {
		if v.is_available() {
			return voiceID(id), true
		}
		this_voice_prio := float32(10000.0)
		if v.channel_id == 0xff {
			this_voice_prio -= 2000.0
		}
		if v.status == VoiceSustained {
			this_voice_prio -= 1000.0
		}
		this_voice_prio -= float32(noteid - v.note_id)
		if v.volenv_section != EnvAttack {
			this_voice_prio += v.volenv_val * 1000.0
		}
		if this_voice_prio < best_prio {
			best_voice = voiceID(id)
			best_prio = this_voice_prio
		}
	}

	if best_voice < 0 {
		return 0, false
	}
	p.voices[best_voice].off()
	return best_voice, true
}

/*------------------------------------------------------------------
 *
 * Name:	kill_by_exclusive_class
 *
 * Purpose:	When a voice with a nonzero exclusive class starts,
 *		silence every older voice on the same channel carrying
 *		the same class ('closed hihat' cuts 'open hihat').
 *
 *----------------------------------------------------------------*/

func (p *VoicePool) kill_by_exclusive_class(new_voice voiceID) {
	nv := p.voices[new_voice]
	excl_class := nv.exclusive_class()
	if excl_class == 0 {
		return
	}

	for _, v := range p.voices {
		if !v.is_playing() {
			continue
		}
		if v.channel_id != nv.channel_id {
			continue
		}
		if v.exclusive_class() != excl_class {
			continue
		}
		if v.note_id != nv.note_id {
			v.kill_excl()
		}
	}
}

// release_voice_on_same_note releases still-playing voices of the same
// key before a new noteon replaces them.
func (p *VoicePool) release_voice_on_same_note(channel *Channel, key uint8, min_note_length_ticks uint) {
	for _, v := range p.voices {
		if v.channel_id == channel.id && v.is_playing() && v.key == key && v.note_id != p.noteid {
			v.noteoff(channel, min_note_length_ticks)
		}
	}
}

func (p *VoicePool) start_voice(channel *Channel, id voiceID) {
	p.kill_by_exclusive_class(id)
	p.voices[id].voice_start(channel)
}

/*------------------------------------------------------------------
 *
 * Name:	request_new_voice
 *
 * Purpose:	Allocate a pool slot for a new note, run the caller's
 *		zone initialization on it and start it.
 *
 * Returns:	false when no slot could be found, which happens only
 *		when the pool holds no voice at all (polyphony zero);
 *		otherwise the lowest priority voice is always stolen.
 *		The noteon is dropped in the false case.
 *
 *----------------------------------------------------------------*/

func (p *VoicePool) request_new_voice(desc voiceDescriptor, after func(*Voice)) bool {
	id := voiceID(-1)
	for i, v := range p.voices {
		if v.is_available() {
			id = voiceID(i)
			break
		}
	}

	channel := desc.channel

	switch {
	case id >= 0:
		init_voice(p.voices[id], p.sample_rate, desc, p.storeid)
	case len(p.voices) < p.polyphony_limit:
		v := &Voice{}
		init_voice(v, p.sample_rate, desc, p.storeid)
		p.voices = append(p.voices, v)
		id = voiceID(len(p.voices) - 1)
	default:
		killed, ok := p.free_voice_by_kill(p.noteid)
		if !ok {
			return false
		}
		id = killed
		init_voice(p.voices[id], p.sample_rate, desc, p.storeid)
	}

	after(p.voices[id])
	p.start_voice(channel, id)
	return true
}

/*------------------------------------------------------------------
 *
 * Name:	write_voices
 *
 * Purpose:	Run every playing voice for one block, mixing into the
 *		dry buses and the effect send buses.
 *
 * Description:	The output of a MIDI channel is wrapped around the
 *		number of audio groups, typically the number of output
 *		pairs on the sound device.  With 2 groups, channels
 *		0, 2, 4, ... go to pair 0 and 1, 3, 5, ... to pair 1.
 *
 *----------------------------------------------------------------*/

func (p *VoicePool) write_voices(
	channels []*Channel,
	min_note_length_ticks uint,
	audio_groups int,
	dsp_left_buf, dsp_right_buf [][blockSize]float32,
	fx_reverb_buf, fx_chorus_buf *[blockSize]float32,
	reverb_active, chorus_active bool,
) {
	for _, v := range p.voices {
		if !v.is_playing() {
			continue
		}
		auchan := v.channel_id % audio_groups
		v.write(channels[v.channel_id],
			min_note_length_ticks,
			&dsp_left_buf[auchan], &dsp_right_buf[auchan],
			fx_reverb_buf, fx_chorus_buf,
			reverb_active, chorus_active)
	}
}
