package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	MIDI events and the event router.
 *
 * Description:	The router turns validated MIDI events into channel
 *		state changes and voice pool operations.  The note-on
 *		path walks the preset zones, gathers generators and
 *		modulators per SF2.01 section 9.4/9.5 and hands the
 *		result to the voice pool.
 *
 *----------------------------------------------------------------*/

// MidiEvent is one of the event variants below.
type MidiEvent interface {
	check() error
}

// NoteOn starts a note.  Velocity zero is treated as NoteOff.
type NoteOn struct {
	Channel uint8
	Key     uint8
	Vel     uint8
}

// NoteOff releases a note.
type NoteOff struct {
	Channel uint8
	Key     uint8
}

// ControlChange sets a MIDI controller.
type ControlChange struct {
	Channel uint8
	Ctrl    uint8
	Value   uint8
}

// AllNotesOff releases every playing note on a channel.
type AllNotesOff struct {
	Channel uint8
}

// AllSoundOff silences a channel immediately.
type AllSoundOff struct {
	Channel uint8
}

// PitchBend sets the pitch wheel; 8192 is center.
type PitchBend struct {
	Channel uint8
	Value   uint16
}

// ProgramChange selects a program on a channel.
type ProgramChange struct {
	Channel uint8
	Program uint8
}

// ChannelPressure sets channel aftertouch.
type ChannelPressure struct {
	Channel uint8
	Value   uint8
}

// PolyphonicKeyPressure sets per-key aftertouch.
type PolyphonicKeyPressure struct {
	Channel uint8
	Key     uint8
	Value   uint8
}

// SystemReset is the MIDI 'big red panic button' (0xFF): all notes
// off, all controllers reset.
type SystemReset struct{}

func check7(v uint8, err error) error {
	if v > 127 {
		return err
	}
	return nil
}

func (e NoteOn) check() error {
	if err := check7(e.Key, ErrKeyOutOfRange); err != nil {
		return err
	}
	return check7(e.Vel, ErrVelocityOutOfRange)
}

func (e NoteOff) check() error {
	return check7(e.Key, ErrKeyOutOfRange)
}

func (e ControlChange) check() error {
	if err := check7(e.Ctrl, ErrCtrlOutOfRange); err != nil {
		return err
	}
	return check7(e.Value, ErrCCValueOutOfRange)
}

func (e AllNotesOff) check() error { return nil }
func (e AllSoundOff) check() error { return nil }

func (e PitchBend) check() error {
	if e.Value > 16383 {
		return ErrPitchBendOutOfRange
	}
	return nil
}

func (e ProgramChange) check() error {
	return check7(e.Program, ErrProgramOutOfRange)
}

func (e ChannelPressure) check() error {
	return check7(e.Value, ErrChannelPressureOutOfRange)
}

func (e PolyphonicKeyPressure) check() error {
	if err := check7(e.Key, ErrKeyOutOfRange); err != nil {
		return err
	}
	return check7(e.Value, ErrKeyPressureOutOfRange)
}

func (e SystemReset) check() error { return nil }

/*------------------------------------------------------------------
 *
 * Name:	noteon
 *
 * Purpose:	Start the voices for a note-on event.
 *
 * Description:	For every preset zone that covers (key, vel), and for
 *		every instrument zone inside it that does too, one
 *		voice is created and initialized:
 *
 *		  1. the ten default modulators
 *		  2. instrument generators: local supersedes global
 *		     supersedes default (gen_set)
 *		  3. instrument modulators, local replacing identical
 *		     global ones, added with overwrite semantics
 *		  4. preset generators: local supersedes global, the
 *		     value is *added* to the instrument level (gen_incr);
 *		     the address offset kinds and a few others are not
 *		     allowed at preset level
 *		  5. preset modulators, merged the same way, added with
 *		     add semantics
 *
 *----------------------------------------------------------------*/

func noteon(channel *Channel, voices *VoicePool, start_time uint,
	min_note_length_ticks uint, gain float32, key, vel uint8) error {

	if vel == 0 {
		voices.noteoff(channel, min_note_length_ticks, key)
		return nil
	}
	if channel.preset == nil {
		return ErrChannelHasNoPreset
	}

	voices.release_voice_on_same_note(channel, key, min_note_length_ticks)
	voices.noteid_add()

	inner_noteon(channel, voices, start_time, gain, key, vel)
	return nil
}

// Generators that SF2.01 section 8.5 page 58 does not allow at preset
// level.
func preset_level_skip(g GenType) bool {
	switch g {
	case GenStartAddrOfs, GenEndAddrOfs, GenStartLoopAddrOfs, GenEndLoopAddrOfs,
		GenStartAddrCoarseOfs, GenEndAddrCoarseOfs, GenStartLoopAddrCoarseOfs,
		GenEndLoopAddrCoarseOfs, GenKeyNum, GenVelocity,
		GenSampleMode, GenExclusiveClass, GenOverrideRootKey:
		return true
	}
	return false
}

func inner_noteon(channel *Channel, voices *VoicePool, start_time uint,
	gain float32, key, vel uint8) {

	preset := channel.preset
	global_preset_zone := preset.GlobalZone

	// working list for 'sorting' zone modulators
	var mod_list [voiceModMax]*Mod

	for _, preset_zone := range preset.Zones {
		if !preset_zone.inside_range(key, vel) {
			continue
		}

		inst := preset_zone.Inst
		if inst == nil {
			diag.Errorf("instrument for zone %q is missing", preset_zone.Name)
			continue
		}
		global_inst_zone := inst.GlobalZone

		for _, inst_zone := range inst.Zones {
			sample := inst_zone.Sample
			if sample == nil || !sample.playable() {
				continue
			}
			if !inst_zone.inside_range(key, vel) {
				continue
			}

			/* This is a good zone.  Allocate a new synthesis
			 * process and initialize it. */

			init := func(voice *Voice) {
				voice.add_default_mods()

				/* Instrument level generators.  A local zone
				 * generator supersedes the global zone, both
				 * supersede the default (SF2.01 section 9.4
				 * bullet 4). */
				for g := GenType(0); g < GenLast; g++ {
					if inst_zone.Gen[g].Flags != 0 {
						voice.gen_set(g, inst_zone.Gen[g].Val)
					} else if global_inst_zone != nil && global_inst_zone.Gen[g].Flags != 0 {
						voice.gen_set(g, global_inst_zone.Gen[g].Val)
					}
					// Otherwise leave the default.
				}

				/* Instrument level modulators: global ones first,
				 * then the local zone, kicking out identical
				 * entries (SF2.01 page 69 bullet 8). */
				mod_count := 0
				if global_inst_zone != nil {
					for i := range global_inst_zone.Mods {
						mod_list[mod_count] = &global_inst_zone.Mods[i]
						mod_count++
					}
				}
				for i := range inst_zone.Mods {
					m := &inst_zone.Mods[i]
					for k := 0; k < mod_count; k++ {
						if mod_list[k] != nil && m.test_identity(mod_list[k]) {
							mod_list[k] = nil
						}
					}
					mod_list[mod_count] = m
					mod_count++
				}
				for k := 0; k < mod_count; k++ {
					if mod_list[k] == nil {
						continue
					}
					/* Disabled modulators CANNOT be skipped:
					 * instrument modulators supersede existing
					 * (default) modulators (SF2.01 page 69
					 * bullet 6). */
					voice.add_mod(mod_list[k], voiceOverwrite)
				}

				/* Preset level generators add to the summing node
				 * (SF2.01 section 9.4 bullet 9). */
				for g := GenType(0); g < GenLast; g++ {
					if preset_level_skip(g) {
						continue
					}
					if preset_zone.Gen[g].Flags != 0 {
						voice.gen_incr(g, preset_zone.Gen[g].Val)
					} else if global_preset_zone != nil && global_preset_zone.Gen[g].Flags != 0 {
						voice.gen_incr(g, global_preset_zone.Gen[g].Val)
					}
				}

				/* Preset level modulators, merged the same way
				 * (SF2.01 page 69, second to last bullet). */
				mod_count = 0
				if global_preset_zone != nil {
					for i := range global_preset_zone.Mods {
						mod_list[mod_count] = &global_preset_zone.Mods[i]
						mod_count++
					}
				}
				for i := range preset_zone.Mods {
					m := &preset_zone.Mods[i]
					for k := 0; k < mod_count; k++ {
						if mod_list[k] != nil && m.test_identity(mod_list[k]) {
							mod_list[k] = nil
						}
					}
					mod_list[mod_count] = m
					mod_count++
				}
				for k := 0; k < mod_count; k++ {
					if mod_list[k] == nil || mod_list[k].Amount == 0.0 {
						continue
					}
					/* Preset modulators add to the instrument
					 * level (SF2.01 page 70, first bullet). */
					voice.add_mod(mod_list[k], voiceAdd)
				}
			}

			desc := voiceDescriptor{
				sample:     sample,
				channel:    channel,
				key:        key,
				vel:        vel,
				start_time: start_time,
				gain:       gain,
			}

			if !voices.request_new_voice(desc, init) {
				diag.Warnf("failed to allocate a synthesis process (chan=%d, key=%d)",
					channel.id, key)
			}
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	cc
 *
 * Purpose:	Handle a control change: store the value, then run the
 *		controller specific behavior (sustain, bank select,
 *		RPN/NRPN data entry, channel mode messages) or
 *		re-modulate the voices that listen to the controller.
 *
 *----------------------------------------------------------------*/

func cc(channel *Channel, voices *VoicePool, min_note_length_ticks uint,
	drums_channel_active bool, num, value uint8) {

	channel.cc_list[num] = value

	switch num {
	case ccSustainSwitch:
		if value < 64 {
			// sustain off
			voices.damp_voices(channel, min_note_length_ticks)
		}

	case ccBankSelectMSB:
		if channel.id == 9 && drums_channel_active {
			return // drum channel is locked to bank 128
		}
		channel.bank_msb = value & 0x7f
		/* MIDI only promises a bank change on the LSB controller,
		 * but real-world streams use the MSB alone all the time. */
		channel.banknum = uint32(value & 0x7f)

	case ccBankSelectLSB:
		if channel.id == 9 && drums_channel_active {
			return
		}
		channel.banknum = uint32(value&0x7f) + uint32(channel.bank_msb)<<7

	case ccAllNotesOff:
		voices.all_notes_off(channel, min_note_length_ticks)

	case ccAllSoundOff:
		voices.all_notes_off(channel, min_note_length_ticks)

	case ccAllCtrlOff:
		channel.init_ctrl(true)
		voices.modulate_voices_all(channel)

	case ccDataEntryMSB:
		data := int(value)<<7 + int(channel.cc(ccDataEntryLSB))

		if channel.nrpn_active {
			// SoundFont 2.01 NRPN message (section 9.6)
			if channel.cc(ccNRPNMSB) == 120 && channel.cc(ccNRPNLSB) < 100 {
				if channel.nrpn_select < GenLast {
					param := GenType(channel.nrpn_select)
					set_gen(channel, voices, param, gen_scale_nrpn(param, data))
				}
				channel.nrpn_select = 0
			}
		} else if channel.cc(ccRPNMSB) == 0 {
			switch channel.cc(ccRPNLSB) {
			case 0: // pitch bend range
				pitch_wheel_sens(channel, voices, value)
			case 1: // channel fine tune, 14 bit over +/- 100 cents
				set_gen(channel, voices, GenFineTune,
					float32(float64(data-8192)/8192.0*100.0))
			case 2: // channel coarse tune, semitones with 64 center
				set_gen(channel, voices, GenCoarseTune, float32(value)-64.0)
			}
		}

	case ccNRPNMSB:
		channel.cc_list[ccNRPNLSB] = 0
		channel.nrpn_select = 0
		channel.nrpn_active = true

	case ccNRPNLSB:
		// SoundFont 2.01 NRPN message (section 9.6)
		if channel.cc(ccNRPNMSB) == 120 {
			switch {
			case value == 100:
				channel.nrpn_select += 100
			case value == 101:
				channel.nrpn_select += 1000
			case value == 102:
				channel.nrpn_select += 10000
			case value < 100:
				channel.nrpn_select += int16(value)
			}
		}
		channel.nrpn_active = true

	case ccRPNMSB, ccRPNLSB:
		channel.nrpn_active = false

	default:
		voices.modulate_voices(channel, true, num)
	}
}

// set_gen stages a generator change on the channel and applies it to
// the running voices, like an NRPN message would.
func set_gen(channel *Channel, voices *VoicePool, param GenType, value float32) {
	channel.gen[param] = value
	channel.gen_abs[param] = false
	voices.set_gen(channel.id, param, value)
}

func pitch_wheel_sens(channel *Channel, voices *VoicePool, val uint8) {
	channel.pitch_wheel_sensitivity = val
	voices.modulate_voices(channel, false, ModSrcPitchWheelSensitivity)
}

/*------------------------------------------------------------------
 *
 * Name:	program_change
 *
 * Purpose:	Select a preset by (bank, program) from the font bank.
 *
 * Description:	Drum channels use bank 128.  When the exact preset is
 *		missing, fall back to (0, program), then (0, 0) (or
 *		(128, 0) for drums).
 *
 *----------------------------------------------------------------*/

func program_change(channel *Channel, font_bank *fontBank, program uint8,
	drums_channel_active bool) {

	banknum := channel.banknum
	channel.prognum = program

	var font_id FontID
	var preset *Preset
	var found bool

	if channel.id == 9 && drums_channel_active {
		font_id, preset, found = font_bank.find_preset(128, uint32(program))
	} else {
		font_id, preset, found = font_bank.find_preset(banknum, uint32(program))
	}

	if !found {
		subst_bank := int32(banknum)
		subst_prog := program
		if banknum != 128 {
			subst_bank = 0
			font_id, preset, found = font_bank.find_preset(0, uint32(program))
			if !found && program != 0 {
				font_id, preset, found = font_bank.find_preset(0, 0)
				subst_prog = 0
			}
		} else {
			font_id, preset, found = font_bank.find_preset(128, 0)
			subst_prog = 0
		}
		if !found {
			diag.Warnf("instrument not found on channel %d [bank=%d prog=%d], substituted [bank=%d prog=%d]",
				channel.id, banknum, program, subst_bank, subst_prog)
		}
	}

	channel.sfont_id = font_id
	channel.has_font = found
	channel.preset = preset
}
