package borzoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Count sign changes to estimate the dominant frequency of a clean
// tone.
func zero_crossings(buf []float32) int {
	var count int
	for i := 1; i < len(buf); i++ {
		if (buf[i-1] < 0 && buf[i] >= 0) || (buf[i-1] >= 0 && buf[i] < 0) {
			count++
		}
	}
	return count
}

func Test_sine_at_a4(t *testing.T) {
	synth, _ := new_test_synth(64)

	// Remove the velocity and volume attenuation so the output level
	// is predictable.
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 7, Value: 127}))
	require.NoError(t, synth.SendEvent(ProgramChange{Channel: 0, Program: 0}))
	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))

	left, right := pull_frames(synth, testRate/2)

	// Skip the attack, then measure.
	var steady = left[1000:21000]

	var crossings = zero_crossings(steady)
	var seconds = float64(len(steady)) / testRate
	var freq = float64(crossings) / 2.0 / seconds
	assert.InDelta(t, 440.0, freq, 5.0)

	// Unity gain, zero attenuation, equal power center pan and the
	// filter's 1/sqrt(q_lin) = 1.19 gain at Q 0 dB: the peak lands
	// near 0.9 * sqrt(1/2) * 1.19, about 0.75.
	assert.Greater(t, peak(steady), 0.5)
	assert.Less(t, peak(steady), 1.0)

	// Near-center pan: both sides carry nearly the same level.  (The
	// default CC10 pan modulator sits a few tenths of a percent off
	// exact center at CC value 64.)
	assert.InDelta(t, rms(left[1000:21000]), rms(right[1000:21000]), 0.02)
}

func Test_noteoff_envelope_tail(t *testing.T) {
	synth, _ := new_test_synth(64)

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))
	pull_frames(synth, testRate/2)

	require.NoError(t, synth.SendEvent(NoteOff{Channel: 0, Key: 69}))
	left, _ := pull_frames(synth, 2*testRate)

	var head = rms(left[:blockSize])
	var tail = rms(left[len(left)-testRate:])

	// The release drains the note; the last second is silence.
	assert.Less(t, tail, 1e-4)
	assert.Less(t, tail, head/100.0+1e-12)

	for _, v := range synth.voices.voices {
		assert.Equal(t, VoiceOff, v.status)
	}
}

func Test_exclusive_class_kill(t *testing.T) {
	var desc = DefaultSynthDescriptor()
	desc.Gain = 1.0
	desc.ReverbActive = false
	desc.ChorusActive = false
	desc.MinNoteLengthMs = 1

	synth, err := NewSynth(desc)
	require.NoError(t, err)
	synth.AddFont(test_excl_font(), true)

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 42, Vel: 100}))
	pull_frames(synth, blockSize)

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 46, Vel: 100}))

	var first = synth.voices.voices[0]
	// The first voice loses its exclusive class and is hurried into
	// release.
	assert.Equal(t, 0.0, first.gen[GenExclusiveClass].Val)
	assert.Equal(t, EnvRelease, first.volenv_section)

	// The -200 tc kill release runs just under a second; after 1.2 s
	// the killed voice is gone while the new one plays on.
	pull_frames(synth, testRate*6/5)
	assert.Equal(t, VoiceOff, first.status)

	var playing int
	for _, v := range synth.voices.voices {
		if v.is_playing() {
			assert.Equal(t, uint8(46), v.key)
			playing++
		}
	}
	assert.Equal(t, 1, playing)
}

func Test_polyphony_cap_steals_one(t *testing.T) {
	synth, _ := new_test_synth(4)

	for key := uint8(60); key < 64; key++ {
		require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: key, Vel: 100}))
	}
	pull_frames(synth, blockSize)

	assert.Equal(t, 4, len(synth.voices.voices))

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 64, Vel: 100}))

	// Still four voices: one of the originals was stolen, and the
	// new note plays in its slot.
	assert.Equal(t, 4, len(synth.voices.voices))

	var off, new_note int
	for _, v := range synth.voices.voices {
		if v.key == 64 && v.is_playing() {
			new_note++
		}
		if !v.is_playing() && v.key != 64 {
			off++
		}
	}
	assert.Equal(t, 1, new_note)
	assert.Zero(t, off) // the stolen slot was reused immediately
}

func Test_all_notes_off(t *testing.T) {
	synth, _ := new_test_synth(64)

	for _, key := range []uint8{60, 64, 67} {
		require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: key, Vel: 127}))
	}
	left, _ := pull_frames(synth, testRate/4)
	var before = rms(left[len(left)-4096:])

	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 123, Value: 0}))
	pull_frames(synth, blockSize)

	for _, v := range synth.voices.voices {
		if v.status == VoiceOn {
			assert.GreaterOrEqual(t, v.volenv_section, EnvRelease)
		}
	}

	left, _ = pull_frames(synth, testRate/2)
	var after = rms(left[len(left)-4096:])

	// At least 20 dB down once the release has run.
	assert.Less(t, after, before/10.0+1e-12)
}

func Test_bank_select(t *testing.T) {
	synth, _ := new_test_synth(64)

	require.NoError(t, synth.SendEvent(ControlChange{Channel: 1, Ctrl: 0, Value: 0}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 1, Ctrl: 32, Value: 5}))
	require.NoError(t, synth.SendEvent(ProgramChange{Channel: 1, Program: 0}))

	assert.EqualValues(t, 5, synth.channels[1].banknum)

	var preset = synth.ChannelPreset(1)
	require.NotNil(t, preset)
	assert.Equal(t, "Bank Five Sine", preset.Name)
	assert.EqualValues(t, 5, preset.Bank)
}

func Test_system_reset_silences(t *testing.T) {
	synth, _ := new_test_synth(64)

	for _, key := range []uint8{60, 64, 67} {
		require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: key, Vel: 127}))
	}
	pull_frames(synth, testRate/4)

	require.NoError(t, synth.SendEvent(SystemReset{}))

	for _, v := range synth.voices.voices {
		assert.Equal(t, VoiceOff, v.status)
	}

	// ReadNext first hands out the rest of the block synthesized
	// before the reset; from the next block boundary on, within
	// 2*blockSize frames, the output is silent.
	left, right := pull_frames(synth, 2*blockSize)
	assert.Equal(t, 0.0, peak(left[blockSize:]))
	assert.Equal(t, 0.0, peak(right[blockSize:]))
}

func Test_noteon_determinism(t *testing.T) {
	var run = func() []float32 {
		synth, _ := new_test_synth(64)
		if err := synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 100}); err != nil {
			t.Fatal(err)
		}
		left, _ := pull_frames(synth, 8192)
		return left
	}

	var a = run()
	var b = run()
	assert.Equal(t, a, b)
}

func Test_pitch_bend_center_is_identity(t *testing.T) {
	var run = func(bend bool) []float32 {
		synth, _ := new_test_synth(64)
		if bend {
			if err := synth.SendEvent(PitchBend{Channel: 0, Value: 8192}); err != nil {
				t.Fatal(err)
			}
		}
		if err := synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 100}); err != nil {
			t.Fatal(err)
		}
		left, _ := pull_frames(synth, 8192)
		return left
	}

	assert.Equal(t, run(false), run(true))
}

func Test_noteoff_without_note_is_noop(t *testing.T) {
	synth, _ := new_test_synth(64)

	require.NoError(t, synth.SendEvent(NoteOff{Channel: 0, Key: 100}))
	left, right := pull_frames(synth, blockSize)
	assert.Equal(t, 0.0, peak(left))
	assert.Equal(t, 0.0, peak(right))
	assert.Empty(t, synth.voices.voices)
}

func Test_noteon_without_preset_fails(t *testing.T) {
	var desc = DefaultSynthDescriptor()
	desc.ReverbActive = false
	desc.ChorusActive = false
	synth, err := NewSynth(desc)
	require.NoError(t, err)

	err = synth.SendEvent(NoteOn{Channel: 0, Key: 60, Vel: 100})
	assert.ErrorIs(t, err, ErrChannelHasNoPreset)
}

func Test_event_validation(t *testing.T) {
	synth, _ := new_test_synth(64)

	assert.ErrorIs(t, synth.SendEvent(NoteOn{Channel: 0, Key: 128, Vel: 100}), ErrKeyOutOfRange)
	assert.ErrorIs(t, synth.SendEvent(NoteOn{Channel: 0, Key: 60, Vel: 200}), ErrVelocityOutOfRange)
	assert.ErrorIs(t, synth.SendEvent(PitchBend{Channel: 0, Value: 20000}), ErrPitchBendOutOfRange)
	assert.ErrorIs(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 200, Value: 0}), ErrCtrlOutOfRange)
	assert.ErrorIs(t, synth.SendEvent(NoteOn{Channel: 99, Key: 60, Vel: 100}), ErrChannelOutOfRange)

	// Nothing was started by the rejected events.
	assert.Empty(t, synth.voices.voices)
}

func Test_gain_round_trip(t *testing.T) {
	synth, _ := new_test_synth(64)

	synth.SetGain(0.5)
	assert.Equal(t, float32(0.5), synth.Gain())

	// Tiny gains clamp up to the minimum.
	synth.SetGain(1e-9)
	assert.Equal(t, float32(0.0000001), synth.Gain())
}

func Test_font_load_unload(t *testing.T) {
	synth, id := new_test_synth(64)

	assert.Equal(t, 1, synth.SoundFontCount())
	require.NotNil(t, synth.ChannelPreset(0))

	font, err := synth.RemoveFont(id, false)
	require.NoError(t, err)
	assert.Equal(t, "Test Sine", font.Name)
	assert.Equal(t, 0, synth.SoundFontCount())
	assert.Nil(t, synth.ChannelPreset(0))

	_, err = synth.RemoveFont(id, false)
	assert.ErrorIs(t, err, ErrFontNotFound)
}

func Test_font_stack_order(t *testing.T) {
	synth, first := new_test_synth(64)

	var second = synth.AddFont(test_excl_font(), true)

	// The newest font sits on top of the stack and wins the preset
	// lookup for (0, 0).
	assert.Equal(t, 2, synth.SoundFontCount())
	assert.Equal(t, "Test Hats", synth.NthSoundFont(0).Name)
	assert.Equal(t, "Hats", synth.ChannelPreset(0).Name)

	assert.NotNil(t, synth.SoundFont(first))
	assert.NotNil(t, synth.SoundFont(second))
}

func Test_bank_offset(t *testing.T) {
	synth, id := new_test_synth(64)

	synth.SetBankOffset(id, 100)
	assert.EqualValues(t, 100, synth.BankOffset(id))

	// The sine preset now answers at bank 100.
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 2, Ctrl: 0, Value: 0}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 2, Ctrl: 32, Value: 100}))
	require.NoError(t, synth.SendEvent(ProgramChange{Channel: 2, Program: 0}))

	var preset = synth.ChannelPreset(2)
	require.NotNil(t, preset)
	assert.Equal(t, "Sine Wave", preset.Name)
}

func Test_tuning_shifts_pitch(t *testing.T) {
	synth, _ := new_test_synth(64)

	// Tune every key one octave down, then the same note must play
	// at half the frequency.
	var pitch [128]float64
	for i := range pitch {
		pitch[i] = float64(i)*100.0 - 1200.0
	}
	require.NoError(t, synth.CreateKeyTuning(0, 0, "octave down", &pitch))
	require.NoError(t, synth.SelectTuning(0, 0, 0))

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))
	left, _ := pull_frames(synth, testRate/2)

	var steady = left[1000:21000]
	var freq = float64(zero_crossings(steady)) / 2.0 / (float64(len(steady)) / testRate)
	assert.InDelta(t, 220.0, freq, 5.0)
}

func Test_tuning_validation(t *testing.T) {
	synth, _ := new_test_synth(64)

	assert.ErrorIs(t, synth.CreateKeyTuning(200, 0, "x", nil), ErrTuningOutOfRange)
	assert.ErrorIs(t, synth.SelectTuning(0, 0, 200), ErrTuningOutOfRange)
	assert.ErrorIs(t, synth.SelectTuning(0, 3, 4), ErrTuningOutOfRange) // never created

	require.NoError(t, synth.CreateOctaveTuning(1, 1, "quarter", &[12]float64{0, 50}))
	name, table, err := synth.TuningDump(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "quarter", name)
	assert.Equal(t, 150.0, table[1])
	assert.Equal(t, 1350.0, table[13])
}

func Test_nrpn_sets_generator(t *testing.T) {
	synth, _ := new_test_synth(64)

	// NRPN MSB 120 selects the SoundFont generator space; the LSB is
	// the generator number; data entry 8292 is +100 raw.
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 99, Value: 120}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 98, Value: uint8(GenFilterFc)}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 38, Value: 100}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 6, Value: 64}))

	val, err := synth.Gen(0, GenFilterFc)
	require.NoError(t, err)
	// data = 64<<7 + 100 = 8292; (8292-8192) * nrpn_scale(2) = 200.
	assert.Equal(t, float32(200.0), val)
}

func Test_rpn_pitch_bend_range(t *testing.T) {
	synth, _ := new_test_synth(64)

	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 101, Value: 0}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 100, Value: 0}))
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 6, Value: 12}))

	assert.EqualValues(t, 12, synth.channels[0].pitch_wheel_sensitivity)
}
