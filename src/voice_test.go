package borzoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_voice_phase_stays_in_bounds(t *testing.T) {
	synth, _ := new_test_synth(64)

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))

	// Run long enough to wrap the loop and check the playback index
	// at every block boundary.
	for block := 0; block < 800; block++ {
		pull_frames(synth, blockSize)

		var v = synth.voices.voices[0]
		if !v.is_playing() {
			t.Fatalf("voice stopped unexpectedly at block %d", block)
		}

		var idx = int32(v.phase >> 32)
		assert.GreaterOrEqual(t, idx, v.start)
		// In loop mode the index may touch the loop end point just
		// before the wrap is applied.
		assert.LessOrEqual(t, idx, v.loopend)
		if v.has_looped {
			assert.GreaterOrEqual(t, idx, v.loopstart)
		}
	}
}

func Test_voice_envelope_advances_in_order(t *testing.T) {
	synth, _ := new_test_synth(64)

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))

	var last = EnvDelay
	for block := 0; block < 400; block++ {
		pull_frames(synth, blockSize)
		var section = synth.voices.voices[0].volenv_section

		// Delay -> Attack -> Hold -> Decay -> Sustain, never backward.
		assert.GreaterOrEqual(t, section, last)
		last = section

		if block == 200 {
			require.NoError(t, synth.SendEvent(NoteOff{Channel: 0, Key: 69}))
		}
	}

	// The release ran to the end.
	assert.Equal(t, VoiceOff, synth.voices.voices[0].status)
	assert.Equal(t, EnvFinished, synth.voices.voices[0].volenv_section)
}

func Test_voice_interp_methods_all_produce_audio(t *testing.T) {
	for _, method := range []InterpMethod{InterpNone, InterpLinear, InterpFourthOrder, InterpSeventhOrder} {
		synth, _ := new_test_synth(64)
		require.NoError(t, synth.SetInterpMethod(-1, method))

		require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 7, Value: 127}))
		require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))
		left, _ := pull_frames(synth, 8192)

		var steady = left[1024:]
		assert.Greater(t, peak(steady), 0.3, "method %d", method)

		var freq = float64(zero_crossings(steady)) / 2.0 / (float64(len(steady)) / testRate)
		assert.InDelta(t, 440.0, freq, 10.0, "method %d", method)
	}
}

func Test_voice_sustain_pedal(t *testing.T) {
	synth, _ := new_test_synth(64)

	// Pedal down, note on, note off: the voice sustains.
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 64, Value: 127}))
	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 69, Vel: 127}))
	pull_frames(synth, blockSize*4)
	require.NoError(t, synth.SendEvent(NoteOff{Channel: 0, Key: 69}))
	pull_frames(synth, blockSize)

	var v = synth.voices.voices[0]
	assert.Equal(t, VoiceSustained, v.status)
	assert.Less(t, v.volenv_section, EnvRelease)

	// Pedal up: the voice releases.
	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 64, Value: 0}))
	assert.Equal(t, EnvRelease, v.volenv_section)
}

func Test_voice_steal_priority_prefers_released(t *testing.T) {
	synth, _ := new_test_synth(2)

	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 60, Vel: 100}))
	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 62, Vel: 100}))
	pull_frames(synth, blockSize*4)

	// Release the first note, then overflow the pool: the released
	// voice is the one that goes.
	require.NoError(t, synth.SendEvent(NoteOff{Channel: 0, Key: 60}))
	pull_frames(synth, blockSize)
	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 64, Vel: 100}))

	var keys []uint8
	for _, v := range synth.voices.voices {
		if v.is_playing() {
			keys = append(keys, v.key)
		}
	}
	assert.ElementsMatch(t, []uint8{62, 64}, keys)
}

func Test_channel_init_ctrl(t *testing.T) {
	var ch = new_channel(3)

	assert.EqualValues(t, 0x2000, ch.pitch_bend)
	assert.EqualValues(t, 2, ch.pitch_wheel_sensitivity)
	assert.EqualValues(t, 100, ch.cc(ccChannelVolume))
	assert.EqualValues(t, 64, ch.cc(ccPan))
	assert.EqualValues(t, 127, ch.cc(ccExpression))
	assert.EqualValues(t, 127, ch.cc(ccRPNMSB))

	// CC 121 preserves volume, pan and bank select.
	ch.cc_list[ccChannelVolume] = 80
	ch.cc_list[ccPan] = 10
	ch.cc_list[ccBankSelectLSB] = 5
	ch.cc_list[1] = 99 // mod wheel is reset
	ch.init_ctrl(true)

	assert.EqualValues(t, 80, ch.cc(ccChannelVolume))
	assert.EqualValues(t, 10, ch.cc(ccPan))
	assert.EqualValues(t, 5, ch.cc(ccBankSelectLSB))
	assert.EqualValues(t, 0, ch.cc(1))
}
