package borzoi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_ct2hz_reference_points(t *testing.T) {
	// 8.176 Hz at 0 ct is the SF2 anchor.
	assert.InDelta(t, 8.176, float64(ct2hz_real(0)), 1e-3)

	// A4: MIDI key 69 at 100 ct per key.
	assert.InDelta(t, 440.0, float64(ct2hz_real(6900)), 0.01)

	// The filter variant clamps to the audible window.
	assert.Equal(t, ct2hz(1500), ct2hz(0))
	assert.Equal(t, ct2hz(13500), ct2hz(20000))
}

func Test_ct2hz_semitone_ratio(t *testing.T) {
	semitone := math.Pow(2.0, 1.0/12.0)

	rapid.Check(t, func(t *rapid.T) {
		var cents = rapid.Float32Range(-6000, 6000).Draw(t, "cents")

		var ratio = float64(ct2hz_real(cents+100.0) / ct2hz_real(cents))

		// 100 cents up is one equal-tempered semitone, to within 1 ppm.
		assert.InEpsilon(t, semitone, ratio, 1e-6)
	})
}

func Test_cb2amp(t *testing.T) {
	assert.InDelta(t, 1.0, float64(cb2amp(0)), 1e-6)
	// 200 cB = 20 dB = factor 10.
	assert.InDelta(t, 0.1, float64(cb2amp(200)), 1e-6)
	assert.InDelta(t, 0.01, float64(cb2amp(400)), 1e-6)
}

func Test_atten2amp_matches_cb2amp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var cb = rapid.IntRange(0, 1440).Draw(t, "cb")

		// The table driven path must agree with the direct formula
		// on whole centibel values.
		assert.InEpsilon(t, float64(cb2amp(float32(cb))), float64(atten2amp(float32(cb))), 1e-5)
	})

	// Out of range behavior.
	assert.Equal(t, float32(1.0), atten2amp(-10))
	assert.Equal(t, float32(0.0), atten2amp(2000))
}

func Test_tc2sec(t *testing.T) {
	assert.InDelta(t, 1.0, float64(tc2sec(0)), 1e-6)
	assert.InDelta(t, 2.0, float64(tc2sec(1200)), 1e-6)
	assert.InDelta(t, 0.5, float64(tc2sec(-1200)), 1e-6)

	// The clamped variants each use their own window.
	assert.Equal(t, tc2sec_delay(5000), tc2sec_delay(9000))
	assert.Equal(t, tc2sec_attack(8000), tc2sec_attack(12000))
	assert.Equal(t, tc2sec_release(-7200), tc2sec_release(-11000))

	// -32768 is the 'instant' sentinel.
	assert.Equal(t, float32(0.0), tc2sec_delay(-32768))
	assert.Equal(t, float32(0.0), tc2sec_attack(-32768))
	assert.Equal(t, float32(0.0), tc2sec_release(-32768))
}

func Test_pan_curve(t *testing.T) {
	// Center is equal power.
	assert.InDelta(t, math.Sqrt(2)/2, float64(pan(0, true)), 1e-3)
	assert.InDelta(t, math.Sqrt(2)/2, float64(pan(0, false)), 1e-3)

	// Hard left.
	assert.InDelta(t, 1.0, float64(pan(-500, true)), 1e-3)
	assert.InDelta(t, 0.0, float64(pan(-500, false)), 1e-3)

	// Hard right.
	assert.InDelta(t, 0.0, float64(pan(500, true)), 1e-3)
	assert.InDelta(t, 1.0, float64(pan(500, false)), 1e-3)

	// Out of range input clamps instead of crashing.
	assert.Equal(t, pan(-500, true), pan(-700, true))
	assert.Equal(t, pan(500, false), pan(900, false))
}

func Test_concave_convex(t *testing.T) {
	assert.Equal(t, float32(0.0), concave(0))
	assert.Equal(t, float32(1.0), concave(127))
	assert.Equal(t, float32(0.0), convex(0))
	assert.Equal(t, float32(1.0), convex(127))

	// Both curves are monotonically non-decreasing.
	for i := 1; i < 128; i++ {
		assert.GreaterOrEqual(t, concave(float32(i)), concave(float32(i-1)))
		assert.GreaterOrEqual(t, convex(float32(i)), convex(float32(i-1)))
	}

	// Concave starts slow, convex starts fast.
	assert.Less(t, concave(64), convex(64))
}

func Test_act2hz(t *testing.T) {
	assert.InDelta(t, 8.176, float64(act2hz(0)), 1e-3)
	assert.InDelta(t, 8.176*2, float64(act2hz(1200)), 1e-2)
}
