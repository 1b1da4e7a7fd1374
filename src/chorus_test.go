package borzoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_chorus_param_clamping(t *testing.T) {
	var c = new_chorus(44100)

	c.set_params(ChorusParams{
		NR:    200,
		Level: 42.0,
		Speed: 99.0,
		Depth: -4.0,
		Mode:  ChorusTriangle,
	})

	var p = c.params()
	assert.EqualValues(t, 99, p.NR)
	assert.Equal(t, float32(0.1), p.Level) // silly levels reset to 0.1
	assert.Equal(t, float32(5.0), p.Speed)
	assert.Equal(t, float32(0.0), p.Depth)
	assert.Equal(t, ChorusTriangle, p.Mode)

	c.set_params(ChorusParams{NR: 3, Level: 2.0, Speed: 0.01, Depth: 8.0, Mode: ChorusSine})
	assert.Equal(t, float32(chorusMinSpeedHz), c.params().Speed)
}

func Test_chorus_defaults_round_trip(t *testing.T) {
	var c = new_chorus(44100)
	var p = c.params()

	assert.Equal(t, DefaultChorusParams(), p)
}

func Test_chorus_zero_input_zero_output(t *testing.T) {
	var c = new_chorus(44100)

	var in, left, right [blockSize]float32
	for i := 0; i < 100; i++ {
		c.process_mix(&in, &left, &right)
	}

	// An empty delay line stays empty.
	assert.Equal(t, 0.0, peak(left[:]))
	assert.Equal(t, 0.0, peak(right[:]))
}

func Test_chorus_output_both_sides_equal(t *testing.T) {
	var c = new_chorus(44100)

	var in, left, right [blockSize]float32
	for i := range in {
		in[i] = float32(i%7) * 0.01
	}
	for i := 0; i < 50; i++ {
		left = [blockSize]float32{}
		right = [blockSize]float32{}
		c.process_mix(&in, &left, &right)
	}

	// The chorus itself is mono; L and R get the same signal.
	assert.Equal(t, left, right)
}

func Test_chorus_triangle_mode(t *testing.T) {
	var c = new_chorus(44100)
	c.set_params(ChorusParams{NR: 2, Level: 1.0, Speed: 1.0, Depth: 4.0, Mode: ChorusTriangle})

	var in, left, right [blockSize]float32
	in[0] = 0.5
	// Just exercise the triangle path for a while; it must stay
	// finite and bounded.
	for i := 0; i < 1000; i++ {
		c.process_mix(&in, &left, &right)
	}
	assert.Less(t, peak(left[:]), 100.0)
}
