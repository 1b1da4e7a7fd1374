package borzoi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_gen_defaults(t *testing.T) {
	var gen [GenLast]Gen
	gen_set_default_values(&gen)

	assert.Equal(t, 13500.0, gen[GenFilterFc].Val)
	assert.Equal(t, -12000.0, gen[GenVolEnvAttack].Val)
	assert.Equal(t, 100.0, gen[GenScaleTune].Val)
	assert.Equal(t, -1.0, gen[GenOverrideRootKey].Val)
	assert.Equal(t, 0.0, gen[GenAttenuation].Val)

	for i := range gen {
		assert.Equal(t, genUnused, gen[i].Flags)
		assert.Equal(t, 0.0, gen[i].Mod)
		assert.Equal(t, 0.0, gen[i].Nrpn)
	}
}

func Test_gen_init_carries_channel_overrides(t *testing.T) {
	var channel = new_channel(0)
	channel.gen[GenFilterFc] = -1200.0
	channel.gen_abs[GenFilterFc] = true
	channel.gen[GenPan] = 250.0

	var gen [GenLast]Gen
	gen_init(&gen, channel)

	assert.Equal(t, -1200.0, gen[GenFilterFc].Nrpn)
	assert.Equal(t, genAbsNrpn, gen[GenFilterFc].Flags)
	assert.Equal(t, 250.0, gen[GenPan].Nrpn)
	assert.Equal(t, genUnused, gen[GenPan].Flags)
}

func Test_gen_scale_nrpn(t *testing.T) {
	// 8192 is the data entry center.
	assert.Equal(t, float32(0.0), gen_scale_nrpn(GenFilterFc, 8192))

	// FilterFc scales by 2 per data entry step.
	assert.Equal(t, float32(200.0), gen_scale_nrpn(GenFilterFc, 8292))

	// Attenuation scales by 1.
	assert.Equal(t, float32(100.0), gen_scale_nrpn(GenAttenuation, 8292))

	rapid.Check(t, func(t *rapid.T) {
		var data = rapid.IntRange(0, 16383).Draw(t, "data")
		var val = gen_scale_nrpn(GenVolEnvAttack, data)

		// nrpn_scale for the envelope times is 2, so the result
		// stays within +/- 2 * 8192.
		assert.GreaterOrEqual(t, val, float32(-16384.0))
		assert.LessOrEqual(t, val, float32(16384.0))
	})
}

func Test_gen_numeric_identity(t *testing.T) {
	// NRPN addressing depends on these staying at their SF2.01
	// enumeration values.
	assert.EqualValues(t, 0, GenStartAddrOfs)
	assert.EqualValues(t, 8, GenFilterFc)
	assert.EqualValues(t, 17, GenPan)
	assert.EqualValues(t, 38, GenVolEnvRelease)
	assert.EqualValues(t, 48, GenAttenuation)
	assert.EqualValues(t, 54, GenSampleMode)
	assert.EqualValues(t, 57, GenExclusiveClass)
	assert.EqualValues(t, 59, GenPitch)
	assert.EqualValues(t, 60, GenLast)
}
