package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	Unit conversions between the SoundFont units and the
 *		linear quantities used by the DSP loop.
 *
 *		cents		1/100 semitone, 8.176 Hz at 0 ct (MIDI key 0)
 *		centibels	1/10 dB attenuation
 *		timecents	cents with respect to 1 second
 *
 * Description:	The expensive conversions are table driven.  All tables
 *		are pure functions of their index, filled once at package
 *		init and read-only afterwards, so they are safe to share
 *		between synth instances.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	attenAmpSize = 1441 // 0 .. 1440 cB
	panSize      = 1002
	cbTabSize    = 128
)

var atten2amp_tab [attenAmpSize]float32
var pan_tab [panSize]float32
var concave_tab [cbTabSize]float32
var convex_tab [cbTabSize]float32

func init() {
	for i := range atten2amp_tab {
		atten2amp_tab[i] = float32(math.Pow(10.0, float64(i)/-200.0))
	}

	// Equal power panning.
	x := math.Pi / 2.0 / float64(panSize-1)
	for i := range pan_tab {
		pan_tab[i] = float32(math.Sin(x * float64(i)))
	}

	// Concave and convex shaping curves for the modulator sources.
	// The end points are fixed, everything between follows the
	// centibel-to-amplitude law over the squared controller value.
	concave_tab[0] = 0.0
	concave_tab[127] = 1.0
	convex_tab[0] = 0.0
	convex_tab[127] = 1.0
	for i := 1; i < 127; i++ {
		x := -20.0 / 96.0 * math.Log10(float64(i*i)/(127.0*127.0))
		convex_tab[i] = float32(1.0 - x)
		concave_tab[127-i] = float32(x)
	}
}

// ct2hz_real converts cents to Hertz with no range limiting.  Used for
// pitch, where the full range is meaningful.
func ct2hz_real(cents float32) float32 {
	return float32(8.176 * math.Pow(2.0, float64(cents)/1200.0))
}

// ct2hz converts cents to Hertz for the filter cutoff.  SF2.01 limits
// the filter frequency generator to the audible 1500..13500 ct window.
func ct2hz(cents float32) float32 {
	if cents >= 13500.0 {
		cents = 13500.0
	} else if cents < 1500.0 {
		cents = 1500.0
	}
	return ct2hz_real(cents)
}

// cb2amp converts centibels to an amplitude factor.
func cb2amp(cb float32) float32 {
	return float32(math.Pow(10.0, float64(cb)/-200.0))
}

// atten2amp is the table driven variant of cb2amp for the attenuation
// path, which runs once per voice per block.  Negative attenuation is
// not allowed by SF2.01 and maps to unity.
func atten2amp(atten float32) float32 {
	if atten < 0.0 {
		return 1.0
	} else if atten >= float32(attenAmpSize) {
		return 0.0
	}
	return atten2amp_tab[int(atten)]
}

// tc2sec converts timecents to seconds.
func tc2sec(tc float32) float32 {
	return float32(math.Pow(2.0, float64(tc)/1200.0))
}

// tc2sec_delay converts a delay time.  SF2.01 section 8.1.2 limits the
// useful range; out of range values are clamped.
func tc2sec_delay(tc float32) float32 {
	if tc <= -32768.0 {
		return 0.0
	}
	if tc < -12000.0 {
		tc = -12000.0
	} else if tc > 5000.0 {
		tc = 5000.0
	}
	return tc2sec(tc)
}

// tc2sec_attack converts an attack time.
func tc2sec_attack(tc float32) float32 {
	if tc <= -32768.0 {
		return 0.0
	}
	if tc < -12000.0 {
		tc = -12000.0
	} else if tc > 8000.0 {
		tc = 8000.0
	}
	return tc2sec(tc)
}

// tc2sec_release converts a release time.
func tc2sec_release(tc float32) float32 {
	if tc <= -32768.0 {
		return 0.0
	}
	if tc < -7200.0 {
		tc = -7200.0
	} else if tc > 8000.0 {
		tc = 8000.0
	}
	return tc2sec(tc)
}

// act2hz converts absolute cents to Hertz for the LFO frequencies.
func act2hz(cents float32) float32 {
	return float32(8.176 * math.Pow(2.0, float64(cents)/1200.0))
}

// pan computes the amplitude factor for one side of the equal power
// pan curve.  c is the pan generator value, -500 (hard left) to +500
// (hard right).
func pan(c float32, left bool) float32 {
	if c < -500.0 {
		c = -500.0
	} else if c > 500.0 {
		c = 500.0
	}
	if left {
		c = -c
	}
	return pan_tab[int(c)+500]
}

// concave maps a controller value 0..127 onto the concave curve.
func concave(val float32) float32 {
	if val < 0.0 {
		return 0.0
	} else if val > 127.0 {
		return 1.0
	}
	return concave_tab[int(val)]
}

// convex maps a controller value 0..127 onto the convex curve.
func convex(val float32) float32 {
	if val < 0.0 {
		return 0.0
	} else if val > 127.0 {
		return 1.0
	}
	return convex_tab[int(val)]
}
