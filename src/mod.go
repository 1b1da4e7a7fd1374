package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	SF2 modulators: mappings from controller sources to a
 *		generator destination.
 *
 * Description:	A modulator reads up to two sources (a MIDI CC or one
 *		of the general sources), shapes each through one of the
 *		four curves, multiplies them with a signed amount and
 *		feeds the result into a generator slot.  SF2.01
 *		section 8.2.
 *
 *----------------------------------------------------------------*/

// General (non-CC) modulator sources, SF2.01 section 8.2.1.
const (
	ModSrcNone                  uint8 = 0
	ModSrcVelocity              uint8 = 2
	ModSrcKeyNumber             uint8 = 3
	ModSrcPolyPressure          uint8 = 10
	ModSrcChannelPressure       uint8 = 13
	ModSrcPitchWheel            uint8 = 14
	ModSrcPitchWheelSensitivity uint8 = 16
	ModSrcLink                  uint8 = 127
)

// Source shaping curves.
type ModShape uint8

const (
	ModLinear ModShape = iota
	ModConcave
	ModConvex
	ModSwitch
	modShapeUnknown
)

// ModSrc describes one source of a modulator.
type ModSrc struct {
	Index    uint8 // CC number or general source id
	CC       bool  // true: Index is a MIDI controller number
	Bipolar  bool  // false: unipolar [0,1], true: bipolar [-1,1]
	Negative bool  // mapping direction
	Shape    ModShape
}

// Mod is one modulator: amount * shape(src1) * shape(src2) -> dest.
type Mod struct {
	Src1   ModSrc
	Src2   ModSrc
	Dest   GenType
	Amount float64
}

// test_identity reports whether two modulators are "identical" in the
// sense of the zone merging rules (SF2.01 section 9.5.1): same sources
// and same destination, amount not considered.
func (m *Mod) test_identity(other *Mod) bool {
	return m.Dest == other.Dest && m.Src1 == other.Src1 && m.Src2 == other.Src2
}

// has_source reports whether the modulator depends on the given
// controller, which is a CC number if isCC, otherwise a general
// source id.
func (m *Mod) has_source(isCC bool, ctrl uint8) bool {
	if m.Src1.Index == ctrl && m.Src1.CC == isCC {
		return true
	}
	return m.Src2.Index == ctrl && m.Src2.CC == isCC
}

// fetch_source reads the raw controller value for a source.  The pitch
// wheel has 14-bit range, everything else 7-bit.
func fetch_source(src ModSrc, channel *Channel, voice *Voice, srcRange *float32) (float32, bool) {
	if src.CC {
		return float32(channel.cc(int(src.Index))), true
	}
	switch src.Index {
	case ModSrcNone:
		return *srcRange, true
	case ModSrcVelocity:
		return float32(voice.vel), true
	case ModSrcKeyNumber:
		return float32(voice.key), true
	case ModSrcPolyPressure:
		return float32(channel.key_pressure[voice.key]), true
	case ModSrcChannelPressure:
		return float32(channel.channel_pressure), true
	case ModSrcPitchWheel:
		*srcRange = 16384.0
		return float32(channel.pitch_bend), true
	case ModSrcPitchWheelSensitivity:
		return float32(channel.pitch_wheel_sensitivity), true
	}
	return 0.0, false
}

// transform_source applies the (shape, polarity, direction) mapping.
// The sixteen cases follow SF2.01 section 9.5.3.
func transform_source(v float32, src ModSrc, srcRange float32) float32 {
	switch src.Shape {
	case ModLinear:
		switch {
		case !src.Bipolar && !src.Negative:
			return v / srcRange
		case !src.Bipolar && src.Negative:
			return 1.0 - v/srcRange
		case src.Bipolar && !src.Negative:
			return -1.0 + 2.0*v/srcRange
		default:
			return 1.0 - 2.0*v/srcRange
		}
	case ModConcave:
		switch {
		case !src.Bipolar && !src.Negative:
			return concave(v)
		case !src.Bipolar && src.Negative:
			return concave(127.0 - v)
		case src.Bipolar && !src.Negative:
			if v > 64.0 {
				return concave(2.0 * (v - 64.0))
			}
			return -concave(2.0 * (64.0 - v))
		default:
			if v > 64.0 {
				return -concave(2.0 * (v - 64.0))
			}
			return concave(2.0 * (64.0 - v))
		}
	case ModConvex:
		switch {
		case !src.Bipolar && !src.Negative:
			return convex(v)
		case !src.Bipolar && src.Negative:
			return convex(127.0 - v)
		case src.Bipolar && !src.Negative:
			if v > 64.0 {
				return convex(2.0 * (v - 64.0))
			}
			return -convex(2.0 * (64.0 - v))
		default:
			if v > 64.0 {
				return -convex(2.0 * (v - 64.0))
			}
			return convex(2.0 * (64.0 - v))
		}
	case ModSwitch:
		on := v >= 64.0
		switch {
		case !src.Bipolar && !src.Negative:
			if on {
				return 1.0
			}
			return 0.0
		case !src.Bipolar && src.Negative:
			if on {
				return 0.0
			}
			return 1.0
		case src.Bipolar && !src.Negative:
			if on {
				return 1.0
			}
			return -1.0
		default:
			if on {
				return -1.0
			}
			return 1.0
		}
	}
	return v
}

// value evaluates the modulator against the current channel and voice
// state.
func (m *Mod) value(channel *Channel, voice *Voice) float32 {
	/* 'special treatment' for the GM default 'vel-to-filter cutoff'
	 * controller (SF2.01 section 8.4.2).  Implemented per spec it
	 * jumps between vel=63 and vel=64.  Sound fonts ship it only to
	 * turn the hardcoded behavior off, so its contribution is zero. */
	if m.Src1.Index == ModSrcVelocity && !m.Src1.CC &&
		!m.Src1.Bipolar && m.Src1.Negative && m.Src1.Shape == ModLinear &&
		m.Src2.Index == ModSrcVelocity && !m.Src2.CC &&
		!m.Src2.Bipolar && !m.Src2.Negative && m.Src2.Shape == ModSwitch &&
		m.Dest == GenFilterFc {
		return 0.0
	}

	var v1, v2 float32

	range1 := float32(127.0)
	if m.Src1.Index > 0 {
		raw, ok := fetch_source(m.Src1, channel, voice, &range1)
		if !ok {
			return 0.0
		}
		v1 = transform_source(raw, m.Src1, range1)
	} else {
		return 0.0
	}

	/* no need to go further */
	if v1 == 0.0 {
		return 0.0
	}

	range2 := float32(127.0)
	if m.Src2.Index > 0 {
		raw, ok := fetch_source(m.Src2, channel, voice, &range2)
		if !ok {
			/* unknown second source disables the whole modulator */
			return 0.0
		}
		v2 = transform_source(raw, m.Src2, range2)
	} else {
		v2 = 1.0
	}

	return float32(m.Amount) * v1 * v2
}

/*------------------------------------------------------------------
 *
 * Default modulators, SF2.01 sections 8.4.1 - 8.4.10.  Added to every
 * voice at note-on before the zone modulators run.
 *
 *----------------------------------------------------------------*/

var no_controller_src = ModSrc{Index: ModSrcNone, Shape: ModLinear}

// 8.4.1 note-on velocity to initial attenuation
var default_vel2att_mod = Mod{
	Src1:   ModSrc{Index: ModSrcVelocity, Negative: true, Shape: ModConcave},
	Src2:   no_controller_src,
	Dest:   GenAttenuation,
	Amount: 960,
}

// 8.4.2 note-on velocity to filter cutoff.  The second source was
// 0x502 in SF2.01 but plain 0 since SF2.04.
var default_vel2filter_mod = Mod{
	Src1:   ModSrc{Index: ModSrcVelocity, Negative: true, Shape: ModLinear},
	Src2:   no_controller_src,
	Dest:   GenFilterFc,
	Amount: -2400,
}

// 8.4.3 channel pressure to vibrato LFO pitch depth
var default_at2viblfo_mod = Mod{
	Src1:   ModSrc{Index: ModSrcChannelPressure, Shape: ModLinear},
	Src2:   no_controller_src,
	Dest:   GenVibLfoToPitch,
	Amount: 50,
}

// 8.4.4 CC1 (modulation wheel) to vibrato LFO pitch depth
var default_mod2viblfo_mod = Mod{
	Src1:   ModSrc{Index: 1, CC: true, Shape: ModLinear},
	Src2:   no_controller_src,
	Dest:   GenVibLfoToPitch,
	Amount: 50,
}

// 8.4.5 CC7 (channel volume) to initial attenuation
var default_att_mod = Mod{
	Src1:   ModSrc{Index: 7, CC: true, Negative: true, Shape: ModConcave},
	Src2:   no_controller_src,
	Dest:   GenAttenuation,
	Amount: 960,
}

// 8.4.6 CC10 (pan) to pan position.  Amount 500: the CC center value
// 64 corresponds to 50% of the 1000 tenths-of-a-percent range.
var default_pan_mod = Mod{
	Src1:   ModSrc{Index: 10, CC: true, Bipolar: true, Shape: ModLinear},
	Src2:   no_controller_src,
	Dest:   GenPan,
	Amount: 500,
}

// 8.4.7 CC11 (expression) to initial attenuation
var default_expr_mod = Mod{
	Src1:   ModSrc{Index: 11, CC: true, Negative: true, Shape: ModConcave},
	Src2:   no_controller_src,
	Dest:   GenAttenuation,
	Amount: 960,
}

// 8.4.8 CC91 to reverb send
var default_reverb_mod = Mod{
	Src1:   ModSrc{Index: 91, CC: true, Shape: ModLinear},
	Src2:   no_controller_src,
	Dest:   GenReverbSend,
	Amount: 200,
}

// 8.4.9 CC93 to chorus send
var default_chorus_mod = Mod{
	Src1:   ModSrc{Index: 93, CC: true, Shape: ModLinear},
	Src2:   no_controller_src,
	Dest:   GenChorusSend,
	Amount: 200,
}

// 8.4.10 pitch wheel to pitch, scaled by pitch wheel sensitivity.
// Targets the synthetic pitch slot.
var default_pitch_bend_mod = Mod{
	Src1:   ModSrc{Index: ModSrcPitchWheel, Bipolar: true, Shape: ModLinear},
	Src2:   ModSrc{Index: ModSrcPitchWheelSensitivity, Shape: ModLinear},
	Dest:   GenPitch,
	Amount: 12700,
}
