package borzoi

import "math"

/*
 * In-memory fonts for the engine tests: a 440 Hz sine wave playable
 * across the whole keyboard, plus a small percussion font with two
 * zones sharing an exclusive class.
 */

const testRate = 44100

// make_sine_sample builds one second of 440 Hz sine at 44100 Hz with
// 8 guard points on both sides.  440 cycles fit the second exactly,
// so looping the full span is seamless.
func make_sine_sample() *Sample {
	const n = testRate
	var data = make([]int16, 8+n+8)
	for i := 0; i < n; i++ {
		data[8+i] = int16(0.9 * 32767.0 * math.Sin(2.0*math.Pi*440.0*float64(i)/testRate))
	}

	var s = &Sample{
		Name:       "Sine 440",
		Start:      8,
		End:        8 + n - 1,
		LoopStart:  8,
		LoopEnd:    8 + n,
		OrigPitch:  69,
		SampleRate: testRate,
		Type:       SampleTypeMono,
		Data:       data,
	}
	import_sample(s)
	return s
}

// sine_zone covers [keyLo, keyHi] with the sample looping until
// release.
func sine_zone(sample *Sample, keyLo, keyHi uint8) *InstrumentZone {
	var z = &InstrumentZone{
		Name:    "sine-zone",
		KeyLow:  keyLo,
		KeyHigh: keyHi,
		VelHigh: 127,
		Sample:  sample,
	}
	z.Gen[GenSampleMode] = Gen{Flags: genSet, Val: loopUntilRelease}
	return z
}

func preset_for(name string, bank, num uint32, inst *Instrument) *Preset {
	return &Preset{
		Name: name,
		Bank: bank,
		Num:  num,
		Zones: []*PresetZone{{
			Name:    name + "/0",
			KeyHigh: 127,
			VelHigh: 127,
			Inst:    inst,
		}},
	}
}

// test_sine_font: "Sine Wave" at (0, 0) and a copy at (5, 0) for the
// bank select tests.
func test_sine_font() *SoundFont {
	var sample = make_sine_sample()
	var inst = &Instrument{
		Name:  "Sine",
		Zones: []*InstrumentZone{sine_zone(sample, 0, 127)},
	}

	return &SoundFont{
		Name: "Test Sine",
		Presets: []*Preset{
			preset_for("Sine Wave", 0, 0, inst),
			preset_for("Bank Five Sine", 5, 0, inst),
		},
	}
}

// test_excl_font: two single-key zones sharing exclusive class 1, the
// way drum fonts pair open and closed hi-hats.
func test_excl_font() *SoundFont {
	var sample = make_sine_sample()

	var open = sine_zone(sample, 42, 42)
	open.Gen[GenExclusiveClass] = Gen{Flags: genSet, Val: 1}

	var closed = sine_zone(sample, 46, 46)
	closed.Gen[GenExclusiveClass] = Gen{Flags: genSet, Val: 1}

	var inst = &Instrument{
		Name:  "Hats",
		Zones: []*InstrumentZone{open, closed},
	}

	return &SoundFont{
		Name:    "Test Hats",
		Presets: []*Preset{preset_for("Hats", 0, 0, inst)},
	}
}

// new_test_synth builds a synth with unity gain, effects off and a
// 1 ms minimum note length, with the sine font loaded.
func new_test_synth(polyphony uint16) (*Synth, FontID) {
	var desc = DefaultSynthDescriptor()
	desc.Gain = 1.0
	desc.Polyphony = polyphony
	desc.ReverbActive = false
	desc.ChorusActive = false
	desc.MinNoteLengthMs = 1

	synth, err := NewSynth(desc)
	if err != nil {
		panic(err)
	}
	id := synth.AddFont(test_sine_font(), true)
	return synth, id
}

// pull_frames reads n stereo frames into two slices.
func pull_frames(s *Synth, n int) ([]float32, []float32) {
	var left = make([]float32, n)
	var right = make([]float32, n)
	for i := 0; i < n; i++ {
		left[i], right[i] = s.ReadNext()
	}
	return left, right
}

func rms(buf []float32) float64 {
	var sum float64
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func peak(buf []float32) float64 {
	var p float64
	for _, v := range buf {
		if a := math.Abs(float64(v)); a > p {
			p = a
		}
	}
	return p
}
