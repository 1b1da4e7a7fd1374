package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The SoundFont data model: samples, zones, instruments
 *		and presets, as consumed by the synthesis engine.
 *
 * Description:	Everything here is immutable once the font has been
 *		loaded.  Samples and presets are shared by pointer into
 *		channels and voices; the garbage collector keeps them
 *		alive for as long as any voice still plays them.
 *
 *----------------------------------------------------------------*/

// SampleType tags a sample header, SF2.01 section 7.10 plus the SF3
// compressed variants.
type SampleType uint16

const (
	SampleTypeMono   SampleType = 1
	SampleTypeRight  SampleType = 2
	SampleTypeLeft   SampleType = 4
	SampleTypeLinked SampleType = 8

	sampleTypeVorbisFlag SampleType = 0x10
	sampleTypeRomFlag    SampleType = 0x8000
)

// IsROM reports whether the sample lives in sound card ROM.  ROM
// samples carry no data and are never played.
func (t SampleType) IsROM() bool { return t&sampleTypeRomFlag != 0 }

// IsVorbis reports whether the sample payload is SF3 Vorbis compressed.
func (t SampleType) IsVorbis() bool { return !t.IsROM() && t&sampleTypeVorbisFlag != 0 }

// Sample is one immutable span of 16-bit PCM plus its play metadata.
// Start/End/LoopStart/LoopEnd are absolute indices into Data.
type Sample struct {
	Name string

	Start uint32
	End   uint32 // last valid sample point

	LoopStart uint32
	LoopEnd   uint32

	OrigPitch uint8 // MIDI note of the recording
	PitchAdj  int8  // correction in cents

	SampleRate uint32
	Type       SampleType

	Data []int16

	// The amplitude that will lower the level of the sample's loop
	// to the noise floor.  Needed for the note turn-off optimization;
	// filled in by optimize during import.
	amplitude_that_reaches_noise_floor float64
	amplitude_valid                    bool
}

// playable reports whether the zone walk may start a voice on this
// sample.  ROM and compressed samples are out, as are degenerate spans.
func (s *Sample) playable() bool {
	if s.Type.IsROM() || s.Type.IsVorbis() {
		return false
	}
	return s.End > s.Start && s.End-s.Start >= 8
}

/*------------------------------------------------------------------
 *
 * Name:	optimize
 *
 * Purpose:	Scan the loop, determine the peak level, and calculate
 *		what amplitude factor makes the loop inaudible.
 *
 * Description:	Example: a peak of 3277 is 10% of full scale, so an
 *		amplitude factor of 0.0003 (rather than the full-scale
 *		0.00003) already drops the loop to the noise floor.
 *		16 bits give 96+4 = 100 dB of dynamic range => 0.00001;
 *		we use the slightly conservative 0.00003.
 *
 *----------------------------------------------------------------*/

func (s *Sample) optimize() {
	if s.amplitude_valid {
		return
	}

	var peak_max, peak_min int32
	for i := s.LoopStart; i < s.LoopEnd && int(i) < len(s.Data); i++ {
		val := int32(s.Data[i])
		if val > peak_max {
			peak_max = val
		} else if val < peak_min {
			peak_min = val
		}
	}

	peak := peak_max
	if -peak_min > peak {
		peak = -peak_min
	}
	if peak == 0 {
		peak = 1
	}

	normalized := float64(peak) / 32768.0
	s.amplitude_that_reaches_noise_floor = 0.00003 / normalized
	s.amplitude_valid = true
}

// import_sample validates a parsed sample header and computes its
// noise floor amplitude.  Unusable samples are kept in the list (zones
// may still reference them) but never played.
func import_sample(s *Sample) {
	switch {
	case s.Type.IsVorbis():
		diag.Warnf("ignoring sample %q: compressed sample data is not supported", s.Name)
	case s.Type.IsROM():
		diag.Warnf("ignoring sample %q: can't use ROM samples", s.Name)
	case s.End < s.Start || s.End-s.Start < 8:
		diag.Warnf("ignoring sample %q: too few sample data points", s.Name)
	default:
		// Keep the loop inside the span, padding inward when the
		// loop collapses.
		if s.LoopStart < s.Start {
			s.LoopStart = s.Start
		}
		if s.LoopEnd > s.End {
			s.LoopEnd = s.End
		}
		if s.LoopEnd <= s.LoopStart {
			if s.End-s.Start >= 20 {
				s.LoopStart = s.Start + 8
				s.LoopEnd = s.End - 8
			} else {
				s.LoopStart = s.Start + 1
				s.LoopEnd = s.End - 1
			}
		}
		s.optimize()
	}
}

// InstrumentZone maps a (key, velocity) region onto a sample with
// local generator and modulator overrides.
type InstrumentZone struct {
	Name string

	KeyLow, KeyHigh uint8
	VelLow, VelHigh uint8

	Gen  [GenLast]Gen
	Mods []Mod

	Sample *Sample // nil in a global zone
}

func (z *InstrumentZone) inside_range(key, vel uint8) bool {
	return z.KeyLow <= key && key <= z.KeyHigh && z.VelLow <= vel && vel <= z.VelHigh
}

// PresetZone maps a (key, velocity) region onto an instrument.
type PresetZone struct {
	Name string

	KeyLow, KeyHigh uint8
	VelLow, VelHigh uint8

	Gen  [GenLast]Gen
	Mods []Mod

	Inst *Instrument // nil in a global zone
}

func (z *PresetZone) inside_range(key, vel uint8) bool {
	return z.KeyLow <= key && key <= z.KeyHigh && z.VelLow <= vel && vel <= z.VelHigh
}

// Instrument is a named collection of instrument zones with an
// optional global zone whose generators and modulators act as
// defaults for the siblings.
type Instrument struct {
	Name       string
	GlobalZone *InstrumentZone
	Zones      []*InstrumentZone
}

// Preset is addressed by (bank, program) and holds preset zones that
// reference instruments.
type Preset struct {
	Name    string
	Bank    uint32
	Num     uint32
	GlobalZone *PresetZone
	Zones      []*PresetZone
}

// SoundFont is one loaded font: its name and its presets.  Samples are
// reachable through the preset -> instrument -> zone chain.
type SoundFont struct {
	Name    string
	Presets []*Preset
}

// Preset finds a preset by bank and program number.
func (sf *SoundFont) Preset(bank uint32, num uint32) *Preset {
	for _, p := range sf.Presets {
		if p.Bank == bank && p.Num == num {
			return p
		}
	}
	return nil
}
