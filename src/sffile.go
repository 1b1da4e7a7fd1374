package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	SoundFont 2 file reader.
 *
 * Description:	A SoundFont file is a RIFF container with three LIST
 *		chunks: INFO (metadata), sdta (the 16-bit PCM sample
 *		pool) and pdta (the "hydra", nine fixed-record-size
 *		sub-chunks describing presets, instruments and
 *		samples).  The reader walks the chunks, decodes the
 *		hydra records and assembles the data model from
 *		soundfont.go.
 *
 *----------------------------------------------------------------*/

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrBadSoundFont is returned when the input is not a RIFF sfbk file.
var ErrBadSoundFont = errors.New("not a SoundFont file")

type chunk struct {
	id   [4]byte
	size uint32
	data []byte
}

// parse reads one chunk, header and payload, from the reader.
func (ck *chunk) parse(r io.Reader) error {
	if _, err := io.ReadFull(r, ck.id[:]); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &ck.size); err != nil {
		return err
	}
	ck.data = make([]byte, ck.size)
	if _, err := io.ReadFull(r, ck.data); err != nil {
		return err
	}
	// Chunks are word aligned; an odd size is followed by a pad byte.
	if ck.size%2 == 1 {
		var pad [1]byte
		if _, err := io.ReadFull(r, pad[:]); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

func (ck *chunk) newReader() io.Reader {
	return bytes.NewReader(ck.data)
}

// listType returns the form type of a LIST chunk and a reader over the
// chunks that follow it.
func (ck *chunk) listType() ([4]byte, io.Reader) {
	var ty [4]byte
	copy(ty[:], ck.data)
	return ty, bytes.NewReader(ck.data[4:])
}

/* Raw hydra records, exactly as laid out in the file. */

type rawBag struct {
	GenIndex uint16
	ModIndex uint16
}

type rawGen struct {
	Oper   uint16
	Amount uint16
}

type rawMod struct {
	SrcOper    uint16
	DestOper   uint16
	Amount     int16
	AmtSrcOper uint16
	TransOper  uint16
}

type rawPresetHeader struct {
	Name       [20]byte
	Preset     uint16
	Bank       uint16
	BagIndex   uint16
	Library    uint32
	Genre      uint32
	Morphology uint32
}

type rawInstHeader struct {
	Name     [20]byte
	BagIndex uint16
}

type rawSampleHeader struct {
	Name       [20]byte
	Start      uint32
	End        uint32
	LoopStart  uint32
	LoopEnd    uint32
	SampleRate uint32
	OrigPitch  uint8
	PitchAdj   int8
	SampleLink uint16
	SampleType uint16
}

type hydra struct {
	phdr []rawPresetHeader
	pbag []rawBag
	pmod []rawMod
	pgen []rawGen
	inst []rawInstHeader
	ibag []rawBag
	imod []rawMod
	igen []rawGen
	shdr []rawSampleHeader
}

func read_records[T any](ck *chunk, recordSize int) ([]T, error) {
	if int(ck.size)%recordSize != 0 {
		return nil, fmt.Errorf("chunk %q: size %d is not a multiple of the record size %d",
			ck.id[:], ck.size, recordSize)
	}
	out := make([]T, int(ck.size)/recordSize)
	if err := binary.Read(ck.newReader(), binary.LittleEndian, out); err != nil {
		return nil, err
	}
	return out, nil
}

func zero_terminated(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

/*------------------------------------------------------------------
 *
 * Name:	LoadSoundFont
 *
 * Purpose:	Read a complete SoundFont 2 file and build the data
 *		model used by the synthesizer.
 *
 * Returns:	The font, or a parse error.  Individual bad samples or
 *		zones are skipped with a warning rather than failing
 *		the whole file; sound font files violate their spec
 *		often enough that strictness would be unusable.
 *
 *----------------------------------------------------------------*/

func LoadSoundFont(r io.Reader) (*SoundFont, error) {
	var riff chunk
	if err := riff.parse(r); err != nil {
		return nil, fmt.Errorf("soundfont: %w", err)
	}
	if string(riff.id[:]) != "RIFF" {
		return nil, ErrBadSoundFont
	}
	form, body := riff.listType()
	if string(form[:]) != "sfbk" {
		return nil, ErrBadSoundFont
	}

	font := &SoundFont{}
	var sampleData []int16
	var hy hydra

	for {
		var list chunk
		if err := list.parse(body); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("soundfont: %w", err)
		}
		if string(list.id[:]) != "LIST" {
			continue
		}
		ty, sub := list.listType()
		switch string(ty[:]) {
		case "INFO":
			if err := parse_info(font, sub); err != nil {
				return nil, fmt.Errorf("soundfont: INFO: %w", err)
			}
		case "sdta":
			var err error
			sampleData, err = parse_sdta(sub)
			if err != nil {
				return nil, fmt.Errorf("soundfont: sdta: %w", err)
			}
		case "pdta":
			if err := parse_pdta(&hy, sub); err != nil {
				return nil, fmt.Errorf("soundfont: pdta: %w", err)
			}
		}
	}

	if len(hy.shdr) == 0 || len(hy.phdr) == 0 {
		return nil, ErrBadSoundFont
	}

	assemble_font(font, &hy, sampleData)
	return font, nil
}

func parse_info(font *SoundFont, r io.Reader) error {
	for {
		var ck chunk
		if err := ck.parse(r); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if string(ck.id[:]) == "INAM" {
			font.Name = zero_terminated(ck.data)
		}
	}
}

func parse_sdta(r io.Reader) ([]int16, error) {
	for {
		var ck chunk
		if err := ck.parse(r); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		if string(ck.id[:]) == "smpl" {
			data := make([]int16, ck.size/2)
			if err := binary.Read(ck.newReader(), binary.LittleEndian, data); err != nil {
				return nil, err
			}
			return data, nil
		}
	}
}

func parse_pdta(hy *hydra, r io.Reader) error {
	for {
		var ck chunk
		if err := ck.parse(r); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var err error
		switch string(ck.id[:]) {
		case "phdr":
			hy.phdr, err = read_records[rawPresetHeader](&ck, 38)
		case "pbag":
			hy.pbag, err = read_records[rawBag](&ck, 4)
		case "pmod":
			hy.pmod, err = read_records[rawMod](&ck, 10)
		case "pgen":
			hy.pgen, err = read_records[rawGen](&ck, 4)
		case "inst":
			hy.inst, err = read_records[rawInstHeader](&ck, 22)
		case "ibag":
			hy.ibag, err = read_records[rawBag](&ck, 4)
		case "imod":
			hy.imod, err = read_records[rawMod](&ck, 10)
		case "igen":
			hy.igen, err = read_records[rawGen](&ck, 4)
		case "shdr":
			hy.shdr, err = read_records[rawSampleHeader](&ck, 46)
		}
		if err != nil {
			return fmt.Errorf("%q: %w", ck.id[:], err)
		}
	}
}

// mod_from_raw decodes a hydra modulator record.  Unknown source
// shapes and non-linear transforms deactivate the modulator by zeroing
// its amount, per SF2.01; unaddressable destinations drop it entirely.
func mod_from_raw(raw *rawMod) (Mod, bool) {
	if raw.DestOper >= GenLast {
		return Mod{}, false
	}

	decode_src := func(word uint16) (ModSrc, bool) {
		src := ModSrc{
			Index:    uint8(word & 0x7f),
			CC:       word&0x80 != 0,
			Negative: word&0x100 != 0,
			Bipolar:  word&0x200 != 0,
		}
		shape := word >> 10
		if shape > uint16(ModSwitch) {
			src.Shape = modShapeUnknown
			return src, false
		}
		src.Shape = ModShape(shape)
		return src, true
	}

	m := Mod{
		Dest:   GenType(raw.DestOper),
		Amount: float64(raw.Amount),
	}

	var ok1, ok2 bool
	m.Src1, ok1 = decode_src(raw.SrcOper)
	m.Src2, ok2 = decode_src(raw.AmtSrcOper)

	// SF2.01 only defines the linear transform.
	if !ok1 || !ok2 || raw.TransOper != 0 {
		m.Amount = 0.0
	}
	return m, true
}

// zone_bounds returns the [start, end) generator record range and the
// first modulator record of zone j.
func zone_bounds(bags []rawBag, j int, genTotal int) (genLo, genHi, modLo int) {
	genLo = int(bags[j].GenIndex)
	modLo = int(bags[j].ModIndex)
	genHi = genTotal
	if j+1 < len(bags) {
		genHi = int(bags[j+1].GenIndex)
	}
	return
}

func assemble_font(font *SoundFont, hy *hydra, sampleData []int16) {
	// Samples.  The terminal "EOS" record is dropped.
	samples := make([]*Sample, 0, len(hy.shdr))
	for i := range hy.shdr {
		h := &hy.shdr[i]
		name := zero_terminated(h.Name[:])
		if name == "EOS" {
			continue
		}
		s := &Sample{
			Name:       name,
			Start:      h.Start,
			End:        h.End,
			LoopStart:  h.LoopStart,
			LoopEnd:    h.LoopEnd,
			OrigPitch:  h.OrigPitch,
			PitchAdj:   h.PitchAdj,
			SampleRate: h.SampleRate,
			Type:       SampleType(h.SampleType),
			Data:       sampleData,
		}
		if s.End > 0 {
			s.End-- // shdr end is one past the last valid point
		}
		import_sample(s)
		samples = append(samples, s)
	}

	// Instruments.
	instruments := make([]*Instrument, 0, len(hy.inst))
	for i := range hy.inst {
		name := zero_terminated(hy.inst[i].Name[:])
		if name == "EOI" {
			continue
		}
		inst := &Instrument{Name: name}

		lo := int(hy.inst[i].BagIndex)
		hi := len(hy.ibag)
		if i+1 < len(hy.inst) {
			hi = int(hy.inst[i+1].BagIndex)
		}

		for j := lo; j < hi && j < len(hy.ibag); j++ {
			zone := &InstrumentZone{
				Name:    fmt.Sprintf("%s/%d", name, j-lo),
				KeyHigh: 127,
				VelHigh: 127,
			}
			gen_set_zone_defaults(&zone.Gen)

			genLo, genHi, modLo := zone_bounds(hy.ibag, j, len(hy.igen))

			for g := genLo; g < genHi && g < len(hy.igen); g++ {
				rg := &hy.igen[g]
				switch GenType(rg.Oper) {
				case GenKeyRange:
					zone.KeyLow = uint8(rg.Amount & 0xff)
					zone.KeyHigh = uint8(rg.Amount >> 8)
				case GenVelRange:
					zone.VelLow = uint8(rg.Amount & 0xff)
					zone.VelHigh = uint8(rg.Amount >> 8)
				case GenSampleID:
					if int(rg.Amount) < len(samples) {
						zone.Sample = samples[rg.Amount]
					}
				default:
					if rg.Oper < GenLast {
						zone.Gen[rg.Oper].Val = float64(int16(rg.Amount))
						zone.Gen[rg.Oper].Flags = genSet
					}
				}
			}

			for m := modLo; m < len(hy.imod) && m < mod_hi_for(hy.ibag, j, len(hy.imod)); m++ {
				if mod, ok := mod_from_raw(&hy.imod[m]); ok {
					zone.Mods = append(zone.Mods, mod)
				}
			}

			if zone.Sample == nil {
				// A sample-less first zone is the instrument's
				// global zone.
				if inst.GlobalZone == nil && len(inst.Zones) == 0 {
					inst.GlobalZone = zone
				}
				continue
			}
			inst.Zones = append(inst.Zones, zone)
		}
		instruments = append(instruments, inst)
	}

	// Presets.
	for i := range hy.phdr {
		h := &hy.phdr[i]
		name := zero_terminated(h.Name[:])
		if name == "EOP" {
			continue
		}
		preset := &Preset{
			Name: name,
			Bank: uint32(h.Bank),
			Num:  uint32(h.Preset),
		}

		lo := int(h.BagIndex)
		hi := len(hy.pbag)
		if i+1 < len(hy.phdr) {
			hi = int(hy.phdr[i+1].BagIndex)
		}

		for j := lo; j < hi && j < len(hy.pbag); j++ {
			zone := &PresetZone{
				Name:    fmt.Sprintf("%s/%d", name, j-lo),
				KeyHigh: 127,
				VelHigh: 127,
			}
			gen_set_zone_defaults(&zone.Gen)

			genLo, genHi, modLo := zone_bounds(hy.pbag, j, len(hy.pgen))

			for g := genLo; g < genHi && g < len(hy.pgen); g++ {
				rg := &hy.pgen[g]
				switch GenType(rg.Oper) {
				case GenKeyRange:
					zone.KeyLow = uint8(rg.Amount & 0xff)
					zone.KeyHigh = uint8(rg.Amount >> 8)
				case GenVelRange:
					zone.VelLow = uint8(rg.Amount & 0xff)
					zone.VelHigh = uint8(rg.Amount >> 8)
				case GenInstrument:
					if int(rg.Amount) < len(instruments) {
						zone.Inst = instruments[rg.Amount]
					}
				default:
					if rg.Oper < GenLast {
						zone.Gen[rg.Oper].Val = float64(int16(rg.Amount))
						zone.Gen[rg.Oper].Flags = genSet
					}
				}
			}

			for m := modLo; m < len(hy.pmod) && m < mod_hi_for(hy.pbag, j, len(hy.pmod)); m++ {
				if mod, ok := mod_from_raw(&hy.pmod[m]); ok {
					zone.Mods = append(zone.Mods, mod)
				}
			}

			if zone.Inst == nil {
				if preset.GlobalZone == nil && len(preset.Zones) == 0 {
					preset.GlobalZone = zone
				}
				continue
			}
			preset.Zones = append(preset.Zones, zone)
		}
		font.Presets = append(font.Presets, preset)
	}
}

func mod_hi_for(bags []rawBag, j int, total int) int {
	if j+1 < len(bags) {
		return int(bags[j+1].ModIndex)
	}
	return total
}

// gen_set_zone_defaults clears a zone generator array.  Zone slots
// start unset (flags clear); the synthesis defaults are applied per
// voice, not per zone.
func gen_set_zone_defaults(gen *[GenLast]Gen) {
	for i := range gen {
		gen[i] = Gen{}
	}
}
