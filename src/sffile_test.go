package borzoi

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
 * A minimal but structurally valid SoundFont file, assembled in
 * memory: one preset (bank 2, program 3) -> one instrument with a
 * global zone -> one sample.
 */

func ck(id string, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func list(ty string, chunks ...[]byte) []byte {
	var body bytes.Buffer
	body.WriteString(ty)
	for _, c := range chunks {
		body.Write(c)
	}
	return ck("LIST", body.Bytes())
}

func records(recs ...any) []byte {
	var buf bytes.Buffer
	for _, r := range recs {
		binary.Write(&buf, binary.LittleEndian, r)
	}
	return buf.Bytes()
}

func name20(s string) (out [20]byte) {
	copy(out[:], s)
	return
}

func build_test_sf2() []byte {
	// 100 sample points: a short ramp.
	var smpl = make([]int16, 100)
	for i := range smpl {
		smpl[i] = int16(i * 100)
	}

	var info = list("INFO",
		ck("ifil", []byte{2, 0, 1, 0}),
		ck("INAM", []byte("Test Font\x00")),
	)

	var sdta = list("sdta", ck("smpl", records(smpl)))

	var phdr = ck("phdr", records(
		rawPresetHeader{Name: name20("P1"), Preset: 3, Bank: 2, BagIndex: 0},
		rawPresetHeader{Name: name20("EOP"), BagIndex: 1},
	))
	var pbag = ck("pbag", records(
		rawBag{GenIndex: 0, ModIndex: 0},
		rawBag{GenIndex: 2, ModIndex: 0},
	))
	var pmod = ck("pmod", records(rawMod{}))
	var pgen = ck("pgen", records(
		rawGen{Oper: uint16(GenAttenuation), Amount: 10},
		rawGen{Oper: uint16(GenInstrument), Amount: 0},
	))

	var inst = ck("inst", records(
		rawInstHeader{Name: name20("I1"), BagIndex: 0},
		rawInstHeader{Name: name20("EOI"), BagIndex: 2},
	))
	var ibag = ck("ibag", records(
		rawBag{GenIndex: 0, ModIndex: 0}, // global zone (no SampleID)
		rawBag{GenIndex: 1, ModIndex: 0},
		rawBag{GenIndex: 4, ModIndex: 0},
	))
	var imod = ck("imod", records(rawMod{}))
	var igen = ck("igen", records(
		rawGen{Oper: uint16(GenPan), Amount: 250},
		rawGen{Oper: uint16(GenKeyRange), Amount: 10 | 20<<8},
		rawGen{Oper: uint16(GenSampleMode), Amount: 1},
		rawGen{Oper: uint16(GenSampleID), Amount: 0},
	))

	var shdr = ck("shdr", records(
		rawSampleHeader{
			Name:       name20("S1"),
			Start:      0,
			End:        100,
			LoopStart:  8,
			LoopEnd:    92,
			SampleRate: 44100,
			OrigPitch:  60,
			SampleType: uint16(SampleTypeMono),
		},
		rawSampleHeader{Name: name20("EOS")},
	))

	var pdta = list("pdta", phdr, pbag, pmod, pgen, inst, ibag, imod, igen, shdr)

	var body bytes.Buffer
	body.WriteString("sfbk")
	body.Write(info)
	body.Write(sdta)
	body.Write(pdta)

	return ck("RIFF", body.Bytes())
}

func Test_load_soundfont(t *testing.T) {
	font, err := LoadSoundFont(bytes.NewReader(build_test_sf2()))
	require.NoError(t, err)

	assert.Equal(t, "Test Font", font.Name)
	require.Len(t, font.Presets, 1)

	var preset = font.Presets[0]
	assert.Equal(t, "P1", preset.Name)
	assert.EqualValues(t, 2, preset.Bank)
	assert.EqualValues(t, 3, preset.Num)
	assert.Nil(t, preset.GlobalZone)
	require.Len(t, preset.Zones, 1)

	var pzone = preset.Zones[0]
	assert.Equal(t, 10.0, pzone.Gen[GenAttenuation].Val)
	assert.Equal(t, genSet, pzone.Gen[GenAttenuation].Flags)
	// Default ranges when the zone doesn't set them.
	assert.EqualValues(t, 0, pzone.KeyLow)
	assert.EqualValues(t, 127, pzone.KeyHigh)

	var inst = pzone.Inst
	require.NotNil(t, inst)
	assert.Equal(t, "I1", inst.Name)

	require.NotNil(t, inst.GlobalZone)
	assert.Equal(t, 250.0, inst.GlobalZone.Gen[GenPan].Val)

	require.Len(t, inst.Zones, 1)
	var izone = inst.Zones[0]
	assert.EqualValues(t, 10, izone.KeyLow)
	assert.EqualValues(t, 20, izone.KeyHigh)
	assert.Equal(t, 1.0, izone.Gen[GenSampleMode].Val)

	var sample = izone.Sample
	require.NotNil(t, sample)
	assert.Equal(t, "S1", sample.Name)
	assert.EqualValues(t, 0, sample.Start)
	assert.EqualValues(t, 99, sample.End) // shdr end is exclusive
	assert.EqualValues(t, 8, sample.LoopStart)
	assert.EqualValues(t, 92, sample.LoopEnd)
	assert.EqualValues(t, 44100, sample.SampleRate)
	assert.EqualValues(t, 60, sample.OrigPitch)
	assert.True(t, sample.playable())
	assert.True(t, sample.amplitude_valid)
	assert.Len(t, sample.Data, 100)
}

func Test_load_soundfont_rejects_garbage(t *testing.T) {
	_, err := LoadSoundFont(bytes.NewReader([]byte("not a soundfont at all......")))
	assert.Error(t, err)

	// A RIFF file that is not sfbk.
	_, err = LoadSoundFont(bytes.NewReader(ck("RIFF", []byte("WAVEdata"))))
	assert.ErrorIs(t, err, ErrBadSoundFont)
}

func Test_mod_from_raw(t *testing.T) {
	// CC7, negative, unipolar, concave -> attenuation: the standard
	// volume modulator shape.
	var raw = rawMod{
		SrcOper:  0x7 | 0x80 | 0x100 | 1<<10,
		DestOper: uint16(GenAttenuation),
		Amount:   960,
	}
	m, ok := mod_from_raw(&raw)
	require.True(t, ok)
	assert.EqualValues(t, 7, m.Src1.Index)
	assert.True(t, m.Src1.CC)
	assert.True(t, m.Src1.Negative)
	assert.False(t, m.Src1.Bipolar)
	assert.Equal(t, ModConcave, m.Src1.Shape)
	assert.Equal(t, GenAttenuation, m.Dest)
	assert.Equal(t, 960.0, m.Amount)

	// A non-linear transform deactivates the modulator.
	raw.TransOper = 2
	m, ok = mod_from_raw(&raw)
	require.True(t, ok)
	assert.Equal(t, 0.0, m.Amount)

	// An unknown source shape deactivates it too.
	raw.TransOper = 0
	raw.SrcOper = 0x7 | 0x80 | 9<<10
	m, ok = mod_from_raw(&raw)
	require.True(t, ok)
	assert.Equal(t, 0.0, m.Amount)

	// An unaddressable destination drops the record.
	raw.DestOper = 99
	_, ok = mod_from_raw(&raw)
	assert.False(t, ok)
}

func Test_loaded_font_plays(t *testing.T) {
	font, err := LoadSoundFont(bytes.NewReader(build_test_sf2()))
	require.NoError(t, err)

	var desc = DefaultSynthDescriptor()
	desc.Gain = 1.0
	desc.ReverbActive = false
	desc.ChorusActive = false

	synth, err := NewSynth(desc)
	require.NoError(t, err)
	synth.AddFont(font, true)

	require.NoError(t, synth.SendEvent(ControlChange{Channel: 0, Ctrl: 0, Value: 2}))
	require.NoError(t, synth.SendEvent(ProgramChange{Channel: 0, Program: 3}))
	require.NoError(t, synth.SendEvent(NoteOn{Channel: 0, Key: 15, Vel: 100}))

	left, _ := pull_frames(synth, 4096)
	assert.Greater(t, peak(left), 0.0)
}
