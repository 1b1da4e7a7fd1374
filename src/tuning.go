package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	Key and octave tunings.
 *
 * Description:	A tuning assigns every MIDI key a pitch in cents.  The
 *		well tempered default is key * 100.  Tunings live in a
 *		128 x 128 (bank, program) table and are selected per
 *		channel; the pitch effect is applied when a voice
 *		starts.
 *
 *----------------------------------------------------------------*/

import "fmt"

const tuningBanks = 128
const tuningProgs = 128

// Tuning maps the 128 MIDI keys to pitches in cents.
type Tuning struct {
	Name  string
	Bank  uint32
	Prog  uint32
	pitch [128]float64
}

// NewTuning returns a well tempered tuning.
func NewTuning(name string, bank, prog uint32) *Tuning {
	t := &Tuning{Name: name, Bank: bank, Prog: prog}
	for i := range t.pitch {
		t.pitch[i] = float64(i) * 100.0
	}
	return t
}

// SetKey sets the pitch of one key in cents.
func (t *Tuning) SetKey(key uint8, cents float64) {
	if int(key) < len(t.pitch) {
		t.pitch[key] = cents
	}
}

// SetOctave applies a 12 entry octave tuning: derivations in cents
// from the well tempered scale, index 0 being C.
func (t *Tuning) SetOctave(pitch_deriv *[12]float64) {
	for i := range t.pitch {
		t.pitch[i] = float64(i)*100.0 + pitch_deriv[i%12]
	}
}

// Pitch returns the tuning table.
func (t *Tuning) Pitch() *[128]float64 {
	return &t.pitch
}

type tuningTable struct {
	tunings map[uint32]*Tuning
}

func new_tuning_table() *tuningTable {
	return &tuningTable{tunings: make(map[uint32]*Tuning)}
}

func tuning_key(bank, prog uint32) uint32 {
	return bank<<8 | prog
}

func (tt *tuningTable) check(bank, prog uint32) error {
	if bank >= tuningBanks || prog >= tuningProgs {
		return ErrTuningOutOfRange
	}
	return nil
}

func (tt *tuningTable) get(bank, prog uint32) *Tuning {
	return tt.tunings[tuning_key(bank, prog)]
}

// get_or_create returns the tuning, making a fresh well tempered one
// when the slot is empty.
func (tt *tuningTable) get_or_create(bank, prog uint32) *Tuning {
	if t := tt.get(bank, prog); t != nil {
		return t
	}
	t := NewTuning(fmt.Sprintf("tuning-%d-%d", bank, prog), bank, prog)
	tt.tunings[tuning_key(bank, prog)] = t
	return t
}

func (tt *tuningTable) set(t *Tuning) {
	tt.tunings[tuning_key(t.Bank, t.Prog)] = t
}

// all returns every defined tuning, in no particular order.
func (tt *tuningTable) all() []*Tuning {
	out := make([]*Tuning, 0, len(tt.tunings))
	for _, t := range tt.tunings {
		out = append(out, t)
	}
	return out
}
