package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The SoundFont generator table.
 *
 *		A generator is one of 60 named synthesis parameters
 *		(SF2.01 section 8.1.3).  Each voice carries the full
 *		array.  A slot sums three components: the static zone
 *		value, the running modulator total and the NRPN offset.
 *
 *----------------------------------------------------------------*/

// GenType identifies a generator slot.  The numeric values are fixed
// by SF2.01 and used directly for NRPN addressing, so they must never
// be reordered.
type GenType uint8

const (
	GenStartAddrOfs           GenType = 0  // sample start offset
	GenEndAddrOfs             GenType = 1  // sample end offset
	GenStartLoopAddrOfs       GenType = 2  // loop start offset
	GenEndLoopAddrOfs         GenType = 3  // loop end offset
	GenStartAddrCoarseOfs     GenType = 4  // start offset x 32768
	GenModLfoToPitch          GenType = 5  // mod LFO -> pitch
	GenVibLfoToPitch          GenType = 6  // vib LFO -> pitch
	GenModEnvToPitch          GenType = 7  // mod env -> pitch
	GenFilterFc               GenType = 8  // filter cutoff
	GenFilterQ                GenType = 9  // filter Q
	GenModLfoToFilterFc       GenType = 10 // mod LFO -> cutoff
	GenModEnvToFilterFc       GenType = 11 // mod env -> cutoff
	GenEndAddrCoarseOfs       GenType = 12 // end offset x 32768
	GenModLfoToVol            GenType = 13 // mod LFO -> volume
	GenUnused                 GenType = 14
	GenChorusSend             GenType = 15 // chorus send amount
	GenReverbSend             GenType = 16 // reverb send amount
	GenPan                    GenType = 17 // stereo panning
	GenUnused2                GenType = 18
	GenUnused3                GenType = 19
	GenUnused4                GenType = 20
	GenModLfoDelay            GenType = 21
	GenModLfoFreq             GenType = 22
	GenVibLfoDelay            GenType = 23
	GenVibLfoFreq             GenType = 24
	GenModEnvDelay            GenType = 25
	GenModEnvAttack           GenType = 26
	GenModEnvHold             GenType = 27
	GenModEnvDecay            GenType = 28
	GenModEnvSustain          GenType = 29
	GenModEnvRelease          GenType = 30
	GenKeyToModEnvHold        GenType = 31
	GenKeyToModEnvDecay       GenType = 32
	GenVolEnvDelay            GenType = 33
	GenVolEnvAttack           GenType = 34
	GenVolEnvHold             GenType = 35
	GenVolEnvDecay            GenType = 36
	GenVolEnvSustain          GenType = 37
	GenVolEnvRelease          GenType = 38
	GenKeyToVolEnvHold        GenType = 39
	GenKeyToVolEnvDecay       GenType = 40
	GenInstrument             GenType = 41 // preset zone -> instrument
	GenReserved1              GenType = 42
	GenKeyRange               GenType = 43
	GenVelRange               GenType = 44
	GenStartLoopAddrCoarseOfs GenType = 45
	GenKeyNum                 GenType = 46 // fixed MIDI key
	GenVelocity               GenType = 47 // fixed MIDI velocity
	GenAttenuation            GenType = 48 // initial attenuation
	GenReserved2              GenType = 49
	GenEndLoopAddrCoarseOfs   GenType = 50
	GenCoarseTune             GenType = 51
	GenFineTune               GenType = 52
	GenSampleID               GenType = 53 // instrument zone -> sample
	GenSampleMode             GenType = 54 // loop mode flags
	GenReserved3              GenType = 55
	GenScaleTune              GenType = 56
	GenExclusiveClass         GenType = 57
	GenOverrideRootKey        GenType = 58

	// GenPitch is not a real SoundFont generator.  SF2.04 leaves slot
	// 59 unused; it serves as the destination of the default pitch
	// wheel modulator, so every voice must reserve it.
	GenPitch GenType = 59

	GenLast = 60
)

// Flags for the Gen.Flags field.
const (
	genUnused  uint8 = 0
	genSet     uint8 = 1
	genAbsNrpn uint8 = 2
)

// Gen is one generator slot on a voice or zone.
type Gen struct {
	Flags uint8
	Val   float64 // static value from the zone
	Mod   float64 // summed modulator output
	Nrpn  float64 // NRPN offset
}

type genInfo struct {
	nrpnScale int8
	min       float32
	max       float32
	def       float32
}

// gen_info holds the static descriptor for every generator kind,
// indexed by GenType.  Values from SF2.01 section 8.1.3.
var gen_info = [GenLast]genInfo{
	GenStartAddrOfs:           {1, 0.0, 1e10, 0.0},
	GenEndAddrOfs:             {1, -1e10, 0.0, 0.0},
	GenStartLoopAddrOfs:       {1, -1e10, 1e10, 0.0},
	GenEndLoopAddrOfs:         {1, -1e10, 1e10, 0.0},
	GenStartAddrCoarseOfs:     {1, 0.0, 1e10, 0.0},
	GenModLfoToPitch:          {2, -12000.0, 12000.0, 0.0},
	GenVibLfoToPitch:          {2, -12000.0, 12000.0, 0.0},
	GenModEnvToPitch:          {2, -12000.0, 12000.0, 0.0},
	GenFilterFc:               {2, 1500.0, 13500.0, 13500.0},
	GenFilterQ:                {1, 0.0, 960.0, 0.0},
	GenModLfoToFilterFc:       {2, -12000.0, 12000.0, 0.0},
	GenModEnvToFilterFc:       {2, -12000.0, 12000.0, 0.0},
	GenEndAddrCoarseOfs:       {1, -1e10, 0.0, 0.0},
	GenModLfoToVol:            {1, -960.0, 960.0, 0.0},
	GenUnused:                 {0, 0.0, 0.0, 0.0},
	GenChorusSend:             {1, 0.0, 1000.0, 0.0},
	GenReverbSend:             {1, 0.0, 1000.0, 0.0},
	GenPan:                    {1, -500.0, 500.0, 0.0},
	GenUnused2:                {0, 0.0, 0.0, 0.0},
	GenUnused3:                {0, 0.0, 0.0, 0.0},
	GenUnused4:                {0, 0.0, 0.0, 0.0},
	GenModLfoDelay:            {2, -12000.0, 5000.0, -12000.0},
	GenModLfoFreq:             {4, -16000.0, 4500.0, 0.0},
	GenVibLfoDelay:            {2, -12000.0, 5000.0, -12000.0},
	GenVibLfoFreq:             {4, -16000.0, 4500.0, 0.0},
	GenModEnvDelay:            {2, -12000.0, 5000.0, -12000.0},
	GenModEnvAttack:           {2, -12000.0, 8000.0, -12000.0},
	GenModEnvHold:             {2, -12000.0, 5000.0, -12000.0},
	GenModEnvDecay:            {2, -12000.0, 8000.0, -12000.0},
	GenModEnvSustain:          {1, 0.0, 1000.0, 0.0},
	GenModEnvRelease:          {2, -12000.0, 8000.0, -12000.0},
	GenKeyToModEnvHold:        {1, -1200.0, 1200.0, 0.0},
	GenKeyToModEnvDecay:       {1, -1200.0, 1200.0, 0.0},
	GenVolEnvDelay:            {2, -12000.0, 5000.0, -12000.0},
	GenVolEnvAttack:           {2, -12000.0, 8000.0, -12000.0},
	GenVolEnvHold:             {2, -12000.0, 5000.0, -12000.0},
	GenVolEnvDecay:            {2, -12000.0, 8000.0, -12000.0},
	GenVolEnvSustain:          {1, 0.0, 1440.0, 0.0},
	GenVolEnvRelease:          {2, -12000.0, 8000.0, -12000.0},
	GenKeyToVolEnvHold:        {1, -1200.0, 1200.0, 0.0},
	GenKeyToVolEnvDecay:       {1, -1200.0, 1200.0, 0.0},
	GenInstrument:             {0, 0.0, 0.0, 0.0},
	GenReserved1:              {0, 0.0, 0.0, 0.0},
	GenKeyRange:               {0, 0.0, 127.0, 0.0},
	GenVelRange:               {0, 0.0, 127.0, 0.0},
	GenStartLoopAddrCoarseOfs: {1, -1e10, 1e10, 0.0},
	GenKeyNum:                 {0, 0.0, 127.0, -1.0},
	GenVelocity:               {1, 0.0, 127.0, -1.0},
	GenAttenuation:            {1, 0.0, 1440.0, 0.0},
	GenReserved2:              {0, 0.0, 0.0, 0.0},
	GenEndLoopAddrCoarseOfs:   {1, -1e10, 1e10, 0.0},
	GenCoarseTune:             {1, -120.0, 120.0, 0.0},
	GenFineTune:               {1, -99.0, 99.0, 0.0},
	GenSampleID:               {0, 0.0, 0.0, 0.0},
	GenSampleMode:             {0, 0.0, 0.0, 0.0},
	GenReserved3:              {0, 0.0, 0.0, 0.0},
	GenScaleTune:              {1, 0.0, 1200.0, 100.0},
	GenExclusiveClass:         {0, 0.0, 0.0, 0.0},
	GenOverrideRootKey:        {0, 0.0, 127.0, -1.0},
	GenPitch:                  {0, 0.0, 127.0, 0.0},
}

// gen_set_default_values resets a generator array to the SF2 defaults.
func gen_set_default_values(gen *[GenLast]Gen) {
	for i := range gen {
		gen[i] = Gen{Flags: genUnused, Val: float64(gen_info[i].def)}
	}
}

// gen_init builds the initial generator array for a new voice: the SF2
// defaults plus any NRPN offsets staged on the channel.
func gen_init(gen *[GenLast]Gen, channel *Channel) {
	gen_set_default_values(gen)
	for i := range gen {
		gen[i].Nrpn = float64(channel.gen[i])
		if channel.gen_abs[i] {
			gen[i].Flags = genAbsNrpn
		}
	}
}

// gen_scale_nrpn converts a raw 14-bit NRPN data entry value into
// generator units using the per-kind scale factor.
func gen_scale_nrpn(gen GenType, data int) float32 {
	value := float32(data) - 8192.0
	if value < -8192.0 {
		value = -8192.0
	} else if value > 8192.0 {
		value = 8192.0
	}
	return value * float32(gen_info[gen].nrpnScale)
}
