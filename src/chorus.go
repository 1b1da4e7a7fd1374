package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The chorus unit: a multi-tap delay line modulated by a
 *		sine or triangle LFO, read through a 5 point windowed
 *		sinc interpolator.
 *
 * Description:	Up to 99 taps ("blocks") share one ring buffer, their
 *		LFO phases spread evenly over the modulation period.
 *		A lookup table maps LFO phase to a delay in subsamples
 *		(128 per sample, 7 fractional bits).  Both output channels get the same
 *		signal; the stereo impression comes from summing with
 *		the dry signal.
 *
 *----------------------------------------------------------------*/

import "math"

const chorusMinSpeedHz = 0.29
const chorusMaxSpeedHz = 5.0
const chorusMaxBlocks = 99

/* Length of the delay line in samples, set through its log2.  */
const (
	chorusMaxSamplesLn2 = 12
	chorusMaxSamples    = 1 << (chorusMaxSamplesLn2 - 1)
	chorusSamplesMask   = chorusMaxSamples - 1
)

const (
	chorusSubsamplesLn2 = 8
	chorusSubsamples    = 1 << (chorusSubsamplesLn2 - 1)
	chorusSubsMask      = chorusSubsamples - 1
)

const chorusInterpSamples = 5

// ChorusMode selects the LFO waveform.
type ChorusMode uint32

const (
	ChorusSine     ChorusMode = 0
	ChorusTriangle ChorusMode = 1
)

// ChorusParams is the user-facing parameter set.
type ChorusParams struct {
	NR    uint32  // number of delay taps
	Level float32 // output level
	Speed float32 // LFO speed in Hz
	Depth float32 // modulation depth in ms
	Mode  ChorusMode
}

// DefaultChorusParams returns the power-on chorus settings.
func DefaultChorusParams() ChorusParams {
	return ChorusParams{NR: 3, Level: 2.0, Speed: 0.3, Depth: 8.0, Mode: ChorusSine}
}

// Chorus is the effect unit.
type Chorus struct {
	mode       ChorusMode
	new_mode   ChorusMode
	depth_ms   float32
	new_depth  float32
	level      float32
	new_level  float32
	speed_hz   float32
	new_speed  float32
	number_blocks     uint32
	new_number_blocks uint32

	chorusbuf [chorusMaxSamples]float32
	counter   int32
	phase     [chorusMaxBlocks]int

	modulation_period_samples int
	lookup_tab                []int32
	sample_rate               float32
	sinc_table                [chorusInterpSamples][128]float32
}

func new_chorus(sample_rate float32) *Chorus {
	c := &Chorus{
		lookup_tab:  make([]int32, int(sample_rate/chorusMinSpeedHz)),
		sample_rate: sample_rate,
	}

	for i := 0; i < chorusInterpSamples; i++ {
		for ii := 0; ii < chorusSubsamples; ii++ {
			// move the origin into the center of the table
			i_shifted := float64(i) - float64(chorusInterpSamples)/2.0 +
				float64(ii)/float64(chorusSubsamples)

			if math.Abs(i_shifted) < 0.000001 {
				// sinc(0) needs its limit taken by hand (0/0)
				c.sinc_table[i][ii] = 1.0
			} else {
				v := math.Sin(i_shifted*math.Pi) / (math.Pi * i_shifted)
				// Hamming window
				v *= 0.5 * (1.0 + math.Cos(2.0*math.Pi*i_shifted/float64(chorusInterpSamples)))
				c.sinc_table[i][ii] = float32(v)
			}
		}
	}

	c.init()
	return c
}

func (c *Chorus) init() {
	for i := range c.chorusbuf {
		c.chorusbuf[i] = 0.0
	}
	c.set_params(DefaultChorusParams())
}

// reset clears the delay line and restores the default parameters.
func (c *Chorus) reset() {
	c.init()
}

/*------------------------------------------------------------------
 *
 * Name:	update
 *
 * Purpose:	Validate the pending parameters, rebuild the LFO
 *		lookup table and restart the tap phases.
 *
 *----------------------------------------------------------------*/

func (c *Chorus) update() {
	if c.new_number_blocks > chorusMaxBlocks {
		diag.Warnf("chorus: number blocks larger than max. allowed! Setting value to %d.", chorusMaxBlocks)
		c.new_number_blocks = chorusMaxBlocks
	}
	if c.new_speed < chorusMinSpeedHz {
		diag.Warnf("chorus: speed is too low (min %v)! Setting value to min.", chorusMinSpeedHz)
		c.new_speed = chorusMinSpeedHz
	} else if c.new_speed > chorusMaxSpeedHz {
		diag.Warnf("chorus: speed must be below %v Hz! Setting value to max.", chorusMaxSpeedHz)
		c.new_speed = chorusMaxSpeedHz
	}
	if c.new_depth < 0.0 {
		diag.Warnf("chorus: depth must be positive! Setting value to 0.")
		c.new_depth = 0.0
	}
	if c.new_level < 0.0 {
		diag.Warnf("chorus: level must be positive! Setting value to 0.")
		c.new_level = 0.0
	} else if c.new_level > 10.0 {
		diag.Warnf("chorus: level must be < 10. A reasonable level is << 1! Setting it to 0.1.")
		c.new_level = 0.1
	}

	c.modulation_period_samples = int(c.sample_rate / c.new_speed)

	modulation_depth_samples := int32(c.new_depth / 1000.0 * c.sample_rate)
	if modulation_depth_samples > chorusMaxSamples {
		diag.Warnf("chorus: too high depth. Setting it to max (%d).", chorusMaxSamples)
		modulation_depth_samples = chorusMaxSamples
	}

	switch c.new_mode {
	case ChorusSine:
		modulate_sine(c.lookup_tab, c.modulation_period_samples, modulation_depth_samples)
	case ChorusTriangle:
		modulate_triangle(c.lookup_tab, c.modulation_period_samples, modulation_depth_samples)
	default:
		diag.Warnf("chorus: unknown modulation type. Using sinewave.")
		c.new_mode = ChorusSine
		modulate_sine(c.lookup_tab, c.modulation_period_samples, modulation_depth_samples)
	}

	for i := 0; i < int(c.new_number_blocks); i++ {
		c.phase[i] = c.modulation_period_samples * i / int(c.new_number_blocks)
	}

	c.counter = 0
	c.mode = c.new_mode
	c.depth_ms = c.new_depth
	c.level = c.new_level
	c.speed_hz = c.new_speed
	c.number_blocks = c.new_number_blocks
}

// taps_out reads all taps for the current counter position and sums
// them at the output level.
func (c *Chorus) taps_out() float32 {
	var d_out float32

	for i := 0; i < int(c.number_blocks); i++ {
		/* The delay in subsamples for this tap.  The lookup table
		 * value includes a bias of several full delay line periods
		 * so this stays positive for any counter. */
		pos_subsamples := int32(chorusSubsamples)*c.counter - c.lookup_tab[c.phase[i]]

		pos_samples := pos_subsamples / chorusSubsamples
		pos_subsamples &= chorusSubsMask

		for ii := 0; ii < chorusInterpSamples; ii++ {
			d_out += c.chorusbuf[pos_samples&chorusSamplesMask] *
				c.sinc_table[ii][pos_subsamples]
			pos_samples--
		}

		c.phase[i]++
		c.phase[i] %= c.modulation_period_samples
	}

	return d_out * c.level
}

// process_mix runs one block through the chorus and adds the result to
// both output buffers.
func (c *Chorus) process_mix(in *[blockSize]float32, left_out, right_out *[blockSize]float32) {
	for i := 0; i < blockSize; i++ {
		c.chorusbuf[c.counter] = in[i]

		d_out := c.taps_out()
		left_out[i] += d_out
		right_out[i] += d_out

		c.counter++
		c.counter %= chorusMaxSamples
	}
}

// process_replace overwrites the output buffers; the left buffer
// doubles as the input.
func (c *Chorus) process_replace(left_out, right_out *[blockSize]float32) {
	for i := 0; i < blockSize; i++ {
		c.chorusbuf[c.counter] = left_out[i]

		d_out := c.taps_out()
		left_out[i] = d_out
		right_out[i] = d_out

		c.counter++
		c.counter %= chorusMaxSamples
	}
}

// set_params validates and applies a parameter set.
func (c *Chorus) set_params(p ChorusParams) {
	c.new_number_blocks = p.NR
	c.new_level = p.Level
	c.new_speed = p.Speed
	c.new_depth = p.Depth
	c.new_mode = p.Mode
	c.update()
}

// params returns the active parameter set, after clamping.
func (c *Chorus) params() ChorusParams {
	return ChorusParams{
		NR:    c.number_blocks,
		Level: c.level,
		Speed: c.speed_hz,
		Depth: c.depth_ms,
		Mode:  c.mode,
	}
}

// modulate_sine fills the lookup table with a sine delay modulation.
// The subtracted bias of 3 full delay line periods keeps the computed
// delay position positive for any counter value.
func modulate_sine(buf []int32, length int, depth int32) {
	for i := 0; i < length && i < len(buf); i++ {
		val := math.Sin(float64(i) / float64(length) * 2.0 * math.Pi)
		buf[i] = int32((1.0+val)*float64(depth)/2.0*float64(chorusSubsamples)) -
			3*chorusMaxSamples*chorusSubsamples
	}
}

// modulate_triangle fills the lookup table with a triangle delay
// modulation, building the two ramps from both ends at once.
func modulate_triangle(buf []int32, length int, depth int32) {
	i := 0
	ii := length - 1
	for i <= ii {
		val := float64(i) * 2.0 / float64(length) * float64(depth) * float64(chorusSubsamples)
		val2 := int32(val+0.5) - 3*chorusMaxSamples*chorusSubsamples

		if i < len(buf) {
			buf[i] = val2
		}
		if ii < len(buf) {
			buf[ii] = val2
		}
		i++
		ii--
	}
}
