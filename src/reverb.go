package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The reverb unit: classic Freeverb topology, 8 parallel
 *		Schroeder-Moorer comb filters into 4 series all-pass
 *		filters, in stereo.
 *
 * Description:	The right channel uses comb and all-pass sizes offset
 *		by 23 samples for stereo spread.  All tunings assume a
 *		44100 Hz reference rate and are not resampled.  A tiny
 *		DC offset rides on the input and is subtracted from the
 *		output so the filter states never decay into denormal
 *		numbers, which stall the FPU.
 *
 *----------------------------------------------------------------*/

const reverbDCOffset = 1e-8
const reverbStereoSpread = 23

var comb_tuning = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpass_tuning = [4]int{556, 441, 341, 225}

type comb struct {
	feedback    float32
	filterstore float32
	damp1       float32
	damp2       float32
	buffer      []float32
	bufidx      int
}

func new_comb(size int) comb {
	buf := make([]float32, size)
	for i := range buf {
		buf[i] = reverbDCOffset
	}
	return comb{buffer: buf}
}

func (c *comb) set_damp(val float32) {
	c.damp1 = val
	c.damp2 = 1.0 - val
}

func (c *comb) process(input float32) float32 {
	tmp := c.buffer[c.bufidx]
	c.filterstore = tmp*c.damp2 + c.filterstore*c.damp1
	c.buffer[c.bufidx] = input + c.filterstore*c.feedback
	c.bufidx++
	if c.bufidx >= len(c.buffer) {
		c.bufidx = 0
	}
	return tmp
}

type allpass struct {
	feedback float32
	buffer   []float32
	bufidx   int
}

func new_allpass(size int, feedback float32) allpass {
	buf := make([]float32, size)
	for i := range buf {
		buf[i] = reverbDCOffset
	}
	return allpass{feedback: feedback, buffer: buf}
}

func (a *allpass) process(input float32) float32 {
	bufout := a.buffer[a.bufidx]
	output := bufout - input
	a.buffer[a.bufidx] = input + bufout*a.feedback
	a.bufidx++
	if a.bufidx >= len(a.buffer) {
		a.bufidx = 0
	}
	return output
}

// ReverbParams is the user-facing parameter set.
type ReverbParams struct {
	RoomSize float32 // 0..1
	Damp     float32 // 0..1
	Width    float32 // 0..1, L/R cross-feed
	Level    float32 // 0..1, wet level
}

// DefaultReverbParams returns the power-on reverb settings.
func DefaultReverbParams() ReverbParams {
	return ReverbParams{RoomSize: 0.2, Damp: 0.0, Width: 0.5, Level: 0.9}
}

// Reverb is the effect unit.
type Reverb struct {
	active bool

	roomsize float32 // stored as comb feedback: value*0.28 + 0.7
	damp     float32
	wet      float32 // level * 3
	wet1     float32
	wet2     float32
	width    float32
	gain     float32

	comb_l    [8]comb
	comb_r    [8]comb
	allpass_l [4]allpass
	allpass_r [4]allpass
}

func new_reverb(active bool) *Reverb {
	r := &Reverb{
		active: active,
		gain:   0.015,
		width:  1.0,
	}
	r.alloc_lines()
	r.set_params(DefaultReverbParams())
	return r
}

func (r *Reverb) alloc_lines() {
	for i, size := range comb_tuning {
		r.comb_l[i] = new_comb(size)
		r.comb_r[i] = new_comb(size + reverbStereoSpread)
	}
	for i, size := range allpass_tuning {
		r.allpass_l[i] = new_allpass(size, 0.5)
		r.allpass_r[i] = new_allpass(size+reverbStereoSpread, 0.5)
	}
	r.update()
}

// reset clears all delay lines.
func (r *Reverb) reset() {
	r.alloc_lines()
}

func (r *Reverb) update() {
	r.wet1 = r.wet * (r.width/2.0 + 0.5)
	r.wet2 = r.wet * ((1.0 - r.width) / 2.0)
	for i := range r.comb_l {
		r.comb_l[i].feedback = r.roomsize
		r.comb_r[i].feedback = r.roomsize
		r.comb_l[i].set_damp(r.damp)
		r.comb_r[i].set_damp(r.damp)
	}
}

// process_replace overwrites the output buffers; the left buffer
// doubles as the input.
func (r *Reverb) process_replace(left_out, right_out *[blockSize]float32) {
	for k := 0; k < blockSize; k++ {
		var out_l, out_r float32

		input := (2.0*left_out[k] + reverbDCOffset) * r.gain

		for i := range r.comb_l {
			out_l += r.comb_l[i].process(input)
			out_r += r.comb_r[i].process(input)
		}
		for i := range r.allpass_l {
			out_l = r.allpass_l[i].process(out_l)
			out_r = r.allpass_r[i].process(out_r)
		}

		out_l -= reverbDCOffset
		out_r -= reverbDCOffset

		left_out[k] = out_l*r.wet1 + out_r*r.wet2
		right_out[k] = out_r*r.wet1 + out_l*r.wet2
	}
}

// process_mix accumulates the reverb of in into the output buffers.
func (r *Reverb) process_mix(in *[blockSize]float32, left_out, right_out *[blockSize]float32) {
	for k := 0; k < blockSize; k++ {
		var out_l, out_r float32

		input := (2.0*in[k] + reverbDCOffset) * r.gain

		for i := range r.comb_l {
			out_l += r.comb_l[i].process(input)
			out_r += r.comb_r[i].process(input)
		}
		for i := range r.allpass_l {
			out_l = r.allpass_l[i].process(out_l)
			out_r = r.allpass_r[i].process(out_r)
		}

		out_l -= reverbDCOffset
		out_r -= reverbDCOffset

		left_out[k] += out_l*r.wet1 + out_r*r.wet2
		right_out[k] += out_r*r.wet1 + out_l*r.wet2
	}
}

func (r *Reverb) set_room_size(value float32) {
	r.roomsize = value*0.28 + 0.7
}

func (r *Reverb) room_size() float32 {
	return (r.roomsize - 0.7) / 0.28
}

func (r *Reverb) set_level(value float32) {
	r.wet = clampf(value, 0.0, 1.0) * 3.0
}

func (r *Reverb) level() float32 {
	return r.wet / 3.0
}

// set_params validates and applies a parameter set.
func (r *Reverb) set_params(p ReverbParams) {
	r.set_room_size(p.RoomSize)
	r.damp = p.Damp
	r.width = p.Width
	r.set_level(p.Level)
	r.update()
}

// params returns the active parameter set.
func (r *Reverb) params() ReverbParams {
	return ReverbParams{
		RoomSize: r.room_size(),
		Damp:     r.damp,
		Width:    r.width,
		Level:    r.level(),
	}
}
