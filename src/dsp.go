package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The interpolating resamplers of the voice DSP loop.
 *
 * Description:	The playback pointer is a 64 bit phase: integer sample
 *		index in the upper 32 bits, fraction in the lower 32.
 *		The top 8 bits of the fraction select one of 256 rows
 *		of precomputed interpolation coefficients.
 *
 *		Each method handles the boundary regions (voice start,
 *		the last points before the loop end, the first points
 *		after the wrap) with explicit one sample at a time
 *		loops that substitute duplicated or wrapped end points
 *		for out of range indices.
 *
 *		The coefficient math comes from a mail posted by Olli
 *		Niemitalo to the music-dsp mailing list.
 *
 *----------------------------------------------------------------*/

import "math"

const (
	interpMax       = 256
	sincInterpOrder = 7
)

var interp_coeff_linear [interpMax][2]float32
var interp_coeff [interpMax][4]float32
var sinc_table7 [interpMax][sincInterpOrder]float32

func init() {
	for i := 0; i < interpMax; i++ {
		x := float64(i) / float64(interpMax)

		interp_coeff[i][0] = float32(x * (-0.5 + x*(1.0-0.5*x)))
		interp_coeff[i][1] = float32(1.0 + x*x*(1.5*x-2.5))
		interp_coeff[i][2] = float32(x * (0.5 + x*(2.0-1.5*x)))
		interp_coeff[i][3] = float32(0.5 * x * x * (x - 1.0))

		interp_coeff_linear[i][0] = float32(1.0 - x)
		interp_coeff_linear[i][1] = float32(x)
	}

	// 7 point Hamming windowed sinc.
	for i := 0; i < sincInterpOrder; i++ {
		for i2 := 0; i2 < interpMax; i2++ {
			// center on the middle of the table
			i_shifted := float64(i) - float64(sincInterpOrder)/2.0 +
				float64(i2)/float64(interpMax)

			var v float64
			if math.Abs(i_shifted) > 0.000001 {
				// sinc(0) needs its limit taken by hand (0/0)
				v = math.Sin(i_shifted*math.Pi) / (math.Pi * i_shifted)
				// Hamming window
				v *= 0.5 * (1.0 + math.Cos(2.0*math.Pi*i_shifted/float64(sincInterpOrder)))
			} else {
				v = 1.0
			}

			sinc_table7[interpMax-i2-1][i] = float32(v)
		}
	}
}

// phase_index extracts the integer sample index.
func phase_index(phase uint64) int {
	return int(phase >> 32)
}

// phase_fract_to_tablerow maps the 32 bit fraction onto one of the 256
// coefficient table rows.
func phase_fract_to_tablerow(phase uint64) int {
	return int((phase >> 24) & 0xff)
}

// phase_from_incr converts the floating point playback speed into the
// fixed point phase increment format.
func phase_from_incr(b float32) uint64 {
	const fractMax = 4294967296.0
	d := float64(b)
	left := uint64(d) << 32
	right := uint64((d - math.Floor(d)) * fractMax)
	return left | right
}

/*------------------------------------------------------------------
 *
 * Name:	interpolate_none
 *
 * Purpose:	No interpolation: take the sample closest to the
 *		playback pointer.  Questionable quality, but very
 *		efficient.
 *
 * Returns:	Number of samples produced.  A short count means the
 *		end of a non-looping sample was reached.
 *
 *----------------------------------------------------------------*/

func (v *Voice) interpolate_none(dsp_buf *[blockSize]float32, dsp_amp_incr, phase_incr float32) int {
	dsp_phase := v.phase
	dsp_data := v.sample.Data
	dsp_amp := v.amp

	dsp_phase_incr := phase_from_incr(phase_incr)

	looping := v.looping()

	end_index := int(v.end)
	if looping {
		end_index = int(v.loopend) - 1
	}

	dsp_i := 0
	for {
		/* round to the nearest point */
		dsp_phase_index := phase_index(dsp_phase + 0x80000000)

		for dsp_i < blockSize && dsp_phase_index <= end_index {
			dsp_buf[dsp_i] = dsp_amp * float32(dsp_data[dsp_phase_index])

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase + 0x80000000)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		/* break out if not looping (the buffer may not be full) */
		if !looping {
			break
		}

		/* go back to the loop start */
		if dsp_phase_index > end_index {
			dsp_phase -= uint64(v.loopend-v.loopstart) << 32
			v.has_looped = true
		}

		if dsp_i >= blockSize {
			break
		}
	}

	v.phase = dsp_phase
	v.amp = dsp_amp

	return dsp_i
}

/*------------------------------------------------------------------
 *
 * Name:	interpolate_linear
 *
 * Purpose:	Two point straight line interpolation.
 *
 *----------------------------------------------------------------*/

func (v *Voice) interpolate_linear(dsp_buf *[blockSize]float32, dsp_amp_incr, phase_incr float32) int {
	dsp_phase := v.phase
	dsp_data := v.sample.Data
	dsp_amp := v.amp

	dsp_phase_incr := phase_from_incr(phase_incr)

	looping := v.looping()

	/* last index before the 2nd interpolation point must be specially
	 * handled */
	end_index := int(v.end) - 1
	if looping {
		end_index = int(v.loopend) - 1 - 1
	}

	/* 2nd interpolation point to use at the end of the loop or sample */
	var point int16
	if looping {
		point = dsp_data[v.loopstart] // loop start
	} else {
		point = dsp_data[v.end] // duplicate the end point
	}

	dsp_i := 0
	for {
		dsp_phase_index := phase_index(dsp_phase)

		for dsp_i < blockSize && dsp_phase_index <= end_index {
			coeffs := &interp_coeff_linear[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index+1]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		if dsp_i >= blockSize {
			break
		}

		/* we're now interpolating the last point */
		end_index++

		for dsp_phase_index <= end_index && dsp_i < blockSize {
			coeffs := &interp_coeff_linear[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index]) +
				coeffs[1]*float32(point))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		if !looping {
			break
		}

		if dsp_phase_index > end_index {
			dsp_phase -= uint64(v.loopend-v.loopstart) << 32
			v.has_looped = true
		}

		if dsp_i >= blockSize {
			break
		}

		/* set end back to the second to last sample point */
		end_index--
	}

	v.phase = dsp_phase
	v.amp = dsp_amp

	return dsp_i
}

/*------------------------------------------------------------------
 *
 * Name:	interpolate_4th_order
 *
 * Purpose:	Four point cubic interpolation, the default method.
 *
 *----------------------------------------------------------------*/

func (v *Voice) interpolate_4th_order(dsp_buf *[blockSize]float32, dsp_amp_incr, phase_incr float32) int {
	dsp_phase := v.phase
	dsp_data := v.sample.Data
	dsp_amp := v.amp

	dsp_phase_incr := phase_from_incr(phase_incr)

	looping := v.looping()

	/* last index before the 4th interpolation point must be specially
	 * handled */
	end_index := int(v.end) - 2
	if looping {
		end_index = int(v.loopend) - 1 - 2
	}

	var start_index int
	var start_point int16
	if v.has_looped {
		start_index = int(v.loopstart)
		start_point = dsp_data[v.loopend-1] // last point in the loop (wrap around)
	} else {
		start_index = int(v.start)
		start_point = dsp_data[v.start] // just duplicate the point
	}

	/* points off the end: loop start if looping, duplicates otherwise */
	var end_point1, end_point2 int16
	if looping {
		end_point1 = dsp_data[v.loopstart]
		end_point2 = dsp_data[v.loopstart+1]
	} else {
		end_point1 = dsp_data[v.end]
		end_point2 = end_point1
	}

	dsp_i := 0
	for {
		dsp_phase_index := phase_index(dsp_phase)

		/* interpolate the first sample point (start or loop start) if needed */
		for dsp_phase_index == start_index && dsp_i < blockSize {
			coeffs := &interp_coeff[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(start_point) +
				coeffs[1]*float32(dsp_data[dsp_phase_index]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index+2]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		/* interpolate the sequence of sample points */
		for dsp_i < blockSize && dsp_phase_index <= end_index {
			coeffs := &interp_coeff[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index+2]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		if dsp_i >= blockSize {
			break
		}

		/* we're now interpolating the 2nd to last point */
		end_index++

		for dsp_phase_index <= end_index && dsp_i < blockSize {
			coeffs := &interp_coeff[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[3]*float32(end_point1))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		/* we're now interpolating the last point */
		end_index++

		for dsp_phase_index <= end_index && dsp_i < blockSize {
			coeffs := &interp_coeff[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index]) +
				coeffs[2]*float32(end_point1) +
				coeffs[3]*float32(end_point2))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		if !looping {
			break
		}

		if dsp_phase_index > end_index {
			dsp_phase -= uint64(v.loopend-v.loopstart) << 32
			if !v.has_looped {
				v.has_looped = true
				start_index = int(v.loopstart)
				start_point = dsp_data[v.loopend-1]
			}
		}

		if dsp_i >= blockSize {
			break
		}

		/* set end back to the third to last sample point */
		end_index -= 2
	}

	v.phase = dsp_phase
	v.amp = dsp_amp

	return dsp_i
}

/*------------------------------------------------------------------
 *
 * Name:	interpolate_7th_order
 *
 * Purpose:	Seven point windowed sinc interpolation.
 *
 * Description:	Half a sample is added to the phase for the duration
 *		of this function because the 7 point kernel is centered
 *		on the 4th sample point; the other methods do not use
 *		this bias.  It is taken back out before the phase is
 *		stored.
 *
 *----------------------------------------------------------------*/

func (v *Voice) interpolate_7th_order(dsp_buf *[blockSize]float32, dsp_amp_incr, phase_incr float32) int {
	dsp_data := v.sample.Data
	dsp_amp := v.amp

	dsp_phase_incr := phase_from_incr(phase_incr)

	dsp_phase := v.phase + 0x80000000

	looping := v.looping()

	/* last index before the 7th interpolation point must be specially
	 * handled */
	end_index := int(v.end) - 3
	if looping {
		end_index = int(v.loopend) - 1 - 3
	}

	var start_index int
	var start_points [3]int16
	if v.has_looped {
		start_index = int(v.loopstart)
		start_points[0] = dsp_data[v.loopend-1]
		start_points[1] = dsp_data[v.loopend-2]
		start_points[2] = dsp_data[v.loopend-3]
	} else {
		start_index = int(v.start)
		start_points[0] = dsp_data[v.start] // just duplicate the start point
		start_points[1] = start_points[0]
		start_points[2] = start_points[0]
	}

	var end_points [3]int16
	if looping {
		end_points[0] = dsp_data[v.loopstart]
		end_points[1] = dsp_data[v.loopstart+1]
		end_points[2] = dsp_data[v.loopstart+2]
	} else {
		end_points[0] = dsp_data[v.end]
		end_points[1] = end_points[0]
		end_points[2] = end_points[0]
	}

	dsp_i := 0
	for {
		dsp_phase_index := phase_index(dsp_phase)

		/* interpolate the first sample point (start or loop start) if needed */
		for dsp_phase_index == start_index && dsp_i < blockSize {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(start_points[2]) +
				coeffs[1]*float32(start_points[1]) +
				coeffs[2]*float32(start_points[0]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[5]*float32(dsp_data[dsp_phase_index+2]) +
				coeffs[6]*float32(dsp_data[dsp_phase_index+3]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}
		start_index++

		/* interpolate the 2nd to first sample point if needed */
		for dsp_phase_index == start_index && dsp_i < blockSize {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(start_points[1]) +
				coeffs[1]*float32(start_points[0]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[5]*float32(dsp_data[dsp_phase_index+2]) +
				coeffs[6]*float32(dsp_data[dsp_phase_index+3]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}
		start_index++

		/* interpolate the 3rd to first sample point if needed */
		for dsp_phase_index == start_index && dsp_i < blockSize {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(start_points[0]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index-2]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[5]*float32(dsp_data[dsp_phase_index+2]) +
				coeffs[6]*float32(dsp_data[dsp_phase_index+3]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		/* set back to the original start index */
		start_index -= 2

		/* interpolate the sequence of sample points */
		for dsp_i < blockSize && dsp_phase_index <= end_index {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-3]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index-2]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[5]*float32(dsp_data[dsp_phase_index+2]) +
				coeffs[6]*float32(dsp_data[dsp_phase_index+3]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		if dsp_i >= blockSize {
			break
		}

		/* we're now interpolating the 3rd to last point */
		end_index++

		for dsp_phase_index <= end_index && dsp_i < blockSize {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-3]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index-2]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[5]*float32(dsp_data[dsp_phase_index+2]) +
				coeffs[6]*float32(end_points[0]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		/* we're now interpolating the 2nd to last point */
		end_index++

		for dsp_phase_index <= end_index && dsp_i < blockSize {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-3]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index-2]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(dsp_data[dsp_phase_index+1]) +
				coeffs[5]*float32(end_points[0]) +
				coeffs[6]*float32(end_points[1]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		/* we're now interpolating the last point */
		end_index++

		for dsp_phase_index <= end_index && dsp_i < blockSize {
			coeffs := &sinc_table7[phase_fract_to_tablerow(dsp_phase)]
			dsp_buf[dsp_i] = dsp_amp * (coeffs[0]*float32(dsp_data[dsp_phase_index-3]) +
				coeffs[1]*float32(dsp_data[dsp_phase_index-2]) +
				coeffs[2]*float32(dsp_data[dsp_phase_index-1]) +
				coeffs[3]*float32(dsp_data[dsp_phase_index]) +
				coeffs[4]*float32(end_points[0]) +
				coeffs[5]*float32(end_points[1]) +
				coeffs[6]*float32(end_points[2]))

			dsp_phase += dsp_phase_incr
			dsp_phase_index = phase_index(dsp_phase)
			dsp_amp += dsp_amp_incr
			dsp_i++
		}

		if !looping {
			break
		}

		if dsp_phase_index > end_index {
			dsp_phase -= uint64(v.loopend-v.loopstart) << 32
			if !v.has_looped {
				v.has_looped = true
				start_index = int(v.loopstart)
				start_points[0] = dsp_data[v.loopend-1]
				start_points[1] = dsp_data[v.loopend-2]
				start_points[2] = dsp_data[v.loopend-3]
			}
		}

		if dsp_i >= blockSize {
			break
		}

		/* set end back to the 4th to last sample point */
		end_index -= 3
	}

	/* take the half sample bias back out before storing the phase */
	dsp_phase -= 0x80000000

	v.phase = dsp_phase
	v.amp = dsp_amp

	return dsp_i
}
