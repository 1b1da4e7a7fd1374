package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The per-block synthesis step of a voice.
 *
 * Description:	write() produces one block of blockSize samples:
 *
 *		  1. apply a delayed noteoff, sanity-check the sample
 *		  2. step the volume and modulation envelopes
 *		  3. step both LFOs
 *		  4. compute the target amplitude, or turn the voice
 *		     off if it can no longer clear the noise floor
 *		  5. compute the phase increment and filter cutoff
 *		  6. resample through the selected interpolator
 *		  7. run the biquad, then pan and send
 *
 *----------------------------------------------------------------*/

import "math"

// blockSize is the fixed processing quantum in samples.
const blockSize = 64

func (v *Voice) write(
	channel *Channel,
	min_note_length_ticks uint,
	dsp_left_buf, dsp_right_buf *[blockSize]float32,
	fx_reverb_buf, fx_chorus_buf *[blockSize]float32,
	reverb_active, chorus_active bool,
) {
	var dsp_buf [blockSize]float32

	if !v.is_playing() {
		return
	}

	/******************* sample **********************/

	if v.noteoff_ticks != 0 && v.ticks >= v.noteoff_ticks {
		v.noteoff_ticks = 0
		v.noteoff(channel, min_note_length_ticks)
	}

	/* Range checking for sample and loop parameters; the initial
	 * phase is set here on the first block. */
	v.check_sample_sanity()
	if v.status == VoiceOff {
		return
	}

	/******************* vol env **********************/

	env_data := &v.volenv_data[v.volenv_section]

	/* skip to the next section of the envelope if necessary */
	for v.volenv_count >= env_data.count {
		if v.volenv_section == EnvDecay {
			// Snap to the decay target before entering sustain.
			v.volenv_val = env_data.min * env_data.coeff
		}
		v.volenv_section = v.volenv_section.next()
		env_data = &v.volenv_data[v.volenv_section]
		v.volenv_count = 0
	}

	x := env_data.coeff*v.volenv_val + env_data.incr
	if x < env_data.min {
		x = env_data.min
		v.volenv_section = v.volenv_section.next()
		v.volenv_count = 0
	} else if x > env_data.max {
		x = env_data.max
		v.volenv_section = v.volenv_section.next()
		v.volenv_count = 0
	}
	v.volenv_val = x
	v.volenv_count++

	if v.volenv_section == EnvFinished {
		v.off()
		return
	}

	/******************* mod env **********************/

	env_data = &v.modenv_data[v.modenv_section]

	for v.modenv_count >= env_data.count {
		v.modenv_section = v.modenv_section.next()
		env_data = &v.modenv_data[v.modenv_section]
		v.modenv_count = 0
	}

	x = env_data.coeff*v.modenv_val + env_data.incr
	if x < env_data.min {
		x = env_data.min
		v.modenv_section = v.modenv_section.next()
		v.modenv_count = 0
	} else if x > env_data.max {
		x = env_data.max
		v.modenv_section = v.modenv_section.next()
		v.modenv_count = 0
	}
	v.modenv_val = x
	v.modenv_count++

	/******************* mod lfo **********************/

	if v.ticks >= v.modlfo_delay {
		v.modlfo_val += v.modlfo_incr
		if v.modlfo_val > 1.0 {
			v.modlfo_incr = -v.modlfo_incr
			v.modlfo_val = 2.0 - v.modlfo_val
		} else if v.modlfo_val < -1.0 {
			v.modlfo_incr = -v.modlfo_incr
			v.modlfo_val = -2.0 - v.modlfo_val
		}
	}

	/******************* vib lfo **********************/

	if v.ticks >= v.viblfo_delay {
		v.viblfo_val += v.viblfo_incr
		if v.viblfo_val > 1.0 {
			v.viblfo_incr = -v.viblfo_incr
			v.viblfo_val = 2.0 - v.viblfo_val
		} else if v.viblfo_val < -1.0 {
			v.viblfo_incr = -v.viblfo_incr
			v.viblfo_val = -2.0 - v.viblfo_val
		}
	}

	/******************* amplitude **********************/

	var target_amp float32
	switch {
	case v.volenv_section == EnvDelay:
		// The voice is silent until the delay has passed.
		v.ticks += blockSize
		return

	case v.volenv_section == EnvAttack:
		/* The attack ramps linearly to full level.  A positive
		 * modlfo_to_vol should increase the volume (negative
		 * attenuation). */
		target_amp = atten2amp(v.attenuation) *
			cb2amp(v.modlfo_val*-v.modlfo_to_vol) *
			v.volenv_val

	default:
		target_amp = atten2amp(v.attenuation) *
			cb2amp(960.0*(1.0-v.volenv_val)+v.modlfo_val*-v.modlfo_to_vol)

		/* A voice can be turned off when an upper bound for its
		 * amplitude falls below the amplitude that drops the sample
		 * under the noise floor. */
		amplitude_that_reaches_noise_floor := v.amp_reaches_noise_floor_nonloop
		if v.has_looped {
			amplitude_that_reaches_noise_floor = v.amp_reaches_noise_floor_loop
		}

		/* min_attenuation_cb is a lower bound for the attenuation
		 * now and in the future, and volenv_val can only drop, so
		 * the amplitude cannot exceed amp_max anymore. */
		amp_max := atten2amp(v.min_attenuation_cb) * v.volenv_val
		if amp_max < amplitude_that_reaches_noise_floor {
			v.off()
			v.ticks += blockSize
			return
		}
	}

	/* Volume increment to go from amp to target_amp in blockSize steps. */
	amp_incr := (target_amp - v.amp) / blockSize

	/* No volume and not changing?  Nothing to process. */
	if v.amp == 0.0 && amp_incr == 0.0 {
		v.ticks += blockSize
		return
	}

	/******************* phase **********************/

	/* How many samples the DSP loop advances through the source
	 * waveform per output sample: the ratio between the frequencies
	 * of the original waveform and the output. */
	phase_incr := ct2hz_real(v.pitch+
		v.modlfo_val*v.modlfo_to_pitch+
		v.viblfo_val*v.viblfo_to_pitch+
		v.modenv_val*v.modenv_to_pitch) / v.root_pitch

	if phase_incr == 0.0 {
		phase_incr = 1.0 // prevent a stuck voice
	}

	/*************** resonant filter ******************/

	fres := ct2hz(v.fres +
		v.modlfo_val*v.modlfo_to_fc +
		v.modenv_val*v.modenv_to_fc)

	/* The filter doubles as an anti-aliasing filter at low sampling
	 * rates, so instead of switching it off above the audible range
	 * the cutoff is clipped to 0.45 * output rate. */
	if fres > 0.45*v.output_rate {
		fres = 0.45 * v.output_rate
	} else if fres < 5.0 {
		fres = 5.0
	}

	if abs32(fres-v.last_fres) > 0.01 {
		/* Recalculate the coefficients, from Robert Bristow-Johnson's
		 * `Cookbook formulae for audio EQ biquad filter coefficients'
		 * (bilinear transform of the analogue prototype). */
		omega := 2.0 * float32(math.Pi) * (fres / v.output_rate)
		sin_coeff := float32(math.Sin(float64(omega)))
		cos_coeff := float32(math.Cos(float64(omega)))
		alpha_coeff := sin_coeff / (2.0 * v.q_lin)
		a0_inv := 1.0 / (1.0 + alpha_coeff)

		/* All coefficients normalized by a0; b0 and b2 are equal. */
		a1_temp := -2.0 * cos_coeff * a0_inv
		a2_temp := (1.0 - alpha_coeff) * a0_inv
		b1_temp := (1.0 - cos_coeff) * a0_inv * v.filter_gain
		b02_temp := b1_temp * 0.5

		if v.filter_startup {
			/* Voice startup: set the coefficients without delay. */
			v.a1 = a1_temp
			v.a2 = a2_temp
			v.b02 = b02_temp
			v.b1 = b1_temp
			v.filter_coeff_incr_count = 0
			v.filter_startup = false
		} else {
			/* The filter frequency moved; fade to the new setting
			 * over exactly one buffer to avoid zipper noise. */
			v.a1_incr = (a1_temp - v.a1) / blockSize
			v.a2_incr = (a2_temp - v.a2) / blockSize
			v.b02_incr = (b02_temp - v.b02) / blockSize
			v.b1_incr = (b1_temp - v.b1) / blockSize
			v.filter_coeff_incr_count = blockSize
		}
		v.last_fres = fres
	}

	/******************* resample **********************/

	var count int
	switch v.interp_method {
	case InterpNone:
		count = v.interpolate_none(&dsp_buf, amp_incr, phase_incr)
	case InterpLinear:
		count = v.interpolate_linear(&dsp_buf, amp_incr, phase_incr)
	case InterpFourthOrder:
		count = v.interpolate_4th_order(&dsp_buf, amp_incr, phase_incr)
	case InterpSeventhOrder:
		count = v.interpolate_7th_order(&dsp_buf, amp_incr, phase_incr)
	}

	if count > 0 {
		v.effects(&dsp_buf, count,
			dsp_left_buf, dsp_right_buf,
			fx_reverb_buf, fx_chorus_buf,
			reverb_active, chorus_active)
	}

	/* Short count: the sample ended and is not looping. */
	if count < blockSize {
		v.off()
	}

	v.ticks += blockSize
}

/*------------------------------------------------------------------
 *
 * Name:	effects
 *
 * Purpose:	Filter the freshly resampled block, then mix it to the
 *		left/right dry buses and the reverb/chorus send buses.
 *
 *----------------------------------------------------------------*/

func (v *Voice) effects(
	dsp_buf *[blockSize]float32,
	count int,
	dsp_left_buf, dsp_right_buf *[blockSize]float32,
	fx_reverb_buf, fx_chorus_buf *[blockSize]float32,
	reverb_active, chorus_active bool,
) {
	// IIR filter sample history
	dsp_hist1 := v.hist1
	dsp_hist2 := v.hist2

	// IIR filter coefficients
	dsp_a1 := v.a1
	dsp_a2 := v.a2
	dsp_b02 := v.b02
	dsp_b1 := v.b1
	dsp_filter_coeff_incr_count := v.filter_coeff_incr_count

	/* Check for denormal number (too close to zero). */
	if abs32(dsp_hist1) < 1e-20 {
		dsp_hist1 = 0.0
	}

	/* Two versions of the filter loop: one while the coefficients
	 * are fading towards their new setting, one for the static case. */
	if dsp_filter_coeff_incr_count > 0 {
		for i := 0; i < count; i++ {
			/* Direct-II transposed form. */
			dsp_centernode := dsp_buf[i] - dsp_a1*dsp_hist1 - dsp_a2*dsp_hist2
			dsp_buf[i] = dsp_b02*(dsp_centernode+dsp_hist2) + dsp_b1*dsp_hist1
			dsp_hist2 = dsp_hist1
			dsp_hist1 = dsp_centernode

			if dsp_filter_coeff_incr_count > 0 {
				dsp_filter_coeff_incr_count--
				dsp_a1 += v.a1_incr
				dsp_a2 += v.a2_incr
				dsp_b02 += v.b02_incr
				dsp_b1 += v.b1_incr
			}
		}
	} else {
		for i := 0; i < count; i++ {
			dsp_centernode := dsp_buf[i] - dsp_a1*dsp_hist1 - dsp_a2*dsp_hist2
			dsp_buf[i] = dsp_b02*(dsp_centernode+dsp_hist2) + dsp_b1*dsp_hist1
			dsp_hist2 = dsp_hist1
			dsp_hist1 = dsp_centernode
		}
	}

	/* Pan.  Near center both sides use the same amplitude, saving
	 * one multiplication per sample. */
	if v.pan_val > -0.5 && v.pan_val < 0.5 {
		for i := 0; i < count; i++ {
			val := v.amp_left * dsp_buf[i]
			dsp_left_buf[i] += val
			dsp_right_buf[i] += val
		}
	} else {
		if v.amp_left != 0.0 {
			for i := 0; i < count; i++ {
				dsp_left_buf[i] += v.amp_left * dsp_buf[i]
			}
		}
		if v.amp_right != 0.0 {
			for i := 0; i < count; i++ {
				dsp_right_buf[i] += v.amp_right * dsp_buf[i]
			}
		}
	}

	if reverb_active && v.amp_reverb != 0.0 {
		for i := 0; i < count; i++ {
			fx_reverb_buf[i] += v.amp_reverb * dsp_buf[i]
		}
	}

	if chorus_active && v.amp_chorus != 0.0 {
		for i := 0; i < count; i++ {
			fx_chorus_buf[i] += v.amp_chorus * dsp_buf[i]
		}
	}

	v.hist1 = dsp_hist1
	v.hist2 = dsp_hist2
	v.a1 = dsp_a1
	v.a2 = dsp_a2
	v.b02 = dsp_b02
	v.b1 = dsp_b1
	v.filter_coeff_incr_count = dsp_filter_coeff_incr_count
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
