package borzoi

import "errors"

// Event validation failures.  SendEvent returns one of these without
// touching any synthesizer state.
var (
	ErrKeyOutOfRange             = errors.New("key out of range (0..127)")
	ErrVelocityOutOfRange        = errors.New("velocity out of range (0..127)")
	ErrCtrlOutOfRange            = errors.New("controller number out of range (0..127)")
	ErrCCValueOutOfRange         = errors.New("controller value out of range (0..127)")
	ErrPitchBendOutOfRange       = errors.New("pitch bend out of range (0..16383)")
	ErrProgramOutOfRange         = errors.New("program out of range (0..127)")
	ErrChannelPressureOutOfRange = errors.New("channel pressure out of range (0..127)")
	ErrKeyPressureOutOfRange     = errors.New("key pressure out of range (0..127)")
)

// Routing and lookup failures.
var (
	ErrChannelOutOfRange  = errors.New("channel index out of range")
	ErrChannelHasNoPreset = errors.New("channel has no preset")
	ErrFontNotFound       = errors.New("no SoundFont with that id")
	ErrTuningOutOfRange   = errors.New("tuning bank or program out of range")
)
