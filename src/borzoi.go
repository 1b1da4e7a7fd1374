// Package borzoi is a real-time SoundFont 2 MIDI synthesizer.
//
// Given a loaded SoundFont bank and a stream of MIDI events it produces
// stereo floating point PCM, 64 samples at a time.  The engine is
// single-threaded: one goroutine owns the Synth, calls ReadNext (or the
// batched Write variants) from the audio callback and feeds MIDI events
// in between.
package borzoi
