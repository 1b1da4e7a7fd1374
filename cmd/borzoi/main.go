package main

/*------------------------------------------------------------------
 *
 * Purpose:	Real-time SoundFont player.
 *
 * Description:	Opens the default audio output through portaudio and
 *		drives the synthesizer from a small command language on
 *		stdin:
 *
 *		  on <chan> <key> <vel>    note on
 *		  off <chan> <key>         note off
 *		  cc <chan> <ctrl> <val>   control change
 *		  prog <chan> <program>    program change
 *		  bend <chan> <value>      pitch bend (0..16383)
 *		  panic                    system reset
 *		  quit
 *
 *		MIDI events cross into the audio callback through a
 *		buffered channel working as a single-producer single-
 *		consumer queue; the callback drains it between blocks.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	borzoi "github.com/doismellburning/borzoi/src"
)

// settings is the YAML-file form of the synth descriptor.
type settings struct {
	SampleRate float32 `yaml:"sample_rate"`
	Gain       float32 `yaml:"gain"`
	Polyphony  uint16  `yaml:"polyphony"`
	Channels   uint8   `yaml:"channels"`

	Reverb bool `yaml:"reverb"`
	Chorus bool `yaml:"chorus"`
	Drums  bool `yaml:"drums"`

	MinNoteLengthMs uint16 `yaml:"min_note_length_ms"`

	Interpolation string `yaml:"interpolation"` // none, linear, cubic, sinc
}

func default_settings() settings {
	return settings{
		SampleRate:      44100,
		Gain:            0.5,
		Polyphony:       256,
		Channels:        16,
		Reverb:          true,
		Chorus:          true,
		Drums:           true,
		MinNoteLengthMs: 10,
		Interpolation:   "cubic",
	}
}

func (s *settings) descriptor() (borzoi.SynthDescriptor, error) {
	var desc = borzoi.DefaultSynthDescriptor()
	desc.SampleRate = s.SampleRate
	desc.Gain = s.Gain
	desc.Polyphony = s.Polyphony
	desc.Channels = s.Channels
	desc.ReverbActive = s.Reverb
	desc.ChorusActive = s.Chorus
	desc.DrumsChannelActive = s.Drums
	desc.MinNoteLengthMs = s.MinNoteLengthMs

	switch s.Interpolation {
	case "none":
		desc.InterpolationMethod = borzoi.InterpNone
	case "linear":
		desc.InterpolationMethod = borzoi.InterpLinear
	case "cubic", "":
		desc.InterpolationMethod = borzoi.InterpFourthOrder
	case "sinc":
		desc.InterpolationMethod = borzoi.InterpSeventhOrder
	default:
		return desc, fmt.Errorf("unknown interpolation method %q", s.Interpolation)
	}
	return desc, nil
}

func main() {
	var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "borzoi"})

	var settingsPath = pflag.String("settings", "", "YAML settings file")
	var gain = pflag.Float32("gain", 0, "master gain override")
	var sampleRate = pflag.Float32("sample-rate", 0, "sample rate override")
	var bufferFrames = pflag.Int("buffer", 256, "audio buffer size in frames")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <soundfont.sf2>\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(1)
	}

	var conf = default_settings()
	if *settingsPath != "" {
		file, err := os.Open(*settingsPath)
		if err != nil {
			logger.Fatal("reading settings", "err", err)
		}
		var dec = yaml.NewDecoder(file)
		dec.KnownFields(true) // unknown keys are configuration mistakes
		err = dec.Decode(&conf)
		file.Close()
		if err != nil {
			logger.Fatal("parsing settings", "err", err)
		}
	}
	if *gain != 0 {
		conf.Gain = *gain
	}
	if *sampleRate != 0 {
		conf.SampleRate = *sampleRate
	}

	desc, err := conf.descriptor()
	if err != nil {
		logger.Fatal("settings", "err", err)
	}

	synth, err := borzoi.NewSynth(desc)
	if err != nil {
		logger.Fatal("creating synth", "err", err)
	}
	borzoi.SetLogger(logger)

	fontFile, err := os.Open(pflag.Arg(0))
	if err != nil {
		logger.Fatal("opening font", "err", err)
	}
	font, err := borzoi.LoadSoundFont(fontFile)
	fontFile.Close()
	if err != nil {
		logger.Fatal("loading font", "err", err)
	}
	synth.AddFont(font, true)
	logger.Info("font loaded", "name", font.Name, "presets", len(font.Presets))

	/* The SPSC event queue.  The stdin reader produces, the audio
	 * callback consumes.  The capacity absorbs event bursts without
	 * ever blocking the audio thread. */
	var events = make(chan borzoi.MidiEvent, 1024)

	if err := portaudio.Initialize(); err != nil {
		logger.Fatal("portaudio", "err", err)
	}
	defer portaudio.Terminate()

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(conf.SampleRate), *bufferFrames,
		func(out [][]float32) {
			/* Drain pending events, then synthesize.  Events that
			 * arrive during this callback wait for the next one. */
			for {
				select {
				case ev := <-events:
					if err := synth.SendEvent(ev); err != nil {
						logger.Warn("event rejected", "err", err)
					}
					continue
				default:
				}
				break
			}
			synth.WriteF32(out[0], out[1], 1, 1)
		})
	if err != nil {
		logger.Fatal("opening stream", "err", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		logger.Fatal("starting stream", "err", err)
	}
	defer stream.Stop()

	logger.Info("ready", "rate", conf.SampleRate, "polyphony", conf.Polyphony)
	repl(synth, events, logger)
}

func repl(synth *borzoi.Synth, events chan<- borzoi.MidiEvent, logger *log.Logger) {
	var scanner = bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		var fields = strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var args = make([]int, 0, 3)
		var bad = false
		for _, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				bad = true
				break
			}
			args = append(args, n)
		}
		if bad {
			logger.Warn("bad number in command", "line", scanner.Text())
			continue
		}

		switch {
		case fields[0] == "on" && len(args) == 3:
			events <- borzoi.NoteOn{Channel: uint8(args[0]), Key: uint8(args[1]), Vel: uint8(args[2])}
		case fields[0] == "off" && len(args) == 2:
			events <- borzoi.NoteOff{Channel: uint8(args[0]), Key: uint8(args[1])}
		case fields[0] == "cc" && len(args) == 3:
			events <- borzoi.ControlChange{Channel: uint8(args[0]), Ctrl: uint8(args[1]), Value: uint8(args[2])}
		case fields[0] == "prog" && len(args) == 2:
			events <- borzoi.ProgramChange{Channel: uint8(args[0]), Program: uint8(args[1])}
		case fields[0] == "bend" && len(args) == 2:
			events <- borzoi.PitchBend{Channel: uint8(args[0]), Value: uint16(args[1])}
		case fields[0] == "panic":
			events <- borzoi.SystemReset{}
		case fields[0] == "quit":
			return
		default:
			logger.Warn("unknown command", "line", scanner.Text())
		}
	}
}
