package main

/*------------------------------------------------------------------
 *
 * Purpose:	Dump the contents of a SoundFont file: presets, their
 *		instruments, zones and samples.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	borzoi "github.com/doismellburning/borzoi/src"
)

func main() {
	var verbose = pflag.BoolP("verbose", "v", false, "also list zones and samples")
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-v] <soundfont.sf2>\n", os.Args[0])
		os.Exit(1)
	}

	file, err := os.Open(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	font, err := borzoi.LoadSoundFont(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d presets\n", font.Name, len(font.Presets))

	for _, preset := range font.Presets {
		fmt.Printf("  %3d:%-3d %s\n", preset.Bank, preset.Num, preset.Name)
		if !*verbose {
			continue
		}
		for _, zone := range preset.Zones {
			if zone.Inst == nil {
				continue
			}
			fmt.Printf("          key %3d..%-3d vel %3d..%-3d -> %s\n",
				zone.KeyLow, zone.KeyHigh, zone.VelLow, zone.VelHigh, zone.Inst.Name)
			for _, iz := range zone.Inst.Zones {
				if iz.Sample == nil {
					continue
				}
				fmt.Printf("            key %3d..%-3d %s (%d Hz, root %d)\n",
					iz.KeyLow, iz.KeyHigh, iz.Sample.Name,
					iz.Sample.SampleRate, iz.Sample.OrigPitch)
			}
		}
	}
}
