package borzoi

import (
	"os"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Diagnostics sink for the synthesis engine.
 *
 * Description: Runtime problems inside the audio path (out of range
 *		envelope times, failed voice allocation, unknown chorus
 *		modes, ...) are never fatal.  The offending value is
 *		clamped and a warning goes to this logger.  The host
 *		application can swap in its own logger; audio keeps
 *		playing either way.
 *
 *------------------------------------------------------------------*/

var diag = log.NewWithOptions(os.Stderr, log.Options{Prefix: "borzoi"})

// SetLogger replaces the package diagnostics logger.  Passing nil
// restores the default stderr logger.
func SetLogger(l *log.Logger) {
	if l == nil {
		diag = log.NewWithOptions(os.Stderr, log.Options{Prefix: "borzoi"})
		return
	}
	diag = l
}
