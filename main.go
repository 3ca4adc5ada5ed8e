// cozy-avatars is the command-line generator of initials avatars: it draws
// the initials of a name on a plain background and saves the PNG image, only
// once, in an output directory.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cozy/cozy-avatars/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrUsage) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error()) // #nosec
			os.Exit(1)
		}
	}
}
