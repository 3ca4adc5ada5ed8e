package cmd

import (
	"fmt"

	build "github.com/cozy/cozy-avatars/pkg/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Print the current version number of the binary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if build.IsDevRelease() || build.BuildTime == "" {
			_, err := fmt.Fprintln(out, build.Version)
			return err
		}
		_, err := fmt.Fprintf(out, "%s (%s, built at %s)\n", build.Version, build.BuildMode, build.BuildTime)
		return err
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
