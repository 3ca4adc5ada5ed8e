package cmd

import (
	"fmt"

	"github.com/cozy/cozy-avatars/pkg/avatar"
	"github.com/cozy/cozy-avatars/pkg/config/config"
	"github.com/spf13/cobra"
)

var initialsCmd = &cobra.Command{
	Use:   "initials <name>",
	Short: "Print the initials and the avatar path of a name",
	Long: `
cozy-avatars initials prints the initials of the name, the path of its avatar,
and whether the avatar already exists. Nothing is written.
`,
	Example: `$ cozy-avatars initials "Ada Lovelace" --case lower`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Usage()
		}
		cfg := config.GetConfig()
		opts, _, err := avatarFlags(cmd.Flags(), cfg.AvatarOptions(args[0]), nil)
		if err != nil {
			return err
		}

		g, err := avatar.New(opts, cfg.GeneratorOptions()...)
		if err != nil {
			return err
		}
		state := "missing"
		if g.Exists(cmd.Context()) {
			state = "exists"
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", g.Initials(), g.Path(), state)
		return err
	},
}

func init() {
	addAvatarFlags(initialsCmd.Flags())
	RootCmd.AddCommand(initialsCmd)
}
