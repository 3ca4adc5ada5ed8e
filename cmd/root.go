package cmd

import (
	"errors"

	"github.com/cozy/cozy-avatars/pkg/config/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// ErrUsage is returned by the cmd.Usage() method
var ErrUsage = errors.New("Bad usage of command")

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cozy-avatars",
	Short: "cozy-avatars generates initials avatars",
	Long: `cozy-avatars draws the initials of a name, centered on a plain background,
and saves the PNG image in an output directory. An image that already exists
for the same initials is reused.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Setup(cfgFile)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Display the usage/help by default
		return cmd.Usage()
	},
	// Do not display usage on error
	SilenceUsage: true,
	// We have our own way to display error messages
	SilenceErrors: true,
}

func init() {
	usageFunc := RootCmd.UsageFunc()

	RootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		_ = usageFunc(cmd)
		return ErrUsage
	})

	flags := RootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "configuration file (default \"avatars.yaml\" in ., $XDG_CONFIG_HOME/cozy, ~/.cozy or /etc/cozy)")

	flags.String("log-level", "info", "define the log level")
	flags.String("root", "", "root directory of the output paths (default the working directory)")
	flags.Bool("strict", false, "reject negative sizes instead of using the default values")
	bindFlags(viper.GetViper())
}

// bindFlags binds the persistent flags to their configuration keys.
func bindFlags(v *viper.Viper) {
	flags := RootCmd.PersistentFlags()
	checkNoErr(v.BindPFlag("log.level", flags.Lookup("log-level")))
	checkNoErr(v.BindPFlag("root", flags.Lookup("root")))
	checkNoErr(v.BindPFlag("strict", flags.Lookup("strict")))
}

func checkNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
