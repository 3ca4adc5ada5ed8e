package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/cozy/cozy-avatars/pkg/config/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var flagConfigRaw bool
var flagConfigFormat string

var configCmdGroup = &cobra.Command{
	Use:   "config [command]",
	Short: "Show the configuration",
	Long: `
cozy-avatars config allows to print the configuration
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	},
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Display the configuration",
	Long: `Read the environment variables, the config file and
the given parameters to display the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var v interface{} = config.GetConfig()
		if flagConfigRaw {
			v = config.Normalize(viper.AllSettings())
		}

		var cfg []byte
		var err error
		switch flagConfigFormat {
		case "json":
			cfg, err = json.MarshalIndent(v, "", "  ")
		case "toml":
			if !flagConfigRaw {
				return fmt.Errorf("the toml format needs the --raw flag")
			}
			buf := new(bytes.Buffer)
			err = toml.NewEncoder(buf).Encode(v)
			cfg = bytes.TrimRight(buf.Bytes(), "\n")
		default:
			return fmt.Errorf("unknown format %q", flagConfigFormat)
		}
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(cfg))
		return err
	},
}

func init() {
	flags := configPrintCmd.Flags()
	flags.BoolVar(&flagConfigRaw, "raw", false, "print the merged settings as they were read")
	flags.StringVar(&flagConfigFormat, "format", "json", "output format: json, or toml with --raw")
	configCmdGroup.AddCommand(configPrintCmd)
	RootCmd.AddCommand(configCmdGroup)
}
