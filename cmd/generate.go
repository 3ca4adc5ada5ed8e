package cmd

import (
	"fmt"

	"github.com/cozy/cozy-avatars/pkg/avatar"
	"github.com/cozy/cozy-avatars/pkg/config/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var flagFonts []string

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate the avatar of a name",
	Long: `
cozy-avatars generate draws the initials of the name and saves the image in the
output directory, unless an image already exists for the same initials. It
prints the path of the image.

The output directory must exist. The options not given as flags come from the
configuration.
`,
	Example: `$ cozy-avatars generate "Ada Lovelace" --path /out --font ./Lato-Bold.ttf:Lato --font-family Lato`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Usage()
		}
		cfg := config.GetConfig()
		opts, specs, err := avatarFlags(cmd.Flags(), cfg.AvatarOptions(args[0]), cfg.Fonts)
		if err != nil {
			return err
		}

		path, err := config.Avatars().Avatar(cmd.Context(), opts, specs...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

// addAvatarFlags adds the flags overriding the configured options.
func addAvatarFlags(flags *pflag.FlagSet) {
	flags.String("path", avatar.DefaultPath, "output directory, relative to the root directory")
	flags.Int("width", avatar.DefaultWidth, "width of the image in pixels")
	flags.Int("height", avatar.DefaultHeight, "height of the image in pixels")
	flags.String("color", avatar.DefaultColor, "color of the initials")
	flags.String("background", avatar.DefaultBackground, "background color")
	flags.String("font-family", avatar.DefaultFontFamily, "font family of the initials")
	flags.String("font-weight", avatar.DefaultFontWeight, "font weight: normal, bold or 100 to 900")
	flags.String("font-style", avatar.DefaultFontStyle, "font style: normal, italic or oblique")
	flags.Int("font-size", avatar.DefaultFontSize, "font size in pixels")
	flags.String("case", string(avatar.DefaultCase), "case of the initials: upper, lower or as-typed")
}

// avatarFlags returns the options with the values of the changed flags, and
// the configured fonts followed by the --font ones.
func avatarFlags(flags *pflag.FlagSet, opts avatar.Options, specs []avatar.Font) (avatar.Options, []avatar.Font, error) {
	var err error
	str := func(name string, dst *string) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if err == nil && flags.Changed(name) {
			*dst, err = flags.GetInt(name)
		}
	}
	str("path", &opts.Path)
	num("width", &opts.Width)
	num("height", &opts.Height)
	str("color", &opts.Color)
	str("background", &opts.Background)
	str("font-family", &opts.FontFamily)
	str("font-weight", &opts.FontWeight)
	str("font-style", &opts.FontStyle)
	num("font-size", &opts.FontSize)
	if err == nil && flags.Changed("case") {
		var c string
		c, err = flags.GetString("case")
		opts.Case = avatar.Case(c)
	}
	if err != nil {
		return opts, nil, err
	}

	all := append([]avatar.Font{}, specs...)
	if flags.Lookup("font") != nil {
		for _, s := range flagFonts {
			spec, err := config.ParseFont(s)
			if err != nil {
				return opts, nil, err
			}
			all = append(all, spec)
		}
	}
	return opts, all, nil
}

func init() {
	flags := generateCmd.Flags()
	addAvatarFlags(flags)
	flags.StringArrayVar(&flagFonts, "font", nil, "font file to register, as PATH:FAMILY (can be repeated)")
	RootCmd.AddCommand(generateCmd)
}
