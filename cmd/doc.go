package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// docCmdGroup represents the doc command
var docCmdGroup = &cobra.Command{
	Use:   "doc [command]",
	Short: "Print the documentation",
	Long:  "Print the documentation about the usage of cozy-avatars in command-line",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var manDocCmd = &cobra.Command{
	Use:   "man <directory>",
	Short: "Print the manpages of cozy-avatars",
	Long:  `Print the manual pages for using cozy-avatars in command-line`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Help()
		}
		header := &doc.GenManHeader{
			Title:   "COZY-AVATARS",
			Section: "1",
		}
		return doc.GenManTree(RootCmd, header, args[0])
	},
}

var markdownDocCmd = &cobra.Command{
	Use:   "markdown <directory>",
	Short: "Print the documentation of cozy-avatars as markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return cmd.Help()
		}
		if err := os.MkdirAll(args[0], 0755); err != nil {
			return err
		}
		return doc.GenMarkdownTree(RootCmd, args[0])
	},
}

func init() {
	RootCmd.DisableAutoGenTag = true
	docCmdGroup.AddCommand(manDocCmd)
	docCmdGroup.AddCommand(markdownDocCmd)
	RootCmd.AddCommand(docCmdGroup)
}
