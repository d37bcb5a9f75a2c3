package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zostay/go-mailparse/message"
	"github.com/zostay/go-mailparse/message/tree"
	"github.com/zostay/go-mailparse/message/walk"
)

var treeCmd = &cobra.Command{
	Use:   "tree message",
	Short: "Shows the MIME structure of a single message",
	Args:  cobra.ExactArgs(1),
	RunE:  RunTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

// RunTree prints one line per part of the message, indented by depth.
func RunTree(cmd *cobra.Command, args []string) error {
	msgFile, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = msgFile.Close() }()

	m, err := message.Parse(cmd.Context(), msgFile, config.ParseOptions(logger)...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var pw walk.PartWalker = func(depth, _ int, p *tree.Part) error {
		line := fmt.Sprintf("%s%d %s", strings.Repeat("  ", depth), p.ID, p.MediaType())
		switch {
		case p.AttachmentIndex != tree.NoIndex:
			a := m.Attachments[p.AttachmentIndex]
			line += fmt.Sprintf(" attachment %s %d bytes", a.Name(), a.Size)
		case p.IsText:
			line += fmt.Sprintf(" text %d bytes", len(p.Text))
		}
		_, err := fmt.Fprintln(out, line)
		return err
	}

	return pw.Walk(m.Tree)
}
