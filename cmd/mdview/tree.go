package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/arran4/mdview/widget"
)

var (
	kindStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newTreeCmd(root *rootFlags) *cobra.Command {
	flags := &viewFlags{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the widget tree produced for a Markdown document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := flags.load(cmd, root)
			if err != nil {
				return err
			}
			defer v.Close()
			fmt.Fprint(cmd.OutOrStdout(), styleDump(widget.Dump(v.Content())))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// styleDump colours the node kind on each line of a widget dump.
func styleDump(dump string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(dump, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimLeft(line, " ")
		indent := line[:len(line)-len(body)]
		body = strings.TrimSuffix(body, "\n")
		kind, rest, _ := strings.Cut(body, " ")

		b.WriteString(indent)
		b.WriteString(kindStyle.Render(kind))
		if rest != "" {
			st := detailStyle
			if strings.Contains(rest, "error=") {
				st = errStyle
			}
			b.WriteString(" ")
			b.WriteString(st.Render(rest))
		}
		b.WriteString("\n")
	}
	return b.String()
}
