package cli

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed docs/manual.md
var manual string

func newDocsCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Show the mycelium manual",
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain {
				fmt.Print(manual)
				return nil
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err != nil {
				// No usable terminal style; fall back to raw markdown.
				fmt.Print(manual)
				return nil
			}
			out, err := renderer.Render(manual)
			if err != nil {
				fmt.Print(manual)
				return nil
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print raw markdown without styling")
	return cmd
}
