// Package style renders command output for the terminal: item listings,
// sync summaries and per-item state lines. Color degrades to plain text
// on non-TTY output, NO_COLOR, or ASCII-only terminals.
package style

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/mycelium-sh/mycelium/pkg/types"
)

// Renderer produces the user-facing text for commands.
type Renderer struct {
	color bool
}

// NewRenderer creates a renderer. mode is the configured color setting:
// "always", "never" or "auto".
func NewRenderer(mode string) *Renderer {
	return &Renderer{color: useColor(mode)}
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

// ItemLine renders one manifest item for the list command.
func (r *Renderer) ItemLine(name string, t types.ComponentType, cfg *types.ItemConfig) string {
	stateText := string(types.StateEnabled)
	if cfg.State != "" {
		stateText = string(cfg.State)
	}

	var origin string
	if cfg.PluginOrigin != nil {
		origin = fmt.Sprintf(" (from %s)", cfg.PluginOrigin.PluginID)
	}

	if !r.color {
		return fmt.Sprintf("%-10s %-30s %s%s", t, name, stateText, origin)
	}

	var stateStyled string
	switch cfg.State {
	case types.StateDisabled:
		stateStyled = WarningStyle.Render(stateText)
	case types.StateDeleted:
		stateStyled = ErrorStyle.Render(stateText)
	default:
		stateStyled = SuccessStyle.Render(stateText)
	}
	return fmt.Sprintf("%-10s %s %s%s",
		MutedStyle.Render(string(t)),
		ItemStyle.Render(fmt.Sprintf("%-30s", name)),
		stateStyled,
		MutedStyle.Render(origin))
}

// ItemList renders a whole document grouped in section order.
func (r *Renderer) ItemList(doc *types.ManifestDocument) string {
	var b strings.Builder
	total := 0
	for _, t := range types.SectionOrder {
		section := doc.Section(t)
		names := make([]string, 0, len(section))
		for name, cfg := range section {
			if cfg != nil && cfg.State == types.StateDeleted {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(r.ItemLine(name, t, section[name]))
			b.WriteString("\n")
		}
		total += len(names)
	}
	if total == 0 {
		return r.muted("No managed items")
	}
	return strings.TrimRight(b.String(), "\n")
}

// SyncSummary prints the reconciliation outcome through pterm.
func (r *Renderer) SyncSummary(created, removed []string) {
	if !r.color {
		fmt.Printf("sync: %d created, %d removed\n", len(created), len(removed))
		return
	}
	if len(created) == 0 && len(removed) == 0 {
		pterm.Info.Println("Symlinks already in sync")
		return
	}
	if len(created) > 0 {
		pterm.Success.Printfln("Created %d symlink(s): %s", len(created), strings.Join(created, ", "))
	}
	if len(removed) > 0 {
		pterm.Warning.Printfln("Removed %d orphaned symlink(s): %s", len(removed), strings.Join(removed, ", "))
	}
}

// StateLine renders the resolved state of one item.
func (r *Renderer) StateLine(info types.ItemStateInfo) string {
	if !info.Found {
		return fmt.Sprintf("%s: not managed (enabled by default)", info.Name)
	}
	line := fmt.Sprintf("%s: %s [%s, %s layer]", info.Name, info.State, info.Type, info.Layer)
	if info.Tool != "" {
		if info.EffectivelyDisabledForTool {
			line += fmt.Sprintf(" (disabled for %s)", info.Tool)
		} else {
			line += fmt.Sprintf(" (enabled for %s)", info.Tool)
		}
	}
	return line
}

func (r *Renderer) muted(s string) string {
	if !r.color {
		return s
	}
	return MutedStyle.Render(s)
}
