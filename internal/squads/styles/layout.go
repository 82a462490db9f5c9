package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// NameWidth is the display width team and channel names are cut to.
const NameWidth = 16

// Layout carries the sizing constants of the pages. Units are the
// renderer's; the terminal renderer divides them down to cells.
type Layout struct {
	ScrollbarWidth    int
	ScrollableSpacing int
	ListWidth         int
	ListRowHeight     int
	ListSpacing       int
	PageRowSpacing    int
	TeamAvatarSize    int
	HeaderAvatarSize  int
	SearchPadding     int
}

// DefaultLayout returns the standard page layout.
func DefaultLayout() Layout {
	return Layout{
		ScrollbarWidth:    8,
		ScrollableSpacing: 10,
		ListWidth:         220,
		ListRowHeight:     47,
		ListSpacing:       8,
		PageRowSpacing:    10,
		TeamAvatarSize:    28,
		HeaderAvatarSize:  45,
		SearchPadding:     18,
	}
}

// ScrollbarGutter is the horizontal space a vertical scrollbar occupies.
func (l Layout) ScrollbarGutter() int {
	return l.ScrollbarWidth + l.ScrollableSpacing
}

// Cells converts layout units to terminal columns, never below one.
func Cells(units int) int {
	cells := units / 10
	if cells < 1 {
		return 1
	}
	return cells
}

// TruncateName cuts name to width display columns, marking the cut.
func TruncateName(name string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(name, width, "...")
}

// PanelStyle returns the border style of a page column.
func PanelStyle(s Style, focused bool) lipgloss.Style {
	color := s.Theme.Base.Border
	if focused {
		color = s.Theme.Base.Accent
	}
	return lipgloss.NewStyle().
		BorderStyle(panelBorderStyle(s.Theme)).
		BorderForeground(lipgloss.Color(color)).
		Padding(0, 1)
}

func panelBorderStyle(theme Theme) lipgloss.Border {
	switch theme.BorderStyle {
	case "double":
		return lipgloss.DoubleBorder()
	case "sharp":
		return lipgloss.NormalBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}
