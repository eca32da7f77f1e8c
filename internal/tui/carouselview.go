package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	prevLabel = "‹ prev"
	nextLabel = "next ›"
	// content rows of the carousel box
	navRow       = 0
	indicatorRow = 4
	// border plus left padding
	carouselPadX = 2
)

func (lo layout) carouselContentWidth() int {
	return max(1, lo.carW-2*carouselPadX)
}

// indicatorSlots is how many indicators fit in width; each takes two cells.
func indicatorSlots(width int) int {
	return max(1, width/2)
}

func (m Model) renderCarousel(lo layout) string {
	cw := lo.carouselContentWidth()
	line := lipgloss.NewStyle().MaxWidth(cw)

	var rows []string
	if msg, empty := m.carousel.Placeholder(); empty {
		rows = []string{"", lipgloss.PlaceHorizontal(cw, lipgloss.Center, dimStyle.Render(msg))}
	} else {
		s, ok := m.carousel.Active()
		if !ok {
			s = m.carousel.Slides()[0]
		}
		title := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Bold(true).Render(s.Symbol + " " + s.Title)
		middle := max(0, cw-lipgloss.Width(prevLabel)-lipgloss.Width(nextLabel))
		rows = append(rows, buttonStyle.Render(prevLabel)+
			lipgloss.PlaceHorizontal(middle, lipgloss.Center, line.MaxWidth(middle).Render(title))+
			buttonStyle.Render(nextLabel))

		field := func(i int) string {
			if i >= len(s.Fields) {
				return ""
			}
			return labelStyle.Render(s.Fields[i].Label+": ") + s.Fields[i].Value
		}
		// Address, Capacity, Description, Contact
		rows = append(rows,
			line.Render(field(0)),
			line.Render(field(1)+"    "+field(3)),
			line.Render(field(2)),
			m.renderIndicators(cw),
		)
	}
	return boxStyle.Width(lo.carW - 2).Height(lo.carH - 2).MaxHeight(lo.carH).Render(strings.Join(rows, "\n"))
}

func (m Model) renderIndicators(width int) string {
	marks := m.carousel.Indicators()
	start, end := m.carousel.Window(indicatorSlots(width))
	var sb strings.Builder
	for i := start; i < end; i++ {
		if marks[i] {
			sb.WriteString(titleStyle.Render("●"))
		} else {
			sb.WriteString(dimStyle.Render("○"))
		}
		sb.WriteString(" ")
	}
	return sb.String()
}
