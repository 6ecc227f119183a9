package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/prdreview/pkg/domain/presentation"
)

var toneColors = map[presentation.Tone]lipgloss.Color{
	presentation.ToneGood:    lipgloss.Color("42"),
	presentation.ToneInfo:    lipgloss.Color("39"),
	presentation.ToneCaution: lipgloss.Color("220"),
	presentation.ToneWarning: lipgloss.Color("208"),
	presentation.ToneBad:     lipgloss.Color("196"),
	presentation.ToneNeutral: lipgloss.Color("245"),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	failureCardStyle = cardStyle.
				BorderForeground(toneColors[presentation.ToneBad])

	sectionTitleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle        = lipgloss.NewStyle().Foreground(toneColors[presentation.ToneBad]).Bold(true)
)

// ToneStyle returns the foreground style for a tone.
func ToneStyle(t presentation.Tone) lipgloss.Style {
	c, ok := toneColors[t]
	if !ok {
		c = toneColors[presentation.ToneNeutral]
	}
	return lipgloss.NewStyle().Foreground(c)
}

func chip(tag presentation.Tag) string {
	return ToneStyle(tag.Tone).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(toneColors[tag.Tone]).
		Padding(0, 1).
		Render(tag.Label + ": " + tag.Value)
}
