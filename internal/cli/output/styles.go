package output

import "github.com/charmbracelet/lipgloss"

// Styles is the palette commands render with. Outside styled text mode every
// entry degrades to plain text so piped output carries no escape codes.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
	Info          lipgloss.Style
	SourcePath    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

func newStyles(colored bool) *Styles {
	s := &Styles{
		Header1:       lipgloss.NewStyle(),
		Header2:       lipgloss.NewStyle(),
		Bold:          lipgloss.NewStyle(),
		Muted:         lipgloss.NewStyle(),
		Success:       lipgloss.NewStyle(),
		Warning:       lipgloss.NewStyle(),
		Error:         lipgloss.NewStyle(),
		Info:          lipgloss.NewStyle(),
		SourcePath:    lipgloss.NewStyle(),
		StatusSuccess: lipgloss.NewStyle().SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().SetString("✗"),
	}
	if !colored {
		return s
	}
	s.Header1 = s.Header1.Bold(true).Foreground(lipgloss.Color("12"))
	s.Header2 = s.Header2.Bold(true).Foreground(lipgloss.Color("6"))
	s.Bold = s.Bold.Bold(true)
	s.Muted = s.Muted.Foreground(lipgloss.Color("241"))
	s.Success = s.Success.Foreground(lipgloss.Color("10"))
	s.Warning = s.Warning.Foreground(lipgloss.Color("11"))
	s.Error = s.Error.Foreground(lipgloss.Color("9"))
	s.Info = s.Info.Foreground(lipgloss.Color("12"))
	s.SourcePath = s.SourcePath.Foreground(lipgloss.Color("14"))
	s.StatusSuccess = s.StatusSuccess.Foreground(lipgloss.Color("10"))
	s.StatusFailed = s.StatusFailed.Foreground(lipgloss.Color("9"))
	return s
}
