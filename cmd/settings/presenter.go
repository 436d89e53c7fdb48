package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"medibook/internal/adapters/api"
	"medibook/internal/application/settings"
	"medibook/internal/domain/appearance"
)

// palette holds the colours for one appearance.
type palette struct {
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Border     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
}

var lightPalette = palette{
	Foreground: lipgloss.Color("#1F2937"),
	Muted:      lipgloss.Color("#6B7280"),
	Accent:     lipgloss.Color("#5F6FFF"),
	Border:     lipgloss.Color("#D1D5DB"),
	Success:    lipgloss.Color("#15803D"),
	Error:      lipgloss.Color("#B91C1C"),
}

var darkPalette = palette{
	Foreground: lipgloss.Color("#E5E7EB"),
	Muted:      lipgloss.Color("#9CA3AF"),
	Accent:     lipgloss.Color("#8B95FF"),
	Border:     lipgloss.Color("#374151"),
	Success:    lipgloss.Color("#4ADE80"),
	Error:      lipgloss.Color("#F87171"),
}

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	card    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, mode appearance.Mode) styles {
	p := lightPalette
	if mode.IsDark() {
		p = darkPalette
	}
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(p.Accent),
		label:   r.NewStyle().Foreground(p.Muted).Width(12),
		value:   r.NewStyle().Foreground(p.Foreground),
		muted:   r.NewStyle().Foreground(p.Muted).Italic(true),
		success: r.NewStyle().Bold(true).Foreground(p.Success),
		failure: r.NewStyle().Bold(true).Foreground(p.Error),
		card:    r.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1),
	}
}

// presenter draws controller state to a terminal.
type presenter struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *lipgloss.Renderer
	styles   styles
	state    settings.State
}

func newPresenter(out io.Writer) *presenter {
	r := lipgloss.NewRenderer(out)
	return &presenter{
		out:      out,
		renderer: r,
		styles:   newStyles(r, appearance.Light),
		state:    settings.State{Appearance: appearance.Light},
	}
}

// Render keeps the newest state and announces calls as they start.
func (p *presenter) Render(s settings.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s.Version != 0 && s.Version <= p.state.Version {
		return
	}
	prev := p.state
	p.state = s
	if s.Appearance != prev.Appearance {
		p.styles = newStyles(p.renderer, s.Appearance)
	}
	for _, b := range []struct {
		was, is bool
		label   string
	}{
		{prev.EmailBusy, s.EmailBusy, "Updating email..."},
		{prev.PasswordBusy, s.PasswordBusy, "Updating password..."},
		{prev.DeleteBusy, s.DeleteBusy, "Deleting account..."},
	} {
		if b.is && !b.was {
			fmt.Fprintln(p.out, p.styles.muted.Render(b.label))
		}
	}
}

// Notify prints a one-line notification.
func (p *presenter) Notify(n settings.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n.Level == settings.LevelError {
		fmt.Fprintln(p.out, p.styles.failure.Render("✗ "+n.Message))
		return
	}
	fmt.Fprintln(p.out, p.styles.success.Render("✓ "+n.Message))
}

func (p *presenter) prompt(label string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.styles.value.Render(label+":") + " "
}

// line prints a plain message in the current palette.
func (p *presenter) line(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, p.styles.value.Render(msg))
}

// profile prints the doctor's profile as a bordered card.
func (p *presenter) profile(prof api.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.styles
	availability := "not accepting bookings"
	if prof.Available {
		availability = "accepting bookings"
	}
	address := strings.TrimSpace(strings.Join([]string{prof.Address.Line1, prof.Address.Line2}, "\n"))
	rows := [][2]string{
		{"Email", prof.Email},
		{"Speciality", prof.Speciality},
		{"Degree", prof.Degree},
		{"Experience", prof.Experience},
		{"Fees", strconv.Itoa(prof.Fees)},
		{"Status", availability},
		{"Address", address},
	}
	var b strings.Builder
	b.WriteString(st.title.Render(prof.Name))
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, st.label.Render(row[0]), st.value.Render(row[1])))
	}
	if prof.About != "" {
		b.WriteString("\n\n")
		b.WriteString(st.muted.Render(prof.About))
	}
	fmt.Fprintln(p.out, st.card.Render(b.String()))
}

// activity prints the security log, one event per line.
func (p *presenter) activity(events []api.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.styles
	if len(events) == 0 {
		fmt.Fprintln(p.out, st.muted.Render("No account activity recorded"))
		return
	}
	for _, e := range events {
		action := st.value.Render(strings.ReplaceAll(e.Action, "_", " "))
		if e.Severity != "info" {
			action = st.failure.Render(strings.ReplaceAll(e.Action, "_", " "))
		}
		line := st.muted.Render(e.Timestamp.Local().Format("2006-01-02 15:04")) + "  " + action
		if e.IPAddress != "" {
			line += st.muted.Render("  " + e.IPAddress)
		}
		if e.Description != "" {
			line += st.muted.Render("  " + e.Description)
		}
		fmt.Fprintln(p.out, line)
	}
}
