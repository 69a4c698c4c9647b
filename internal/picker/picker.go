// Package picker asks on the terminal which images of a note are feature
// images.
package picker

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves the picker without
// confirming.
var ErrCancelled = errors.New("picker: cancelled")

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	checkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is a checklist over image references.
type Model struct {
	images    []string
	cursor    int
	selected  map[int]bool
	done      bool
	cancelled bool
}

// NewModel creates a checklist with nothing selected.
func NewModel(images []string) Model {
	return Model{images: images, selected: make(map[int]bool)}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.images)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.images) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Feature/card images") + "\n")
	sb.WriteString(hintStyle.Render("Used for homepage cards, social sharing and post headers.") + "\n\n")
	for i, img := range m.images {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if m.selected[i] {
			box = checkStyle.Render("[x]")
		}
		fmt.Fprintf(&sb, "%s%s %d. %s\n", cursor, box, i+1, img)
	}
	sb.WriteString("\n" + hintStyle.Render("space: toggle • enter: confirm • esc: cancel") + "\n")
	return sb.String()
}

// Selected returns the 1-based positions of the checked images, ascending.
func (m Model) Selected() []int {
	var out []int
	for i, on := range m.selected {
		if on {
			out = append(out, i+1)
		}
	}
	sort.Ints(out)
	return out
}

// Cancelled reports whether the user left without confirming.
func (m Model) Cancelled() bool { return m.cancelled }

// Terminal runs the checklist on a terminal.
type Terminal struct {
	in  io.Reader
	out io.Writer
}

// NewTerminal creates a picker reading keys from in and drawing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out}
}

// PickFeatures shows the checklist and returns the chosen positions.
func (t *Terminal) PickFeatures(images []string) ([]int, error) {
	if len(images) == 0 {
		return nil, nil
	}
	prog := tea.NewProgram(NewModel(images), tea.WithInput(t.in), tea.WithOutput(t.out))
	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("picker: run: %w", err)
	}
	m, ok := final.(Model)
	if !ok || m.Cancelled() {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}
