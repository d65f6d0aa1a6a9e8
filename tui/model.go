package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Dispatcher runs functions on the UI queue.
type Dispatcher interface {
	Async(fn func()) bool
}

type frameMsg struct{}

// Model is the bubbletea model driving a Window. Terminal input is handed
// to the UI queue; the view is the window's last frame.
type Model struct {
	window   *Window
	ui       Dispatcher
	onReload func()
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithReload binds ctrl+r to fn.
func WithReload(fn func()) ModelOption {
	return func(m *Model) { m.onReload = fn }
}

// NewModel creates a model for w whose input runs on ui.
func NewModel(w *Window, ui Dispatcher, opts ...ModelOption) Model {
	m := Model{window: w, ui: ui}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ui.Async(func() { m.window.Resize(msg.Width, msg.Height) })
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+r":
			if m.onReload != nil {
				go m.onReload()
			}
			return m, nil
		}
		m.ui.Async(func() { m.window.HandleKey(msg) })
	case frameMsg:
		// repaint
	}
	return m, nil
}

func (m Model) View() string {
	return m.window.Frame()
}

// Run shows w in the terminal until the user quits or ctx is done.
func Run(ctx context.Context, w *Window, ui Dispatcher, opts ...ModelOption) error {
	p := tea.NewProgram(NewModel(w, ui, opts...), tea.WithAltScreen(), tea.WithContext(ctx))

	notify := make(chan struct{}, 1)
	w.OnFrame(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer w.OnFrame(nil)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-notify:
				p.Send(frameMsg{})
			case <-done:
				return
			}
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
