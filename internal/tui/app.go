package tui

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklog/internal/session"
	"github.com/sadopc/tasklog/internal/store"
)

// App is the root Bubble Tea model. It feeds submitted lines to the
// session and saves the session before every command prompt.
type App struct {
	session *session.Session
	persist session.Persister
	out     *bytes.Buffer
	now     func() time.Time

	width  int
	height int

	input     textinput.Model
	output    viewport.Model
	prompt    promptModel
	prompting bool
	chart     chartModel

	help     help.Model
	showHelp bool
	status   statusLine
	err      error
}

// NewApp builds the model. out must be the writer the session prints to.
func NewApp(s *session.Session, out *bytes.Buffer, p session.Persister) App {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "h for help"
	in.ShowSuggestions = true
	in.SetSuggestions(session.Commands)
	in.Focus()

	h := help.New()
	h.ShowAll = false

	return App{
		session: s,
		persist: p,
		out:     out,
		now:     time.Now,
		input:   in,
		output:  viewport.New(80, 10),
		chart:   newChartModel(),
		help:    h,
	}
}

// Err returns the error that stopped the program, if any.
func (a App) Err() error {
	return a.err
}

func (a App) Init() tea.Cmd {
	a.session.Start()
	if err := a.persist.Save(a.session.Snapshot()); err != nil {
		return func() tea.Msg { return saveFailedMsg{err: err} }
	}
	return tea.Batch(textinput.Blink, tickCmd())
}

type saveFailedMsg struct {
	err error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.layout()
		if a.prompting {
			var cmd tea.Cmd
			a.prompt, _, cmd = a.prompt.update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		// The open task keeps growing in the chart.
		a.refreshChart()
		return a, tickCmd()

	case saveFailedMsg:
		a.err = msg.err
		return a, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			a.session.Quit()
			return a.afterFeed()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.ScrollUp), key.Matches(msg, keys.ScrollDown):
			var cmd tea.Cmd
			a.output, cmd = a.output.Update(msg)
			return a, cmd
		}
	}

	if a.prompting {
		return a.updatePrompt(msg)
	}
	return a.updateInput(msg)
}

func (a App) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Submit) {
		line := a.input.Value()
		a.input.Reset()
		// Each command starts from a clear screen.
		a.out.Reset()
		a.session.Feed(line)
		return a.afterFeed()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		res promptResult
		cmd tea.Cmd
	)
	a.prompt, res, cmd = a.prompt.update(msg)

	switch res {
	case promptSubmitted:
		a.prompting = false
		a.session.Feed(a.prompt.result())
		return a.afterFeed()
	case promptInterrupted:
		a.prompting = false
		a.session.Quit()
		return a.afterFeed()
	}
	return a, cmd
}

// afterFeed reacts to the session's new mode: save and quit, save and wait
// for the next command, or open a prompt.
func (a App) afterFeed() (tea.Model, tea.Cmd) {
	a.output.SetContent(a.out.String())
	a.output.GotoTop()

	switch {
	case a.session.Done():
		if err := a.persist.Save(a.session.Snapshot()); err != nil {
			a.err = fmt.Errorf("save session: %w", err)
			a.status = statusLine{text: a.err.Error(), isError: true}
		}
		return a, tea.Quit

	case a.session.Mode() == session.ModeCommand:
		if err := a.persist.Save(a.session.Snapshot()); err != nil {
			a.err = fmt.Errorf("save session: %w", err)
			return a, tea.Quit
		}
		a.refreshChart()
		a.status = statusLine{text: fmt.Sprintf("saved %d tasks", len(a.session.Snapshot()))}
		a.prompting = false
		return a, a.input.Focus()
	}

	log.Printf("tui: prompting in %s mode", a.session.Mode())
	a.prompting = true
	a.prompt = newPromptModel(a.session, a.leftWidth()-4)
	a.input.Blur()
	return a, a.prompt.Init()
}

func (a *App) refreshChart() {
	snapshot := a.session.Snapshot()
	var open *store.Task
	if t, ok := a.session.Current(); ok {
		open = &t
	}
	a.chart.refresh(snapshot, open, a.now())
}

func (a App) leftWidth() int {
	return a.width * 3 / 5
}

func (a *App) layout() {
	left := a.leftWidth()
	right := a.width - left

	contentHeight := a.height - 6 // header, input, footer
	if contentHeight < 3 {
		contentHeight = 3
	}
	a.output.Width = left - 4
	a.output.Height = contentHeight - 4
	a.input.Width = left - 8
	a.chart.setSize(right-4, contentHeight)
	a.refreshChart()
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	left := a.leftWidth()
	right := a.width - left

	var entry string
	if a.prompting {
		entry = a.prompt.view()
	} else {
		entry = lipgloss.JoinVertical(lipgloss.Left,
			promptStyle.Render(a.session.Prompt()),
			a.input.View(),
		)
	}
	entryPanel := activePanelStyle.Width(left - 2).Render(entry)

	outputHeight := contentHeight - lipgloss.Height(entryPanel) - 2
	if outputHeight < 1 {
		outputHeight = 1
	}
	outputPanel := panelStyle.Width(left - 2).Height(outputHeight).Render(a.output.View())

	leftCol := lipgloss.JoinVertical(lipgloss.Left, outputPanel, entryPanel)
	rightCol := panelStyle.Width(right - 2).Height(contentHeight - 2).Render(a.chart.view())

	content := lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tasklog")
	path := mutedStyle.Render(a.session.OutputPath())

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(path) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, path))
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status.text != "" {
		style := mutedStyle
		if a.status.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status.text)
	}

	// Open task indicator
	timerInfo := mutedStyle.Render(" ■ no open task")
	if t, ok := a.session.Current(); ok {
		elapsed := a.now().Sub(t.Start)
		timerInfo = successStyle.Render(" ● "+formatDuration(elapsed)) +
			" " + highlightStyle.Render(truncate(t.Description, 24))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
