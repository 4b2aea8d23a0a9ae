// Package explore implements the interactive first-principles explorer: a
// bubbletea program that takes a topic, has the reasoning engine decompose it
// into a tree of components and fundamentals, and lets the user drill into
// any branch.
package explore

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"bedrock/cmd/bedrock/ui"
	"bedrock/internal/config"
	"bedrock/internal/logging"
	"bedrock/internal/reasoning"
	"bedrock/internal/types"
)

// Phase is the top-level state of the explorer.
type Phase int

const (
	// PhaseIdle: waiting for the user to type a topic.
	PhaseIdle Phase = iota
	// PhaseAnalyzing: query sent for analysis, spinner running.
	PhaseAnalyzing
	// PhaseReview: analysis shown, user confirms or picks a disambiguation.
	PhaseReview
	// PhaseProcessing: decomposition in flight, no tree yet.
	PhaseProcessing
	// PhaseExplore: tree on screen; per-node flags track in-flight work.
	PhaseExplore
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseAnalyzing:
		return "ANALYZING"
	case PhaseReview:
		return "REVIEW"
	case PhaseProcessing:
		return "PROCESSING"
	case PhaseExplore:
		return "EXPLORE"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Messages for tea updates. Every async message carries the session counter
// it was spawned under; responses from an abandoned search are dropped.
type (
	analysisMsg struct {
		session  int
		analysis *types.QueryAnalysis
	}
	analysisErrMsg struct {
		session int
		err     error
	}
	decomposeMsg struct {
		session      int
		result       *types.DecompositionResult
		illustration []byte
	}
	decomposeErrMsg struct {
		session int
		err     error
	}
	expandMsg struct {
		session int
		nodeID  string
		result  *types.DecompositionResult
	}
	expandErrMsg struct {
		session int
		nodeID  string
		err     error
	}
	elaborateMsg struct {
		session int
		nodeID  string
		text    string
	}
	elaborateErrMsg struct {
		session int
		nodeID  string
		err     error
	}
	questionMsg struct {
		session  int
		nodeID   string
		question string
	}
	questionErrMsg struct {
		session int
		nodeID  string
		err     error
	}
	exportDoneMsg struct {
		path string
		err  error
	}
)

// Model is the explorer's bubbletea model.
type Model struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// Backend
	engine reasoning.Engine
	cfg    *config.Config

	// Search lifecycle
	phase    Phase
	session  int
	analysis *types.QueryAnalysis
	// Index into analysis.AmbiguityOptions when the query was ambiguous.
	selectedOption int

	// Tree state. root is the committed tree; every mutation replaces it
	// wholesale via tree.UpdateNode.
	root   *types.Node
	cursor int

	// Illustration for the root topic, if one was generated.
	illustrationPath string

	// Transient UI state
	status    string
	err       error
	width     int
	height    int
	ready     bool
	showHelp  bool
	startedAt time.Time
}

// New builds the explorer model.
func New(engine reasoning.Engine, cfg *config.Config) Model {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "What do you want to understand? (Enter to search, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 512
	ti.Width = 80
	ti.PromptStyle = styles.Prompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(78),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(78),
		)
	}

	return Model{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		renderer:  renderer,
		engine:    engine,
		cfg:       cfg,
		phase:     PhaseIdle,
		startedAt: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	logging.UI("explorer started, engine=%s", m.engine.Source())
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Offline reports whether the model is backed by the fallback engine.
func (m Model) Offline() bool {
	return m.engine.Source() == types.DataSourceFallback
}

// resetSearch abandons any in-flight work and returns to the input prompt.
// Bumping the session makes late responses from the old search no-ops.
func (m *Model) resetSearch() {
	m.session++
	m.phase = PhaseIdle
	m.analysis = nil
	m.selectedOption = 0
	m.root = nil
	m.cursor = 0
	m.illustrationPath = ""
	m.status = ""
	m.err = nil
	m.textinput.SetValue("")
	m.textinput.Focus()
	logging.Session("search reset, session=%d", m.session)
}
