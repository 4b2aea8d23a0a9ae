package explore

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"bedrock/internal/logging"
	"bedrock/internal/reasoning"
	"bedrock/internal/tree"
	"bedrock/internal/types"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.textinput.Width = msg.Width - 4
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd

	case analysisMsg:
		if msg.session != m.session {
			logging.SessionDebug("dropping stale analysis (session %d != %d)", msg.session, m.session)
			return m, nil
		}
		m.analysis = msg.analysis
		m.selectedOption = 0
		m.phase = PhaseReview
		m.err = nil
		logging.Session("analysis ready: query=%q intent=%s ambiguous=%v",
			msg.analysis.CorrectedQuery, msg.analysis.Intent, msg.analysis.IsAmbiguous)
		return m, nil

	case analysisErrMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.phase = PhaseIdle
		m.err = msg.err
		m.textinput.Focus()
		return m, nil

	case decomposeMsg:
		if msg.session != m.session {
			logging.SessionDebug("dropping stale decomposition (session %d != %d)", msg.session, m.session)
			return m, nil
		}
		return m.applyDecomposition(msg)

	case decomposeErrMsg:
		if msg.session != m.session {
			return m, nil
		}
		// Back to review so the user can retry or rephrase.
		m.phase = PhaseReview
		m.err = msg.err
		return m, nil

	case expandMsg:
		if msg.session != m.session {
			return m, nil
		}
		return m.applyExpansion(msg)

	case expandErrMsg:
		if msg.session != m.session {
			return m, nil
		}
		// The optimistic loading flag comes off no matter what failed.
		m.root = tree.UpdateNode(m.root, msg.nodeID, func(n *types.Node) *types.Node {
			clone := n.Clone()
			clone.IsLoading = false
			return clone
		})
		m.err = msg.err
		return m, nil

	case elaborateMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.root = tree.UpdateNode(m.root, msg.nodeID, func(n *types.Node) *types.Node {
			clone := n.Clone()
			clone.DetailedExplanation = msg.text
			clone.IsElaborating = false
			return clone
		})
		return m, nil

	case elaborateErrMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.root = tree.UpdateNode(m.root, msg.nodeID, func(n *types.Node) *types.Node {
			clone := n.Clone()
			clone.IsElaborating = false
			return clone
		})
		m.err = msg.err
		return m, nil

	case questionMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.root = tree.UpdateNode(m.root, msg.nodeID, func(n *types.Node) *types.Node {
			clone := n.Clone()
			clone.LearningQuestion = msg.question
			clone.IsGeneratingQuestion = false
			return clone
		})
		return m, nil

	case questionErrMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.root = tree.UpdateNode(m.root, msg.nodeID, func(n *types.Node) *types.Node {
			clone := n.Clone()
			clone.IsGeneratingQuestion = false
			return clone
		})
		m.err = msg.err
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = "exported to " + msg.path
		logging.Tree("exported tree to %s", msg.path)
		return m, nil
	}

	m.textinput, tiCmd = m.textinput.Update(msg)
	return m, tiCmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.phase {
	case PhaseIdle:
		return m.handleIdleKey(msg)
	case PhaseAnalyzing, PhaseProcessing:
		// Only escape works while a phase-level request is in flight.
		if msg.Type == tea.KeyEsc {
			m.resetSearch()
		}
		return m, nil
	case PhaseReview:
		return m.handleReviewKey(msg)
	case PhaseExplore:
		return m.handleExploreKey(msg)
	}
	return m, nil
}

func (m Model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(m.textinput.Value())
		if query == "" {
			return m, nil
		}
		m.phase = PhaseAnalyzing
		m.err = nil
		m.status = ""
		logging.Session("analyzing query=%q session=%d", query, m.session)
		return m, tea.Batch(m.analyzeCmd(query), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.resetSearch()
		return m, nil

	case tea.KeyUp:
		if m.analysis.IsAmbiguous && m.selectedOption > 0 {
			m.selectedOption--
		}
		return m, nil

	case tea.KeyDown:
		if m.analysis.IsAmbiguous && m.selectedOption < len(m.analysis.AmbiguityOptions)-1 {
			m.selectedOption++
		}
		return m, nil

	case tea.KeyEnter:
		analysis := m.analysis
		if analysis.IsAmbiguous && len(analysis.AmbiguityOptions) > 0 {
			// The chosen interpretation becomes the query.
			resolved := *analysis
			resolved.CorrectedQuery = analysis.AmbiguityOptions[m.selectedOption]
			resolved.IsAmbiguous = false
			analysis = &resolved
			m.analysis = analysis
		}
		m.phase = PhaseProcessing
		m.err = nil
		logging.Session("decomposing topic=%q session=%d", analysis.CorrectedQuery, m.session)
		return m, tea.Batch(m.decomposeCmd(analysis), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) handleExploreKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.resetSearch()
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(visibleNodes(m.root))-1 {
			m.cursor++
		}
		return m, nil

	case "enter", " ":
		return m.toggleOrExpand()

	case "e":
		return m.elaborate()

	case "c":
		return m.challenge()

	case "m":
		return m.toggleMastered()

	case "x":
		return m, m.exportCmd()

	case "/":
		m.resetSearch()
		return m, textinput.Blink

	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}
	return m, nil
}

// toggleOrExpand is the expand-node operation: already-loaded branches toggle
// locally, unexplored decomposable nodes go to the engine with an optimistic
// loading flag.
func (m Model) toggleOrExpand() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil {
		return m, nil
	}
	if node.IsLoading {
		// Double-submit guard: one request per node at a time.
		return m, nil
	}

	if len(node.Children) > 0 {
		m.root = tree.UpdateNode(m.root, node.ID, func(n *types.Node) *types.Node {
			clone := n.Clone()
			clone.IsExpanded = !n.IsExpanded
			return clone
		})
		m.clampCursor()
		return m, nil
	}

	if !node.IsDecomposable() {
		m.status = node.Name + " is a fundamental: nothing beneath it"
		return m, nil
	}

	m.root = tree.UpdateNode(m.root, node.ID, func(n *types.Node) *types.Node {
		clone := n.Clone()
		clone.IsLoading = true
		return clone
	})
	logging.Tree("expanding node=%s name=%q", node.ID, node.Name)
	return m, tea.Batch(m.expandCmd(node), m.spinner.Tick)
}

func (m Model) elaborate() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil || node.IsElaborating {
		return m, nil
	}
	if node.DetailedExplanation != "" {
		// Cached; the view already shows it.
		return m, nil
	}
	m.root = tree.UpdateNode(m.root, node.ID, func(n *types.Node) *types.Node {
		clone := n.Clone()
		clone.IsElaborating = true
		return clone
	})
	return m, tea.Batch(m.elaborateCmd(node), m.spinner.Tick)
}

func (m Model) challenge() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil || node.IsGeneratingQuestion {
		return m, nil
	}
	m.root = tree.UpdateNode(m.root, node.ID, func(n *types.Node) *types.Node {
		clone := n.Clone()
		clone.IsGeneratingQuestion = true
		return clone
	})
	return m, tea.Batch(m.questionCmd(node), m.spinner.Tick)
}

func (m Model) toggleMastered() (tea.Model, tea.Cmd) {
	node := m.currentNode()
	if node == nil {
		return m, nil
	}
	m.root = tree.UpdateNode(m.root, node.ID, func(n *types.Node) *types.Node {
		clone := n.Clone()
		clone.IsMastered = !n.IsMastered
		return clone
	})
	return m, nil
}

// applyDecomposition installs the root tree after the initial decomposition.
func (m Model) applyDecomposition(msg decomposeMsg) (tea.Model, tea.Cmd) {
	analysis := m.analysis
	root := tree.NewRoot(analysis.CorrectedQuery, "Root topic under exploration")

	clean := reasoning.CleanComponents(msg.result.Components, root.Name)
	m.root = tree.UpdateNode(root, root.ID, tree.AttachChildren(clean, msg.result))
	m.cursor = 0
	m.phase = PhaseExplore
	m.err = nil
	m.status = ""

	if len(msg.illustration) > 0 {
		if path := m.saveIllustration(root.Name, msg.illustration); path != "" {
			m.illustrationPath = path
			m.status = "illustration saved to " + path
		}
	}

	logging.Session("tree ready: topic=%q components=%d source=%s",
		root.Name, len(clean), msg.result.DataSource)
	return m, nil
}

// applyExpansion attaches children produced by a node-level decomposition.
func (m Model) applyExpansion(msg expandMsg) (tea.Model, tea.Cmd) {
	target := tree.Find(m.root, msg.nodeID)
	if target == nil {
		// Node vanished under a newer tree; nothing to attach to.
		return m, nil
	}
	clean := reasoning.CleanComponents(msg.result.Components, target.Name)
	m.root = tree.UpdateNode(m.root, msg.nodeID, tree.AttachChildren(clean, msg.result))
	m.cursorTo(msg.nodeID)
	logging.Tree("expanded node=%s children=%d", msg.nodeID, len(clean))
	return m, nil
}
