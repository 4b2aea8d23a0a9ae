package explore

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bedrock/cmd/bedrock/ui"
	"bedrock/internal/tree"
	"bedrock/internal/types"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.phase {
	case PhaseIdle:
		b.WriteString(m.renderIdle())
	case PhaseAnalyzing:
		b.WriteString(m.renderWait("analyzing query"))
	case PhaseReview:
		b.WriteString(m.renderReview())
	case PhaseProcessing:
		b.WriteString(m.renderWait("decomposing " + m.analysis.CorrectedQuery))
	case PhaseExplore:
		b.WriteString(m.renderExplore())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" bedrock · first principles explorer ")
	if m.Offline() {
		return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", m.styles.Offline.Render("OFFLINE"))
	}
	return title
}

func (m Model) renderIdle() string {
	var b strings.Builder
	b.WriteString(ui.Logo(m.styles))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Break any topic down to the truths it stands on."))
	b.WriteString("\n\n")
	b.WriteString(m.textinput.View())
	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Error.Render("error: " + m.err.Error()))
	}
	return b.String()
}

func (m Model) renderWait(what string) string {
	return fmt.Sprintf("\n  %s %s...\n", m.spinner.View(), m.styles.Body.Render(what))
}

func (m Model) renderReview() string {
	a := m.analysis
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Query analysis"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", m.styles.Muted.Render("topic:"), m.styles.Bold.Render(a.CorrectedQuery)))
	b.WriteString(fmt.Sprintf("  %s %s\n", m.styles.Muted.Render("intent:"), string(a.Intent)))
	b.WriteString(fmt.Sprintf("  %s %s\n", m.styles.Muted.Render("domain:"), a.Domain))
	if a.Enrichment != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.styles.Muted.Render("focus:"), a.Enrichment))
	}

	if a.IsAmbiguous && len(a.AmbiguityOptions) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render("  The query is ambiguous. Pick an interpretation:"))
		b.WriteString("\n")
		for i, opt := range a.AmbiguityOptions {
			marker := "   "
			line := "  " + opt
			if i == m.selectedOption {
				marker = " > "
				line = m.styles.Selected.Render("  " + opt)
			}
			b.WriteString(marker + line + "\n")
		}
	}

	if len(a.PredictedTopics) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("  related: " + strings.Join(a.PredictedTopics, ", ")))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("  error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("  enter: decompose · esc: back"))
	return b.String()
}

func (m Model) renderExplore() string {
	rows := visibleNodes(m.root)
	var b strings.Builder

	for i, row := range rows {
		b.WriteString(m.renderRow(row, i == m.cursor))
		b.WriteString("\n")
	}

	if node := m.currentNode(); node != nil {
		b.WriteString("\n")
		b.WriteString(m.renderDetail(node))
	}

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(
			"  enter/space: expand or collapse · e: explain · c: challenge · m: mastered\n" +
				"  x: export json · /: new search · esc: reset · ctrl+c: quit"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(row visibleRow, selected bool) string {
	n := row.node
	indent := strings.Repeat("  ", row.depth)

	marker := "· "
	switch {
	case n.IsLoading:
		marker = m.spinner.View() + " "
	case len(n.Children) > 0 && n.IsExpanded:
		marker = "▾ "
	case len(n.Children) > 0:
		marker = "▸ "
	case n.IsDecomposable():
		marker = "▸ "
	}

	var style lipgloss.Style
	switch n.Type {
	case types.NodeTypeRoot:
		style = m.styles.NodeRoot
	case types.NodeTypeFundamental:
		style = m.styles.NodeFundamental
	default:
		style = m.styles.NodeComponent
	}

	name := n.Name
	if n.Type == types.NodeTypeFundamental {
		name += " ⚑"
	}
	if n.IsMastered {
		name += " ✓"
		style = m.styles.NodeMastered
	}

	prefix := "  "
	if selected {
		prefix = m.styles.Selected.Render("> ")
	}
	return prefix + indent + marker + style.Render(name)
}

func (m Model) renderDetail(n *types.Node) string {
	var b strings.Builder
	var body strings.Builder

	body.WriteString(m.styles.Bold.Render(n.Name))
	body.WriteString("  ")
	body.WriteString(m.styles.Badge.Render(string(n.Type)))
	body.WriteString("\n\n")
	if n.Description != "" {
		body.WriteString(n.Description + "\n")
	}
	if n.CoreConcept != "" {
		body.WriteString("\n" + m.styles.Muted.Render("core: ") + n.CoreConcept + "\n")
	}
	if n.Analogy != "" {
		body.WriteString(m.styles.Muted.Render("analogy: ") + n.Analogy + "\n")
	}
	if n.Reasoning != "" {
		body.WriteString(m.styles.Muted.Render("why here: ") + n.Reasoning + "\n")
	}
	if len(n.Assumptions) > 0 {
		body.WriteString("\n" + m.styles.Muted.Render("assumptions:") + "\n")
		for _, a := range n.Assumptions {
			body.WriteString("  - " + a + "\n")
		}
	}
	if len(n.Sources) > 0 {
		body.WriteString("\n" + m.styles.Muted.Render("sources:") + "\n")
		for _, s := range n.Sources {
			body.WriteString("  " + m.styles.Source.Render(s.Title) + " " + m.styles.Muted.Render(s.URI) + "\n")
		}
	}

	if n.IsElaborating {
		body.WriteString("\n" + m.spinner.View() + " fetching explanation...\n")
	} else if n.DetailedExplanation != "" {
		rendered := n.DetailedExplanation
		if m.renderer != nil {
			if out, err := m.renderer.Render(n.DetailedExplanation); err == nil {
				rendered = out
			}
		}
		body.WriteString("\n" + rendered)
	}

	if n.IsGeneratingQuestion {
		body.WriteString("\n" + m.spinner.View() + " thinking of a question...\n")
	} else if n.LearningQuestion != "" {
		body.WriteString("\n" + m.styles.Info.Render("challenge: ") + n.LearningQuestion + "\n")
	}

	b.WriteString(m.styles.Card.Width(max(40, m.width-4)).Render(body.String()))
	return b.String()
}

func (m Model) renderFooter() string {
	var parts []string

	if m.phase == PhaseExplore && m.root != nil {
		p := tree.Measure(m.root)
		parts = append(parts, fmt.Sprintf("%d nodes · %d fundamentals · %d/%d mastered",
			p.Total, p.Fundamentals, p.Mastered, p.Total))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.err != nil && m.phase == PhaseExplore {
		parts = append(parts, m.styles.Error.Render(m.err.Error()))
	}
	if m.phase == PhaseExplore && !m.showHelp {
		parts = append(parts, "? for help")
	}

	return m.styles.Footer.Render(strings.Join(parts, "  ·  "))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
