package explore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"bedrock/internal/logging"
	"bedrock/internal/tree"
	"bedrock/internal/types"
)

// Per-command deadline. Retries happen inside the engine, so this bounds the
// whole exchange including backoff.
const commandTimeout = 5 * time.Minute

// analyzeCmd asks the engine to interpret the raw query.
func (m Model) analyzeCmd(query string) tea.Cmd {
	session := m.session
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		analysis, err := engine.AnalyzeQuery(ctx, query)
		if err != nil {
			return analysisErrMsg{session: session, err: err}
		}
		return analysisMsg{session: session, analysis: analysis}
	}
}

// decomposeCmd runs the root decomposition and the illustration concurrently.
// The illustration is cosmetic: its error is swallowed so a failed image can
// never sink a successful decomposition.
func (m Model) decomposeCmd(analysis *types.QueryAnalysis) tea.Cmd {
	session := m.session
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		var (
			result       *types.DecompositionResult
			illustration []byte
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			r, err := engine.Decompose(gctx, analysis.CorrectedQuery, analysis.Enrichment, analysis.Intent, analysis.Domain)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		g.Go(func() error {
			img, err := engine.GenerateIllustration(gctx, analysis.CorrectedQuery)
			if err != nil {
				logging.APIDebug("illustration failed (ignored): %v", err)
				return nil
			}
			illustration = img
			return nil
		})
		if err := g.Wait(); err != nil {
			return decomposeErrMsg{session: session, err: err}
		}
		return decomposeMsg{session: session, result: result, illustration: illustration}
	}
}

// expandCmd decomposes one component in the context of its parent tree.
func (m Model) expandCmd(node *types.Node) tea.Cmd {
	session := m.session
	engine := m.engine
	nodeID := node.ID
	name := node.Name
	parentContext := node.Description
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		result, err := engine.Verify(ctx, name, parentContext)
		if err != nil {
			return expandErrMsg{session: session, nodeID: nodeID, err: err}
		}
		return expandMsg{session: session, nodeID: nodeID, result: result}
	}
}

// elaborateCmd fetches the long-form explanation for a node.
func (m Model) elaborateCmd(node *types.Node) tea.Cmd {
	session := m.session
	engine := m.engine
	nodeID := node.ID
	name := node.Name
	description := node.Description
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		text, err := engine.Elaborate(ctx, name, description)
		if err != nil {
			return elaborateErrMsg{session: session, nodeID: nodeID, err: err}
		}
		return elaborateMsg{session: session, nodeID: nodeID, text: text}
	}
}

// questionCmd fetches a challenge question for a node.
func (m Model) questionCmd(node *types.Node) tea.Cmd {
	session := m.session
	engine := m.engine
	nodeID := node.ID
	name := node.Name
	description := node.Description
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		q, err := engine.GenerateChallengeQuestion(ctx, name, description)
		if err != nil {
			return questionErrMsg{session: session, nodeID: nodeID, err: err}
		}
		return questionMsg{session: session, nodeID: nodeID, question: q}
	}
}

// exportCmd writes the committed tree to a JSON document. The snapshot is
// taken before the command runs so in-flight expansions never half-appear.
func (m Model) exportCmd() tea.Cmd {
	root := m.root
	dir := m.cfg.Export.Directory
	return func() tea.Msg {
		if root == nil {
			return exportDoneMsg{err: fmt.Errorf("no tree to export")}
		}
		path := filepath.Join(dir, exportFilename(root.Name))
		if err := tree.ExportFile(root, path); err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

// exportFilename derives a filesystem-safe name from the topic.
func exportFilename(topic string) string {
	slug := strings.ToLower(strings.TrimSpace(topic))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "topic"
	}
	return fmt.Sprintf("bedrock_%s_%s.json", slug, time.Now().Format("20060102_150405"))
}

// saveIllustration writes the generated image next to the exports and returns
// its path. Failure is reported to the log only.
func (m Model) saveIllustration(topic string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	dir := filepath.Join(m.cfg.Export.Directory, ".bedrock", "illustrations")
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.UIDebug("illustration dir failed: %v", err)
		return ""
	}
	path := filepath.Join(dir, strings.TrimSuffix(exportFilename(topic), ".json")+".png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		logging.UIDebug("illustration write failed: %v", err)
		return ""
	}
	return path
}
