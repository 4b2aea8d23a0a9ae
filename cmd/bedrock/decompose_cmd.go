package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bedrock/internal/logging"
	"bedrock/internal/reasoning"
	"bedrock/internal/tree"
)

var decomposeOutput string

// decomposeCmd runs one analyze+decompose pass and writes the tree to disk.
// Useful for scripting; the interactive explorer is the primary surface.
var decomposeCmd = &cobra.Command{
	Use:   "decompose [topic]",
	Short: "Decompose a topic non-interactively and export the tree as JSON",
	Long: `Runs the full pipeline once: analyze the query, decompose the topic into
first-principle components, and write the resulting tree to a JSON document.

Example:
  bedrock decompose "how do solid state drives store bits"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecompose,
}

func init() {
	decomposeCmd.Flags().StringVarP(&decomposeOutput, "output", "o", "", "Output path (default: derived from topic)")
}

func runDecompose(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, engine, err := loadSetup()
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	logger.Info("analyzing query", zap.String("query", query))
	analysis, err := engine.AnalyzeQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("query analysis failed: %w", err)
	}
	if analysis.IsAmbiguous && len(analysis.AmbiguityOptions) > 0 {
		// Non-interactive: take the first interpretation and say so.
		logger.Warn("ambiguous query, using first interpretation",
			zap.String("chosen", analysis.AmbiguityOptions[0]),
			zap.Strings("options", analysis.AmbiguityOptions))
		analysis.CorrectedQuery = analysis.AmbiguityOptions[0]
	}

	logger.Info("decomposing topic",
		zap.String("topic", analysis.CorrectedQuery),
		zap.String("intent", string(analysis.Intent)),
		zap.String("source", string(engine.Source())))

	start := time.Now()
	result, err := engine.Decompose(ctx, analysis.CorrectedQuery, analysis.Enrichment, analysis.Intent, analysis.Domain)
	if err != nil {
		return fmt.Errorf("decomposition failed: %w", err)
	}

	root := tree.NewRoot(analysis.CorrectedQuery, "Root topic under exploration")
	clean := reasoning.CleanComponents(result.Components, root.Name)
	root = tree.UpdateNode(root, root.ID, tree.AttachChildren(clean, result))

	out := decomposeOutput
	if out == "" {
		slug := strings.ReplaceAll(strings.ToLower(analysis.CorrectedQuery), " ", "-")
		out = filepath.Join(cfg.Export.Directory, fmt.Sprintf("bedrock_%s.json", slug))
	}
	if err := tree.ExportFile(root, out); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	logger.Info("decomposition exported",
		zap.String("path", out),
		zap.Int("components", len(clean)),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("wrote %s (%d components, source=%s)\n", out, len(clean), result.DataSource)
	return nil
}
