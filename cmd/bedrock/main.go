// Package main provides the bedrock CLI entry point.
//
// Run without arguments to start the interactive explorer; use the decompose
// subcommand for a one-shot decomposition written to a JSON document.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bedrock/cmd/bedrock/explore"
	"bedrock/internal/config"
	"bedrock/internal/logging"
	"bedrock/internal/reasoning"
)

// Version is set at build time via -ldflags.
var Version = "0.3.0"

var (
	// Flags
	verbose   bool
	apiKey    string
	workspace string
	timeout   time.Duration

	// Logger for non-interactive commands
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bedrock",
	Short: "bedrock - first-principles topic explorer",
	Long: `bedrock breaks any topic down into the irreducible truths it stands on.

A reasoning engine recursively decomposes a topic into components and
fundamentals; you explore the resulting tree interactively, drill into any
branch, request explanations and challenge questions, and export the result
as a JSON document.

Run without arguments to start the interactive explorer.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive explorer has its own UI; no zap console noise
		if cmd.Use == "bedrock" && cmd.CalledAs() == "bedrock" {
			return nil
		}

		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExplorer()
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bedrock version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bedrock %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(decomposeCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// loadSetup initializes logging, loads config and constructs the engine.
func loadSetup() (*config.Config, reasoning.Engine, error) {
	ws := resolveWorkspace()
	if err := logging.Initialize(ws); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := config.Load(config.DefaultPath(ws))
	if err != nil {
		return nil, nil, err
	}
	if apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}

	engine := reasoning.NewEngine(reasoning.Options{
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		ImageModel: cfg.LLM.ImageModel,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.GetLLMTimeout(),
		MaxRetries: cfg.LLM.MaxRetries,
	})
	return cfg, engine, nil
}

// runExplorer starts the interactive TUI.
func runExplorer() error {
	cfg, engine, err := loadSetup()
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	// Hot-reload logging settings while the explorer runs.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := config.NewWatcher(resolveWorkspace(), nil)
	if err == nil {
		if err := watcher.Start(ctx); err == nil {
			defer watcher.Stop()
		}
	}

	model := explore.New(engine, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
