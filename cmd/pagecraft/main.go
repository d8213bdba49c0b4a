// pagecraft is the command-line front end for the AI page builder: it runs
// full-page builds, targeted section replacements, and focused additions
// against a project database, streaming build progress to the terminal.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pagecraft/internal/config"
	"pagecraft/internal/logging"
)

var (
	// Global flags
	workspace string
	projectID string
	pageID    string
	verbose   bool

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pagecraft",
	Short: "PageCraft - AI page builder",
	Long: `PageCraft turns natural-language prompts into validated page documents.

A build streams AI-generated components through a validation pipeline
(style flattening, structural rules, contrast repair, class synthesis)
into a per-project sqlite database. Three build modes are classified
automatically: full page, targeted section replacement, and focused
addition to an existing page.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, err = os.Getwd()
			if err != nil {
				return err
			}
		}
		if err := logging.Initialize(config.Dir(workspace)); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		if err := logging.InitAudit(); err != nil {
			logger.Warn("audit logging disabled", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAudit()
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	// Ctrl-C cancels the in-flight build; streamed components are kept.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancelActiveBuild()
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&projectID, "project", "default", "project identifier")
	rootCmd.PersistentFlags().StringVar(&pageID, "page", "home", "page identifier")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(classesCmd)
	rootCmd.AddCommand(variablesCmd)
	rootCmd.AddCommand(configCmd)
}
