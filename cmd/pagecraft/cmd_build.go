package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagecraft/internal/config"
	"pagecraft/internal/generation"
	"pagecraft/internal/orchestrator"
	"pagecraft/internal/store"
)

var (
	forceFullPage bool
	targetSection string
)

var buildCmd = &cobra.Command{
	Use:   "build [prompt]",
	Short: "Build a page from a prompt",
	Long: `Runs a build for the given prompt. The build mode is classified
automatically: an empty page or a page-level prompt rebuilds the whole page
in phases, a prompt that clearly targets one section replaces just that
section, and anything else appends new content.

Examples:
  pagecraft build "a landing page for an artisanal coffee roastery"
  pagecraft build --full "redesign everything with a darker look"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), orchestrator.Request{
			ProjectID:     projectID,
			PageID:        pageID,
			Prompt:        strings.Join(args, " "),
			ForceFullPage: forceFullPage,
		})
	},
}

var replaceCmd = &cobra.Command{
	Use:   "replace [section] [prompt]",
	Short: "Regenerate one section in place",
	Long: `Replaces the named section with a regenerated one that honors the
page's design seed and neighboring sections. The section is matched by ID,
then by partial ID, then by class name, then by text content.

Example:
  pagecraft replace hero-section "make the headline about speed"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), orchestrator.Request{
			ProjectID:     projectID,
			PageID:        pageID,
			Prompt:        strings.Join(args[1:], " "),
			TargetSection: args[0],
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add [prompt]",
	Short: "Add new content to the existing page",
	Long: `Generates new sections from the prompt and appends them to the page
without touching what is already there.

Example:
  pagecraft add "a testimonials section with three customer quotes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), orchestrator.Request{
			ProjectID: projectID,
			PageID:    pageID,
			Prompt:    strings.Join(args, " "),
		})
	},
}

func init() {
	buildCmd.Flags().BoolVar(&forceFullPage, "full", false, "force a full-page rebuild")
	buildCmd.Flags().StringVar(&targetSection, "target", "", "replace this section instead of classifying the prompt")
}

var (
	activeMu    sync.Mutex
	activeBuild *orchestrator.Orchestrator
)

func cancelActiveBuild() {
	activeMu.Lock()
	o := activeBuild
	activeMu.Unlock()
	if o != nil {
		o.Cancel()
	}
}

func runBuild(ctx context.Context, req orchestrator.Request) error {
	if targetSection != "" && req.TargetSection == "" {
		req.TargetSection = targetSection
	}

	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	client, err := newGenerationClient(cfg)
	if err != nil {
		return err
	}
	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	o := orchestrator.New(client, db, db.ClassesFor(req.ProjectID))
	activeMu.Lock()
	activeBuild = o
	activeMu.Unlock()
	defer func() {
		activeMu.Lock()
		activeBuild = nil
		activeMu.Unlock()
	}()

	// Progress frames render until the build returns, then the buffer drains.
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case update := <-o.Progress():
				if line := renderUpdate(update); line != "" {
					fmt.Println(line)
				}
			case <-quit:
				for {
					select {
					case update := <-o.Progress():
						if line := renderUpdate(update); line != "" {
							fmt.Println(line)
						}
					default:
						return
					}
				}
			}
		}
	}()

	logger.Info("starting build",
		zap.String("project", req.ProjectID),
		zap.String("page", req.PageID),
		zap.String("prompt", req.Prompt))
	result, err := o.Build(ctx, req)
	close(quit)
	wg.Wait()

	if result != nil {
		fmt.Println(renderResult(result))
	}
	return err
}

func newGenerationClient(cfg *config.Config) (generation.Client, error) {
	switch cfg.Generation.Engine {
	case "service":
		if cfg.Generation.ServiceURL == "" {
			return nil, fmt.Errorf("generation engine %q needs a service URL (set PAGECRAFT_SERVICE_URL or service_url in config)", cfg.Generation.Engine)
		}
		return generation.NewHTTPClient(generation.HTTPConfig{
			BaseURL:     cfg.Generation.ServiceURL,
			APIKey:      cfg.Generation.APIKey,
			Timeout:     cfg.Generation.Timeout(),
			MinInterval: cfg.Generation.MinInterval(),
		}), nil
	default:
		return generation.NewGenAIClient(cfg.Generation.GeminiAPIKey, cfg.Generation.Model)
	}
}
