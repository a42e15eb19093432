package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dpolishuk/coderead/internal/config"
	"github.com/dpolishuk/coderead/internal/db"
	"github.com/dpolishuk/coderead/internal/git"
	"github.com/dpolishuk/coderead/internal/indexer"
	"github.com/dpolishuk/coderead/internal/llm"
	"github.com/dpolishuk/coderead/internal/models"
	"github.com/dpolishuk/coderead/pkg/treesitter"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var analyzeFull bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <owner/name | github-url>",
	Short: "Analyze a repository in the foreground",
	Long: `Registers the repository if needed and runs one analysis job in this
process. Runs are incremental once a previous analysis recorded a commit,
unless --full is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runAnalyze(ctx, loadConfig(), args[0], analyzeFull)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFull, "full", false, "re-analyze every file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(ctx context.Context, cfg *config.Config, target string, full bool) error {
	owner, name, err := git.ParseRepoURL(target)
	if err != nil {
		return err
	}

	client, err := db.NewNeo4jClient(ctx, db.Neo4jConfig{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPass,
		Database: cfg.Neo4jDatabase,
	})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.EnsureSchema(ctx); err != nil {
		return err
	}
	store := db.NewStore(client)

	repo, err := findOrCreateRepository(ctx, store, owner, name)
	if err != nil {
		return err
	}

	describer, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	registry := treesitter.NewRegistry()
	defer registry.Close()

	bar := newJobProgressBar(repo.FullName())
	pipeline, err := indexer.NewPipeline(store, git.NewGitService(cfg.ReposPath, cfg.GitRemoteBase), describer, registry, indexer.Options{
		AuthToken:      cfg.GitHubToken,
		IgnorePatterns: cfg.IgnorePatterns,
		OnProgress: func(job *models.AnalysisJob) {
			_ = bar.Set(job.Progress)
		},
	})
	if err != nil {
		return err
	}

	job := models.NewAnalysisJob(uuid.New().String(), repo, time.Now().UTC())
	if full {
		job.JobType = models.JobFull
	}
	if err := store.CreateJob(ctx, job); err != nil {
		return err
	}

	if err := pipeline.Run(ctx, job.ID); err != nil {
		return fmt.Errorf("analysis of %s failed: %w", repo.FullName(), err)
	}
	_ = bar.Finish()

	done, err := store.GetJob(ctx, job.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Analyzed %s: %d files (%s)\n", repo.FullName(), done.ProcessedFiles, done.JobType)
	return nil
}

func findOrCreateRepository(ctx context.Context, store *db.Store, owner, name string) (*models.Repository, error) {
	repo, err := store.FindRepositoryByName(ctx, owner, name)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	return store.CreateRepository(ctx, &models.Repository{
		Owner:         owner,
		Name:          name,
		URL:           fmt.Sprintf("https://github.com/%s/%s", owner, name),
		DefaultBranch: "main",
	})
}

func newJobProgressBar(name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Analyzing "+name),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}
