package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/mosscheck/internal/cloner"
	"github.com/kurihiro0119/mosscheck/internal/config"
	"github.com/kurihiro0119/mosscheck/internal/gitlab"
	"github.com/kurihiro0119/mosscheck/internal/moss"
	"github.com/kurihiro0119/mosscheck/internal/storage"
	"github.com/kurihiro0119/mosscheck/internal/storage/postgres"
	"github.com/kurihiro0119/mosscheck/internal/storage/sqlite"
	"github.com/kurihiro0119/mosscheck/internal/task"
)

var (
	cfgFile    string
	outputDir  string
	envFile    string
	resume     bool
	noDownload bool
	noGitClone bool
)

var rootCmd = &cobra.Command{
	Use:   "mosscheck",
	Short: "MOSS plagiarism check automation",
	Long: `A CLI tool that clones student assignment repositories from GitLab
and submits their source files to the MOSS similarity service.

Credentials come from environment variables (USER_ID, GITLAB_TOKEN,
GITLAB_URL); the assignment itself is described by a YAML config file.`,
}

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone student repositories",
	Long:  `Clone every repository of the configured GitLab groups, plus the base repositories, into the local working directory.`,
	Args:  cobra.NoArgs,
	RunE:  runClone,
}

var mossCmd = &cobra.Command{
	Use:   "moss",
	Short: "Submit cloned sources to MOSS",
	Long:  `Collect source files from the cloned checkouts, submit them to MOSS in batches, and save the returned reports.`,
	Args:  cobra.NoArgs,
	RunE:  runMoss,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clone and submit in one pass",
	Long:  `Run clone mode followed by submit mode.`,
	Args:  cobra.NoArgs,
	RunE:  runAll,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored submission state",
	Long:  `Display the stored submissions and checkouts for the configured assignment.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to the assignment YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "override the output path from the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a dotenv file with credentials")

	mossCmd.Flags().BoolVar(&resume, "resume", false, "resume a previous run, skipping submissions already done")
	mossCmd.Flags().BoolVar(&noDownload, "no-download", false, "save only report.html, skip downloading the match pages")
	runCmd.Flags().BoolVar(&resume, "resume", false, "resume a previous run, skipping submissions already done")
	runCmd.Flags().BoolVar(&noDownload, "no-download", false, "save only report.html, skip downloading the match pages")
	runCmd.Flags().BoolVar(&noGitClone, "no-git-clone", false, "do not clone the repositories")

	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(mossCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

func loadAssignment() (*config.Assignment, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("--config is required")
	}
	a, err := config.LoadAssignment(cfgFile)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		a.Output = outputDir
	}
	return a, nil
}

func runClone(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateClone(); err != nil {
		return err
	}

	a, err := loadAssignment()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	return cloneRepositories(context.Background(), cfg, a, store)
}

func cloneRepositories(ctx context.Context, cfg *config.Config, a *config.Assignment, store storage.Storage) error {
	for _, dir := range []string{a.Output, a.Files} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	gl := gitlab.NewClient(cfg.GitLabURL, cfg.GitLabToken, nil)
	cl := cloner.New(gl, cfg.GitLabToken, a.AbortOnCloneError)

	fmt.Printf("Cloning repositories for assignment: %s\n", a.Name)
	fmt.Printf("Groups: %v\n", a.Groups())

	checkouts, err := cl.CloneGroups(ctx, a.Name, a.Groups(), a.Files, a.AssignmentBranch, func(project string, progress float64) {
		fmt.Printf("\rProgress: %.1f%% (%s)", progress*100, project)
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to clone groups: %w", err)
	}

	for _, checkout := range checkouts {
		if err := store.SaveCheckout(ctx, &checkout); err != nil {
			fmt.Printf("Warning: failed to save checkout %s/%s: %v\n", checkout.Group, checkout.Project, err)
		}
	}
	fmt.Printf("Cloned %d repositories\n", len(checkouts))

	if len(a.BaseRepos) > 0 {
		fmt.Println("Cloning base repositories...")
		basePath := filepath.Join(a.Output, "base")
		if err := cl.CloneBaseRepos(ctx, a.BaseRepos, basePath); err != nil {
			return fmt.Errorf("failed to clone base repos: %w", err)
		}
	}

	fmt.Println("Clone complete!")
	return nil
}

func runMoss(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateSubmit(); err != nil {
		return err
	}

	a, err := loadAssignment()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	return submitToMoss(context.Background(), cfg, a, store)
}

func submitToMoss(ctx context.Context, cfg *config.Config, a *config.Assignment, store storage.Storage) error {
	subs, err := task.Build(a)
	if err != nil {
		return err
	}
	fmt.Printf("Prepared %d submissions for assignment %s\n", len(subs), a.Name)

	submitter := task.NewMossSubmitter(cfg.MossUserID, cfg.MossServer, a.MossOptions, a.Files)
	fetcher := moss.NewDownloader(nil)
	cooldown := time.Duration(a.MossRequestCooldown) * time.Second
	mgr := task.NewManager(store, submitter, fetcher, cooldown, !noDownload)

	subs, err = mgr.Prepare(ctx, a.Name, subs, resume)
	if err != nil {
		return fmt.Errorf("failed to prepare submissions: %w", err)
	}

	return mgr.Run(ctx, subs, func(path, displayName string) {
		fmt.Print("*")
	})
}

func runAll(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !noGitClone {
		if err := cfg.ValidateClone(); err != nil {
			return err
		}
	}
	if err := cfg.ValidateSubmit(); err != nil {
		return err
	}

	a, err := loadAssignment()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if !noGitClone {
		if err := cloneRepositories(ctx, cfg, a, store); err != nil {
			return err
		}
	}
	return submitToMoss(ctx, cfg, a, store)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := loadAssignment()
	if err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	subs, err := store.ListSubmissions(ctx, a.Name)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}
	checkouts, err := store.ListCheckouts(ctx, a.Name)
	if err != nil {
		return fmt.Errorf("failed to list checkouts: %w", err)
	}

	fmt.Printf("\nAssignment: %s\n", a.Name)
	fmt.Printf("Checkouts: %d\n\n", len(checkouts))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Submission", "Files", "Status", "Report URL"})
	for _, sub := range subs {
		table.Append([]string{
			sub.Name,
			fmt.Sprintf("%d", len(sub.Files)),
			string(sub.Status),
			sub.ReportURL,
		})
	}
	table.Render()

	return nil
}
