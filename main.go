package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ByteMirror/mailmt/app"
	"github.com/ByteMirror/mailmt/config"
	"github.com/ByteMirror/mailmt/log"
	"github.com/ByteMirror/mailmt/mt"
	"github.com/ByteMirror/mailmt/tasks"
)

var (
	version      = "0.1.0"
	headlessFlag bool
	remoteFlag   string
	limitFlag    int

	rootCmd = &cobra.Command{
		Use:   "mailmt [repo]",
		Short: "mailmt - background jobs with progress for a terminal UI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headless := headlessFlag || !term.IsTerminal(int(os.Stdout.Fd()))
			log.Initialize(headless)
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg := config.LoadConfig()
			repo := findRepo(args)

			if headless {
				h := app.NewHeadless(os.Stdout, os.Stdin)
				if repo == "" {
					return app.RunHeadless(ctx, h, cfg, mt.PerSubmission, &tasks.Sleep{Name: "Demo job", Duration: 3 * time.Second, Steps: 10})
				}
				return app.RunHeadless(ctx, h, cfg, mt.PerSubmission, &tasks.LogWalk{RepoPath: repo, OnDone: printLog})
			}
			return app.Run(ctx, app.Options{Config: cfg, RepoPath: repo})
		},
	}

	fetchCmd = &cobra.Command{
		Use:   "fetch <repo>",
		Short: "Fetch a remote into a repository, printing progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize(true)
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg := config.LoadConfig()
			h := app.NewHeadless(os.Stdout, os.Stdin)
			return app.RunHeadless(ctx, h, cfg, mt.Queued, &tasks.Fetch{
				RepoPath:      args[0],
				Remote:        remoteFlag,
				DefaultRemote: cfg.DefaultRemote,
				OnDone: func(r tasks.FetchResult) {
					switch {
					case r.Err != nil:
					case r.UpToDate:
						fmt.Printf("%s is up to date\n", r.Remote)
					default:
						fmt.Printf("fetched %s (%s)\n", r.Remote, log.SanitizeURL(r.URL))
					}
				},
			})
		},
	}

	logCmd = &cobra.Command{
		Use:   "log <repo>",
		Short: "Walk a repository's history and count commits per author",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Initialize(true)
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg := config.LoadConfig()
			h := app.NewHeadless(os.Stdout, os.Stdin)
			return app.RunHeadless(ctx, h, cfg, mt.PerSubmission, &tasks.LogWalk{
				RepoPath: args[0],
				Limit:    limitFlag,
				OnDone:   printLog,
			})
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print debug information like config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			configJson, _ := json.MarshalIndent(cfg, "", "  ")

			fmt.Printf("Config: %s\n%s\n", filepath.Join(configDir, config.ConfigFileName), configJson)

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mailmt",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mailmt version %s\n", version)
		},
	}
)

// findRepo returns the repository named on the command line, or the one
// containing the working directory, or "".
func findRepo(args []string) string {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return abs
	}
	return wt.Filesystem.Root()
}

func printLog(r tasks.LogResult) {
	if r.Err != nil {
		return
	}
	fmt.Printf("%d commits\n", r.Commits)
	for _, a := range r.Authors {
		fmt.Printf("%6d  %s\n", a.Commits, a.Name)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&headlessFlag, "headless", false, "Print progress as lines instead of running the terminal UI")
	fetchCmd.Flags().StringVarP(&remoteFlag, "remote", "r", "", "Remote to fetch (defaults to the configured default remote)")
	logCmd.Flags().IntVarP(&limitFlag, "limit", "n", 0, "Stop after this many commits (0 walks everything)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
