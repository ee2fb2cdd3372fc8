package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"pgs-go/internal/app"
	"pgs-go/internal/config"
	"pgs-go/internal/pgs"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Sync", "Status").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, defaults, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts for a passphrase without echoing when stdin is a
// terminal, and reads a plain line otherwise (for scripted use).
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(data), nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return "", fmt.Errorf("no passphrase provided")
	}
	return scanner.Text(), nil
}

var rootCmd = &cobra.Command{
	Use:   "pgs",
	Short: "Photo gallery sync tool",
}

// init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _ := cmd.Flags().GetString("repo")
		categories, _ := cmd.Flags().GetStringSlice("categories")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, repo, categories)

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID:      %s\n", hostID)
		fmt.Printf("Gallery repo: %s\n", repo)
		return nil
	},
}

// albums command
var albumsCmd = &cobra.Command{
	Use:   "albums",
	Short: "List source albums and their mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		unmappedOnly, _ := cmd.Flags().GetBool("unmapped-only")

		a, err := newApp("ListAlbums")
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.ListAlbums()
		if err != nil {
			return err
		}

		if len(infos) == 0 {
			fmt.Println("No albums found.")
			return nil
		}

		for _, info := range infos {
			mapped := info.Source != pgs.RuleUnmatched
			if unmappedOnly && mapped {
				continue
			}
			if mapped {
				fmt.Printf("%-40s  %4d photos  -> %s/%s\n", info.Name, info.PhotoCount, info.Category, info.Slug)
			} else {
				fmt.Printf("%-40s  %4d photos  (unmapped)\n", info.Name, info.PhotoCount)
			}
		}
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Export mapped albums into the gallery repo",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")
		noCommit, _ := cmd.Flags().GetBool("no-commit")
		albums, _ := cmd.Flags().GetStringArray("album")
		category, _ := cmd.Flags().GetString("category")

		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Sync(albums, category, pgs.SyncOptions{DryRun: dryRun, Force: force}, noCommit)
		if err != nil {
			return err
		}

		for _, res := range summary.Results {
			if line := renderSyncResult(res, dryRun); line != "" {
				fmt.Println(line)
			}
		}

		fmt.Printf("\n%d exported, %d skipped, %d errors\n", summary.Exported, summary.Skipped, summary.Errors)
		if summary.Errors > 0 {
			return fmt.Errorf("%d photo(s) failed to sync", summary.Errors)
		}
		return nil
	},
}

// renderSyncResult formats one per-photo line of sync output. Skips are
// silent on a real run but listed in the dry-run preview; an empty return
// means nothing is printed.
func renderSyncResult(res pgs.PhotoResult, dryRun bool) string {
	switch res.Outcome {
	case pgs.SkipUnchanged:
		if !dryRun {
			return ""
		}
		return fmt.Sprintf("%-10s %s", "would skip", res.RelativePath)
	case pgs.Errored:
		return fmt.Sprintf("%-10s %s: %v", "error", res.RelativePath, res.Err)
	default:
		verb := res.Outcome.String()
		if dryRun {
			verb = "would " + verb
		}
		return fmt.Sprintf("%-10s %s", verb, res.RelativePath)
	}
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View synced photos",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")

		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Status(category)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No photos synced.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-12s  %s\n",
				e.SyncedAt.Format("2006-01-02 15:04:05"),
				e.Category,
				e.OutputPath,
			)
		}

		if category == "" {
			counts := make(map[string]int)
			var order []string
			for _, e := range entries {
				if counts[e.Category] == 0 {
					order = append(order, e.Category)
				}
				counts[e.Category]++
			}
			sort.Strings(order)
			fmt.Println()
			for _, c := range order {
				fmt.Printf("  %-12s  %d\n", c, counts[c])
			}
		}
		fmt.Printf("\n%d photo(s) synced\n", len(entries))
		return nil
	},
}

// audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the sync audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("Audit")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Audit(limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("#%d  %s  %-7s  %s\n",
				e.ID,
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.Action,
				e.Detail,
			)
		}
		return nil
	},
}

// push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push the gallery repo to its remote",
	RunE: func(cmd *cobra.Command, args []string) error {
		remote, _ := cmd.Flags().GetString("remote")

		a, err := newApp("Push")
		if err != nil {
			return err
		}
		defer a.Close()

		porcelain, err := a.GitStatus()
		if err != nil {
			return err
		}
		if porcelain != "" && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("The gallery repo has uncommitted changes:\n%s\nPush anyway? [y/N] ", porcelain)
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Scan()
			answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		branch, err := a.Push(remote)
		if err != nil {
			return err
		}
		fmt.Printf("Pushed %s to %s\n", branch, remote)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("KeysInit")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.KeysInit(passphrase); err != nil {
			return err
		}
		fmt.Println("Encryption keys generated.")
		return nil
	},
}

// state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage the sync ledger",
}

var stateBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the ledger and upload it to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("StateBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.StateBackup(); err != nil {
			return err
		}
		fmt.Println("Ledger snapshot uploaded.")
		return nil
	},
}

var stateRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the ledger from the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		var passphrase string
		if cfg.Encryption.Type != "" && cfg.Encryption.Type != "none" {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		if err := app.RestoreState(cfg, defaults["state_path"], passphrase); err != nil {
			return err
		}
		fmt.Printf("Ledger restored to %s\n", defaults["state_path"])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("repo", "", "Path to the gallery repo")
	initCmd.Flags().StringSlice("categories", nil, "Gallery categories (comma-separated)")
	initCmd.MarkFlagRequired("repo")

	rootCmd.AddCommand(albumsCmd)
	albumsCmd.Flags().Bool("unmapped-only", false, "Show only albums without a mapping")

	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().Bool("dry-run", false, "Report decisions without writing anything")
	syncCmd.Flags().Bool("force", false, "Re-export even when unchanged")
	syncCmd.Flags().Bool("no-commit", false, "Skip the git commit after export")
	syncCmd.Flags().StringArray("album", nil, "Sync only this album (repeatable)")
	syncCmd.Flags().String("category", "", "Sync only albums mapping to this category")

	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().String("category", "", "Filter by category")

	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries to show")

	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().String("remote", "origin", "Remote to push to")

	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysInitCmd)

	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateBackupCmd)
	stateCmd.AddCommand(stateRestoreCmd)
}
