package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/internal/app"
	"github.com/anoixa/memlane/internal/blob"
	"github.com/anoixa/memlane/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cleanCmd removes stored images no memory refers to
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete orphan images from storage",
	Long: `Delete orphan images from storage.

Lists every object in the configured bucket and deletes those whose key is
not referenced by any memory. Blobs left behind by failed best-effort deletes
end up here.

Objects younger than --min-age (clean_min_age, 24h by default) are left alone,
since an upload is stored before the memory that references it is created.
On postgres the memories are read through row-level security, so --credential
must name a principal that can see every row.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		opts := cleanOptions{MinAge: cfg.CleanMinAgeOrDefault(), Now: time.Now()}
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
		credential, _ := cmd.Flags().GetString("credential")
		if cmd.Flags().Changed("min-age") {
			opts.MinAge, _ = cmd.Flags().GetDuration("min-age")
		}

		if err := checkCleanCredential(cfg.DBType, credential); err != nil {
			log.Fatal().Err(err).Msg("Refusing to clean")
		}

		container := app.NewContainer(cfg)
		if err := container.Init(cmd.Context()); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize")
		}
		defer container.Close()

		repos := container.Repositories(credential)
		stats, err := runClean(cmd.Context(), repos.Memories, container.Gateway(), opts)
		printCleanStats(stats, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("Clean failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().String("credential", "", "Credential used to read memories, required on postgres (needs access to every row)")
	cleanCmd.Flags().Duration("min-age", 24*time.Hour, "Skip objects modified more recently than this (overrides clean_min_age)")
}

var errCleanCredentialRequired = errors.New("--credential is required when the database enforces row-level security")

// checkCleanCredential SQLite has no row-level security, every other backend
// needs a credential or clean would see other users' memories as orphans
func checkCleanCredential(dbType, credential string) error {
	if credential != "" || database.NormalizeType(dbType) == database.TypeSQLite {
		return nil
	}
	return errCleanCredentialRequired
}

type cleanOptions struct {
	DryRun bool
	// MinAge objects modified after Now-MinAge are never deleted
	MinAge time.Duration
	Now    time.Time
}

type cleanStats struct {
	scanned    int
	referenced int
	recent     int
	orphans    []string
	deleted    int
	failed     map[string]string
}

type referenceSource interface {
	ReferencedKeys(ctx context.Context) (map[string]struct{}, error)
}

// runClean deletes every stored key that no memory row references and that is
// older than opts.MinAge. Objects without a modification time count as recent.
func runClean(ctx context.Context, refs referenceSource, gateway *blob.Gateway, opts cleanOptions) (*cleanStats, error) {
	stats := &cleanStats{}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	cutoff := opts.Now.Add(-opts.MinAge)

	referenced, err := refs.ReferencedKeys(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load referenced keys: %w", err)
	}
	stats.referenced = len(referenced)

	err = gateway.ListKeys(ctx, func(info storage.ObjectInfo) error {
		stats.scanned++
		if _, ok := referenced[info.Key]; ok {
			return nil
		}
		if info.LastModified.IsZero() || info.LastModified.After(cutoff) {
			stats.recent++
			return nil
		}
		stats.orphans = append(stats.orphans, info.Key)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to list storage: %w", err)
	}
	sort.Strings(stats.orphans)

	if opts.DryRun || len(stats.orphans) == 0 {
		return stats, nil
	}

	result, err := gateway.DeleteMany(ctx, stats.orphans)
	stats.deleted = len(result.Keys)
	stats.failed = result.Failed
	if err != nil {
		return stats, fmt.Errorf("%d orphan images could not be deleted: %w", len(result.Failed), err)
	}
	return stats, nil
}

func printCleanStats(stats *cleanStats, opts cleanOptions) {
	if stats == nil {
		return
	}
	dryRun := opts.DryRun
	for _, key := range stats.orphans {
		log.Info().Str("image_key", key).Bool("dry_run", dryRun).Msg("Orphan image")
	}
	for key, reason := range stats.failed {
		log.Warn().Str("image_key", key).Str("reason", reason).Msg("Failed to delete orphan image")
	}
	log.Info().
		Int("scanned", stats.scanned).
		Int("referenced", stats.referenced).
		Int("recent", stats.recent).
		Dur("min_age", opts.MinAge).
		Int("orphans", len(stats.orphans)).
		Int("deleted", stats.deleted).
		Int("failed", len(stats.failed)).
		Bool("dry_run", dryRun).
		Msg("Clean finished")
}
