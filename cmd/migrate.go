package cmd

import (
	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// migrateCmd creates or updates the timeline and memory tables
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the database schema.

Creates the timeline and memory tables with the unique slug index,
the memory -> timeline foreign key (ON DELETE RESTRICT) and the
(timeline_id, date_of_event) index. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(config.Get()); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cfg *config.Config) error {
	provider, err := database.NewGormProvider(cfg)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := database.AutoMigrate(provider); err != nil {
		return err
	}
	log.Info().Str("type", provider.Name()).Msg("Schema is up to date")
	return nil
}
