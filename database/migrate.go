package database

import (
	"fmt"

	"github.com/anoixa/memlane/database/models"
	"github.com/rs/zerolog/log"
)

// Models tables owned by this service, parents first
func Models() []interface{} {
	return []interface{}{
		&models.Timeline{},
		&models.Memory{},
	}
}

// AutoMigrate creates or updates the timeline and memory tables
func AutoMigrate(p Provider) error {
	log.Info().Str("database", p.Name()).Msg("Running database auto migration...")
	if err := p.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	log.Info().Msg("Database auto migration completed")
	return nil
}
