package worker

// cleanup_cron.go
// Background goroutine that periodically removes expired confirmation tokens
// and stale intake drafts from the local store. Both are also lazily expired
// on access; the sweep keeps the tables from growing unbounded.

import (
	"context"
	"time"

	"agrosnab/internal/repository"

	"github.com/rs/zerolog/log"
)

const cleanupTickInterval = 10 * time.Minute

// CleanupCronConfig holds the repositories swept by the cron.
type CleanupCronConfig struct {
	Actions  repository.ConfirmActionRepository
	Sessions repository.IntakeSessionRepository
}

// StartCleanupCron launches the sweep goroutine. It respects the context for
// graceful shutdown.
func StartCleanupCron(ctx context.Context, cfg CleanupCronConfig) {
	go func() {
		ticker := time.NewTicker(cleanupTickInterval)
		defer ticker.Stop()

		log.Info().Msg("cleanup_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("cleanup_cron: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, cfg)
			}
		}
	}()
}

func sweep(ctx context.Context, cfg CleanupCronConfig) {
	actions, err := cfg.Actions.CleanupExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cleanup_cron: confirm action sweep failed")
	}
	sessions, err := cfg.Sessions.CleanupExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("cleanup_cron: intake session sweep failed")
	}
	if actions > 0 || sessions > 0 {
		log.Info().Int64("confirm_actions", actions).Int64("intake_sessions", sessions).
			Msg("cleanup_cron: expired rows removed")
	}
}
