// Package redaction irreversibly scrubs personal data out of historical
// participation records while leaving the replays themselves intact.
package redaction

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// Summary reports what one redaction pass did, so callers can decide
// whether a follow-up pass is needed.
type Summary struct {
	// Scanned is the number of participation records examined
	Scanned int
	// Redacted is the number of records scrubbed by this pass
	Redacted int
	// AlreadyRedacted is the number of records a prior pass had scrubbed
	AlreadyRedacted int
	// Failed lists replays whose records could not be persisted
	Failed []model.ReplayID
}

// Complete reports whether every matching record was persisted
func (s Summary) Complete() bool {
	return len(s.Failed) == 0
}

// Service is the redaction engine
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new redaction Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Redact scrubs every participation record carrying the identifier. The
// scan works from a snapshot of matching replays: records appended after
// the snapshot is taken are not covered by this pass and need a follow-up
// run. Re-running is safe; records scrubbed earlier are skipped.
//
// Per-record persistence failures are collected in the Summary rather than
// aborting the pass, so one bad record cannot block the rest. The storage
// layer's per-record atomic update provides the only locking; the engine
// takes none of its own.
func (s *Service) Redact(ctx context.Context, id model.Identifier) (Summary, error) {
	replayIDs, err := s.storage.FindReplayIDsByPlayer(ctx, id)
	if err != nil {
		return Summary{}, fmt.Errorf("redaction scan: %w", err)
	}

	var summary Summary
	for _, rid := range replayIDs {
		matched, changed, err := s.storage.UpdatePlayers(ctx, rid, id, func(p *model.Player) bool {
			return p.Redact()
		})
		if err != nil {
			s.logger.Warn("redaction write failed",
				slog.String("replay_id", string(rid)),
				slog.String("error", err.Error()),
			)
			summary.Failed = append(summary.Failed, rid)
			continue
		}
		summary.Scanned += matched
		summary.Redacted += changed
		summary.AlreadyRedacted += matched - changed
	}

	s.logger.Info("redaction pass finished",
		slog.Int("scanned", summary.Scanned),
		slog.Int("redacted", summary.Redacted),
		slog.Int("already_redacted", summary.AlreadyRedacted),
		slog.Int("failed", len(summary.Failed)),
	)

	return summary, nil
}
