// Package export produces point-in-time archives of everything stored
// about one identifier, for data-portability requests.
package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// Service is the export builder
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new export Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Filename returns the deterministic archive name for an export
func Filename(id model.Identifier, admin bool, now time.Time) string {
	suffix := ""
	if admin {
		suffix = "-admin"
	}
	return fmt.Sprintf("account-%s%s_%s.zip", id, suffix, now.Format("2006-01-02"))
}

// WriteArchive streams a zip archive of the identifier's stored data:
// user.json (profile without its history), history.json, and one
// replay-<id>.json per replay the identifier took part in. Replay entries
// carry only the requesting identifier's participation record, never other
// players' personal data.
//
// The replay set comes from one snapshot read. A redaction running
// concurrently is not retroactively applied to entries already written,
// but every entry is fully serialized before it is emitted, so no entry is
// ever half-written. Export mutates nothing.
//
// With admin set, a missing account is not an error: the archive then
// holds only the replay entries (the identifier may never have logged in).
func (s *Service) WriteArchive(ctx context.Context, w io.Writer, id model.Identifier, admin bool) error {
	account, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		if !errors.Is(err, model.ErrAccountNotFound) {
			return fmt.Errorf("load account: %w", err)
		}
		if !admin {
			return model.ErrAccountNotFound
		}
		account = nil
	}

	replayIDs, err := s.storage.FindReplayIDsByPlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("find replays: %w", err)
	}

	archive := zip.NewWriter(w)

	if account != nil {
		if err := writeEntry(archive, "history.json", account.History); err != nil {
			return err
		}

		// The profile entry drops the history to avoid duplicating it
		profile := *account
		profile.History = nil
		if err := writeEntry(archive, "user.json", &profile); err != nil {
			return err
		}
	}

	entries := 0
	for _, rid := range replayIDs {
		replay, err := s.storage.GetReplay(ctx, rid)
		if err != nil {
			if errors.Is(err, model.ErrReplayNotFound) {
				continue
			}
			return fmt.Errorf("load replay %s: %w", rid, err)
		}

		// Strip other participants before serializing
		own := make([]model.Player, 0, 1)
		for _, p := range replay.Players {
			if p.Identifier == id {
				own = append(own, p)
			}
		}
		replay.Players = own

		if err := writeEntry(archive, fmt.Sprintf("replay-%s.json", rid), replay); err != nil {
			return err
		}
		entries++
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	s.logger.Info("export archive written", slog.Int("replay_entries", entries))
	return nil
}

// writeEntry serializes v completely before adding it as an archive entry
func writeEntry(archive *zip.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", name, err)
	}

	entry, err := archive.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
