// Package replay implements replay browsing: listing, search, lookup,
// and per-account favorites.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

func (s *Service) GetReplay(ctx context.Context, id model.ReplayID) (*model.Replay, error) {
	return s.storage.GetReplay(ctx, id)
}

// ListReplays returns replays newest-first
func (s *Service) ListReplays(ctx context.Context, opts storage.ListOptions) ([]*model.Replay, error) {
	return s.storage.ListReplays(ctx, opts)
}

// SearchReplays matches the query against map, gamemode, server name and
// participant names, newest-first
func (s *Service) SearchReplays(ctx context.Context, query string, opts storage.ListOptions) ([]*model.Replay, error) {
	return s.storage.SearchReplays(ctx, query, opts)
}

// AddFavorite marks a replay as a favorite of the account. Favoriting an
// already-favorited replay is a no-op.
func (s *Service) AddFavorite(ctx context.Context, accountID model.Identifier, replayID model.ReplayID) error {
	if _, err := s.storage.GetReplay(ctx, replayID); err != nil {
		return err
	}

	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if account.HasFavorite(replayID) {
		return nil
	}

	account.Favorite(replayID)
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	entry := model.HistoryEntry{
		Action:  model.HistoryFavoriteAdded,
		Details: string(replayID),
		Time:    s.clock.Now(),
	}
	if err := s.storage.AppendHistory(ctx, accountID, entry); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a favorite. Removing a replay that is not a
// favorite is a no-op.
func (s *Service) RemoveFavorite(ctx context.Context, accountID model.Identifier, replayID model.ReplayID) error {
	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.HasFavorite(replayID) {
		return nil
	}

	account.Unfavorite(replayID)
	if err := s.storage.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	entry := model.HistoryEntry{
		Action:  model.HistoryFavoriteRemoved,
		Details: string(replayID),
		Time:    s.clock.Now(),
	}
	if err := s.storage.AppendHistory(ctx, accountID, entry); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// Favorites resolves an account's favorite replays, dropping any that no
// longer exist
func (s *Service) Favorites(ctx context.Context, accountID model.Identifier) ([]*model.Replay, error) {
	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	replays := make([]*model.Replay, 0, len(account.FavoriteReplays))
	for _, rid := range account.FavoriteReplays {
		replay, err := s.storage.GetReplay(ctx, rid)
		if err != nil {
			if errors.Is(err, model.ErrReplayNotFound) {
				continue
			}
			return nil, err
		}
		replays = append(replays, replay)
	}
	return replays, nil
}
