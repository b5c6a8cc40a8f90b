// Package account orchestrates the lifecycle of a local profile linked to
// an external identity: create-or-update on login, ordinary deletion, and
// permanent (GDPR) deletion with cascading redaction.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/identity"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/redaction"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// DeleteResult describes the outcome of a deletion request. A permanent
// deletion whose redaction pass could not persist every record still
// removes the account; RedactionIncomplete flags the degraded outcome for
// operator follow-up.
type DeleteResult struct {
	Permanent           bool
	RedactionIncomplete bool
	Redaction           redaction.Summary
}

// Service is the account lifecycle manager
type Service struct {
	storage  storage.Storage
	resolver identity.Resolver
	redactor *redaction.Service
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a new account lifecycle Service
func New(
	storage storage.Storage,
	resolver identity.Resolver,
	redactor *redaction.Service,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:  storage,
		resolver: resolver,
		redactor: redactor,
		clock:    clock,
		logger:   logger,
	}
}

// OnLogin creates or refreshes the account for an authenticated identifier.
// A tombstoned identifier is rejected with model.ErrIdentifierTombstoned;
// the caller must terminate the session. When the identity provider cannot
// be reached the sentinel username stands in and login still succeeds.
func (s *Service) OnLogin(ctx context.Context, id model.Identifier) (*model.Account, error) {
	tombstoned, err := s.storage.HasGdprRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("tombstone check: %w", err)
	}
	if tombstoned {
		return nil, model.ErrIdentifierTombstoned
	}

	username := identity.SentinelUsername
	profile, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		s.logger.Warn("identity resolution failed, using sentinel username",
			slog.String("error", err.Error()),
		)
	} else {
		username = profile.Username
	}

	now := s.clock.Now()

	existing, err := s.storage.GetAccount(ctx, id)
	if errors.Is(err, model.ErrAccountNotFound) {
		account := &model.Account{
			Identifier: id,
			Username:   username,
			Settings:   model.AccountSettings{},
			CreatedAt:  now,
		}
		if err := s.storage.SaveAccount(ctx, account); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}

		// A permanent delete can land its tombstone between the check at
		// the top and the save above. Re-check and undo the create so a
		// tombstoned identifier never keeps a fresh account row.
		tombstoned, err = s.storage.HasGdprRequest(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("tombstone recheck: %w", err)
		}
		if tombstoned {
			if err := s.storage.DeleteAccount(ctx, id); err != nil && !errors.Is(err, model.ErrAccountNotFound) {
				s.logger.Error("failed to remove account created over a tombstone",
					slog.String("error", err.Error()),
				)
			}
			return nil, model.ErrIdentifierTombstoned
		}

		created := model.HistoryEntry{Action: model.HistoryCreated, Time: now}
		if err := s.storage.AppendHistory(ctx, id, created); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
		account.History = append(account.History, created)
		s.logger.Info("created account", slog.String("username", username))
		return account, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if existing.Username != username {
		previous := existing.Username
		existing.Username = username
		if err := s.storage.SaveAccount(ctx, existing); err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		renamed := model.HistoryEntry{
			Action:  model.HistoryRenamed,
			Details: fmt.Sprintf("%s -> %s", previous, username),
			Time:    now,
		}
		if err := s.storage.AppendHistory(ctx, id, renamed); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
		existing.History = append(existing.History, renamed)
		s.logger.Info("refreshed username", slog.String("username", username))
	}

	return existing, nil
}

// Get loads an account by identifier
func (s *Service) Get(ctx context.Context, id model.Identifier) (*model.Account, error) {
	return s.storage.GetAccount(ctx, id)
}

// DeleteOwn removes the caller's own account. With permanent set, the
// identifier is tombstoned and every historical participation record is
// redacted before the account row goes away; the ordering (tombstone,
// redaction, account removal) keeps the identifier in a resumable state if
// the process dies between steps. Without permanent, only the account and
// its owned settings and history are removed; a later login starts fresh.
func (s *Service) DeleteOwn(ctx context.Context, id model.Identifier, permanent bool) (DeleteResult, error) {
	_, err := s.storage.GetAccount(ctx, id)
	if errors.Is(err, model.ErrAccountNotFound) {
		if !permanent {
			return DeleteResult{}, model.ErrAccountNotFound
		}
		// A permanent request can land after a previous attempt already
		// removed the account; resume rather than error so the request
		// stays idempotent.
		tombstoned, terr := s.storage.HasGdprRequest(ctx, id)
		if terr != nil {
			return DeleteResult{}, fmt.Errorf("tombstone check: %w", terr)
		}
		if !tombstoned {
			return DeleteResult{}, model.ErrAccountNotFound
		}
		return s.ensureErased(ctx, id)
	}
	if err != nil {
		return DeleteResult{}, fmt.Errorf("load account: %w", err)
	}

	if !permanent {
		if err := s.storage.DeleteAccount(ctx, id); err != nil {
			return DeleteResult{}, fmt.Errorf("delete account: %w", err)
		}
		s.logger.Info("deleted account")
		return DeleteResult{}, nil
	}

	return s.erase(ctx, id)
}

// AdminDelete removes the target identifier's account on behalf of an
// administrator. Unlike DeleteOwn it succeeds when the target account does
// not exist, so an administrator can tombstone an identifier that never
// logged in. With permanent unset it removes only the account row; the
// target's historical participation records keep their personal data (a
// moderation deletion, not a GDPR one).
func (s *Service) AdminDelete(ctx context.Context, requester, target model.Identifier, permanent bool) (DeleteResult, error) {
	requesterAccount, err := s.storage.GetAccount(ctx, requester)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return DeleteResult{}, model.ErrNotAdmin
		}
		return DeleteResult{}, fmt.Errorf("load requester: %w", err)
	}
	if !requesterAccount.IsAdmin {
		return DeleteResult{}, model.ErrNotAdmin
	}

	if !permanent {
		err := s.storage.DeleteAccount(ctx, target)
		if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
			return DeleteResult{}, fmt.Errorf("delete account: %w", err)
		}
		s.logger.Info("admin deleted account", slog.Bool("existed", err == nil))
		return DeleteResult{}, nil
	}

	return s.erase(ctx, target)
}

// erase performs the permanent-delete sequence: tombstone, redact, remove.
func (s *Service) erase(ctx context.Context, id model.Identifier) (DeleteResult, error) {
	err := s.storage.SaveGdprRequest(ctx, &model.GdprRequest{
		Identifier:  id,
		RequestedAt: s.clock.Now(),
	})
	if err != nil && !errors.Is(err, model.ErrTombstoneExists) {
		return DeleteResult{}, fmt.Errorf("record deletion request: %w", err)
	}
	// A duplicate tombstone means a concurrent or earlier request won the
	// insert; fall through and make sure redaction and removal finished.

	return s.ensureErased(ctx, id)
}

// ensureErased runs the redaction pass and removes any remaining account
// row for an identifier that is already tombstoned.
func (s *Service) ensureErased(ctx context.Context, id model.Identifier) (DeleteResult, error) {
	result := DeleteResult{Permanent: true}

	summary, err := s.redactor.Redact(ctx, id)
	if err != nil {
		// Account removal is not held hostage by redaction problems; the
		// tombstone guarantees a retry can finish the job.
		s.logger.Error("redaction pass failed", slog.String("error", err.Error()))
		result.RedactionIncomplete = true
	} else {
		result.Redaction = summary
		result.RedactionIncomplete = !summary.Complete()
	}

	err = s.storage.DeleteAccount(ctx, id)
	if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
		return result, fmt.Errorf("delete account: %w", err)
	}

	s.logger.Info("permanently deleted account",
		slog.Bool("redaction_incomplete", result.RedactionIncomplete),
	)
	return result, nil
}
