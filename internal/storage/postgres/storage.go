package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// uniqueViolation is the Postgres error code for a unique constraint breach
const uniqueViolation = "23505"

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	// History rows live in account_history and are written only through
	// AppendHistory; the value's History field is not persisted here.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (identifier, username, is_admin, redact_by_default, friends, favorite_replays, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (identifier) DO UPDATE SET
			username = EXCLUDED.username,
			is_admin = EXCLUDED.is_admin,
			redact_by_default = EXCLUDED.redact_by_default,
			friends = EXCLUDED.friends,
			favorite_replays = EXCLUDED.favorite_replays`,
		string(account.Identifier),
		account.Username,
		account.IsAdmin,
		account.Settings.RedactByDefault,
		identifiersToStrings(account.Settings.Friends),
		replayIDsToStrings(account.FavoriteReplays),
		account.CreatedAt,
	)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, id model.Identifier) (*model.Account, error) {
	account := &model.Account{}
	var friends, favorites []string
	err := s.pool.QueryRow(ctx,
		`SELECT identifier, username, is_admin, redact_by_default, friends, favorite_replays, created_at
		 FROM accounts WHERE identifier = $1`,
		string(id),
	).Scan(&account.Identifier, &account.Username, &account.IsAdmin,
		&account.Settings.RedactByDefault, &friends, &favorites, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	account.Settings.Friends = stringsToIdentifiers(friends)
	account.FavoriteReplays = stringsToReplayIDs(favorites)

	rows, err := s.pool.Query(ctx,
		`SELECT action, details, time FROM account_history WHERE identifier = $1 ORDER BY id`,
		string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry model.HistoryEntry
		if err := rows.Scan(&entry.Action, &entry.Details, &entry.Time); err != nil {
			return nil, err
		}
		account.History = append(account.History, entry)
	}
	return account, rows.Err()
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.Identifier) error {
	// History cascades via the foreign key
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE identifier = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

func (s *Storage) AppendHistory(ctx context.Context, id model.Identifier, entry model.HistoryEntry) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO account_history (identifier, action, details, time)
		 SELECT $1, $2, $3, $4 WHERE EXISTS (SELECT 1 FROM accounts WHERE identifier = $1)`,
		string(id), entry.Action, entry.Details, entry.Time,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

// Tombstone operations

func (s *Storage) SaveGdprRequest(ctx context.Context, req *model.GdprRequest) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gdpr_requests (identifier, requested_at) VALUES ($1, $2)`,
		string(req.Identifier), req.RequestedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrTombstoneExists
		}
		return err
	}
	return nil
}

func (s *Storage) HasGdprRequest(ctx context.Context, id model.Identifier) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM gdpr_requests WHERE identifier = $1)`,
		string(id),
	).Scan(&exists)
	return exists, err
}

// Replay operations

func (s *Storage) SaveReplay(ctx context.Context, replay *model.Replay) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO replays (id, map, gamemode, server_id, server_name, duration_seconds, date, round_end_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		string(replay.ID), replay.Map, replay.Gamemode, replay.ServerID,
		replay.ServerName, int64(replay.Duration/time.Second), replay.Date, replay.RoundEndText,
	)
	if err != nil {
		return err
	}

	for _, p := range replay.Players {
		if _, err := tx.Exec(ctx,
			`INSERT INTO players (replay_id, identifier, ic_name, ooc_name, role, antag, redacted)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(replay.ID), string(p.Identifier), p.ICName, p.OOCName, p.Role, p.Antag, p.Redacted,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Storage) GetReplay(ctx context.Context, id model.ReplayID) (*model.Replay, error) {
	replay, err := s.scanReplay(s.pool.QueryRow(ctx,
		`SELECT id, map, gamemode, server_id, server_name, duration_seconds, date, round_end_text
		 FROM replays WHERE id = $1`,
		string(id),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReplayNotFound
		}
		return nil, err
	}

	if err := s.loadPlayers(ctx, replay); err != nil {
		return nil, err
	}
	return replay, nil
}

func (s *Storage) ListReplays(ctx context.Context, opts storage.ListOptions) ([]*model.Replay, error) {
	return s.queryReplays(ctx,
		`SELECT id, map, gamemode, server_id, server_name, duration_seconds, date, round_end_text
		 FROM replays ORDER BY date DESC OFFSET $1 LIMIT $2`,
		opts.Offset, limitOrAll(opts.Limit),
	)
}

func (s *Storage) SearchReplays(ctx context.Context, query string, opts storage.ListOptions) ([]*model.Replay, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return s.queryReplays(ctx,
		`SELECT id, map, gamemode, server_id, server_name, duration_seconds, date, round_end_text
		 FROM replays
		 WHERE lower(map) LIKE $1 OR lower(gamemode) LIKE $1 OR lower(server_name) LIKE $1 OR lower(round_end_text) LIKE $1
		    OR EXISTS (
		       SELECT 1 FROM players p WHERE p.replay_id = replays.id
		          AND (lower(p.ic_name) LIKE $1 OR lower(p.ooc_name) LIKE $1)
		    )
		 ORDER BY date DESC OFFSET $2 LIMIT $3`,
		pattern, opts.Offset, limitOrAll(opts.Limit),
	)
}

// Participation operations

func (s *Storage) FindReplayIDsByPlayer(ctx context.Context, id model.Identifier) ([]model.ReplayID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT replay_id FROM players WHERE identifier = $1`,
		string(id),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []model.ReplayID
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return nil, err
		}
		ids = append(ids, model.ReplayID(rid))
	}
	return ids, rows.Err()
}

func (s *Storage) UpdatePlayers(ctx context.Context, replayID model.ReplayID, playerID model.Identifier, fn func(*model.Player) bool) (int, int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT id, identifier, ic_name, ooc_name, role, antag, redacted
		 FROM players WHERE replay_id = $1 AND identifier = $2
		 FOR UPDATE`,
		string(replayID), string(playerID),
	)
	if err != nil {
		return 0, 0, err
	}

	type lockedRow struct {
		id     int64
		player model.Player
	}
	var locked []lockedRow
	for rows.Next() {
		var lr lockedRow
		if err := rows.Scan(&lr.id, &lr.player.Identifier, &lr.player.ICName,
			&lr.player.OOCName, &lr.player.Role, &lr.player.Antag, &lr.player.Redacted); err != nil {
			rows.Close()
			return 0, 0, err
		}
		locked = append(locked, lr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	matched, changed := 0, 0
	for i := range locked {
		matched++
		if !fn(&locked[i].player) {
			continue
		}
		changed++
		p := locked[i].player
		if _, err := tx.Exec(ctx,
			`UPDATE players SET identifier = $1, ic_name = $2, ooc_name = $3, redacted = $4 WHERE id = $5`,
			string(p.Identifier), p.ICName, p.OOCName, p.Redacted, locked[i].id,
		); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return matched, changed, nil
}

// helpers

func (s *Storage) scanReplay(row pgx.Row) (*model.Replay, error) {
	replay := &model.Replay{}
	var seconds int64
	if err := row.Scan(&replay.ID, &replay.Map, &replay.Gamemode, &replay.ServerID,
		&replay.ServerName, &seconds, &replay.Date, &replay.RoundEndText); err != nil {
		return nil, err
	}
	replay.Duration = time.Duration(seconds) * time.Second
	return replay, nil
}

func (s *Storage) loadPlayers(ctx context.Context, replay *model.Replay) error {
	rows, err := s.pool.Query(ctx,
		`SELECT identifier, ic_name, ooc_name, role, antag, redacted
		 FROM players WHERE replay_id = $1 ORDER BY id`,
		string(replay.ID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.Identifier, &p.ICName, &p.OOCName, &p.Role, &p.Antag, &p.Redacted); err != nil {
			return err
		}
		replay.Players = append(replay.Players, p)
	}
	return rows.Err()
}

func (s *Storage) queryReplays(ctx context.Context, query string, args ...any) ([]*model.Replay, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replays []*model.Replay
	for rows.Next() {
		replay, err := s.scanReplay(rows)
		if err != nil {
			return nil, err
		}
		replays = append(replays, replay)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, replay := range replays {
		if err := s.loadPlayers(ctx, replay); err != nil {
			return nil, err
		}
	}
	return replays, nil
}

// limitOrAll returns a LIMIT argument; NULL means no limit
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
