package postgres

import "context"

// Schema statements applied in order by Migrate. Settings live on the
// account row; history and participation records cascade with their owner.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		identifier       text PRIMARY KEY,
		username         text NOT NULL,
		is_admin         boolean NOT NULL DEFAULT false,
		redact_by_default boolean NOT NULL DEFAULT false,
		friends          text[] NOT NULL DEFAULT '{}',
		favorite_replays text[] NOT NULL DEFAULT '{}',
		created_at       timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS account_history (
		id         bigserial PRIMARY KEY,
		identifier text NOT NULL REFERENCES accounts(identifier) ON DELETE CASCADE,
		action     text NOT NULL,
		details    text NOT NULL DEFAULT '',
		time       timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS account_history_identifier_idx ON account_history (identifier)`,
	`CREATE TABLE IF NOT EXISTS gdpr_requests (
		identifier   text PRIMARY KEY,
		requested_at timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS replays (
		id               text PRIMARY KEY,
		map              text NOT NULL,
		gamemode         text NOT NULL,
		server_id        text NOT NULL,
		server_name      text NOT NULL,
		duration_seconds bigint NOT NULL,
		date             timestamptz NOT NULL,
		round_end_text   text NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS replays_date_idx ON replays (date DESC)`,
	`CREATE TABLE IF NOT EXISTS players (
		id         bigserial PRIMARY KEY,
		replay_id  text NOT NULL REFERENCES replays(id) ON DELETE CASCADE,
		identifier text NOT NULL,
		ic_name    text NOT NULL,
		ooc_name   text NOT NULL,
		role       text NOT NULL DEFAULT '',
		antag      boolean NOT NULL DEFAULT false,
		redacted   boolean NOT NULL DEFAULT false
	)`,
	`CREATE INDEX IF NOT EXISTS players_identifier_idx ON players (identifier)`,
	`CREATE INDEX IF NOT EXISTS players_replay_idx ON players (replay_id)`,
}

// Migrate creates the schema if it does not exist yet
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
