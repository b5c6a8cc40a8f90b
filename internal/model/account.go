package model

import "time"

// Identifier is the stable unique ID an external identity provider assigns
// to a player. It never changes across sessions.
type Identifier string

// Account is a local profile linked to one external identity.
type Account struct {
	Identifier      Identifier      `json:"identifier"`
	Username        string          `json:"username"`
	IsAdmin         bool            `json:"is_admin"`
	FavoriteReplays []ReplayID      `json:"favorite_replays,omitempty"`
	Settings        AccountSettings `json:"settings"`
	History         []HistoryEntry  `json:"history,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AccountSettings is owned 1:1 by an Account and is created and destroyed
// with it.
type AccountSettings struct {
	RedactByDefault bool         `json:"redact_by_default"`
	Friends         []Identifier `json:"friends,omitempty"`
}

// HistoryEntry is an append-only audit record. Entries are never mutated
// once written and only go away when the owning Account is deleted.
type HistoryEntry struct {
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"time"`
}

// History actions recorded by lifecycle operations.
const (
	HistoryCreated         = "created"
	HistoryRenamed         = "renamed"
	HistoryFavoriteAdded   = "favorite_added"
	HistoryFavoriteRemoved = "favorite_removed"
)

// GdprRequest is a tombstone recording that an identifier exercised its
// right to be forgotten. Once one exists the identifier can never get an
// Account again. Tombstones are never updated or deleted.
type GdprRequest struct {
	Identifier  Identifier `json:"identifier"`
	RequestedAt time.Time  `json:"requested_at"`
}

// HasFavorite reports whether the account has favorited the given replay.
func (a *Account) HasFavorite(id ReplayID) bool {
	for _, f := range a.FavoriteReplays {
		if f == id {
			return true
		}
	}
	return false
}

// Favorite adds a replay to the account's favorites.
func (a *Account) Favorite(id ReplayID) {
	a.FavoriteReplays = append(a.FavoriteReplays, id)
}

// Unfavorite removes a replay from the account's favorites.
func (a *Account) Unfavorite(id ReplayID) {
	kept := a.FavoriteReplays[:0]
	for _, f := range a.FavoriteReplays {
		if f != id {
			kept = append(kept, f)
		}
	}
	a.FavoriteReplays = kept
}
