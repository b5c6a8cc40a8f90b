package response

import (
	"time"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/services/account"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
)

// Account represents an account in API responses
type Account struct {
	Identifier      string          `json:"identifier"`
	Username        string          `json:"username"`
	IsAdmin         bool            `json:"is_admin"`
	FavoriteReplays []string        `json:"favorite_replays"`
	Settings        AccountSettings `json:"settings"`
	History         []HistoryEntry  `json:"history"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AccountSettings represents account settings in API responses
type AccountSettings struct {
	RedactByDefault bool     `json:"redact_by_default"`
	Friends         []string `json:"friends"`
}

// HistoryEntry represents an account history entry in API responses
type HistoryEntry struct {
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"time"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	favorites := make([]string, 0, len(a.FavoriteReplays))
	for _, id := range a.FavoriteReplays {
		favorites = append(favorites, string(id))
	}
	friends := make([]string, 0, len(a.Settings.Friends))
	for _, id := range a.Settings.Friends {
		friends = append(friends, string(id))
	}
	history := make([]HistoryEntry, 0, len(a.History))
	for _, e := range a.History {
		history = append(history, HistoryEntry{
			Action:  e.Action,
			Details: e.Details,
			Time:    e.Time,
		})
	}
	return Account{
		Identifier:      string(a.Identifier),
		Username:        a.Username,
		IsAdmin:         a.IsAdmin,
		FavoriteReplays: favorites,
		Settings: AccountSettings{
			RedactByDefault: a.Settings.RedactByDefault,
			Friends:         friends,
		},
		History:   history,
		CreatedAt: a.CreatedAt,
	}
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Account      Account `json:"account"`
	SessionToken string  `json:"session_token"`
}

// Player represents one participation record in API responses
type Player struct {
	Identifier string `json:"identifier"`
	ICName     string `json:"ic_name"`
	OOCName    string `json:"ooc_name"`
	Role       string `json:"role,omitempty"`
	Antag      bool   `json:"antag,omitempty"`
	Redacted   bool   `json:"redacted,omitempty"`
}

// Replay represents a replay in API responses
type Replay struct {
	ID           string    `json:"id"`
	Map          string    `json:"map"`
	Gamemode     string    `json:"gamemode"`
	ServerID     string    `json:"server_id"`
	ServerName   string    `json:"server_name"`
	Duration     string    `json:"duration"`
	Date         time.Time `json:"date"`
	RoundEndText string    `json:"round_end_text,omitempty"`
	Players      []Player  `json:"players"`
}

// ReplayFromModel converts a model.Replay to a response Replay
func ReplayFromModel(r *model.Replay) Replay {
	players := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, Player{
			Identifier: string(p.Identifier),
			ICName:     p.ICName,
			OOCName:    p.OOCName,
			Role:       p.Role,
			Antag:      p.Antag,
			Redacted:   p.Redacted,
		})
	}
	return Replay{
		ID:           string(r.ID),
		Map:          r.Map,
		Gamemode:     r.Gamemode,
		ServerID:     r.ServerID,
		ServerName:   r.ServerName,
		Duration:     r.Duration.String(),
		Date:         r.Date,
		RoundEndText: r.RoundEndText,
		Players:      players,
	}
}

// ReplaysFromModel converts a slice of replays
func ReplaysFromModel(replays []*model.Replay) []Replay {
	out := make([]Replay, 0, len(replays))
	for _, r := range replays {
		out = append(out, ReplayFromModel(r))
	}
	return out
}

// DeleteResult describes a deletion outcome in API responses
type DeleteResult struct {
	Permanent           bool `json:"permanent"`
	RedactionIncomplete bool `json:"redaction_incomplete"`
	RecordsScanned      int  `json:"records_scanned"`
	RecordsRedacted     int  `json:"records_redacted"`
}

// DeleteResultFromService converts an account.DeleteResult
func DeleteResultFromService(r account.DeleteResult) DeleteResult {
	return DeleteResult{
		Permanent:           r.Permanent,
		RedactionIncomplete: r.RedactionIncomplete,
		RecordsScanned:      r.Redaction.Scanned,
		RecordsRedacted:     r.Redaction.Redacted,
	}
}

// AuthResponseFromSession creates an AuthResponse from a session and account
func AuthResponseFromSession(s *auth.Session, a *model.Account) AuthResponse {
	return AuthResponse{
		Account:      AccountFromModel(a),
		SessionToken: s.Token,
	}
}
