package model

import "time"

// ReplayID identifies one recorded session.
type ReplayID string

// RedactedSentinel is the fixed value written over personal fields when a
// participation record is redacted. Matches the value shown to readers of
// historical replays after a removal request.
const RedactedSentinel = "Removed by GDPR request"

// Replay is an immutable record of a completed session. Replays own their
// participation records and are never deleted by the account subsystem.
type Replay struct {
	ID           ReplayID      `json:"id"`
	Map          string        `json:"map"`
	Gamemode     string        `json:"gamemode"`
	ServerID     string        `json:"server_id"`
	ServerName   string        `json:"server_name"`
	Duration     time.Duration `json:"duration"`
	Date         time.Time     `json:"date"`
	RoundEndText string        `json:"round_end_text,omitempty"`
	Players      []Player      `json:"players"`
}

// Player ties an identifier to role and activity data within one replay.
// The identifier and both names are personal data; everything else survives
// redaction.
type Player struct {
	Identifier Identifier `json:"identifier"`
	ICName     string     `json:"ic_name"`
	OOCName    string     `json:"ooc_name"`
	Role       string     `json:"role"`
	Antag      bool       `json:"antag"`
	Redacted   bool       `json:"redacted"`
}

// Redact overwrites the personal fields with the sentinel and marks the
// record. Redacting an already-redacted record is a no-op; the operation
// reports whether it changed anything.
func (p *Player) Redact() bool {
	if p.Redacted {
		return false
	}
	p.Identifier = RedactedSentinel
	p.ICName = RedactedSentinel
	p.OOCName = RedactedSentinel
	p.Redacted = true
	return true
}

// PlayerFor returns the participation record for the given identifier, or
// nil if the identifier did not take part in this replay.
func (r *Replay) PlayerFor(id Identifier) *Player {
	for i := range r.Players {
		if r.Players[i].Identifier == id {
			return &r.Players[i]
		}
	}
	return nil
}
