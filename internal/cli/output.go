package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Account:
		o.printAccount(v)
	case AuthResult:
		o.printAuthResult(v)
	case Replay:
		o.printReplay(v)
	case []Replay:
		o.printReplays(v)
	case DeleteResult:
		o.printDeleteResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	Identifier      string         `json:"identifier"`
	Username        string         `json:"username"`
	IsAdmin         bool           `json:"is_admin"`
	FavoriteReplays []string       `json:"favorite_replays"`
	History         []HistoryEntry `json:"history"`
	CreatedAt       time.Time      `json:"created_at"`
}

// HistoryEntry response type
type HistoryEntry struct {
	Action  string    `json:"action"`
	Details string    `json:"details,omitempty"`
	Time    time.Time `json:"time"`
}

// AuthResult combines account and token
type AuthResult struct {
	Account      Account `json:"account"`
	SessionToken string  `json:"session_token"`
}

// Player response type
type Player struct {
	Identifier string `json:"identifier"`
	ICName     string `json:"ic_name"`
	OOCName    string `json:"ooc_name"`
	Role       string `json:"role,omitempty"`
	Antag      bool   `json:"antag,omitempty"`
	Redacted   bool   `json:"redacted,omitempty"`
}

// Replay response type
type Replay struct {
	ID         string    `json:"id"`
	Map        string    `json:"map"`
	Gamemode   string    `json:"gamemode"`
	ServerName string    `json:"server_name"`
	Duration   string    `json:"duration"`
	Date       time.Time `json:"date"`
	Players    []Player  `json:"players"`
}

// DeleteResult response type
type DeleteResult struct {
	Permanent           bool `json:"permanent"`
	RedactionIncomplete bool `json:"redaction_incomplete"`
	RecordsScanned      int  `json:"records_scanned"`
	RecordsRedacted     int  `json:"records_redacted"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAccount(a Account) {
	adminStr := "no"
	if a.IsAdmin {
		adminStr = "yes"
	}
	fmt.Printf("Account: %s (%s)\n", a.Username, a.Identifier)
	fmt.Printf("Admin: %s\n", adminStr)
	fmt.Printf("Created: %s\n", a.CreatedAt.Format(time.RFC3339))
	if len(a.FavoriteReplays) > 0 {
		fmt.Printf("Favorites: %s\n", strings.Join(a.FavoriteReplays, ", "))
	}
	if len(a.History) > 0 {
		fmt.Printf("History (%d):\n", len(a.History))
		for _, e := range a.History {
			if e.Details != "" {
				fmt.Printf("  - %s %s: %s\n", e.Time.Format(time.RFC3339), e.Action, e.Details)
			} else {
				fmt.Printf("  - %s %s\n", e.Time.Format(time.RFC3339), e.Action)
			}
		}
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printAccount(a.Account)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printReplay(r Replay) {
	fmt.Printf("Replay: %s\n", r.ID)
	fmt.Printf("Map: %s\n", r.Map)
	fmt.Printf("Gamemode: %s\n", r.Gamemode)
	fmt.Printf("Server: %s\n", r.ServerName)
	fmt.Printf("Date: %s\n", r.Date.Format(time.RFC3339))
	fmt.Printf("Duration: %s\n", r.Duration)
	fmt.Printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		if p.Redacted {
			fmt.Println("  - [redacted]")
			continue
		}
		antagStr := ""
		if p.Antag {
			antagStr = " [antag]"
		}
		fmt.Printf("  - %s as %s (%s)%s\n", p.OOCName, p.ICName, p.Role, antagStr)
	}
}

func (o *Output) printReplays(replays []Replay) {
	if len(replays) == 0 {
		fmt.Println("No replays found")
		return
	}
	for _, r := range replays {
		fmt.Printf("%s  %s  %s  %s  %d players\n",
			r.ID, r.Date.Format("2006-01-02 15:04"), r.Map, r.Gamemode, len(r.Players))
	}
}

func (o *Output) printDeleteResult(d DeleteResult) {
	if d.Permanent {
		fmt.Println("Account permanently deleted")
		fmt.Printf("Records scanned: %d\n", d.RecordsScanned)
		fmt.Printf("Records redacted: %d\n", d.RecordsRedacted)
		if d.RedactionIncomplete {
			fmt.Println("Warning: some replays could not be redacted; a retry will finish the job")
		}
	} else {
		fmt.Println("Account deleted")
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
