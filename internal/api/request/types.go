package request

// LoginRequest is the request body for logging in with an external identity
type LoginRequest struct {
	Identifier string `json:"identifier"`
}

// DeleteAccountRequest is the request body for deleting an account.
// Permanent requests the irreversible GDPR path: the identifier is
// tombstoned and all replay participation is redacted.
type DeleteAccountRequest struct {
	Permanent bool `json:"permanent"`
}

// FavoriteRequest is the request body for adding a favorite replay
type FavoriteRequest struct {
	ReplayID string `json:"replay_id"`
}
