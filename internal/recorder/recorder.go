package recorder

import (
	"time"

	"TokenBoard/internal/model"
)

// Engagement kinds recorded for a token.
const (
	EngagementAdded    = "ADDED"
	EngagementRemoved  = "REMOVED"
	EngagementReaction = "REACTION"
	EngagementVote     = "VOTE"
	EngagementPin      = "PIN"
	EngagementFavorite = "FAVORITE"
)

// EngagementEvent records a user interaction with a token.
type EngagementEvent struct {
	Address   string    `json:"address"`
	EventType string    `json:"event_type"` // one of the Engagement* kinds
	Detail    string    `json:"detail,omitempty"`
	Value     int       `json:"value"` // counter or flag value after the change
	At        time.Time `json:"at"`
}

// Recorder persists price and engagement history for analysis.
type Recorder interface {
	RecordSnapshot(snap model.PriceSnapshot) error
	RecordEngagement(evt *EngagementEvent) error
	// History returns the most recent snapshots for a token, newest first.
	History(address string, limit int) ([]model.PriceSnapshot, error)
	Engagements(address string, limit int) ([]EngagementEvent, error)
	Close() error
}
