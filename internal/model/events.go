package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Session events
	EventSessionReady      EventType = "session_ready"
	EventExperienceStarted EventType = "experience_started"
	EventClassifiedError   EventType = "classified_error"
	EventScoreAccepted     EventType = "score_accepted"

	// Pass-through hooks
	EventTermsRequested         EventType = "terms_requested"
	EventPrivacyPolicyRequested EventType = "privacy_policy_requested"
)

// Event is the base structure for all events
type Event struct {
	Type        EventType
	Timestamp   time.Time
	Competition CompetitionID
	PlayerID    PlayerID // Empty when no session is active
	Payload     any      // Type-specific data
}

// SessionReadyPayload contains data for session ready events
type SessionReadyPayload struct {
	Record PlayerRecord
}

// ClassifiedErrorPayload contains data for classified error events
type ClassifiedErrorPayload struct {
	Context FormContext
	Kind    string
	Message string
}

// ScoreAcceptedPayload contains data for score accepted events
type ScoreAcceptedPayload struct {
	PreviousScore int64
	Score         int64
	Persisted     bool // false when the remote write failed
}
