package domain

// EventType identifies an event pushed to listeners.
type EventType string

const (
	EventAnalysisStarted  EventType = "ANALYSIS_STARTED"
	EventAnalysisProgress EventType = "ANALYSIS_PROGRESS"
	EventAnalysisComplete EventType = "ANALYSIS_COMPLETE"
	EventAnalysisError    EventType = "ANALYSIS_ERROR"
	EventItemViewedAdded  EventType = "ITEM_VIEWED_ADDED"
)

// Event is a broadcast message with at-most-once delivery: subscribers that
// are not listening at emission time miss it and resynchronize via a state
// query.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// ProgressPayload carries the human-readable stage label of a progress event.
type ProgressPayload struct {
	Message string `json:"message"`
}

// Publisher broadcasts events to currently attached listeners without
// blocking the caller.
type Publisher interface {
	Publish(evt Event)
}
