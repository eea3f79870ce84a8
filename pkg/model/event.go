package model

import (
	"encoding/json"
	"time"
)

// Event follows the CloudEvents v1.0 JSON shape named in §3 and §6.
type Event struct {
	ID              EventID         `json:"id"`
	SpecVersion     string          `json:"specversion"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	CorrelationID   *EventID        `json:"correlation_id,omitempty"`
	CausationID     *EventID        `json:"causation_id,omitempty"`
}

// NewEvent constructs a fresh event sourced from agentID, stamping a new id
// and the current UTC time. eventType is stored as the event's type as
// given; callers resolve any override before calling.
func NewEvent(agentID AgentID, eventType string, data json.RawMessage) *Event {
	return &Event{
		ID:          NewEventID(),
		SpecVersion: "1.0",
		Source:      "agent:" + agentID.String(),
		Type:        eventType,
		Time:        time.Now().UTC(),
		Data:        data,
	}
}

// PublicationSubject implements the subject-selection rule of §6: subject
// if non-empty, else type. Returns ok=false when both are empty.
func (e *Event) PublicationSubject() (subject string, ok bool) {
	if e.Subject != "" {
		return e.Subject, true
	}
	if e.Type != "" {
		return e.Type, true
	}
	return "", false
}
