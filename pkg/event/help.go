package event

import "time"

const (
	HelpRequestsTopic        = "help.requests"
	EventHelpRequestReceived = "help.request.received"
	EventHelpRequestResolved = "help.request.resolved"
	EventHelpRequestsSynced  = "help.requests.synced"
)

// Request/reply subjects served by the help hub.
const (
	HelpDeskRequestSubject = "help.desk.request"
	HelpDeskResolveSubject = "help.desk.resolve"
	HelpDeskActiveSubject  = "help.desk.active"
)

// HelpRequest is the active help request as delivered by the hub. The hub owns
// the lifecycle; clients only hold a cache of the active set.
type HelpRequest struct {
	ID          string    `json:"id"`
	TableNumber string    `json:"table_number"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// HelpRequestReceivedEvent announces a created or updated help request.
type HelpRequestReceivedEvent struct {
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Request    HelpRequest `json:"request"`
}

// HelpRequestResolvedEvent announces that a request left the active set.
type HelpRequestResolvedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id"`
}

// HelpRequestsSyncedEvent carries the full active set and replaces any
// client-side cache wholesale.
type HelpRequestsSyncedEvent struct {
	EventType  string        `json:"event_type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Requests   []HelpRequest `json:"requests"`
}

// HelpDeskRequestPayload is the request body for HelpDeskRequestSubject.
type HelpDeskRequestPayload struct {
	TableNumber string `json:"table_number"`
	Message     string `json:"message"`
}

// HelpDeskResolvePayload is the request body for HelpDeskResolveSubject.
type HelpDeskResolvePayload struct {
	RequestID string `json:"request_id"`
}

// HelpDeskAck is the hub's reply to help desk invocations.
type HelpDeskAck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ActiveHelpRequestsReply is the hub's reply to HelpDeskActiveSubject.
type ActiveHelpRequestsReply struct {
	Requests []HelpRequest `json:"requests"`
}
