package orchestrate

// EventKind discriminates progress events.
type EventKind int

const (
	// EventInit fires once the attempt order is computed.
	EventInit EventKind = iota
	// EventStart fires when a provider probe begins.
	EventStart
	// EventUpdate fires when a provider probe settles.
	EventUpdate
)

// Status is the outcome of one provider probe.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailure  Status = "failure"
	StatusNotFound Status = "not-found"
)

// Event is an observability-only progress report. Consumers must treat it as
// informational; outcomes are carried exclusively by Resolve's return values.
type Event struct {
	Kind       EventKind
	RequestID  string
	ProviderID string
	Status     Status
	Total      int // provider count, set on EventInit
}
