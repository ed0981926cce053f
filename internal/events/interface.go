package events

// Publisher accepts events without blocking the caller.
// Publish returns false when the event was not accepted.
type Publisher interface {
	Publish(event Event) bool
}

// Compile-time verification that *Queue implements Publisher
var _ Publisher = (*Queue)(nil)
