package domain

// Status represents the streaming state of a task.
type Status string

const (
	StatusStreaming Status = "streaming" // Producer is still writing the task
	StatusCompleted Status = "completed" // Producer has moved on or finished
)

// AllStatuses returns all valid status values.
func AllStatuses() []Status {
	return []Status{StatusStreaming, StatusCompleted}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	switch s {
	case StatusStreaming, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsCompleted returns true if the producer is done with the task.
func (s Status) IsCompleted() bool {
	return s == StatusCompleted
}

// Display returns a human-readable representation of the status.
func (s Status) Display() string {
	switch s {
	case StatusStreaming:
		return "Streaming"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

// ParseStatus converts a wire value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}
