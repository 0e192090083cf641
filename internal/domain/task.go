// Package domain contains core entities of the task stream: tasks, the
// message classifier and the reconciliation engine.
package domain

import (
	"encoding/json"
	"maps"
	"slices"
)

// Task is one unit of work streamed from the producer.
// Fields are ordered to minimize memory padding.
type Task struct {
	Extra       map[string]json.RawMessage `json:"-"`                     // Producer fields not interpreted by the client
	ID          string                     `json:"id"`                    // Producer-assigned identifier
	Title       string                     `json:"title,omitempty"`       // Empty while the title has not arrived
	Description string                     `json:"description,omitempty"` // May grow over several messages
	Status      Status                     `json:"status"`                // Streaming or completed
	Tags        []string                   `json:"tags,omitempty"`        // Rendered only
}

// PartialTask is the task payload of a single stream message.
// Nil pointers mean the field was absent from the message.
type PartialTask struct {
	Extra       map[string]json.RawMessage
	Title       *string
	Description *string
	Status      *Status
	ID          string
	Tags        []string
	HasTags     bool
}

// HasTitle returns true if the title has arrived.
func (t *Task) HasTitle() bool {
	return t.Title != ""
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	t.Tags = slices.Clone(t.Tags)
	t.Extra = maps.Clone(t.Extra)
	return t
}

// MarshalJSON flattens Extra next to the known fields, mirroring the wire shape.
func (t Task) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+5)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["id"] = t.ID
	out["status"] = t.Status
	if t.Title != "" {
		out["title"] = t.Title
	}
	if t.Description != "" {
		out["description"] = t.Description
	}
	if len(t.Tags) > 0 {
		out["tags"] = t.Tags
	}
	return json.Marshal(out)
}

// NewTask builds a task from the first message seen for its id.
// A new task always starts streaming, whatever status the message carries.
func NewTask(p PartialTask) Task {
	t, _ := Merge(Task{ID: p.ID}, p)
	t.Status = StatusStreaming
	return t
}

// Merge overwrites every field present in incoming; absent fields are kept.
// Extra fields are merged key by key. Merging across ids is a programming
// error and returns ErrIdentityMismatch.
func Merge(existing Task, incoming PartialTask) (Task, error) {
	if existing.ID != incoming.ID {
		return existing, ErrIdentityMismatch
	}
	out := existing.Clone()
	if incoming.Title != nil {
		out.Title = *incoming.Title
	}
	if incoming.Description != nil {
		out.Description = *incoming.Description
	}
	if incoming.HasTags {
		out.Tags = slices.Clone(incoming.Tags)
	}
	if incoming.Status != nil {
		out.Status = *incoming.Status
	}
	if len(incoming.Extra) > 0 {
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage, len(incoming.Extra))
		}
		for k, v := range incoming.Extra {
			out.Extra[k] = v
		}
	}
	return out, nil
}

// WithStatus returns a copy of the task with only the status replaced.
func WithStatus(t Task, s Status) Task {
	out := t.Clone()
	out.Status = s
	return out
}
