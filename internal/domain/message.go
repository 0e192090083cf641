package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Wire status values that end a stream.
const (
	wireStatusCompleted = "completed"
	wireStatusError     = "error"
)

// Message is the sealed interface for classified stream messages.
//
// go-sumtype:decl Message
type Message interface {
	sealed()
}

// MsgSuccess ends the stream normally.
type MsgSuccess struct{}

func (MsgSuccess) sealed() {}

// MsgFailure ends the stream with a producer-reported error.
type MsgFailure struct {
	Detail string
}

func (MsgFailure) sealed() {}

// MsgTaskData carries a partial or complete task record.
type MsgTaskData struct {
	Task PartialTask
}

func (MsgTaskData) sealed() {}

// MsgUnrecognized is anything else, including payloads that do not decode.
type MsgUnrecognized struct {
	Reason string
}

func (MsgUnrecognized) sealed() {}

// Classify decodes one raw payload and determines its category.
// It never fails: malformed input yields MsgUnrecognized.
func Classify(payload string) Message {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return MsgUnrecognized{Reason: "decode: " + err.Error()}
	}
	if fields == nil {
		return MsgUnrecognized{Reason: "payload is not an object"}
	}

	status, hasStatus := stringField(fields, "status")
	if hasStatus {
		switch status {
		case wireStatusCompleted:
			return MsgSuccess{}
		case wireStatusError:
			return MsgFailure{Detail: detailText(fields["detail"])}
		}
	}

	id, ok := idField(fields["id"])
	if !ok {
		return MsgUnrecognized{Reason: "no status or id"}
	}
	return MsgTaskData{Task: partialFromFields(id, fields)}
}

// partialFromFields maps known keys onto a PartialTask and keeps the rest opaque.
func partialFromFields(id string, fields map[string]json.RawMessage) PartialTask {
	p := PartialTask{ID: id}
	for k, raw := range fields {
		switch k {
		case "id":
		case "title":
			if s, ok := decodeString(raw); ok {
				p.Title = &s
				continue
			}
			p.addExtra(k, raw)
		case "description":
			if s, ok := decodeString(raw); ok {
				p.Description = &s
				continue
			}
			p.addExtra(k, raw)
		case "tags":
			var tags []string
			if err := json.Unmarshal(raw, &tags); err == nil {
				p.Tags = tags
				p.HasTags = true
				continue
			}
			p.addExtra(k, raw)
		case "status":
			if s, ok := decodeString(raw); ok {
				if st, err := ParseStatus(s); err == nil {
					p.Status = &st
					continue
				}
			}
			p.addExtra(k, raw)
		default:
			p.addExtra(k, raw)
		}
	}
	return p
}

func (p *PartialTask) addExtra(key string, raw json.RawMessage) {
	if p.Extra == nil {
		p.Extra = make(map[string]json.RawMessage)
	}
	p.Extra[key] = raw
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	return decodeString(raw)
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// idField accepts a non-empty string or a non-zero number.
func idField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	if s, ok := decodeString(raw); ok {
		return s, s != ""
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", false
	}
	if f, err := n.Float64(); err != nil || f == 0 {
		return "", false
	}
	return n.String(), true
}

// detailText treats an absent or null detail as empty. Non-string details
// are shown as their JSON text.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if s, ok := decodeString(raw); ok {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}
