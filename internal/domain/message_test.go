package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Terminal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Message
	}{
		{"completed", `{"status":"completed"}`, MsgSuccess{}},
		{"completed wins over id", `{"status":"completed","id":"1"}`, MsgSuccess{}},
		{"error with detail", `{"status":"error","detail":"boom"}`, MsgFailure{Detail: "boom"}},
		{"error without detail", `{"status":"error"}`, MsgFailure{Detail: ""}},
		{"error with null detail", `{"status":"error","detail":null}`, MsgFailure{Detail: ""}},
		{"error with object detail", `{"status":"error","detail":{"code":3}}`, MsgFailure{Detail: `{"code":3}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.payload))
		})
	}
}

func TestClassify_TaskData(t *testing.T) {
	msg := Classify(`{"id":"abc","title":"Set up CI","description":"","tags":["DevOps"],"estimate":"1d"}`)

	data, ok := msg.(MsgTaskData)
	require.True(t, ok, "got %T", msg)
	p := data.Task
	assert.Equal(t, "abc", p.ID)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Set up CI", *p.Title)
	require.NotNil(t, p.Description)
	assert.Empty(t, *p.Description)
	assert.True(t, p.HasTags)
	assert.Equal(t, []string{"DevOps"}, p.Tags)
	assert.Nil(t, p.Status)
	assert.JSONEq(t, `"1d"`, string(p.Extra["estimate"]))
}

func TestClassify_TaskDataAbsentFields(t *testing.T) {
	msg := Classify(`{"id":"1"}`)

	data, ok := msg.(MsgTaskData)
	require.True(t, ok)
	assert.Nil(t, data.Task.Title)
	assert.Nil(t, data.Task.Description)
	assert.False(t, data.Task.HasTags)
	assert.Nil(t, data.Task.Extra)
}

func TestClassify_TaskStatus(t *testing.T) {
	t.Run("known status is parsed", func(t *testing.T) {
		data := Classify(`{"id":"1","status":"streaming"}`).(MsgTaskData)
		require.NotNil(t, data.Task.Status)
		assert.Equal(t, StatusStreaming, *data.Task.Status)
	})

	t.Run("unknown status is kept opaque", func(t *testing.T) {
		data := Classify(`{"id":"1","status":"queued"}`).(MsgTaskData)
		assert.Nil(t, data.Task.Status)
		assert.JSONEq(t, `"queued"`, string(data.Task.Extra["status"]))
	})
}

func TestClassify_NumericID(t *testing.T) {
	data, ok := Classify(`{"id":42,"title":"T"}`).(MsgTaskData)
	require.True(t, ok)
	assert.Equal(t, "42", data.Task.ID)
}

func TestClassify_Unrecognized(t *testing.T) {
	payloads := []string{
		``,
		`not json`,
		`{"id":`,
		`[1,2,3]`,
		`"text"`,
		`null`,
		`{}`,
		`{"status":"running"}`,
		`{"id":""}`,
		`{"id":0}`,
		`{"id":null}`,
		`{"id":true}`,
	}

	for _, p := range payloads {
		t.Run(p, func(t *testing.T) {
			msg := Classify(p)
			u, ok := msg.(MsgUnrecognized)
			require.True(t, ok, "got %T", msg)
			assert.NotEmpty(t, u.Reason)
		})
	}
}
