package queue

import (
	"encoding/json"
	"testing"
)

type payload struct {
	JobID string `json:"job_id"`
}

func TestParsePayload(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
	}{
		{name: "value", in: payload{JobID: "a"}},
		{name: "pointer", in: &payload{JobID: "a"}},
		{name: "map", in: map[string]interface{}{"job_id": "a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePayload[payload](tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.JobID != "a" {
				t.Fatalf("expected job id a, got %q", got.JobID)
			}
		})
	}

	for _, bad := range []interface{}{42, []byte(`{"job_id":"a"}`), nil} {
		if _, err := ParsePayload[payload](bad); err == nil {
			t.Fatalf("expected error for payload %T", bad)
		}
	}
}

func TestParsePayloadAfterRedisRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Message{ID: "m1", Type: "t", Payload: payload{JobID: "a"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := ParsePayload[payload](msg.Payload)
	if err != nil || got.JobID != "a" {
		t.Fatalf("expected job id a, got %+v (%v)", got, err)
	}
}
