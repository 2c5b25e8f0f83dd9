package response

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSuccessEnvelope(t *testing.T) {
	fixed := time.Date(2026, time.June, 20, 19, 30, 5, 123456789, time.FixedZone("CEST", 2*3600))
	b := NewBuilder(func() time.Time { return fixed })

	env := b.Success("Emails sent", map[string]string{"messageId": "abc"})
	if !env.Success || env.Message != "Emails sent" || env.Code != "" || env.Error != nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.Timestamp != "2026-06-20T17:30:05.123Z" {
		t.Fatalf("expected UTC millisecond timestamp, got %q", env.Timestamp)
	}

	raw, err := json.Marshal(b.Success("ok", nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, absent := range []string{"data", "error", "code"} {
		if _, ok := decoded[absent]; ok {
			t.Fatalf("expected %q to be omitted, got %s", absent, raw)
		}
	}
}

func TestFailureEnvelope(t *testing.T) {
	b := NewBuilder(nil)
	errs := []map[string]string{{"field": "guestName", "message": "guestName is required"}}

	env := b.Failure("Invalid data", errs, CodeValidation)
	if env.Success || env.Code != CodeValidation {
		t.Fatalf("unexpected envelope %+v", env)
	}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Success   bool                `json:"success"`
		Error     []map[string]string `json:"error"`
		Code      string              `json:"code"`
		Timestamp string              `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Success || len(decoded.Error) != 1 || decoded.Code != CodeValidation {
		t.Fatalf("unexpected json %s", raw)
	}
	if _, err := time.Parse(TimestampLayout, decoded.Timestamp); err != nil {
		t.Fatalf("timestamp not parseable: %v", err)
	}
}

func TestEnvelopesAreFreshlyStamped(t *testing.T) {
	calls := 0
	b := NewBuilder(func() time.Time {
		calls++
		return time.Unix(int64(calls), 0)
	})

	first := b.Failure("x", nil, CodeInternal)
	second := b.Failure("x", nil, CodeInternal)
	if first.Timestamp == second.Timestamp {
		t.Fatalf("expected each envelope to carry its own timestamp")
	}
}
