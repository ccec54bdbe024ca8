package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexTimeFormats(t *testing.T) {
	expected := time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC)

	cases := []string{
		`"2026-08-01T12:30:00Z"`,
		`"2026-08-01T12:30:00+00:00"`,
		`"2026-08-01T12:30:00"`,
		`1785587400`,
	}
	for _, input := range cases {
		var ft FlexTime
		if err := json.Unmarshal([]byte(input), &ft); err != nil {
			t.Errorf("Failed to unmarshal %s: %v", input, err)
			continue
		}
		if !ft.Time().Equal(expected) {
			t.Errorf("Input %s: expected %v, got %v", input, expected, ft.Time())
		}
	}
}

func TestFlexTimeDateOnly(t *testing.T) {
	var ft FlexTime
	if err := json.Unmarshal([]byte(`"2026-08-01"`), &ft); err != nil {
		t.Fatalf("Failed to unmarshal date: %v", err)
	}
	expected := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !ft.Time().Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, ft.Time())
	}
}

func TestFlexTimeInvalid(t *testing.T) {
	var ft FlexTime
	if err := json.Unmarshal([]byte(`"yesterday"`), &ft); err == nil {
		t.Error("Expected an error for an unparseable timestamp")
	}
	if err := json.Unmarshal([]byte(`true`), &ft); err == nil {
		t.Error("Expected an error for a boolean")
	}
}

func TestFlexTimeNullLeavesZero(t *testing.T) {
	var ft FlexTime
	if err := json.Unmarshal([]byte(`null`), &ft); err != nil {
		t.Fatalf("Unexpected error for null: %v", err)
	}
	if !ft.IsZero() {
		t.Error("Expected a zero timestamp for null")
	}
}

func TestFlexTimeMarshal(t *testing.T) {
	ft := FlexTime(time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC))
	raw, err := json.Marshal(ft)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(raw) != `"2026-08-01T12:30:00Z"` {
		t.Errorf("Unexpected marshal output: %s", raw)
	}
}
