package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// FlexTime is a timestamp that can be unmarshaled from an RFC 3339 string,
// an ISO 8601 string without a zone offset (taken as UTC), or Unix seconds
// as a JSON number. Clients in the wild send all three.
type FlexTime time.Time

// timeLayouts are tried in order when parsing a string timestamp.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexTime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*f = FlexTime(t)
		return nil
	}

	var unix int64
	if err := json.Unmarshal(data, &unix); err == nil {
		*f = FlexTime(time.Unix(unix, 0).UTC())
		return nil
	}

	return fmt.Errorf("FlexTime: unexpected type, expected timestamp string or unix seconds")
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(f).Format(time.RFC3339))
}

// Time converts FlexTime back to time.Time.
func (f FlexTime) Time() time.Time {
	return time.Time(f)
}

// IsZero reports whether the timestamp was left unset.
func (f FlexTime) IsZero() bool {
	return time.Time(f).IsZero()
}

// ParseTimestamp parses a timestamp string in any of the accepted layouts,
// or as Unix seconds.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: use ISO 8601 or unix seconds", s)
}
