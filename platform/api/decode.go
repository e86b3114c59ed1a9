package api

import (
	"encoding/json"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// flexTime accepts RFC 3339 as well as the zone-less timestamps some backends emit
// (read as UTC), and unix seconds.
type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		secs, err := n.Float64()
		if err != nil {
			return err
		}
		*t = flexTime(time.Unix(0, int64(secs*float64(time.Second))).UTC())
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		return nil
	}
	var lastErr error
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, str)
		if err == nil {
			*t = flexTime(parsed)
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// unwrapList accepts a bare JSON array or an object holding the array under key.
func unwrapList(raw json.RawMessage, key string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var list []json.RawMessage
	if trimmed[0] == '[' {
		err := json.Unmarshal(raw, &list)
		return list, err
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, nil
	}
	err := json.Unmarshal(inner, &list)
	return list, err
}
