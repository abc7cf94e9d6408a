package shared

import (
	"encoding/json"
	"strings"
)

// Side represents the direction of a position.
type Side int

const (
	UnknownSide Side = iota
	Long
	Short
)

// String stringifies the provided side.
func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the side in its string form.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes the side from its string form.
func (s *Side) UnmarshalJSON(b []byte) error {
	var raw string
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}

	*s = NormalizeSide(raw)
	return nil
}

// NormalizeSide normalizes raw side labels into a Side. Buy aliases to long
// and sell aliases to short. Anything else is unknown, it is never silently
// defaulted here.
func NormalizeSide(raw string) Side {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy", "long":
		return Long
	case "sell", "short":
		return Short
	default:
		return UnknownSide
	}
}
