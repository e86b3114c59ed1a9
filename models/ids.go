package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// localPrefix marks ids that were minted on the client and have not been persisted yet.
const localPrefix = "local-"

// FlexID is an identifier the server may send either as a JSON string or a JSON number.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	s, err := decodeFlexible(data)
	if err != nil {
		return err
	}
	*id = FlexID(s)
	return nil
}

func (id FlexID) String() string {
	return string(id)
}

// VersionID identifies a version either locally (before its question is persisted)
// or by the id the persistence API assigned to it.
type VersionID struct {
	local bool
	value string
}

// NewLocalVersionID mints a fresh client-side id.
func NewLocalVersionID() VersionID {
	return VersionID{local: true, value: localPrefix + uuid.New().String()}
}

func PersistedVersionID(value string) VersionID {
	return VersionID{value: value}
}

// ParseVersionID restores the tag from its string form.
func ParseVersionID(s string) VersionID {
	if strings.HasPrefix(s, localPrefix) {
		return VersionID{local: true, value: s}
	}
	return VersionID{value: s}
}

func (id VersionID) IsLocal() bool {
	return id.local
}

func (id VersionID) IsZero() bool {
	return id.value == ""
}

func (id VersionID) String() string {
	return id.value
}

func (id VersionID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value)
}

func (id *VersionID) UnmarshalJSON(data []byte) error {
	s, err := decodeFlexible(data)
	if err != nil {
		return err
	}
	*id = ParseVersionID(s)
	return nil
}

func decodeFlexible(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("id must be a string or a number: %w", err)
	}
	return n.String(), nil
}
