package models

import (
	"slices"
	"time"
)

type VersionType string

const (
	VersionAI   VersionType = "ai"
	VersionUser VersionType = "user"
	VersionCopy VersionType = "copy"
)

func (t VersionType) Valid() bool {
	switch t {
	case VersionAI, VersionUser, VersionCopy:
		return true
	}
	return false
}

// Metadata keys the session writes into version metadata.
const (
	MetaQuestion       = "question"
	MetaParentName     = "parent_name"
	MetaConversationID = "conversation_id"
	MetaParameters     = "parameters"
	MetaDisplayMode    = "display_mode"
)

type Version struct {
	ID           VersionID              `json:"id"`
	Content      string                 `json:"content"`
	Type         VersionType            `json:"type"`
	Timestamp    time.Time              `json:"timestamp"`
	IsLiked      bool                   `json:"is_liked"`
	IsBookmarked bool                   `json:"is_bookmarked"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	// Revision is bumped locally on every in-place replacement.
	Revision int `json:"revision,omitempty"`
}

func (v *Version) IsLocal() bool {
	return v.ID.IsLocal()
}

// Clone copies the version; metadata values are shared.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	c := *v
	if v.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(v.Metadata))
		for k, val := range v.Metadata {
			c.Metadata[k] = val
		}
	}
	return &c
}

// VersionPatch is the partial update accepted by the persistence API.
type VersionPatch struct {
	IsLiked      *bool `json:"is_liked,omitempty"`
	IsBookmarked *bool `json:"is_bookmarked,omitempty"`
}

// CompareVersions orders newest first; at equal timestamps ai sorts before anything else.
func CompareVersions(a, b *Version) int {
	if !a.Timestamp.Equal(b.Timestamp) {
		if a.Timestamp.After(b.Timestamp) {
			return -1
		}
		return 1
	}
	aAI, bAI := a.Type == VersionAI, b.Type == VersionAI
	switch {
	case aAI && !bAI:
		return -1
	case !aAI && bAI:
		return 1
	}
	return 0
}

func SortVersions(versions []*Version) {
	slices.SortStableFunc(versions, CompareVersions)
}

// InsertVersion returns a new slice with v placed at its sorted position.
func InsertVersion(versions []*Version, v *Version) []*Version {
	idx := len(versions)
	for i, existing := range versions {
		if CompareVersions(v, existing) < 0 {
			idx = i
			break
		}
	}
	out := make([]*Version, 0, len(versions)+1)
	out = append(out, versions[:idx]...)
	out = append(out, v)
	return append(out, versions[idx:]...)
}

func FindVersion(versions []*Version, id VersionID) (int, *Version) {
	for i, v := range versions {
		if v.ID == id {
			return i, v
		}
	}
	return -1, nil
}

// ResolveCurrent picks the selected version if it is still present, else the most
// recent ai version, else the first one.
func ResolveCurrent(versions []*Version, selected VersionID) *Version {
	if len(versions) == 0 {
		return nil
	}
	if !selected.IsZero() {
		if _, v := FindVersion(versions, selected); v != nil {
			return v
		}
	}
	for _, v := range versions {
		if v.Type == VersionAI {
			return v
		}
	}
	return versions[0]
}

// VersionSet is what the version cache stores per question.
type VersionSet struct {
	Versions  []*Version `json:"versions"`
	CurrentID VersionID  `json:"current_id"`
}

func (s VersionSet) Clone() VersionSet {
	out := VersionSet{CurrentID: s.CurrentID, Versions: make([]*Version, len(s.Versions))}
	for i, v := range s.Versions {
		out.Versions[i] = v.Clone()
	}
	return out
}
