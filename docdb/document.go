// Package docdb emulates a small multi-collection document database on top
// of a key-value store.
//
// Every collection is persisted as one JSON array under "<prefix><name>".
// Operations read the whole collection, compute the new value and write it
// back in a single Set, so a persist is never partially observable. The
// package assumes a single logical writer: concurrent processes sharing a
// medium overwrite each other's collections (last write wins).
package docdb

import (
	"encoding/json"
	"time"
)

// System fields maintained by the store.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimeLayout is the format of createdAt/updatedAt: UTC with millisecond
// precision, e.g. "2024-01-15T10:00:00.000Z".
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DefaultCollections is the enumeration ClearDatabase and ExportDatabase
// iterate when no WithCollections option is given.
var DefaultCollections = []string{
	"users",
	"families",
	"events",
	"tasks",
	"rewards",
	"rewardClaims",
	"meals",
	"recipes",
	"photos",
	"albums",
	"lists",
	"sleepEntries",
	"settings",
}

// Document is one stored record: the system fields plus arbitrary
// entity fields, in their JSON-decoded form.
type Document map[string]any

// ID returns the document's _id, or "" if it has none.
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// CreatedAt returns the raw createdAt value.
func (d Document) CreatedAt() string {
	s, _ := d[FieldCreatedAt].(string)
	return s
}

// UpdatedAt returns the raw updatedAt value.
func (d Document) UpdatedAt() string {
	s, _ := d[FieldUpdatedAt].(string)
	return s
}

// Fields is a set of field values to insert or merge.
type Fields map[string]any

// Filter selects documents whose fields strictly equal every entry.
//
// Only scalars (strings, numbers, booleans, null) can match. Arrays and
// objects are never equal to anything, so {"attendees": "jake"} does not
// match a document whose attendees is ["jake"].
type Filter map[string]any

// Snapshot maps collection names to their raw documents. It is the shape
// produced by ExportDatabase and consumed by ImportDatabase.
type Snapshot map[string][]Document

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a createdAt/updatedAt value.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// normalize converts v into the form it takes after being persisted, so
// that Go ints compare equal to stored JSON numbers.
func normalize(v map[string]any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
