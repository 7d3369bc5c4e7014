// Package backup reads and writes database snapshots as indented JSON
// files, locally or in an S3-compatible bucket.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/docdb"
)

// ErrFormat is returned by Decode for input that is not a snapshot object.
var ErrFormat = errors.New("invalid backup format")

// FileName is the conventional backup name for the day of t.
func FileName(t time.Time) string {
	return "family-planner-backup-" + t.Format("2006-01-02") + ".json"
}

// Encode writes snap as a JSON object keyed by collection, indented with
// two spaces.
func Encode(w io.Writer, snap docdb.Snapshot) error {
	if snap == nil {
		snap = docdb.Snapshot{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return nil
}

// Decode reads a snapshot written by Encode. Top-level keys whose value is
// not an array, such as version metadata, are skipped and logged; inside
// an array every element must be an object. log may be nil.
func Decode(r io.Reader, log *zap.Logger) (docdb.Snapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not an object", ErrFormat)
	}

	snap := make(docdb.Snapshot, len(raw))
	for name, msg := range raw {
		var elems []json.RawMessage
		if err := json.Unmarshal(msg, &elems); err != nil || elems == nil {
			log.Warn("backup: skipping non-collection key", zap.String("key", name))
			continue
		}
		docs := make([]docdb.Document, len(elems))
		for i, e := range elems {
			if err := json.Unmarshal(e, &docs[i]); err != nil || docs[i] == nil {
				return nil, fmt.Errorf("%w: collection %q element %d is not an object", ErrFormat, name, i)
			}
		}
		snap[name] = docs
	}
	return snap, nil
}

// Target stores named backups.
type Target interface {
	Save(ctx context.Context, name string, snap docdb.Snapshot) error
	Load(ctx context.Context, name string) (docdb.Snapshot, error)
}
