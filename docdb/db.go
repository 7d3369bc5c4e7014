package docdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kukshaus/family-planner/store"
)

// DefaultPrefix namespaces collection keys in the medium.
const DefaultPrefix = "family_planner_"

// DB is the document store. Create one with New; the zero value is not usable.
//
// Documents returned by DB are decoded from the persisted bytes on every
// call, so callers own them and mutating a returned Document never changes
// stored data.
type DB struct {
	mu          sync.RWMutex
	kv          store.Store
	prefix      string
	collections []string
	now         func() time.Time
	newID       func() string
	log         *zap.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithPrefix sets the key namespace prefix.
func WithPrefix(prefix string) Option {
	return func(db *DB) { db.prefix = prefix }
}

// WithCollections sets the enumeration used by ClearDatabase,
// ExportDatabase and ImportDatabase.
func WithCollections(names ...string) Option {
	return func(db *DB) { db.collections = append([]string(nil), names...) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(gen func() string) Option {
	return func(db *DB) { db.newID = gen }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(db *DB) { db.log = log }
}

// newUUIDv7 combines a millisecond timestamp with random bits, so ids
// sort roughly by creation time and never collide in practice.
func newUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// New returns a DB persisting to kv, by default under DefaultPrefix with
// DefaultCollections as its enumeration.
func New(kv store.Store, opts ...Option) *DB {
	db := &DB{
		kv:          kv,
		prefix:      DefaultPrefix,
		collections: DefaultCollections,
		now:         time.Now,
		newID:       newUUIDv7,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Names returns the configured collection enumeration.
func (db *DB) Names() []string {
	return append([]string(nil), db.collections...)
}

func (db *DB) key(collection string) string {
	return db.prefix + collection
}

func (db *DB) known(collection string) bool {
	for _, c := range db.collections {
		if c == collection {
			return true
		}
	}
	return false
}

// load reads a collection. An absent key is an empty collection; a present
// but unparseable payload is a *DecodeError.
func (db *DB) load(collection string) ([]Document, error) {
	raw, err := db.kv.Get(db.key(collection))
	if err != nil {
		return nil, &StorageError{Op: "read", Collection: collection, Err: err}
	}
	if raw == nil {
		return []Document{}, nil
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, &DecodeError{Collection: collection, Err: err}
	}
	for i, d := range docs {
		if d == nil {
			return nil, &DecodeError{Collection: collection, Err: fmt.Errorf("element %d is not an object", i)}
		}
	}
	if docs == nil {
		docs = []Document{}
	}
	return docs, nil
}

func (db *DB) save(collection string, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return &StorageError{Op: "encode", Collection: collection, Err: err}
	}
	if err := db.kv.Set(db.key(collection), b); err != nil {
		return &StorageError{Op: "write", Collection: collection, Err: err}
	}
	db.log.Debug("collection persisted", zap.String("collection", collection), zap.Int("documents", len(docs)))
	return nil
}

func (db *DB) timestamp() string {
	return FormatTime(db.now())
}

// FindAll returns every document in collection matching filter, in storage
// order. A nil or empty filter returns the whole collection.
func (db *DB) FindAll(collection string, filter Filter) ([]Document, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	f, err := normalize(filter)
	if err != nil {
		return nil, fmt.Errorf("docdb: invalid filter: %w", err)
	}
	docs, err := db.load(collection)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if matches(d, f) {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindByID returns the document with the given id. ok is false when no
// such document exists.
func (db *DB) FindByID(collection, id string) (doc Document, ok bool, err error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	docs, err := db.load(collection)
	if err != nil {
		return nil, false, err
	}
	for _, d := range docs {
		if d.ID() == id {
			return d, true, nil
		}
	}
	return nil, false, nil
}

// FindOne returns the first document matching filter.
func (db *DB) FindOne(collection string, filter Filter) (Document, bool, error) {
	docs, err := db.FindAll(collection, filter)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

// Count returns the number of documents matching filter.
func (db *DB) Count(collection string, filter Filter) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	f, err := normalize(filter)
	if err != nil {
		return 0, fmt.Errorf("docdb: invalid filter: %w", err)
	}
	docs, err := db.load(collection)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range docs {
		if matches(d, f) {
			n++
		}
	}
	return n, nil
}

// newDocument builds a stored document from caller fields, discarding any
// system fields the caller supplied.
func (db *DB) newDocument(fields Fields, now string) (Document, error) {
	doc, err := normalize(fields)
	if err != nil {
		return nil, fmt.Errorf("docdb: invalid fields: %w", err)
	}
	doc[FieldID] = db.newID()
	doc[FieldCreatedAt] = now
	doc[FieldUpdatedAt] = now
	return doc, nil
}

// InsertOne appends a new document with a fresh id and
// createdAt == updatedAt == now, and returns it.
func (db *DB) InsertOne(collection string, fields Fields) (Document, error) {
	docs, err := db.InsertMany(collection, []Fields{fields})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// InsertMany appends one document per element of batch. All documents
// share one timestamp and the collection is persisted once.
func (db *DB) InsertMany(collection string, batch []Fields) ([]Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	now := db.timestamp()
	created := make([]Document, 0, len(batch))
	for _, fields := range batch {
		doc, err := db.newDocument(fields, now)
		if err != nil {
			return nil, err
		}
		created = append(created, doc)
	}
	if len(created) == 0 {
		return created, nil
	}
	docs, err := db.load(collection)
	if err != nil {
		return nil, err
	}
	if err := db.save(collection, append(docs, created...)); err != nil {
		return nil, err
	}
	return created, nil
}

// merge applies patch to doc, keeping _id and createdAt as they were and
// moving updatedAt to now. updatedAt never moves backwards.
func merge(doc Document, patch map[string]any, now string) Document {
	out := make(Document, len(doc)+len(patch))
	for k, v := range doc {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	for _, k := range []string{FieldID, FieldCreatedAt} {
		if v, ok := doc[k]; ok {
			out[k] = v
		} else {
			delete(out, k)
		}
	}
	out[FieldUpdatedAt] = now
	if prev, err := ParseTime(doc.UpdatedAt()); err == nil {
		if cur, err := ParseTime(now); err == nil && prev.After(cur) {
			out[FieldUpdatedAt] = doc.UpdatedAt()
		}
	}
	return out
}

// UpdateByID merges patch into the document with the given id and returns
// the result. ok is false, and nothing is written, when id is unknown.
func (db *DB) UpdateByID(collection, id string, patch Fields) (doc Document, ok bool, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	p, err := normalize(patch)
	if err != nil {
		return nil, false, fmt.Errorf("docdb: invalid fields: %w", err)
	}
	docs, err := db.load(collection)
	if err != nil {
		return nil, false, err
	}
	for i, d := range docs {
		if d.ID() != id {
			continue
		}
		docs[i] = merge(d, p, db.timestamp())
		if err := db.save(collection, docs); err != nil {
			return nil, false, err
		}
		return docs[i], true, nil
	}
	return nil, false, nil
}

// UpdateMany merges patch into every document matching filter and returns
// how many were updated.
func (db *DB) UpdateMany(collection string, filter Filter, patch Fields) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	f, err := normalize(filter)
	if err != nil {
		return 0, fmt.Errorf("docdb: invalid filter: %w", err)
	}
	p, err := normalize(patch)
	if err != nil {
		return 0, fmt.Errorf("docdb: invalid fields: %w", err)
	}
	docs, err := db.load(collection)
	if err != nil {
		return 0, err
	}
	now := db.timestamp()
	n := 0
	for i, d := range docs {
		if matches(d, f) {
			docs[i] = merge(d, p, now)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	if err := db.save(collection, docs); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteByID removes the document with the given id and reports whether
// one was removed.
func (db *DB) DeleteByID(collection, id string) (bool, error) {
	n, err := db.deleteWhere(collection, func(d Document) bool { return d.ID() == id })
	return n > 0, err
}

// DeleteMany removes every document matching filter and returns the count.
func (db *DB) DeleteMany(collection string, filter Filter) (int, error) {
	f, err := normalize(filter)
	if err != nil {
		return 0, fmt.Errorf("docdb: invalid filter: %w", err)
	}
	return db.deleteWhere(collection, func(d Document) bool { return matches(d, f) })
}

func (db *DB) deleteWhere(collection string, drop func(Document) bool) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	docs, err := db.load(collection)
	if err != nil {
		return 0, err
	}
	kept := docs[:0]
	for _, d := range docs {
		if !drop(d) {
			kept = append(kept, d)
		}
	}
	removed := len(docs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := db.save(collection, kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// ClearCollection removes every document of collection.
func (db *DB) ClearCollection(collection string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.clear(collection)
}

func (db *DB) clear(collection string) error {
	if err := db.kv.Remove(db.key(collection)); err != nil {
		return &StorageError{Op: "remove", Collection: collection, Err: err}
	}
	return nil
}

// ClearDatabase clears every configured collection.
func (db *DB) ClearDatabase() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, c := range db.collections {
		if err := db.clear(c); err != nil {
			return err
		}
	}
	db.log.Info("database cleared", zap.Int("collections", len(db.collections)))
	return nil
}

// Collections lists the collections that currently have persisted data,
// whether or not they are part of the configured enumeration.
func (db *DB) Collections() ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	keys, err := db.kv.Keys(db.prefix)
	if err != nil {
		return nil, &StorageError{Op: "list", Collection: "*", Err: err}
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, db.prefix))
	}
	return names, nil
}

// ExportDatabase snapshots every configured collection. Empty collections
// are present with an empty slice.
func (db *DB) ExportDatabase() (Snapshot, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	snap := make(Snapshot, len(db.collections))
	for _, c := range db.collections {
		docs, err := db.load(c)
		if err != nil {
			return nil, err
		}
		snap[c] = docs
	}
	return snap, nil
}

// ImportDatabase overwrites each configured collection named in snap with
// its documents, verbatim: ids and timestamps are not regenerated. A nil
// document anywhere in snap is a *DecodeError and nothing is written.
// Collections absent from snap are untouched; names outside the
// configured enumeration are ignored.
func (db *DB) ImportDatabase(snap Snapshot) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	names := make([]string, 0, len(snap))
	for name := range snap {
		if !db.known(name) {
			db.log.Warn("import: ignoring unknown collection", zap.String("collection", name))
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for i, d := range snap[name] {
			if d == nil {
				return &DecodeError{Collection: name, Err: fmt.Errorf("import element %d is not an object", i)}
			}
		}
	}
	for _, name := range names {
		if err := db.save(name, snap[name]); err != nil {
			return err
		}
	}
	db.log.Info("database imported", zap.Strings("collections", names))
	return nil
}
