package docdb

import (
	"encoding/json"
	"fmt"
)

// Meta holds the system fields. Entity structs embed it so that the store
// fills them in and JSON keeps them at the top level.
type Meta struct {
	ID        string `json:"_id"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Collection is a typed view of one named collection. T is an entity
// struct embedding Meta; its JSON tags define the stored field names.
type Collection[T any] struct {
	db   *DB
	name string
}

// NewCollection binds the collection name to db.
func NewCollection[T any](db *DB, name string) *Collection[T] {
	return &Collection[T]{db: db, name: name}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) decode(doc Document) (T, error) {
	var v T
	b, err := json.Marshal(doc)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, &DecodeError{Collection: c.name, Err: err}
	}
	return v, nil
}

func (c *Collection[T]) decodeAll(docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := c.decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) fields(v T) (Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var f Fields
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("docdb: %T does not encode as an object", v)
	}
	delete(f, FieldID)
	delete(f, FieldCreatedAt)
	delete(f, FieldUpdatedAt)
	return f, nil
}

// List returns the documents matching filter.
func (c *Collection[T]) List(filter Filter) ([]T, error) {
	docs, err := c.db.FindAll(c.name, filter)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs)
}

// Get returns the document with the given id.
func (c *Collection[T]) Get(id string) (T, bool, error) {
	var zero T
	doc, ok, err := c.db.FindByID(c.name, id)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := c.decode(doc)
	return v, err == nil, err
}

// First returns the first document matching filter.
func (c *Collection[T]) First(filter Filter) (T, bool, error) {
	var zero T
	doc, ok, err := c.db.FindOne(c.name, filter)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := c.decode(doc)
	return v, err == nil, err
}

// Create inserts v and returns it with the system fields filled in. Any
// system fields already set on v are ignored.
func (c *Collection[T]) Create(v T) (T, error) {
	var zero T
	f, err := c.fields(v)
	if err != nil {
		return zero, err
	}
	doc, err := c.db.InsertOne(c.name, f)
	if err != nil {
		return zero, err
	}
	return c.decode(doc)
}

// CreateMany inserts vs with one shared timestamp.
func (c *Collection[T]) CreateMany(vs []T) ([]T, error) {
	batch := make([]Fields, 0, len(vs))
	for _, v := range vs {
		f, err := c.fields(v)
		if err != nil {
			return nil, err
		}
		batch = append(batch, f)
	}
	docs, err := c.db.InsertMany(c.name, batch)
	if err != nil {
		return nil, err
	}
	return c.decodeAll(docs)
}

// Update merges patch into the document with the given id.
func (c *Collection[T]) Update(id string, patch Fields) (T, bool, error) {
	var zero T
	doc, ok, err := c.db.UpdateByID(c.name, id, patch)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := c.decode(doc)
	return v, err == nil, err
}

// UpdateWhere merges patch into every document matching filter.
func (c *Collection[T]) UpdateWhere(filter Filter, patch Fields) (int, error) {
	return c.db.UpdateMany(c.name, filter, patch)
}

// Delete removes the document with the given id.
func (c *Collection[T]) Delete(id string) (bool, error) {
	return c.db.DeleteByID(c.name, id)
}

// DeleteWhere removes every document matching filter.
func (c *Collection[T]) DeleteWhere(filter Filter) (int, error) {
	return c.db.DeleteMany(c.name, filter)
}

// Count returns the number of documents matching filter.
func (c *Collection[T]) Count(filter Filter) (int, error) {
	return c.db.Count(c.name, filter)
}

// Clear removes every document of the collection.
func (c *Collection[T]) Clear() error {
	return c.db.ClearCollection(c.name)
}
