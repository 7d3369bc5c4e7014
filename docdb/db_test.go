package docdb_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukshaus/family-planner/docdb"
	"github.com/kukshaus/family-planner/store"
)

type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// countingStore records writes and can be told to fail them.
type countingStore struct {
	*store.MemoryStore
	sets    int
	failSet error
	failGet error
}

func (s *countingStore) Set(key string, value []byte) error {
	if s.failSet != nil {
		return s.failSet
	}
	s.sets++
	return s.MemoryStore.Set(key, value)
}

func (s *countingStore) Get(key string) ([]byte, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.MemoryStore.Get(key)
}

func newDB(t *testing.T) (*docdb.DB, *countingStore) {
	t.Helper()
	kv := &countingStore{MemoryStore: store.NewMemoryStore()}
	clock := &stepClock{t: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
	return docdb.New(kv, docdb.WithClock(clock.Now)), kv
}

func TestInsertAndUpdateTask(t *testing.T) {
	db, _ := newDB(t)

	task, err := db.InsertOne("tasks", docdb.Fields{"title": "Clean kitchen", "points": 20})
	require.NoError(t, err)
	require.NotEmpty(t, task.ID())
	assert.Equal(t, task.CreatedAt(), task.UpdatedAt())
	assert.Equal(t, "2024-01-15T10:00:01.000Z", task.CreatedAt())

	updated, ok, err := db.UpdateByID("tasks", task.ID(), docdb.Fields{"status": "completed"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "completed", updated["status"])
	assert.Equal(t, "Clean kitchen", updated["title"])
	assert.Equal(t, float64(20), updated["points"])
	assert.Equal(t, task.ID(), updated.ID())
	assert.Equal(t, task.CreatedAt(), updated.CreatedAt())
	assert.Greater(t, updated.UpdatedAt(), updated.CreatedAt())

	got, ok, err := db.FindByID("tasks", task.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestInsertManyIDsAreUnique(t *testing.T) {
	db := docdb.New(store.NewMemoryStore())

	const n = 10000
	batch := make([]docdb.Fields, n)
	for i := range batch {
		batch[i] = docdb.Fields{"n": i}
	}
	docs, err := db.InsertMany("tasks", batch)
	require.NoError(t, err)
	require.Len(t, docs, n)

	seen := make(map[string]struct{}, n)
	for _, d := range docs {
		_, dup := seen[d.ID()]
		require.False(t, dup, "duplicate id %s", d.ID())
		seen[d.ID()] = struct{}{}
	}

	count, err := db.Count("tasks", nil)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}

func TestInsertOneIDsAreUnique(t *testing.T) {
	db := docdb.New(store.NewMemoryStore())
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		d, err := db.InsertOne("lists", docdb.Fields{"name": fmt.Sprint(i)})
		require.NoError(t, err)
		require.False(t, seen[d.ID()])
		seen[d.ID()] = true
	}
}

func TestInsertManySharesTimestamp(t *testing.T) {
	db, kv := newDB(t)
	docs, err := db.InsertMany("events", []docdb.Fields{{"title": "A"}, {"title": "B"}})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, docs[0].CreatedAt(), docs[1].CreatedAt())
	assert.NotEqual(t, docs[0].ID(), docs[1].ID())
	assert.Equal(t, 1, kv.sets)
}

func TestInsertIgnoresSystemFields(t *testing.T) {
	db, _ := newDB(t)
	d, err := db.InsertOne("tasks", docdb.Fields{"_id": "mine", "createdAt": "yesterday", "title": "x"})
	require.NoError(t, err)
	assert.NotEqual(t, "mine", d.ID())
	assert.NotEqual(t, "yesterday", d.CreatedAt())
}

func TestUpdateKeepsIdentityFields(t *testing.T) {
	db, _ := newDB(t)
	d, err := db.InsertOne("tasks", docdb.Fields{"title": "Walk the dog"})
	require.NoError(t, err)

	u, ok, err := db.UpdateByID("tasks", d.ID(), docdb.Fields{
		"_id":       "hijack",
		"createdAt": "1970-01-01T00:00:00.000Z",
		"title":     "Walk the cat",
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, d.ID(), u.ID())
	assert.Equal(t, d.CreatedAt(), u.CreatedAt())
	assert.Equal(t, "Walk the cat", u["title"])

	_, ok, err = db.FindByID("tasks", "hijack")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdatePartialMerge(t *testing.T) {
	db, _ := newDB(t)
	d, err := db.InsertOne("meals", docdb.Fields{"name": "Oatmeal", "calories": 280, "mealType": "breakfast"})
	require.NoError(t, err)

	u, _, err := db.UpdateByID("meals", d.ID(), docdb.Fields{"calories": 300})
	require.NoError(t, err)
	assert.Equal(t, float64(300), u["calories"])
	assert.Equal(t, "Oatmeal", u["name"])
	assert.Equal(t, "breakfast", u["mealType"])
}

func TestUpdateUnknownIDWritesNothing(t *testing.T) {
	db, kv := newDB(t)
	_, err := db.InsertOne("tasks", docdb.Fields{"title": "x"})
	require.NoError(t, err)
	before := kv.sets

	u, ok, err := db.UpdateByID("tasks", "missing", docdb.Fields{"title": "y"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, u)
	assert.Equal(t, before, kv.sets)
}

func TestUpdatedAtNeverMovesBackwards(t *testing.T) {
	kv := store.NewMemoryStore()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	db := docdb.New(kv, docdb.WithClock(func() time.Time { return now }))

	d, err := db.InsertOne("tasks", docdb.Fields{"title": "x"})
	require.NoError(t, err)

	now = now.Add(-time.Hour)
	u, _, err := db.UpdateByID("tasks", d.ID(), docdb.Fields{"title": "y"})
	require.NoError(t, err)
	assert.Equal(t, d.UpdatedAt(), u.UpdatedAt())
}

func TestUpdatedAtComparesInstants(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 500_000_000, time.UTC)
	db := docdb.New(store.NewMemoryStore(), docdb.WithClock(func() time.Time { return now }))

	require.NoError(t, db.ImportDatabase(docdb.Snapshot{"tasks": {
		{"_id": "no-millis", "createdAt": "2024-01-15T10:00:00Z", "updatedAt": "2024-01-15T10:00:00Z"},
		{"_id": "offset", "createdAt": "2024-01-15T12:00:00+05:00", "updatedAt": "2024-01-15T12:00:00+05:00"},
		{"_id": "future", "createdAt": "2024-01-15T09:00:00.000Z", "updatedAt": "2030-01-01T00:00:00.000Z"},
		{"_id": "garbage", "createdAt": "yesterday", "updatedAt": "yesterday"},
	}}))

	n, err := db.UpdateMany("tasks", nil, docdb.Fields{"status": "done"})
	require.NoError(t, err)
	require.Equal(t, 4, n)

	want := map[string]string{
		"no-millis": "2024-01-15T10:00:00.500Z",
		"offset":    "2024-01-15T10:00:00.500Z",
		"future":    "2030-01-01T00:00:00.000Z",
		"garbage":   "2024-01-15T10:00:00.500Z",
	}
	docs, err := db.FindAll("tasks", nil)
	require.NoError(t, err)
	for _, d := range docs {
		assert.Equal(t, want[d.ID()], d.UpdatedAt(), d.ID())
	}
}

func TestUpdateMany(t *testing.T) {
	db, kv := newDB(t)
	_, err := db.InsertMany("lists", []docdb.Fields{
		{"name": "Eggs", "checked": false},
		{"name": "Bread", "checked": false},
		{"name": "Milk", "checked": true},
	})
	require.NoError(t, err)

	n, err := db.UpdateMany("lists", docdb.Filter{"checked": false}, docdb.Fields{"checked": true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	unchecked, err := db.Count("lists", docdb.Filter{"checked": false})
	require.NoError(t, err)
	assert.Zero(t, unchecked)

	before := kv.sets
	n, err = db.UpdateMany("lists", docdb.Filter{"name": "Caviar"}, docdb.Fields{"checked": true})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, before, kv.sets)
}

func TestDeleteByIDIsIdempotent(t *testing.T) {
	db, _ := newDB(t)
	a, _ := db.InsertOne("photos", docdb.Fields{"title": "A"})
	b, _ := db.InsertOne("photos", docdb.Fields{"title": "B"})
	c, _ := db.InsertOne("photos", docdb.Fields{"title": "C"})

	ok, err := db.DeleteByID("photos", b.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.DeleteByID("photos", b.ID())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.DeleteByID("photos", "never-existed")
	require.NoError(t, err)
	assert.False(t, ok)

	docs, err := db.FindAll("photos", nil)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a.ID(), docs[0].ID())
	assert.Equal(t, c.ID(), docs[1].ID())
}

func TestDeleteMany(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertMany("sleepEntries", []docdb.Fields{
		{"userId": "emma", "duration": 10},
		{"userId": "jake", "duration": 10},
		{"userId": "emma", "duration": 9.5},
	})
	require.NoError(t, err)

	n, err := db.DeleteMany("sleepEntries", docdb.Filter{"userId": "emma"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := db.FindAll("sleepEntries", nil)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "jake", left[0]["userId"])

	n, err = db.DeleteMany("sleepEntries", docdb.Filter{"userId": "emma"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFilterSemantics(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertMany("tasks", []docdb.Fields{
		{"title": "Clean kitchen", "points": 20, "status": "pending"},
		{"title": "Grocery shopping", "points": 30, "status": "in-progress"},
		{"title": "Walk the dog", "points": 10, "status": "pending", "dueTime": nil},
	})
	require.NoError(t, err)

	all, err := db.FindAll("tasks", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	empty, err := db.FindAll("tasks", docdb.Filter{})
	require.NoError(t, err)
	assert.Equal(t, all, empty)

	tests := []struct {
		name   string
		filter docdb.Filter
		titles []string
	}{
		{"string", docdb.Filter{"status": "pending"}, []string{"Clean kitchen", "Walk the dog"}},
		{"int matches stored number", docdb.Filter{"points": 20}, []string{"Clean kitchen"}},
		{"all entries must match", docdb.Filter{"status": "pending", "points": 10}, []string{"Walk the dog"}},
		{"no loose equality", docdb.Filter{"points": "20"}, nil},
		{"null matches explicit null only", docdb.Filter{"dueTime": nil}, []string{"Walk the dog"}},
		{"unknown field", docdb.Filter{"color": "red"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			docs, err := db.FindAll("tasks", tc.filter)
			require.NoError(t, err)
			var titles []string
			for _, d := range docs {
				titles = append(titles, d["title"].(string))
			}
			assert.Equal(t, tc.titles, titles)

			n, err := db.Count("tasks", tc.filter)
			require.NoError(t, err)
			assert.Equal(t, len(docs), n)
		})
	}
}

func TestFilterDoesNotMatchArrayContainment(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertMany("events", []docdb.Fields{
		{"title": "Soccer Practice", "attendees": []string{"jake"}},
		{"title": "Pickup", "attendees": "jake"},
	})
	require.NoError(t, err)

	docs, err := db.FindAll("events", docdb.Filter{"attendees": "jake"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Pickup", docs[0]["title"])

	docs, err = db.FindAll("events", docdb.Filter{"attendees": []string{"jake"}})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFindOne(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertMany("users", []docdb.Fields{{"name": "Emma", "role": "child"}, {"name": "Jake", "role": "child"}})
	require.NoError(t, err)

	d, ok, err := db.FindOne("users", docdb.Filter{"role": "child"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Emma", d["name"])

	_, ok, err = db.FindOne("users", docdb.Filter{"role": "admin"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	db, _ := newDB(t)
	d, err := db.InsertOne("tasks", docdb.Fields{"title": "Original"})
	require.NoError(t, err)
	d["title"] = "mutated"

	docs, err := db.FindAll("tasks", nil)
	require.NoError(t, err)
	docs[0]["title"] = "mutated again"
	docs[0] = nil

	got, _, err := db.FindByID("tasks", d.ID())
	require.NoError(t, err)
	assert.Equal(t, "Original", got["title"])
}

func TestClearCollection(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertMany("tasks", []docdb.Fields{{"title": "a"}, {"title": "b"}})
	require.NoError(t, err)
	_, err = db.InsertOne("events", docdb.Fields{"title": "e"})
	require.NoError(t, err)

	require.NoError(t, db.ClearCollection("tasks"))
	require.NoError(t, db.ClearCollection("tasks"))

	n, err := db.Count("tasks", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = db.Count("events", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClearDatabase(t *testing.T) {
	db, _ := newDB(t)
	for _, c := range []string{"tasks", "events", "settings"} {
		_, err := db.InsertOne(c, docdb.Fields{"x": 1})
		require.NoError(t, err)
	}
	_, err := db.InsertOne("scratch", docdb.Fields{"x": 1})
	require.NoError(t, err)

	require.NoError(t, db.ClearDatabase())
	require.NoError(t, db.ClearDatabase())

	names, err := db.Collections()
	require.NoError(t, err)
	assert.Equal(t, []string{"scratch"}, names)
}

func TestExportImportRoundTrip(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertMany("tasks", []docdb.Fields{{"title": "a", "points": 5}, {"title": "b"}})
	require.NoError(t, err)
	_, err = db.InsertOne("events", docdb.Fields{"title": "e", "attendees": []string{"sarah", "emma"}})
	require.NoError(t, err)

	snap, err := db.ExportDatabase()
	require.NoError(t, err)
	assert.Len(t, snap, len(docdb.DefaultCollections))
	assert.NotNil(t, snap["meals"])
	assert.Empty(t, snap["meals"])

	require.NoError(t, db.ImportDatabase(snap))

	again, err := db.ExportDatabase()
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestImportOverwritesVerbatim(t *testing.T) {
	db, _ := newDB(t)
	_, err := db.InsertOne("tasks", docdb.Fields{"title": "old"})
	require.NoError(t, err)
	_, err = db.InsertOne("events", docdb.Fields{"title": "keep me"})
	require.NoError(t, err)

	err = db.ImportDatabase(docdb.Snapshot{
		"tasks": {
			{"_id": "1700000000000_abc123xyz", "createdAt": "2023-11-14T22:13:20.000Z", "updatedAt": "2023-11-14T22:13:20.000Z", "title": "restored"},
		},
		"bogus": {{"_id": "x"}},
	})
	require.NoError(t, err)

	tasks, err := db.FindAll("tasks", nil)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "1700000000000_abc123xyz", tasks[0].ID())
	assert.Equal(t, "2023-11-14T22:13:20.000Z", tasks[0].CreatedAt())

	events, err := db.FindAll("events", nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "keep me", events[0]["title"])

	n, err := db.Count("bogus", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportRejectsNilDocuments(t *testing.T) {
	db, kv := newDB(t)
	_, err := db.InsertOne("events", docdb.Fields{"title": "keep me"})
	require.NoError(t, err)
	sets := kv.sets

	err = db.ImportDatabase(docdb.Snapshot{
		"events": {{"_id": "e1", "title": "replaced"}},
		"tasks":  {{"_id": "a"}, nil},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, docdb.ErrCorrupt)
	var de *docdb.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tasks", de.Collection)
	assert.Equal(t, sets, kv.sets)

	tasks, err := db.FindAll("tasks", nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	events, err := db.FindAll("events", nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "keep me", events[0]["title"])
}

func TestCorruptPayloadFailsLoudly(t *testing.T) {
	kv := store.NewMemoryStore()
	db := docdb.New(kv)
	require.NoError(t, kv.Set(docdb.DefaultPrefix+"tasks", []byte("{not json")))

	_, err := db.FindAll("tasks", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, docdb.ErrCorrupt)
	var de *docdb.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tasks", de.Collection)

	_, err = db.InsertOne("tasks", docdb.Fields{"title": "x"})
	assert.ErrorIs(t, err, docdb.ErrCorrupt)

	require.NoError(t, kv.Set(docdb.DefaultPrefix+"events", []byte(`[{"_id":"a"}, 3]`)))
	_, err = db.Count("events", nil)
	assert.ErrorIs(t, err, docdb.ErrCorrupt)

	require.NoError(t, kv.Set(docdb.DefaultPrefix+"meals", []byte(`[null]`)))
	_, err = db.Count("meals", nil)
	assert.ErrorIs(t, err, docdb.ErrCorrupt)
}

func TestStorageErrorsPropagate(t *testing.T) {
	db, kv := newDB(t)
	quota := errors.New("quota exceeded")

	kv.failSet = quota
	_, err := db.InsertOne("photos", docdb.Fields{"title": "big"})
	require.Error(t, err)
	assert.ErrorIs(t, err, docdb.ErrStorage)
	assert.ErrorIs(t, err, quota)
	var se *docdb.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "write", se.Op)

	kv.failSet = nil
	kv.failGet = errors.New("medium unavailable")
	_, err = db.FindAll("photos", nil)
	assert.ErrorIs(t, err, docdb.ErrStorage)
}

func TestCustomPrefixAndCollections(t *testing.T) {
	kv := store.NewMemoryStore()
	db := docdb.New(kv, docdb.WithPrefix("test_"), docdb.WithCollections("notes"))
	_, err := db.InsertOne("notes", docdb.Fields{"body": "hi"})
	require.NoError(t, err)

	raw, err := kv.Get("test_notes")
	require.NoError(t, err)
	assert.NotNil(t, raw)

	snap, err := db.ExportDatabase()
	require.NoError(t, err)
	assert.Len(t, snap, 1)
	assert.Equal(t, []string{"notes"}, db.Names())
}

func TestIDGeneratorOption(t *testing.T) {
	n := 0
	db := docdb.New(store.NewMemoryStore(), docdb.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	d, err := db.InsertOne("tasks", docdb.Fields{})
	require.NoError(t, err)
	assert.Equal(t, "id-1", d.ID())
}
