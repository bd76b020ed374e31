package memory

import (
	"context"
	"maps"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/openomni/tck/contracts/primitives"
	"github.com/openomni/tck/tck"
)

// DocDB is an in-memory document database. Filters match documents by
// field equality; the reserved "_id" field holds the assigned id.
type DocDB struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
}

// NewDocDB returns an empty database.
func NewDocDB() *DocDB {
	return &DocDB{collections: make(map[string][]map[string]any)}
}

func matches(doc, filter map[string]any) bool {
	for field, want := range filter {
		if doc[field] != want {
			return false
		}
	}
	return true
}

func (db *DocDB) InsertOne(_ context.Context, collection string, doc map[string]any) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	stored := maps.Clone(doc)
	id := uuid.NewString()
	stored["_id"] = id
	db.collections[collection] = append(db.collections[collection], stored)
	return id, nil
}

func (db *DocDB) FindOne(_ context.Context, collection string, filter map[string]any) (map[string]any, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, doc := range db.collections[collection] {
		if matches(doc, filter) {
			return maps.Clone(doc), true, nil
		}
	}
	return nil, false, nil
}

func (db *DocDB) UpdateOne(_ context.Context, collection string, filter, update map[string]any) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, doc := range db.collections[collection] {
		if matches(doc, filter) {
			for field, value := range update {
				if field == "_id" {
					continue
				}
				doc[field] = value
			}
			return true, nil
		}
	}
	return false, nil
}

func (db *DocDB) DeleteOne(_ context.Context, collection string, filter map[string]any) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	docs := db.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			db.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (db *DocDB) FindMany(_ context.Context, collection string, filter map[string]any) ([]map[string]any, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []map[string]any
	for _, doc := range db.collections[collection] {
		if matches(doc, filter) {
			out = append(out, maps.Clone(doc))
		}
	}
	return out, nil
}

// DocDBFixture builds a fixture over NewDocDB, one database per clause.
func DocDBFixture() tck.Fixture {
	return tck.Fixture{
		Shape: tck.Shape{
			Provider: reflect.TypeOf((*DocDB)(nil)),
		},
		New: func(context.Context) (tck.Factory, error) {
			db := NewDocDB()
			return func(context.Context, tck.Params) (*tck.Env, error) {
				return &tck.Env{Provider: db}, nil
			}, nil
		},
	}
}

var _ primitives.DocumentDatabase = (*DocDB)(nil)
