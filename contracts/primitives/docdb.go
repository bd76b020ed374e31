package primitives

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/openomni/tck/tck"
)

// DocumentDatabaseContract defines the compliance suite for any provider
// exposing the DocumentDatabase capability: the fundamental CRUD
// operations of a document-oriented database.
func DocumentDatabaseContract() *tck.Contract {
	c := tck.NewContract("primitives", "document_database", "1.0.0", tck.Requirement{
		Capabilities: []reflect.Type{tck.Capability[DocumentDatabase]()},
	})
	c.Clause("insert_and_find_one",
		"An inserted document is findable by its fields.", docInsertAndFind)
	c.Clause("find_one_miss_is_absent",
		"Finding with a filter that matches nothing reports absence.", docFindMissing)
	c.Clause("update_one_applies_fields",
		"UpdateOne applies the update to the matched document.", docUpdateOne)
	c.Clause("delete_one_removes_document",
		"DeleteOne removes exactly the matched document.", docDeleteOne)
	c.Clause("find_many_filters_documents",
		"FindMany returns every document matching the filter and nothing else.", docFindMany)
	return c
}

func docProvider(ctx context.Context, tc *tck.TC) (DocumentDatabase, error) {
	env, err := tc.Env(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tck.ProviderAs[DocumentDatabase](env)
}

func docInsertAndFind(ctx context.Context, tc *tck.TC) error {
	db, err := docProvider(ctx, tc)
	if err != nil {
		return err
	}
	coll := "tck-coll-" + uuid.NewString()
	marker := uuid.NewString()

	id, err := db.InsertOne(ctx, coll, map[string]any{"marker": marker, "rank": 1})
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if id == "" {
		return tck.Violated("insert", "non-empty document id", "empty id")
	}
	doc, ok, err := db.FindOne(ctx, coll, map[string]any{"marker": marker})
	if err != nil {
		return fmt.Errorf("find: %w", err)
	}
	if !ok {
		return tck.Violated("find after insert", "document present", "absent")
	}
	if doc["marker"] != marker {
		return tck.Violated("found document marker", marker, doc["marker"])
	}
	return nil
}

func docFindMissing(ctx context.Context, tc *tck.TC) error {
	db, err := docProvider(ctx, tc)
	if err != nil {
		return err
	}
	_, ok, err := db.FindOne(ctx, "tck-coll-"+uuid.NewString(), map[string]any{"marker": uuid.NewString()})
	if err != nil {
		return fmt.Errorf("find: %w", err)
	}
	if ok {
		return tck.Violated("find with unmatched filter", "absent", "document present")
	}
	return nil
}

func docUpdateOne(ctx context.Context, tc *tck.TC) error {
	db, err := docProvider(ctx, tc)
	if err != nil {
		return err
	}
	coll := "tck-coll-" + uuid.NewString()
	marker := uuid.NewString()

	if _, err := db.InsertOne(ctx, coll, map[string]any{"marker": marker, "status": "new"}); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	matched, err := db.UpdateOne(ctx, coll, map[string]any{"marker": marker}, map[string]any{"status": "done"})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if !matched {
		return tck.Violated("update", "one document matched", "no match")
	}
	doc, ok, err := db.FindOne(ctx, coll, map[string]any{"marker": marker})
	if err != nil {
		return fmt.Errorf("find: %w", err)
	}
	if !ok || doc["status"] != "done" {
		return tck.Violated("status after update", `"done"`, fmt.Sprintf("%v", doc["status"]))
	}
	return nil
}

func docDeleteOne(ctx context.Context, tc *tck.TC) error {
	db, err := docProvider(ctx, tc)
	if err != nil {
		return err
	}
	coll := "tck-coll-" + uuid.NewString()
	marker := uuid.NewString()

	if _, err := db.InsertOne(ctx, coll, map[string]any{"marker": marker}); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if _, err := db.InsertOne(ctx, coll, map[string]any{"marker": "keep-" + marker}); err != nil {
		return fmt.Errorf("insert second: %w", err)
	}
	deleted, err := db.DeleteOne(ctx, coll, map[string]any{"marker": marker})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !deleted {
		return tck.Violated("delete", "one document deleted", "no match")
	}
	_, ok, err := db.FindOne(ctx, coll, map[string]any{"marker": marker})
	if err != nil {
		return fmt.Errorf("find deleted: %w", err)
	}
	if ok {
		return tck.Violated("find after delete", "absent", "document present")
	}
	_, ok, err = db.FindOne(ctx, coll, map[string]any{"marker": "keep-" + marker})
	if err != nil {
		return fmt.Errorf("find kept: %w", err)
	}
	if !ok {
		return tck.Violated("unmatched document after delete", "still present", "absent")
	}
	return nil
}

func docFindMany(ctx context.Context, tc *tck.TC) error {
	db, err := docProvider(ctx, tc)
	if err != nil {
		return err
	}
	coll := "tck-coll-" + uuid.NewString()
	group := uuid.NewString()

	for i := 0; i < 3; i++ {
		if _, err := db.InsertOne(ctx, coll, map[string]any{"group": group, "rank": i}); err != nil {
			return fmt.Errorf("insert #%d: %w", i+1, err)
		}
	}
	if _, err := db.InsertOne(ctx, coll, map[string]any{"group": "other", "rank": 99}); err != nil {
		return fmt.Errorf("insert outsider: %w", err)
	}
	docs, err := db.FindMany(ctx, coll, map[string]any{"group": group})
	if err != nil {
		return fmt.Errorf("find many: %w", err)
	}
	if len(docs) != 3 {
		return tck.Violated("matched document count", 3, len(docs))
	}
	for _, doc := range docs {
		if doc["group"] != group {
			return tck.Violated("matched document group", group, doc["group"])
		}
	}
	return nil
}
