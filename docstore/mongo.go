package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// revField carries the optimistic-concurrency revision used by Transact.
const revField = "_rev"

// maxTxnAttempts bounds Transact retries after a lost race.
const maxTxnAttempts = 5

// Mongo stores documents in MongoDB with the string id as _id.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return snapshot(raw), nil
}

func (m *Mongo) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	if _, err := m.db.Collection(collection).InsertOne(ctx, withID(id, doc)); err != nil {
		return "", fmt.Errorf("add %s: %w", collection, err)
	}
	return id, nil
}

func (m *Mongo) Set(ctx context.Context, collection, id string, doc Document) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := m.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, withID(id, doc), opts); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Create(ctx context.Context, collection, id string, doc Document) error {
	_, err := m.db.Collection(collection).InsertOne(ctx, withID(id, doc))
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, fields Document) error {
	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) Find(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	out := []Snapshot{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, snapshot(raw))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor %s: %w", collection, err)
	}
	return out, nil
}

// Transact reads the document with its revision, applies fn and replaces it
// only if the revision is unchanged. A lost race is retried with a fresh read.
func (m *Mongo) Transact(ctx context.Context, collection, id string, fn MutateFunc) error {
	coll := m.db.Collection(collection)
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		var raw bson.M
		err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("transact read %s/%s: %w", collection, id, err)
		}

		rev, hasRev := revision(raw)
		next, err := fn(snapshot(raw).Data)
		if err != nil {
			return err
		}

		filter := bson.M{"_id": id, revField: rev}
		if !hasRev {
			filter = bson.M{"_id": id, revField: bson.M{"$exists": false}}
		}
		body := withID(id, next)
		body[revField] = rev + 1

		res, err := coll.ReplaceOne(ctx, filter, body)
		if err != nil {
			return fmt.Errorf("transact write %s/%s: %w", collection, id, err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}
	return ErrConflict
}

func withID(id string, doc Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		out[k] = v
	}
	out["_id"] = id
	delete(out, revField)
	return out
}

func revision(raw bson.M) (int64, bool) {
	switch v := raw[revField].(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func snapshot(raw bson.M) Snapshot {
	id := ""
	switch v := raw["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	}
	data := Document{}
	for k, v := range raw {
		if k == "_id" || k == revField {
			continue
		}
		data[k] = normalize(v)
	}
	return Snapshot{ID: id, Data: data}
}

// normalize turns driver-specific container and date types into the plain
// Go shapes the rest of the code expects.
func normalize(v any) any {
	switch x := v.(type) {
	case bson.M:
		out := Document{}
		for k, vv := range x {
			out[k] = normalize(vv)
		}
		return out
	case bson.D:
		out := Document{}
		for _, e := range x {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i := range x {
			out[i] = normalize(x[i])
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	}
	return v
}
