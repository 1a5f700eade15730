package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is a SessionStore backed by MongoDB.
type MongoStore struct {
	coll *mongo.Collection
}

var _ SessionStore = (*MongoStore)(nil)

// NewMongoStore creates a Mongo-backed session store.
// dbName defaults to "stepflow" if empty, collName defaults to
// "sessions".
func NewMongoStore(client *mongo.Client, dbName, collName string) *MongoStore {
	if dbName == "" {
		dbName = "stepflow"
	}
	if collName == "" {
		collName = "sessions"
	}
	return &MongoStore{coll: client.Database(dbName).Collection(collName)}
}

type mongoSessionDoc struct {
	ID           string `bson:"_id"`
	WorkflowID   string `bson:"workflow_id"`
	WorkflowName string `bson:"workflow_name,omitempty"`
	SessionState []byte `bson:"session_state,omitempty"`
	Runs         []byte `bson:"runs,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func toMongoDoc(rec *SessionRecord) (*mongoSessionDoc, error) {
	state, err := encodeValue(rec.SessionState)
	if err != nil {
		return nil, err
	}
	runs, err := encodeValue(rec.Runs)
	if err != nil {
		return nil, err
	}
	return &mongoSessionDoc{
		ID:           rec.SessionID,
		WorkflowID:   rec.WorkflowID,
		WorkflowName: rec.WorkflowName,
		SessionState: state,
		Runs:         runs,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func fromMongoDoc(doc *mongoSessionDoc) (*SessionRecord, error) {
	state, err := decodeValue[map[string]any](doc.SessionState)
	if err != nil {
		return nil, err
	}
	runs, err := decodeValue[[]RunRecord](doc.Runs)
	if err != nil {
		return nil, err
	}
	return &SessionRecord{
		SessionID:    doc.ID,
		WorkflowID:   doc.WorkflowID,
		WorkflowName: doc.WorkflowName,
		SessionState: state,
		Runs:         runs,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (s *MongoStore) Upsert(ctx context.Context, rec *SessionRecord) error {
	doc, err := toMongoDoc(rec)
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (s *MongoStore) Read(ctx context.Context, sessionID string) (*SessionRecord, error) {
	var doc mongoSessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return fromMongoDoc(&doc)
}

func (s *MongoStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}

func (s *MongoStore) List(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error) {
	q := bson.M{}
	if filter.WorkflowID != "" {
		q["workflow_id"] = filter.WorkflowID
	}

	cur, err := s.coll.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []*SessionRecord
	for cur.Next(ctx) {
		var doc mongoSessionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := fromMongoDoc(&doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, cur.Err()
}
