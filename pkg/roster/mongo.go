package roster

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pawanm992002/nimantran-backend/pkg/card"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// MongoStore is the production roster store, backed by the events collection.
type MongoStore struct {
	events *mongo.Collection
}

// NewMongoStore creates a store over the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{events: db.Collection("events")}
}

// mongoEvent is the persisted shape of an event's roster fields.
type mongoEvent struct {
	ID               primitive.ObjectID `bson:"_id"`
	CustomerID       primitive.ObjectID `bson:"customerId,omitempty"`
	Guests           []card.Guest       `bson:"guests"`
	ProcessingStatus Status             `bson:"processingStatus"`
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, eventID string) (*Event, error) {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return nil, errors.New(errors.ErrCodeValidation, "invalid event id %q", eventID)
	}

	var ev mongoEvent
	if err := s.events.FindOne(ctx, bson.M{"_id": oid}).Decode(&ev); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New(errors.ErrCodeEventNotFound, "Event not found")
		}
		return nil, errors.Wrap(errors.ErrCodePersistenceFailed, err, "load event %s", eventID)
	}

	out := &Event{
		ID:               ev.ID.Hex(),
		Guests:           ev.Guests,
		ProcessingStatus: ev.ProcessingStatus,
	}
	if !ev.CustomerID.IsZero() {
		out.CustomerID = ev.CustomerID.Hex()
	}
	return out, nil
}

// SetProcessing implements Store.
func (s *MongoStore) SetProcessing(ctx context.Context, eventID string) error {
	oid, err := primitive.ObjectIDFromHex(eventID)
	if err != nil {
		return errors.New(errors.ErrCodeValidation, "invalid event id %q", eventID)
	}

	res, err := s.events.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{"processingStatus": StatusProcessing},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, err, "mark event %s processing", eventID)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeEventNotFound, "Event not found")
	}
	return nil
}

// Upsert implements Store. The merge runs in application code against the
// freshly loaded roster; the orchestrator guarantees a single writer per
// event, so read-merge-write is safe here.
func (s *MongoStore) Upsert(ctx context.Context, eventID string, guests []card.Guest) (string, error) {
	ev, err := s.Get(ctx, eventID)
	if err != nil {
		return "", err
	}

	merged := merge(ev.Guests, guests)

	oid, _ := primitive.ObjectIDFromHex(eventID)
	_, err = s.events.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"guests":           merged,
			"processingStatus": StatusCompleted,
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodePersistenceFailed, err, "update roster for event %s", eventID)
	}
	return ev.CustomerID, nil
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
