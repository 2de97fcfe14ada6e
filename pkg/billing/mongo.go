package billing

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// MongoLedger is the production ledger: balances on the users collection,
// one document per transaction in the transactions collection.
type MongoLedger struct {
	users        *mongo.Collection
	transactions *mongo.Collection
}

// NewMongoLedger creates a ledger over the given database.
func NewMongoLedger(db *mongo.Database) *MongoLedger {
	return &MongoLedger{
		users:        db.Collection("users"),
		transactions: db.Collection("transactions"),
	}
}

// Credits implements Ledger.
func (l *MongoLedger) Credits(ctx context.Context, userID string) (float64, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return 0, errors.New(errors.ErrCodeValidation, "invalid user id %q", userID)
	}

	var user struct {
		Credits float64 `bson:"credits"`
	}
	if err := l.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, errors.New(errors.ErrCodeUserNotFound, "User not found")
		}
		return 0, errors.Wrap(errors.ErrCodePersistenceFailed, err, "load user %s", userID)
	}
	return user.Credits, nil
}

// Debit implements Ledger.
func (l *MongoLedger) Debit(ctx context.Context, tx Transaction) error {
	oid, err := primitive.ObjectIDFromHex(tx.SenderID)
	if err != nil {
		return errors.New(errors.ErrCodeValidation, "invalid user id %q", tx.SenderID)
	}

	res, err := l.users.UpdateByID(ctx, oid, bson.M{
		"$inc": bson.M{"credits": -tx.Amount},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, err, "debit user %s", tx.SenderID)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeUserNotFound, "User not found")
	}

	if _, err := l.transactions.InsertOne(ctx, tx); err != nil {
		return errors.Wrap(errors.ErrCodePersistenceFailed, err, "record transaction")
	}
	return nil
}

// Ensure MongoLedger implements Ledger.
var _ Ledger = (*MongoLedger)(nil)
