package databases

// go generate: mockery --name ReauthTokenDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/models"
)

const reauthTokenName = "reauthtokens"

// ReauthTokenDatabase contains the methods to use with the re-auth token database
type ReauthTokenDatabase interface {
	InsertOne(ctx context.Context, t *models.ReauthToken) error
	FindActiveByHash(ctx context.Context, hash string, now time.Time) (*models.ReauthToken, error)
	MarkUsed(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type reauthTokenDatabase struct {
	db DatabaseHelper
}

// NewReauthTokenDatabase initializes a new instance of re-auth token database with the provided db connection
func NewReauthTokenDatabase(db DatabaseHelper) ReauthTokenDatabase {
	return &reauthTokenDatabase{
		db: db,
	}
}

func (r *reauthTokenDatabase) InsertOne(ctx context.Context, t *models.ReauthToken) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.db.Collection(reauthTokenName).InsertOne(ctx, t)
	return err
}

// FindActiveByHash returns an unused, unexpired token with the given hash
func (r *reauthTokenDatabase) FindActiveByHash(ctx context.Context, hash string, now time.Time) (*models.ReauthToken, error) {
	token := &models.ReauthToken{}
	err := r.db.Collection(reauthTokenName).FindOne(ctx, bson.M{
		"tokenHash": hash,
		"usedAt":    bson.M{"$exists": false},
		"expiresAt": bson.M{"$gt": primitive.NewDateTimeFromTime(now)},
	}).Decode(&token)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// MarkUsed stamps usedAt once. A false result means another redeem got there first.
func (r *reauthTokenDatabase) MarkUsed(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	res, err := r.db.Collection(reauthTokenName).UpdateOne(ctx,
		bson.M{"_id": id, "usedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"usedAt": primitive.NewDateTimeFromTime(now)}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// DeleteExpired removes tokens that expired before the given time
func (r *reauthTokenDatabase) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.db.Collection(reauthTokenName).DeleteMany(ctx, bson.M{
		"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(before)},
	})
}
