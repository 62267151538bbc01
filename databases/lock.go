package databases

// go generate: mockery --name LockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lockName = "locks"

// LockDatabase hands out named leases stored in mongo. A lease is free once it has
// expired or been released by its owner.
type LockDatabase interface {
	TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, owner string) error
}

type lockDatabase struct {
	db  DatabaseHelper
	now func() time.Time
}

// NewLockDatabase initializes a new instance of lock database with the provided db connection
func NewLockDatabase(db DatabaseHelper) LockDatabase {
	return &lockDatabase{
		db:  db,
		now: time.Now,
	}
}

// TryAcquireLock takes the lease when it is missing, expired or already ours. When
// another owner holds it the upsert collides on _id and the lock is reported as busy.
func (l *lockDatabase) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := l.now()
	_, err := l.db.Collection(lockName).UpdateOne(ctx,
		bson.M{
			"_id": name,
			"$or": bson.A{
				bson.M{"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(now)}},
				bson.M{"owner": owner},
			},
		},
		bson.M{"$set": bson.M{
			"owner":     owner,
			"expiresAt": primitive.NewDateTimeFromTime(now.Add(ttl)),
		}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseLock drops the lease if owner still holds it
func (l *lockDatabase) ReleaseLock(ctx context.Context, name, owner string) error {
	return l.db.Collection(lockName).DeleteOne(ctx, bson.M{"_id": name, "owner": owner})
}
