package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the case workflow relies on. The unique
// (caseID, sequenceNo) index rejects a duplicate hearing number if two writers ever
// get past the case lock.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	indexes := map[string][]mongo.IndexModel{
		caseName: {
			{Keys: bson.D{{Key: "case.trackingCode", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "case.status", Value: 1}, {Key: "case.createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "case.description.district", Value: 1}}},
		},
		hearingName: {
			{Keys: bson.D{{Key: "hearing.caseID", Value: 1}, {Key: "hearing.sequenceNo", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "hearing.isActive", Value: 1}, {Key: "hearing.scheduledAt", Value: 1}}},
		},
		remarkName: {
			{Keys: bson.D{{Key: "remark.caseID", Value: 1}, {Key: "remark.createdAt", Value: 1}}},
		},
		notificationName: {
			{Keys: bson.D{{Key: "dedupeKey", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userID", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		reauthTokenName: {
			{Keys: bson.D{{Key: "tokenHash", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		auditLogName: {
			{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityID", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if err := db.Collection(coll).CreateIndexes(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
