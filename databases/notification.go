package databases

// go generate: mockery --name NotificationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/violation-case-api/models"
)

const notificationName = "notifications"

// NotificationDatabase contains the methods to use with the notification database
type NotificationDatabase interface {
	InsertIfAbsent(ctx context.Context, n *models.Notification) (bool, error)
	FindByUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
}

type notificationDatabase struct {
	db DatabaseHelper
}

// NewNotificationDatabase initializes a new instance of notification database with the provided db connection
func NewNotificationDatabase(db DatabaseHelper) NotificationDatabase {
	return &notificationDatabase{
		db: db,
	}
}

// InsertIfAbsent stores n unless a notification with the same dedupe key exists. It
// reports whether a new document was written.
func (nd *notificationDatabase) InsertIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	res, err := nd.db.Collection(notificationName).UpdateOne(ctx,
		bson.M{"dedupeKey": n.DedupeKey},
		bson.M{"$setOnInsert": bson.M{
			"userID":    n.UserID,
			"title":     n.Title,
			"message":   n.Message,
			"link":      n.Link,
			"dedupeKey": n.DedupeKey,
			"seen":      false,
			"createdAt": n.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// FindByUser returns the newest notifications of a user first
func (nd *notificationDatabase) FindByUser(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	var notifications []models.Notification
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	curr, err := nd.db.Collection(notificationName).Find(ctx, bson.M{"userID": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &notifications)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
