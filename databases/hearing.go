package databases

// go generate: mockery --name HearingDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/violation-case-api/models"
)

const hearingName = "hearings"

// HearingDatabase contains the methods to use with the hearing database
type HearingDatabase interface {
	FindByCase(ctx context.Context, caseID string) ([]models.Hearing, error)
	LatestByCase(ctx context.Context, caseID string) (*models.Hearing, error)
	CountByCase(ctx context.Context, caseID string) (int64, error)
	Create(ctx context.Context, h *models.Hearing) error
	BulkDeactivate(ctx context.Context, caseID string) (int64, error)
	FindActiveBetween(ctx context.Context, from, to time.Time) ([]models.Hearing, error)
}

type hearingDatabase struct {
	db DatabaseHelper
}

// NewHearingDatabase initializes a new instance of hearing database with the provided db connection
func NewHearingDatabase(db DatabaseHelper) HearingDatabase {
	return &hearingDatabase{
		db: db,
	}
}

// FindByCase returns the hearings of a case in sequence order
func (h *hearingDatabase) FindByCase(ctx context.Context, caseID string) ([]models.Hearing, error) {
	return h.find(ctx, bson.M{"hearing.caseID": caseID},
		options.Find().SetSort(bson.D{{Key: "hearing.sequenceNo", Value: 1}}))
}

// LatestByCase returns the hearing with the highest sequence number, or nil when the
// case has none.
func (h *hearingDatabase) LatestByCase(ctx context.Context, caseID string) (*models.Hearing, error) {
	hearing := &models.Hearing{}
	opts := options.FindOne().SetSort(bson.D{{Key: "hearing.sequenceNo", Value: -1}})
	err := h.db.Collection(hearingName).FindOne(ctx, bson.M{"hearing.caseID": caseID}, opts).Decode(&hearing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return hearing, nil
}

func (h *hearingDatabase) CountByCase(ctx context.Context, caseID string) (int64, error) {
	return h.db.Collection(hearingName).CountDocuments(ctx, bson.M{"hearing.caseID": caseID})
}

func (h *hearingDatabase) Create(ctx context.Context, hearing *models.Hearing) error {
	if hearing.ID.IsZero() {
		hearing.ID = primitive.NewObjectID()
	}
	_, err := h.db.Collection(hearingName).InsertOne(ctx, hearing)
	return err
}

// BulkDeactivate clears isActive on every hearing of the case
func (h *hearingDatabase) BulkDeactivate(ctx context.Context, caseID string) (int64, error) {
	res, err := h.db.Collection(hearingName).UpdateMany(ctx,
		bson.M{"hearing.caseID": caseID, "hearing.isActive": true},
		bson.M{"$set": bson.M{"hearing.isActive": false}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindActiveBetween returns active hearings scheduled in [from, to)
func (h *hearingDatabase) FindActiveBetween(ctx context.Context, from, to time.Time) ([]models.Hearing, error) {
	return h.find(ctx, bson.M{
		"hearing.isActive": true,
		"hearing.scheduledAt": bson.M{
			"$gte": primitive.NewDateTimeFromTime(from),
			"$lt":  primitive.NewDateTimeFromTime(to),
		},
	})
}

func (h *hearingDatabase) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Hearing, error) {
	var hearings []models.Hearing
	curr, err := h.db.Collection(hearingName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &hearings)
	if err != nil {
		return nil, err
	}
	return hearings, nil
}
