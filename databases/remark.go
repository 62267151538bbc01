package databases

// go generate: mockery --name RemarkDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/violation-case-api/models"
)

const remarkName = "remarks"

// RemarkDatabase contains the methods to use with the remark database. Remarks are
// append only.
type RemarkDatabase interface {
	Append(ctx context.Context, r *models.Remark) error
	FindByCase(ctx context.Context, caseID string) ([]models.Remark, error)
}

type remarkDatabase struct {
	db DatabaseHelper
}

// NewRemarkDatabase initializes a new instance of remark database with the provided db connection
func NewRemarkDatabase(db DatabaseHelper) RemarkDatabase {
	return &remarkDatabase{
		db: db,
	}
}

func (r *remarkDatabase) Append(ctx context.Context, remark *models.Remark) error {
	if remark.ID.IsZero() {
		remark.ID = primitive.NewObjectID()
	}
	_, err := r.db.Collection(remarkName).InsertOne(ctx, remark)
	return err
}

// FindByCase returns the remarks of a case oldest first
func (r *remarkDatabase) FindByCase(ctx context.Context, caseID string) ([]models.Remark, error) {
	var remarks []models.Remark
	opts := options.Find().SetSort(bson.D{{Key: "remark.createdAt", Value: 1}})
	curr, err := r.db.Collection(remarkName).Find(ctx, bson.M{"remark.caseID": caseID}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &remarks)
	if err != nil {
		return nil, err
	}
	return remarks, nil
}
