package databases

// go generate: mockery --name CaseDatabase

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/violation-case-api/models"
)

const caseName = "cases"

// ErrVersionConflict is returned when a versioned update finds the case changed underneath it
var ErrVersionConflict = errors.New("case was modified by another request")

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
	FindByTrackingCode(ctx context.Context, code string) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, c *models.Case) error
	ApplyChanges(ctx context.Context, id string, version int32, upd models.CaseUpdate) error
	AssignIfUnset(ctx context.Context, id string, slot models.AssignmentSlot, userID string) (bool, error)
	SetAssignment(ctx context.Context, id string, slot models.AssignmentSlot, userID string) error
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

// FindByID returns mongo.ErrNoDocuments for a malformed id as well as a missing case
func (c *caseDatabase) FindByID(ctx context.Context, id string) (*models.Case, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}
	return c.findOne(ctx, bson.M{"_id": oid})
}

func (c *caseDatabase) FindByTrackingCode(ctx context.Context, code string) (*models.Case, error) {
	return c.findOne(ctx, bson.M{"case.trackingCode": code})
}

func (c *caseDatabase) findOne(ctx context.Context, filter interface{}) (*models.Case, error) {
	cs := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter).Decode(&cs)
	if err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	var cases []models.Case
	curr, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) InsertOne(ctx context.Context, cs *models.Case) error {
	_, err := c.db.Collection(caseName).InsertOne(ctx, cs)
	return err
}

// ApplyChanges writes upd only if the stored version still equals version, bumping it
// on success.
func (c *caseDatabase) ApplyChanges(ctx context.Context, id string, version int32, upd models.CaseUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	res, err := c.db.Collection(caseName).UpdateOne(ctx,
		bson.M{"_id": oid, "__v": version},
		bson.M{"$set": updateFields(upd), "$inc": bson.M{"__v": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to update case: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func updateFields(upd models.CaseUpdate) bson.M {
	set := bson.M{
		"case.updatedBy": upd.UpdatedBy,
		"case.updatedAt": primitive.NewDateTimeFromTime(upd.UpdatedAt),
	}
	if upd.Status != "" {
		set["case.status"] = upd.Status
	}
	if upd.ClosedAt != nil {
		set["case.closedAt"] = primitive.NewDateTimeFromTime(*upd.ClosedAt)
		set["case.closedBy"] = upd.ClosedBy
	}
	if upd.Violation != nil {
		set["case.description.violationType"] = upd.Violation.ViolationType
		set["case.description.subViolation"] = upd.Violation.SubViolation
	}
	return set
}

// AssignIfUnset writes userID into slot only when the slot is null or empty. The
// returned bool is true for the request that won the slot.
func (c *caseDatabase) AssignIfUnset(ctx context.Context, id string, slot models.AssignmentSlot, userID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, mongo.ErrNoDocuments
	}
	res, err := c.db.Collection(caseName).UpdateOne(ctx,
		bson.M{"_id": oid, string(slot): bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{string(slot): userID}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to assign %s: %w", slot, err)
	}
	return res.ModifiedCount == 1, nil
}

// SetAssignment overwrites slot unconditionally, used for explicit reassignment
func (c *caseDatabase) SetAssignment(ctx context.Context, id string, slot models.AssignmentSlot, userID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	_, err = c.db.Collection(caseName).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{string(slot): userID}},
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", slot, err)
	}
	return nil
}
