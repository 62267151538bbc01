package databases

// go generate: mockery --name UserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByRole(ctx context.Context, role string) ([]models.User, error)
	InsertOne(ctx context.Context, u *models.User) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

// FindByID matches both ObjectID and plain string ids
func (u *userDatabase) FindByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := u.db.Collection(userName).FindOne(ctx, idFilter(id)).Decode(&user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByRole returns every active user holding role
func (u *userDatabase) FindByRole(ctx context.Context, role string) ([]models.User, error) {
	var users []models.User
	curr, err := u.db.Collection(userName).Find(ctx, bson.M{"user.roles": role, "user.active": true})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userDatabase) InsertOne(ctx context.Context, user *models.User) error {
	_, err := u.db.Collection(userName).InsertOne(ctx, user)
	return err
}

func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}
