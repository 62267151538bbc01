package databases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/databases/mocks"
	"github.com/linesmerrill/violation-case-api/models"
)

func TestUserDatabase_FindByID(t *testing.T) {
	oid := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	srHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = oid.Hex()
		(*arg).Details.Roles = []string{models.RoleRegistrar}
	})
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": bson.M{"$in": bson.A{oid, oid.Hex()}}}).Return(srHelper)
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": "legacy-id"}).Return(srHelper)
	dbHelper.On("Collection", "users").Return(collectionHelper)

	userDB := databases.NewUserDatabase(dbHelper)

	user, err := userDB.FindByID(context.Background(), oid.Hex())
	assert.NoError(t, err)
	assert.True(t, user.HasRole(models.RoleRegistrar))

	_, err = userDB.FindByID(context.Background(), "legacy-id")
	assert.NoError(t, err)
	collectionHelper.AssertExpectations(t)
}
