package workflow

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/violation-case-api/databases"
)

// TxRunner runs fn as one unit of work. Stores called with the ctx handed to fn take
// part in the unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTx struct {
	client databases.ClientHelper
}

// NewMongoTx runs units of work in a mongo multi-document transaction. It needs a
// replica set.
func NewMongoTx(client databases.ClientHelper) TxRunner {
	return &mongoTx{client: client}
}

func (t *mongoTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

type directTx struct{}

// NewDirectTx runs fn without a transaction. The per-case lease and the version check
// still serialize writers, but a crash between writes is not rolled back.
func NewDirectTx() TxRunner {
	return directTx{}
}

func (directTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
