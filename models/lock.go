package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Lock is a lease held by one owner until ExpiresAt. Used for per-case mutation and
// for scheduled jobs that must run on a single instance.
type Lock struct {
	Name      string             `bson:"_id"`
	Owner     string             `bson:"owner"`
	ExpiresAt primitive.DateTime `bson:"expiresAt"`
}
