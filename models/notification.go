package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification holds the structure for the notifications collection in mongo.
// DedupeKey is unique, a second notify with the same key is a no-op.
type Notification struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userID" bson:"userID"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Link      string             `json:"link" bson:"link"`
	DedupeKey string             `json:"dedupeKey" bson:"dedupeKey"`
	Seen      bool               `json:"seen" bson:"seen"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Email is one outgoing message rendered into the generic email template
type Email struct {
	To         string
	ToName     string
	Subject    string
	Body       string
	ActionURL  string
	ActionText string
}
