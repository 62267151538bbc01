package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AuditLog is a single append-only audit trail entry
type AuditLog struct {
	ID         primitive.ObjectID     `json:"_id" bson:"_id,omitempty"`
	Action     string                 `json:"action" bson:"action"`
	EntityType string                 `json:"entityType" bson:"entityType"`
	EntityID   string                 `json:"entityID" bson:"entityID"`
	ActorID    string                 `json:"actorID" bson:"actorID"`
	ActorEmail string                 `json:"actorEmail,omitempty" bson:"actorEmail,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt  primitive.DateTime     `json:"createdAt" bson:"createdAt"`
}
