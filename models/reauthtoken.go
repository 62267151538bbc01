package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ReauthToken stores a hashed one-time token sent to an applicant when their case is
// marked incomplete. Redeeming it yields a short lived applicant session.
type ReauthToken struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	CaseID     string              `bson:"caseID" json:"caseID"`
	Email      string              `bson:"email" json:"email"`
	NationalID string              `bson:"nationalId,omitempty" json:"nationalId,omitempty"`
	UserID     string              `bson:"userID,omitempty" json:"userID,omitempty"`
	TokenHash  string              `bson:"tokenHash" json:"-"`
	ExpiresAt  primitive.DateTime  `bson:"expiresAt" json:"expiresAt"`
	UsedAt     *primitive.DateTime `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
	CreatedAt  primitive.DateTime  `bson:"createdAt" json:"createdAt"`
}
