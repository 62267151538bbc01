package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/policy"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		expected policy.Category
		admin    bool
	}{
		{name: "no roles", roles: nil, expected: policy.ApplicantOnly},
		{name: "applicant", roles: []string{"applicant"}, expected: policy.ApplicantOnly},
		{name: "unknown role", roles: []string{"viewer"}, expected: policy.ApplicantOnly},
		{name: "hearing officer", roles: []string{"hearing_officer"}, expected: policy.HearingDivisionOnly},
		{name: "registrar", roles: []string{"registrar"}, expected: policy.UnrestrictedStaff},
		{name: "registrar and officer", roles: []string{"hearing_officer", "registrar"}, expected: policy.UnrestrictedStaff},
		{name: "admin", roles: []string{"admin"}, expected: policy.UnrestrictedStaff, admin: true},
		{name: "super admin officer", roles: []string{"hearing_officer", "super_admin"}, expected: policy.UnrestrictedStaff, admin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.Classify(tt.roles))
			assert.Equal(t, tt.admin, policy.IsAdminGrade(tt.roles))
		})
	}
}

func TestOwnsCase(t *testing.T) {
	c := &models.Case{Details: models.CaseDetails{
		Applicant: models.Applicant{
			Email:      "Owner@Example.org",
			NationalID: "NID-1",
			UserID:     "user-1",
		},
		Description: models.Description{NationalID: "NID-2"},
	}}

	tests := []struct {
		name     string
		actor    policy.Actor
		expected bool
	}{
		{name: "linked account", actor: policy.Actor{ID: "user-1"}, expected: true},
		{name: "email ignores case", actor: policy.Actor{ID: "other", Email: "owner@example.ORG"}, expected: true},
		{name: "applicant national id", actor: policy.Actor{ID: "other", NationalID: "NID-1"}, expected: true},
		{name: "description national id", actor: policy.Actor{ID: "other", NationalID: "NID-2"}, expected: true},
		{name: "stranger", actor: policy.Actor{ID: "other", Email: "x@example.org", NationalID: "NID-9"}, expected: false},
		{name: "empty identity", actor: policy.Actor{}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.OwnsCase(tt.actor, c))
		})
	}
}

func TestCanView(t *testing.T) {
	c := &models.Case{ID: primitive.NewObjectID(), Details: models.CaseDetails{
		Applicant:   models.Applicant{UserID: "applicant-1"},
		Description: models.Description{District: "North"},
	}}

	tests := []struct {
		name     string
		actor    policy.Actor
		expected bool
	}{
		{name: "registrar", actor: policy.Actor{Roles: []string{"registrar"}}, expected: true},
		{name: "officer same district", actor: policy.Actor{District: " north ", Roles: []string{"hearing_officer"}}, expected: true},
		{name: "officer other district", actor: policy.Actor{District: "South", Roles: []string{"hearing_officer"}}, expected: false},
		{name: "officer without district", actor: policy.Actor{Roles: []string{"hearing_officer"}}, expected: false},
		{name: "reauth session for this case", actor: policy.Actor{ID: "applicant-1", CaseID: c.ID.Hex()}, expected: true},
		{name: "reauth session for another case", actor: policy.Actor{ID: "applicant-1", CaseID: primitive.NewObjectID().Hex()}, expected: false},
		{name: "admin officer other district", actor: policy.Actor{District: "South", Roles: []string{"hearing_officer", "admin"}}, expected: true},
		{name: "owner", actor: policy.Actor{ID: "applicant-1"}, expected: true},
		{name: "other applicant", actor: policy.Actor{ID: "applicant-2"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.CanView(tt.actor, c))
		})
	}
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, policy.ListFilter(policy.Actor{Roles: []string{"registrar"}}))

	officer := policy.ListFilter(policy.Actor{District: "North", Roles: []string{"hearing_officer"}})
	assert.Contains(t, officer, "case.description.district")

	applicant := policy.ListFilter(policy.Actor{ID: "u1", Email: "a@b.org", NationalID: "N1"})
	or, ok := applicant["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, 4)

	nobody := policy.ListFilter(policy.Actor{})
	assert.NotContains(t, nobody, "$or")
}

func TestCanView_OfficerWithoutDistrict(t *testing.T) {
	officer := policy.Actor{ID: "officer-2", Roles: []string{"hearing_officer"}}
	undistricted := &models.Case{ID: primitive.NewObjectID()}

	assert.False(t, policy.DistrictMatches(officer, undistricted))
	assert.False(t, policy.CanView(officer, undistricted))
	assert.Equal(t, bson.M{"_id": bson.M{"$exists": false}}, policy.ListFilter(officer))

	blank := policy.Actor{ID: "officer-3", District: "  ", Roles: []string{"hearing_officer"}}
	assert.False(t, policy.CanView(blank, undistricted))
	assert.Equal(t, bson.M{"_id": bson.M{"$exists": false}}, policy.ListFilter(blank))
}

func TestListFilter_ReauthSession(t *testing.T) {
	id := primitive.NewObjectID()
	f := policy.ListFilter(policy.Actor{ID: "reauth:1", Email: "a@b.org", CaseID: id.Hex()})
	assert.Equal(t, id, f["_id"])
	assert.Contains(t, f, "$or")

	bad := policy.ListFilter(policy.Actor{ID: "reauth:1", Email: "a@b.org", CaseID: "not-hex"})
	assert.Equal(t, bson.M{"_id": bson.M{"$exists": false}}, bad)
}
