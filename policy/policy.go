// Package policy classifies actors by their live role set and decides which cases they
// can see.
package policy

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/violation-case-api/models"
)

// Category is the mutually exclusive capability class of an actor
type Category int

// Categories
const (
	ApplicantOnly Category = iota
	HearingDivisionOnly
	UnrestrictedStaff
)

func (c Category) String() string {
	switch c {
	case HearingDivisionOnly:
		return "hearing_division_only"
	case UnrestrictedStaff:
		return "unrestricted_staff"
	default:
		return "applicant_only"
	}
}

// Actor is the authenticated caller of a request
type Actor struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	NationalID string   `json:"nationalId,omitempty"`
	District   string   `json:"district,omitempty"`
	Roles      []string `json:"roles"`
	// CaseID confines a re-auth session to the case its link was issued for
	CaseID string `json:"caseId,omitempty"`
}

// Scoped reports whether the actor is confined to a single case
func (a Actor) Scoped() bool {
	return strings.TrimSpace(a.CaseID) != ""
}

// Classify maps a role set to its category. Registrars and admins are unrestricted, a
// hearing officer without either is confined to the hearing division, everyone else is
// an applicant.
func Classify(roles []string) Category {
	if hasAny(roles, models.RoleRegistrar, models.RoleAdmin, models.RoleSuperAdmin) {
		return UnrestrictedStaff
	}
	if hasAny(roles, models.RoleHearingOfficer) {
		return HearingDivisionOnly
	}
	return ApplicantOnly
}

// IsAdminGrade reports whether roles include admin or super_admin
func IsAdminGrade(roles []string) bool {
	return hasAny(roles, models.RoleAdmin, models.RoleSuperAdmin)
}

// Category classifies the actor
func (a Actor) Category() Category {
	return Classify(a.Roles)
}

// AdminGrade reports whether the actor holds an admin role
func (a Actor) AdminGrade() bool {
	return IsAdminGrade(a.Roles)
}

// HasRole reports whether the actor holds role
func (a Actor) HasRole(role string) bool {
	return hasAny(a.Roles, role)
}

// OwnsCase reports whether the actor is the applicant of c. Any one of the linked
// account, the applicant email, the applicant national ID or the national ID in the
// description is enough.
func OwnsCase(a Actor, c *models.Case) bool {
	d := c.Details
	switch {
	case a.ID != "" && d.Applicant.UserID == a.ID:
		return true
	case a.Email != "" && strings.EqualFold(strings.TrimSpace(d.Applicant.Email), strings.TrimSpace(a.Email)):
		return true
	case a.NationalID != "" && d.Applicant.NationalID == a.NationalID:
		return true
	case a.NationalID != "" && d.Description.NationalID == a.NationalID:
		return true
	}
	return false
}

// DistrictMatches compares the actor's district with the case district, ignoring case
// and surrounding whitespace
func DistrictMatches(a Actor, c *models.Case) bool {
	district := strings.TrimSpace(a.District)
	if district == "" {
		return false
	}
	return strings.EqualFold(district, strings.TrimSpace(c.Details.Description.District))
}

// CanView reports whether the actor may read or act on c at all
func CanView(a Actor, c *models.Case) bool {
	if a.AdminGrade() {
		return true
	}
	if a.Scoped() && c.ID.Hex() != strings.TrimSpace(a.CaseID) {
		return false
	}
	switch a.Category() {
	case UnrestrictedStaff:
		return true
	case HearingDivisionOnly:
		return DistrictMatches(a, c)
	default:
		return OwnsCase(a, c)
	}
}

// ListFilter returns the mongo filter selecting exactly the cases CanView admits
func ListFilter(a Actor) bson.M {
	if a.AdminGrade() || a.Category() == UnrestrictedStaff {
		return bson.M{}
	}
	if a.Category() == HearingDivisionOnly {
		if strings.TrimSpace(a.District) == "" {
			return matchNothing()
		}
		return bson.M{"case.description.district": exactInsensitive(a.District)}
	}

	var or bson.A
	if a.ID != "" {
		or = append(or, bson.M{"case.applicant.userID": a.ID})
	}
	if a.Email != "" {
		or = append(or, bson.M{"case.applicant.email": exactInsensitive(a.Email)})
	}
	if a.NationalID != "" {
		or = append(or,
			bson.M{"case.applicant.nationalId": a.NationalID},
			bson.M{"case.description.nationalId": a.NationalID},
		)
	}
	if len(or) == 0 {
		// no identity to match on
		return matchNothing()
	}
	if a.Scoped() {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(a.CaseID))
		if err != nil {
			return matchNothing()
		}
		return bson.M{"_id": id, "$or": or}
	}
	return bson.M{"$or": or}
}

func matchNothing() bson.M {
	return bson.M{"_id": bson.M{"$exists": false}}
}

func exactInsensitive(s string) primitive.Regex {
	return primitive.Regex{
		Pattern: `^\s*` + regexp.QuoteMeta(strings.TrimSpace(s)) + `\s*$`,
		Options: "i",
	}
}

func hasAny(roles []string, want ...string) bool {
	for _, r := range roles {
		for _, w := range want {
			if r == w {
				return true
			}
		}
	}
	return false
}
