package models

// Role names as stored on users
const (
	RoleApplicant      = "applicant"
	RoleRegistrar      = "registrar"
	RoleHearingOfficer = "hearing_officer"
	RoleAdmin          = "admin"
	RoleSuperAdmin     = "super_admin"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	Email      string      `json:"email" bson:"email"`
	Name       string      `json:"name" bson:"name"`
	Username   string      `json:"username" bson:"username"`
	Phone      string      `json:"phone" bson:"phone"`
	NationalID string      `json:"nationalId" bson:"nationalId"`
	Roles      []string    `json:"roles" bson:"roles"`
	District   string      `json:"district" bson:"district"`
	Active     bool        `json:"active" bson:"active"`
	CreatedAt  interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt  interface{} `json:"updatedAt" bson:"updatedAt"`
}

// HasRole reports whether the user holds role
func (u *User) HasRole(role string) bool {
	for _, r := range u.Details.Roles {
		if r == role {
			return true
		}
	}
	return false
}
