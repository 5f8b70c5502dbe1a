package domain

import "time"

// Role distinguishes regular users from administrators.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal is the authenticated actor a request is executed on behalf of.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// User represents an identity known to the platform.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      Role      `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

// Principal projects the user onto the identity used for authorization.
func (u *User) Principal() *Principal {
	if u == nil {
		return nil
	}
	role := u.Role
	if !role.Valid() {
		role = RoleUser
	}
	return &Principal{ID: u.ID, Role: role}
}

// Ref returns the name/email projection embedded into tasks.
func (u *User) Ref() UserRef {
	if u == nil {
		return UserRef{}
	}
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}
