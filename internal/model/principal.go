package model

import "github.com/google/uuid"

type Role string

const (
	RoleGrower Role = "grower"
	RoleBuyer  Role = "buyer"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGrower, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

type Principal struct {
	UserID uuid.UUID
	Role   Role
}

func (p Principal) IsGrower() bool { return p.Role == RoleGrower }
func (p Principal) IsBuyer() bool  { return p.Role == RoleBuyer }
func (p Principal) IsAdmin() bool  { return p.Role == RoleAdmin }
