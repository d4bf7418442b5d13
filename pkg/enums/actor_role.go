package enums

import "fmt"

// ActorRole identifies who is acting on the platform API.
type ActorRole string

const (
	ActorRoleAdmin  ActorRole = "admin"
	ActorRoleSeller ActorRole = "seller"
)

func (r ActorRole) IsValid() bool {
	switch r {
	case ActorRoleAdmin, ActorRoleSeller:
		return true
	}
	return false
}

func (r ActorRole) String() string {
	return string(r)
}

func ParseActorRole(value string) (ActorRole, error) {
	role := ActorRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid actor role %q", value)
	}
	return role, nil
}
