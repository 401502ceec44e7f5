package authz

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/pkg/enums"
)

// MembershipChecker answers organization membership questions. An empty
// roles list matches any role.
type MembershipChecker interface {
	HasRole(ctx context.Context, userID string, orgID uuid.UUID, roles ...enums.MemberRole) (bool, error)
}

// Input is what a predicate sees during evaluation.
type Input struct {
	Principal Principal
	Action    Action
	Resource  Resource
	Members   MembershipChecker
}

// Predicate is one named, independently testable access condition.
type Predicate struct {
	Name string
	Eval func(ctx context.Context, in Input) (bool, error)
}

// Owner matches the caller's composite identity against the record owner.
func Owner() Predicate {
	return Predicate{
		Name: "owner",
		Eval: func(_ context.Context, in Input) (bool, error) {
			return in.Resource.Owner != "" && in.Principal.OwnerIdentity() == in.Resource.Owner, nil
		},
	}
}

// Self matches the caller's subject against the record's user id.
func Self() Predicate {
	return Predicate{
		Name: "self",
		Eval: func(_ context.Context, in Input) (bool, error) {
			return in.Resource.UserID != "" && in.Principal.Subject == in.Resource.UserID, nil
		},
	}
}

// Group matches callers holding the named group claim.
func Group(name string) Predicate {
	return Predicate{
		Name: "group:" + name,
		Eval: func(_ context.Context, in Input) (bool, error) {
			return in.Principal.InGroup(name), nil
		},
	}
}

// Authenticated matches every signed-in caller.
func Authenticated() Predicate {
	return Predicate{
		Name: "authenticated",
		Eval: func(_ context.Context, in Input) (bool, error) {
			return in.Principal.Authenticated(), nil
		},
	}
}

// OrgMember matches callers belonging to any of the resource's organizations
// with one of roles, or with any role when roles is empty.
func OrgMember(roles ...enums.MemberRole) Predicate {
	name := "org_member"
	if len(roles) > 0 {
		parts := make([]string, 0, len(roles))
		for _, role := range roles {
			parts = append(parts, role.String())
		}
		name += ":" + strings.Join(parts, "|")
	}
	return Predicate{
		Name: name,
		Eval: func(ctx context.Context, in Input) (bool, error) {
			if in.Members == nil || len(in.Resource.OrganizationIDs) == 0 {
				return false, nil
			}
			for _, orgID := range in.Resource.OrganizationIDs {
				ok, err := in.Members.HasRole(ctx, in.Principal.Subject, orgID, roles...)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		},
	}
}
