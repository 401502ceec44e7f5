package authz

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated caller as described by identity token claims.
type Principal struct {
	Subject  string
	Username string
	Email    string
	Groups   []string
}

// Authenticated reports whether the principal carries a subject.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.Subject) != ""
}

// OwnerIdentity is the composite "<sub>::<username>" value stored in owner fields.
func (p Principal) OwnerIdentity() string {
	return OwnerIdentity(p.Subject, p.Username)
}

// InGroup reports whether the principal holds the named group claim.
func (p Principal) InGroup(name string) bool {
	for _, group := range p.Groups {
		if group == name {
			return true
		}
	}
	return false
}

func OwnerIdentity(subject, username string) string {
	return subject + "::" + username
}

// Resource describes the record an action targets. Only the fields relevant
// to the entity's rules need to be set.
type Resource struct {
	Entity          Entity
	Owner           string
	UserID          string
	OrganizationIDs []uuid.UUID
}

type Entity string

const (
	EntityUser               Entity = "User"
	EntityUserSettings       Entity = "UserSettings"
	EntityOrganization       Entity = "Organization"
	EntityUserOrganization   Entity = "UserOrganization"
	EntitySensor             Entity = "Sensor"
	EntitySensorOrganization Entity = "SensorOrganization"
	EntityParameterValue     Entity = "ParameterValue"
	EntitySpectrogramReading Entity = "SpectrogramReading"
	EntityParameterConfig    Entity = "ParameterConfig"
	EntitySensorAlert        Entity = "SensorAlert"
	EntityPendingAdminGrant  Entity = "PendingAdminGrant"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var allActions = []Action{ActionRead, ActionList, ActionCreate, ActionUpdate, ActionDelete}
