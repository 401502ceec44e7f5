package authz

import "github.com/aquamesh/aquaview-backend/pkg/enums"

// Rule grants Actions on Entity when Predicate holds. Rules that share an
// entity and action are ORed.
type Rule struct {
	Entity    Entity
	Actions   []Action
	Predicate Predicate
}

func (r Rule) applies(entity Entity, action Action) bool {
	if r.Entity != entity {
		return false
	}
	for _, candidate := range r.Actions {
		if candidate == action {
			return true
		}
	}
	return false
}

// RuleOptions selects between the legacy open-tenant rules and membership
// enforced rules.
type RuleOptions struct {
	AdminGroup      string
	TenantIsolation bool
}

func actions(list ...Action) []Action { return list }

// DefaultRules builds the rule table. The admin group overrides every entity.
func DefaultRules(opts RuleOptions) []Rule {
	admin := opts.AdminGroup
	if admin == "" {
		admin = DefaultAdminGroup
	}
	group := Group(admin)

	// tenantRead is who may read tenant scoped data.
	tenantRead := Authenticated()
	if opts.TenantIsolation {
		tenantRead = OrgMember()
	}
	managers := OrgMember(enums.ManagerRoles...)

	rules := []Rule{
		{Entity: EntityUser, Actions: actions(ActionRead, ActionUpdate), Predicate: Owner()},
		{Entity: EntityUserSettings, Actions: actions(ActionRead, ActionCreate, ActionUpdate), Predicate: Owner()},

		{Entity: EntityOrganization, Actions: actions(ActionList), Predicate: Authenticated()},
		{Entity: EntityOrganization, Actions: actions(ActionRead), Predicate: tenantRead},
		{Entity: EntityOrganization, Actions: actions(ActionUpdate), Predicate: managers},

		{Entity: EntityUserOrganization, Actions: actions(ActionRead, ActionList), Predicate: Self()},
		{Entity: EntityUserOrganization, Actions: actions(ActionRead, ActionList), Predicate: tenantRead},
		{Entity: EntityUserOrganization, Actions: actions(ActionCreate, ActionDelete), Predicate: Self()},
		{Entity: EntityUserOrganization, Actions: actions(ActionUpdate, ActionDelete), Predicate: managers},

		{Entity: EntitySensor, Actions: actions(ActionRead, ActionList), Predicate: tenantRead},
		{Entity: EntitySensorOrganization, Actions: actions(ActionRead, ActionList), Predicate: tenantRead},
		{Entity: EntityParameterValue, Actions: actions(ActionRead, ActionList), Predicate: tenantRead},
		{Entity: EntitySpectrogramReading, Actions: actions(ActionRead, ActionList), Predicate: tenantRead},
		{Entity: EntitySensorAlert, Actions: actions(ActionRead, ActionList, ActionUpdate), Predicate: tenantRead},

		{Entity: EntityParameterConfig, Actions: actions(ActionRead, ActionList), Predicate: Authenticated()},
		{Entity: EntityParameterConfig, Actions: actions(ActionCreate, ActionUpdate, ActionDelete), Predicate: managers},
	}
	// Open tenants join themselves; adding someone else is left to admins.
	if opts.TenantIsolation {
		rules = append(rules, Rule{Entity: EntityUserOrganization, Actions: actions(ActionCreate), Predicate: managers})
	}

	for _, entity := range []Entity{
		EntityUser,
		EntityUserSettings,
		EntityOrganization,
		EntityUserOrganization,
		EntitySensor,
		EntitySensorOrganization,
		EntityParameterValue,
		EntitySpectrogramReading,
		EntityParameterConfig,
		EntitySensorAlert,
		EntityPendingAdminGrant,
	} {
		rules = append(rules, Rule{Entity: entity, Actions: allActions, Predicate: group})
	}
	return rules
}
