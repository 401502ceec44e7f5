package authz

import (
	"context"
	"fmt"

	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/metrics"
)

// Decision is the outcome of evaluating the rule table.
type Decision struct {
	Allowed bool
	// Rule names the predicate that granted access.
	Rule string
}

// Engine evaluates requests against a rule table. Anything not granted by a
// rule is denied.
type Engine struct {
	rules      []Rule
	members    MembershipChecker
	metrics    *metrics.AuthzMetrics
	adminGroup string
	isolated   bool
}

// DefaultAdminGroup is the identity provider group holding global admins.
const DefaultAdminGroup = "GLOBAL_ADMIN"

type Option func(*Engine)

func WithMetrics(m *metrics.AuthzMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(opts RuleOptions, members MembershipChecker, options ...Option) *Engine {
	admin := opts.AdminGroup
	if admin == "" {
		admin = DefaultAdminGroup
	}
	engine := &Engine{
		rules:      DefaultRules(opts),
		members:    members,
		adminGroup: admin,
		isolated:   opts.TenantIsolation,
	}
	for _, opt := range options {
		opt(engine)
	}
	return engine
}

// NewEngineWithRules builds an engine over an explicit rule table.
func NewEngineWithRules(rules []Rule, members MembershipChecker, options ...Option) *Engine {
	engine := &Engine{rules: rules, members: members, adminGroup: DefaultAdminGroup, isolated: true}
	for _, opt := range options {
		opt(engine)
	}
	return engine
}

// Evaluate walks the rules for the resource's entity and action in order and
// stops at the first grant.
func (e *Engine) Evaluate(ctx context.Context, p Principal, action Action, res Resource) (Decision, error) {
	if !p.Authenticated() {
		return Decision{}, nil
	}
	in := Input{Principal: p, Action: action, Resource: res, Members: e.members}
	for _, rule := range e.rules {
		if !rule.applies(res.Entity, action) {
			continue
		}
		ok, err := rule.Predicate.Eval(ctx, in)
		if err != nil {
			return Decision{}, fmt.Errorf("evaluate %s: %w", rule.Predicate.Name, err)
		}
		if ok {
			return Decision{Allowed: true, Rule: rule.Predicate.Name}, nil
		}
	}
	return Decision{}, nil
}

// Authorize converts Evaluate into the typed errors services return.
func (e *Engine) Authorize(ctx context.Context, p Principal, action Action, res Resource) error {
	if !p.Authenticated() {
		e.metrics.ObserveDecision(string(res.Entity), string(action), "unauthenticated")
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	decision, err := e.Evaluate(ctx, p, action, res)
	if err != nil {
		e.metrics.ObserveDecision(string(res.Entity), string(action), "error")
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "authorization lookup failed")
	}
	if !decision.Allowed {
		e.metrics.ObserveDecision(string(res.Entity), string(action), "deny")
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "not permitted to %s %s", action, res.Entity)
	}
	e.metrics.ObserveDecision(string(res.Entity), string(action), "allow")
	return nil
}

// IsAdmin reports whether p holds the override group.
func (e *Engine) IsAdmin(p Principal) bool {
	return p.InGroup(e.adminGroup)
}

// AdminGroup returns the override group name.
func (e *Engine) AdminGroup() string {
	return e.adminGroup
}

// Isolated reports whether tenant data is restricted to organization members.
func (e *Engine) Isolated() bool {
	return e.isolated
}

// SeesAllTenants reports whether p may see every tenant's data without
// per-organization filtering.
func (e *Engine) SeesAllTenants(p Principal) bool {
	return !e.isolated || e.IsAdmin(p)
}
