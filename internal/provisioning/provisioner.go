// Package provisioning creates the application records for a confirmed
// signup and promotes allow-listed accounts to global admin.
package provisioning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/settings"
	"github.com/aquamesh/aquaview-backend/internal/users"
	"github.com/aquamesh/aquaview-backend/pkg/db/models"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

type userCreator interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*users.UserDTO, error)
}

type settingsCreator interface {
	CreateDefault(ctx context.Context, owner, userID string) (*settings.SettingsDTO, error)
}

// GroupAdder grants identity provider group membership.
type GroupAdder interface {
	AddUserToGroup(ctx context.Context, userPoolID, username, group string) error
}

type pendingGrants interface {
	FindPending(ctx context.Context, email string) (*models.PendingAdminGrant, error)
	MarkConsumed(ctx context.Context, email, userID string, at time.Time) (bool, error)
}

// Signup is the identity data of a confirmed account.
type Signup struct {
	Subject     string
	Username    string
	Email       string
	PhoneNumber *string
	UserPoolID  string
}

// Outcome reports which steps ran. Errors are logged, never returned.
type Outcome struct {
	Admin           bool
	UserCreated     bool
	UserConflict    bool
	GroupAdded      bool
	GrantConsumed   bool
	SettingsCreated bool
}

// Params wires a Provisioner.
type Params struct {
	Users      userCreator
	Settings   settingsCreator
	Groups     GroupAdder
	Grants     pendingGrants
	Logger     *logger.Logger
	AdminEmail []string
	AdminGroup string
}

type Provisioner struct {
	users      userCreator
	settings   settingsCreator
	groups     GroupAdder
	grants     pendingGrants
	logg       *logger.Logger
	allowList  map[string]struct{}
	adminGroup string
	now        func() time.Time
}

func New(params Params) (*Provisioner, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user creator required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings creator required")
	}
	if params.Groups == nil {
		return nil, fmt.Errorf("group adder required")
	}
	if params.Grants == nil {
		return nil, fmt.Errorf("grant store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	allow := make(map[string]struct{}, len(params.AdminEmail))
	for _, email := range params.AdminEmail {
		if e := normalizeEmail(email); e != "" {
			allow[e] = struct{}{}
		}
	}
	group := strings.TrimSpace(params.AdminGroup)
	if group == "" {
		group = authz.DefaultAdminGroup
	}
	return &Provisioner{
		users:      params.Users,
		settings:   params.Settings,
		groups:     params.Groups,
		grants:     params.Grants,
		logg:       params.Logger,
		allowList:  allow,
		adminGroup: group,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// isAdmin checks the configured allow-list first and the pending grants
// table second. A grant lookup failure counts as not admin.
func (p *Provisioner) isAdmin(ctx context.Context, email string) (bool, *models.PendingAdminGrant) {
	if _, ok := p.allowList[normalizeEmail(email)]; ok {
		return true, nil
	}
	grant, err := p.grants.FindPending(ctx, email)
	if err != nil {
		p.logg.Error(ctx, "provisioning.grant_lookup_failed", err)
		return false, nil
	}
	return grant != nil, grant
}

// Provision runs the signup steps in order: decide admin, create the user,
// grant the admin group, then create default settings. A failed user create
// stops the run before settings.
func (p *Provisioner) Provision(ctx context.Context, s Signup) Outcome {
	ctx = p.logg.WithUserID(ctx, s.Subject)
	ctx = p.logg.WithField(ctx, "username", s.Username)

	var out Outcome
	admin, grant := p.isAdmin(ctx, s.Email)
	out.Admin = admin

	now := p.now()
	user, err := p.users.Create(ctx, users.CreateUserDTO{
		ID:          s.Subject,
		Username:    s.Username,
		Email:       s.Email,
		PhoneNumber: s.PhoneNumber,
		GlobalAdmin: admin,
		Now:         now,
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			out.UserConflict = true
			p.logg.Warn(ctx, "provisioning.user_exists")
		} else {
			p.logg.Error(ctx, "provisioning.user_create_failed", err)
		}
		return out
	}
	out.UserCreated = true

	if admin {
		if err := p.groups.AddUserToGroup(ctx, s.UserPoolID, s.Username, p.adminGroup); err != nil {
			p.logg.Error(ctx, "provisioning.admin_group_failed", err)
		} else {
			out.GroupAdded = true
			if grant != nil {
				consumed, err := p.grants.MarkConsumed(ctx, grant.Email, s.Subject, now)
				if err != nil {
					p.logg.Error(ctx, "provisioning.grant_consume_failed", err)
				}
				out.GrantConsumed = consumed
			}
		}
	}

	if _, err := p.settings.CreateDefault(ctx, user.Owner, user.ID); err != nil {
		p.logg.Error(ctx, "provisioning.settings_create_failed", err)
		return out
	}
	out.SettingsCreated = true
	p.logg.Info(p.logg.WithField(ctx, "global_admin", admin), "provisioning.completed")
	return out
}
