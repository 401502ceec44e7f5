package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type telemetryStore interface {
	ParameterValues(ctx context.Context, sensorID string, w Window, names []string) (Page[ParameterValue], error)
	SpectrogramReadings(ctx context.Context, sensorID string, w Window, ledWavelength *float64) (Page[SpectrogramReading], error)
}

type sensorScope interface {
	Scope(ctx context.Context, p authz.Principal, entity authz.Entity, action authz.Action, sensorID uuid.UUID) ([]uuid.UUID, error)
}

type tenancy interface {
	SeesAllTenants(p authz.Principal) bool
}

type memberOrganizations interface {
	ListOrganizationIDs(ctx context.Context, userID string) ([]uuid.UUID, error)
}

// ParameterQuery selects parameter values for one sensor.
type ParameterQuery struct {
	Start      time.Time
	End        time.Time
	Parameters []string
}

// SpectrogramQuery selects spectrogram readings for one sensor.
type SpectrogramQuery struct {
	Start         time.Time
	End           time.Time
	LEDWavelength *float64
}

// Service serves sensor telemetry to authorized callers.
type Service interface {
	ParameterValues(ctx context.Context, p authz.Principal, sensorID uuid.UUID, q ParameterQuery) (Page[ParameterValue], error)
	SpectrogramReadings(ctx context.Context, p authz.Principal, sensorID uuid.UUID, q SpectrogramQuery) (Page[SpectrogramReading], error)
}

type service struct {
	store   telemetryStore
	sensors sensorScope
	tenancy tenancy
	members memberOrganizations
}

func NewService(store telemetryStore, sensors sensorScope, tenancy tenancy, members memberOrganizations) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("telemetry store required")
	}
	if sensors == nil {
		return nil, fmt.Errorf("sensor scope required")
	}
	if tenancy == nil {
		return nil, fmt.Errorf("tenancy policy required")
	}
	if members == nil {
		return nil, fmt.Errorf("membership lookup required")
	}
	return &service{store: store, sensors: sensors, tenancy: tenancy, members: members}, nil
}

func validateWindow(start, end time.Time) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if end.Before(start) {
		return Window{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not be before start")
	}
	return Window{Start: start, End: end}, nil
}

func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (s *service) ParameterValues(ctx context.Context, p authz.Principal, sensorID uuid.UUID, q ParameterQuery) (Page[ParameterValue], error) {
	window, err := validateWindow(q.Start, q.End)
	if err != nil {
		return Page[ParameterValue]{}, err
	}
	if _, err := s.sensors.Scope(ctx, p, authz.EntityParameterValue, authz.ActionList, sensorID); err != nil {
		return Page[ParameterValue]{}, err
	}
	allowed, err := s.allowed(ctx, p)
	if err != nil {
		return Page[ParameterValue]{}, err
	}
	page, err := s.store.ParameterValues(ctx, sensorID.String(), window, cleanNames(q.Parameters))
	if err != nil {
		return Page[ParameterValue]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query parameter values")
	}
	return restrict(page, allowed), nil
}

func (s *service) SpectrogramReadings(ctx context.Context, p authz.Principal, sensorID uuid.UUID, q SpectrogramQuery) (Page[SpectrogramReading], error) {
	window, err := validateWindow(q.Start, q.End)
	if err != nil {
		return Page[SpectrogramReading]{}, err
	}
	if q.LEDWavelength != nil && *q.LEDWavelength <= 0 {
		return Page[SpectrogramReading]{}, pkgerrors.New(pkgerrors.CodeValidation, "ledWavelength must be positive")
	}
	if _, err := s.sensors.Scope(ctx, p, authz.EntitySpectrogramReading, authz.ActionList, sensorID); err != nil {
		return Page[SpectrogramReading]{}, err
	}
	allowed, err := s.allowed(ctx, p)
	if err != nil {
		return Page[SpectrogramReading]{}, err
	}
	page, err := s.store.SpectrogramReadings(ctx, sensorID.String(), window, q.LEDWavelength)
	if err != nil {
		return Page[SpectrogramReading]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query spectrogram readings")
	}
	return restrict(page, allowed), nil
}

// allowed returns the caller's organization ids, or nil when every record
// is visible.
func (s *service) allowed(ctx context.Context, p authz.Principal) (map[string]struct{}, error) {
	if s.tenancy.SeesAllTenants(p) {
		return nil, nil
	}
	ids, err := s.members.ListOrganizationIDs(ctx, p.Subject)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load caller organizations")
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id.String()] = struct{}{}
	}
	return set, nil
}

// restrict drops records stamped with an organization outside allowed. The
// stamp is denormalized at ingest and can lag a sensor relink. Truncated
// carries over untouched since the cap applies before filtering.
func restrict[T interface{ organization() string }](page Page[T], allowed map[string]struct{}) Page[T] {
	out := make([]T, 0, len(page.Items))
	for _, row := range page.Items {
		if allowed != nil {
			if _, ok := allowed[strings.ToLower(row.organization())]; !ok {
				continue
			}
		}
		out = append(out, row)
	}
	return Page[T]{Items: out, Truncated: page.Truncated}
}
