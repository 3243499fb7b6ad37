// Copyright 2026 The SISPAT Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return &Meter{
			meter: noop.NewMeterProvider().Meter(serviceName),
		}, nil
	}

	// The global provider is a no-op until an exporter-backed provider is
	// registered by the deployment.
	return &Meter{
		meter: otel.Meter(serviceName),
	}, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// Instruments are the access-control counters.
type Instruments struct {
	permissionChecks metric.Int64Counter
	guardDecisions   metric.Int64Counter
	roleUpdates      metric.Int64Counter
}

// NewInstruments registers the access-control counters on m.
func NewInstruments(m *Meter) (*Instruments, error) {
	checks, err := m.CreateCounter("sispat.permission.checks", "Permission checks by outcome")
	if err != nil {
		return nil, err
	}
	decisions, err := m.CreateCounter("sispat.guard.decisions", "Route guard decisions by state")
	if err != nil {
		return nil, err
	}
	updates, err := m.CreateCounter("sispat.role.updates", "Role permission set replacements")
	if err != nil {
		return nil, err
	}
	return &Instruments{
		permissionChecks: checks,
		guardDecisions:   decisions,
		roleUpdates:      updates,
	}, nil
}

// RecordPermissionCheck counts one permission check.
func (i *Instruments) RecordPermissionCheck(ctx context.Context, permission string, allowed bool) {
	if i == nil {
		return
	}
	i.permissionChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}

// RecordGuardDecision counts one guard decision.
func (i *Instruments) RecordGuardDecision(ctx context.Context, state string) {
	if i == nil {
		return
	}
	i.guardDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// RecordRoleUpdate counts one role edit.
func (i *Instruments) RecordRoleUpdate(ctx context.Context, roleID string) {
	if i == nil {
		return
	}
	i.roleUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("role_id", roleID)))
}
