// Copyright 2026 The EdgeGate Authors
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
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Gate holds the gate's decision instruments. A nil *Gate is a valid noop
// receiver so tests can pass nil.
type Gate struct {
	decisions        metric.Int64Counter
	perimeterDenials metric.Int64Counter
	sessionRotations metric.Int64Counter
}

// NewGate registers the gate instruments on the given service's meter.
func NewGate(serviceName string) (*Gate, error) {
	meter := otel.Meter(serviceName)

	decisions, err := meter.Int64Counter("gate.decisions",
		metric.WithDescription("Gate decisions by outcome and zone"))
	if err != nil {
		return nil, fmt.Errorf("failed to create decisions counter: %w", err)
	}

	perimeterDenials, err := meter.Int64Counter("gate.perimeter_denials",
		metric.WithDescription("Requests rejected by the ops IP allowlist"))
	if err != nil {
		return nil, fmt.Errorf("failed to create perimeter denials counter: %w", err)
	}

	sessionRotations, err := meter.Int64Counter("gate.session_rotations",
		metric.WithDescription("Session tokens rotated at the edge"))
	if err != nil {
		return nil, fmt.Errorf("failed to create session rotations counter: %w", err)
	}

	return &Gate{
		decisions:        decisions,
		perimeterDenials: perimeterDenials,
		sessionRotations: sessionRotations,
	}, nil
}

// MustNewGate is NewGate for wiring paths where instrument registration
// cannot reasonably fail; errors are logged and a noop Gate returned.
func MustNewGate(serviceName string) *Gate {
	g, err := NewGate(serviceName)
	if err != nil {
		slog.Error("failed to register gate metrics", slog.String("error", err.Error()))
		return nil
	}
	return g
}

// RecordDecision counts one gate outcome.
func (g *Gate) RecordDecision(ctx context.Context, outcome, zone string) {
	if g == nil {
		return
	}
	g.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("zone", zone),
	))
}

// RecordPerimeterDenial counts one allowlist rejection.
func (g *Gate) RecordPerimeterDenial(ctx context.Context) {
	if g == nil {
		return
	}
	g.perimeterDenials.Add(ctx, 1)
}

// RecordSessionRotation counts one token rotation.
func (g *Gate) RecordSessionRotation(ctx context.Context) {
	if g == nil {
		return
	}
	g.sessionRotations.Add(ctx, 1)
}
