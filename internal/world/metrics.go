// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package world

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for resolver lookups.
const (
	lookupLocal     = "local"
	lookupInherited = "inherited"
	lookupMiss      = "miss"
)

// ResolverLookups counts resolver lookups by kind and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var ResolverLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gomoo_resolver_lookups_total",
		Help: "Total number of inheritance resolver lookups",
	},
	[]string{"kind", "outcome"},
)

// VerbInvocations counts verb invocations by status.
// Use RegisterMetrics to register this with a Prometheus registry.
var VerbInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gomoo_verb_invocations_total",
		Help: "Total number of verb invocations",
	},
	[]string{"status"},
)

// Status constants for verb invocation metrics.
const (
	StatusSuccess          = "success"
	StatusError            = "error"
	StatusNotFound         = "not_found"
	StatusPermissionDenied = "permission_denied"
)

// RegisterMetrics registers world package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ResolverLookups)
	reg.MustRegister(VerbInvocations)
}

func recordLookup(kind, outcome string) {
	ResolverLookups.WithLabelValues(kind, outcome).Inc()
}

func recordInvocation(status string) {
	VerbInvocations.WithLabelValues(status).Inc()
}
