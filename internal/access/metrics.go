// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package access

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels for permission check metrics.
const (
	resultAllow       = "allow"
	resultDeny        = "deny"
	resultDefaultDeny = "default_deny"
	resultOwnerGrant  = "owner_grant"
)

// PermissionChecks counts capability engine decisions.
// Use RegisterMetrics to register this with a Prometheus registry.
var PermissionChecks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gomoo_permission_checks_total",
		Help: "Total number of capability engine permission checks",
	},
	[]string{"permission", "result"},
)

// RegisterMetrics registers access package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PermissionChecks)
}

func recordCheck(permission, result string) {
	PermissionChecks.WithLabelValues(permission, result).Inc()
}
