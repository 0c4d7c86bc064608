// Copyright 2025 Tom Barlow
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

package sqlexec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlguard_executions_total",
			Help: "Total statement executions by statement type and outcome",
		},
		[]string{"type", "status"},
	)

	executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlguard_execution_duration_seconds",
			Help:    "Statement execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dialect", "status"},
	)

	rowsReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sqlguard_rows_returned_total",
		Help: "Total rows returned to callers",
	})

	truncatedResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sqlguard_truncated_results_total",
		Help: "Total query results cut at maxRows",
	})

	rowsAffected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sqlguard_rows_affected_total",
		Help: "Total rows affected by update and DDL statements",
	})
)

// statusOK labels successful executions.
const statusOK = "ok"

// recordMetrics records one finished execution. kind is empty when the
// request failed before it could be classified.
func recordMetrics(kind, dialect, status string, seconds float64, res *Result) {
	if kind == "" {
		kind = "unknown"
	}
	executionsTotal.WithLabelValues(kind, status).Inc()
	executionDuration.WithLabelValues(dialect, status).Observe(seconds)

	if res == nil {
		return
	}
	if res.Rows != nil {
		rowsReturned.Add(float64(len(res.Rows)))
	}
	if res.Truncated {
		truncatedResults.Inc()
	}
	if res.UpdateCount != nil && *res.UpdateCount > 0 {
		rowsAffected.Add(float64(*res.UpdateCount))
	}
}
