// Package metrics defines and registers all custom Prometheus metrics for the
// smart waste civic core. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartwaste"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts authentication attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by result.",
	},
	[]string{"result"},
)

// RoleSwitchesTotal counts successful demo role switches.
// Label:
//   - role: the role switched to
var RoleSwitchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_switches_total",
		Help:      "Total number of role switches, by target role.",
	},
	[]string{"role"},
)

// CorruptSessionsTotal counts stored session records that failed to decode.
var CorruptSessionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "corrupt_sessions_total",
		Help:      "Total number of stored sessions discarded because they could not be decoded.",
	},
)

// ── Assistant metrics ─────────────────────────────────────────────────────────

// AssistantRepliesTotal counts assistant replies.
// Labels:
//   - intent: the rule that matched (e.g. "schedule"), or "fallback"
//   - role: the caller's role
var AssistantRepliesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assistant_replies_total",
		Help:      "Total number of assistant replies, by intent and role.",
	},
	[]string{"intent", "role"},
)

// AssistantReplyDelay measures the simulated thinking delay before a reply.
var AssistantReplyDelay = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "assistant_reply_delay_seconds",
		Help:      "Simulated delay between a user message and the assistant reply.",
		Buckets:   []float64{.25, .5, 1, 1.25, 1.5, 1.75, 2, 3, 5},
	},
)

// ConversationsActive tracks open assistant widgets held by the hub.
var ConversationsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "conversations_active",
		Help:      "Current number of assistant conversations held in memory.",
	},
)
