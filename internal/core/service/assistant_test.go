package service

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

func seededDispatcher() *Dispatcher {
	return NewDispatcher(rand.New(rand.NewPCG(1, 2)))
}

func TestDispatcher_GeneralRules(t *testing.T) {
	d := seededDispatcher()

	cases := []struct {
		input string
		want  domain.Intent
	}{
		{"When is the next COLLECTION?", domain.IntentSchedule},
		{"schedule please", domain.IntentSchedule},
		{"how do I separate glass", domain.IntentSegregation},
		{"Waste segregation guide", domain.IntentSegregation},
		{"Green points info", domain.IntentGreenPoints},
		{"Report an issue", domain.IntentReportIssue},
		{"there is a problem on my street", domain.IntentReportIssue},
	}

	for _, role := range domain.Roles() {
		for _, tc := range cases {
			got := d.Classify(tc.input, role)
			assert.Equal(t, tc.want, got.Intent, "input %q role %s", tc.input, role)
		}
	}
}

func TestDispatcher_RoleRules(t *testing.T) {
	d := seededDispatcher()

	cases := []struct {
		role  domain.Role
		input string
		want  domain.Intent
	}{
		{domain.RoleCitizen, "My rating", domain.IntentRating},
		{domain.RoleCitizen, "what's my score", domain.IntentRating},
		{domain.RoleCitizen, "Redeem something", domain.IntentRedeem},
		{domain.RoleCitizen, "open the shop", domain.IntentRedeem},
		{domain.RoleWorker, "Today's route", domain.IntentRoute},
		{domain.RoleWorker, "best path", domain.IntentRoute},
		{domain.RoleWorker, "Rate household", domain.IntentRateHousehold},
		{domain.RoleWorker, "household 12", domain.IntentRateHousehold},
		{domain.RoleWorker, "how do I rate", domain.IntentRateHousehold},
		{domain.RoleAdmin, "City overview", domain.IntentCityOverview},
		{domain.RoleAdmin, "Worker management", domain.IntentWorkerPerformance},
		{domain.RoleAdmin, "performance stats", domain.IntentWorkerPerformance},
	}

	for _, tc := range cases {
		got := d.Classify(tc.input, tc.role)
		assert.Equal(t, tc.want, got.Intent, "input %q role %s", tc.input, tc.role)
	}
}

func TestDispatcher_RoleRulesAreScoped(t *testing.T) {
	d := seededDispatcher()

	assert.Equal(t, domain.IntentFallback, d.Classify("my rating", domain.RoleAdmin).Intent)
	assert.Equal(t, domain.IntentFallback, d.Classify("city overview", domain.RoleCitizen).Intent)
	assert.Equal(t, domain.IntentFallback, d.Classify("today's route", domain.RoleCitizen).Intent)
	assert.Equal(t, domain.IntentFallback, d.Classify("redeem", domain.RoleWorker).Intent)
	assert.Equal(t, domain.IntentFallback, d.Classify("my rating", domain.Role("mayor")).Intent)
}

func TestDispatcher_GeneralBeforeRoleSpecific(t *testing.T) {
	d := seededDispatcher()

	got := d.Classify("what is my collection schedule and rating", domain.RoleCitizen)
	assert.Equal(t, domain.IntentSchedule, got.Intent)
	assert.Equal(t, generalRules[0].reply, got.Text)

	// "Redeem points" is a citizen quick reply but "points" is a general rule.
	assert.Equal(t, domain.IntentGreenPoints, d.Classify("Redeem points", domain.RoleCitizen).Intent)
	// "Performance stats" for a worker has no worker rule and falls through.
	assert.Equal(t, domain.IntentFallback, d.Classify("Performance stats", domain.RoleWorker).Intent)
}

func TestDispatcher_FirstGeneralRuleWins(t *testing.T) {
	d := seededDispatcher()

	got := d.Classify("report a problem with green points segregation", domain.RoleAdmin)
	assert.Equal(t, domain.IntentSegregation, got.Intent)
}

func TestDispatcher_Fallback(t *testing.T) {
	d := seededDispatcher()
	allowed := make(map[string]bool)
	for _, r := range FallbackReplies() {
		allowed[r] = true
	}

	seen := make(map[string]bool)
	for _, role := range domain.Roles() {
		for i := 0; i < 60; i++ {
			got := d.Classify("xyzzy plugh", role)
			require.Equal(t, domain.IntentFallback, got.Intent)
			require.True(t, allowed[got.Text], "unexpected fallback %q", got.Text)
			seen[got.Text] = true
		}
	}
	assert.Len(t, seen, len(fallbackReplies), "every fallback should eventually be chosen")

	assert.True(t, allowed[d.Respond("", domain.RoleCitizen)])
}

func TestDispatcher_SeededFallbackIsDeterministic(t *testing.T) {
	a := NewDispatcher(rand.New(rand.NewPCG(7, 7)))
	b := NewDispatcher(rand.New(rand.NewPCG(7, 7)))

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Respond("nothing", domain.RoleWorker), b.Respond("nothing", domain.RoleWorker))
	}
}

func TestQuickReplies(t *testing.T) {
	assert.Equal(t, []string{
		"Collection schedule", "Waste segregation guide", "Green points info", "Report an issue",
		"Redeem points", "My rating", "Complaint status",
	}, QuickReplies(domain.RoleCitizen))

	assert.Equal(t, []string{
		"Collection schedule", "Waste segregation guide", "Green points info", "Report an issue",
		"Today's route", "Rate household", "Performance stats",
	}, QuickReplies(domain.RoleWorker))

	assert.Equal(t, []string{
		"Collection schedule", "Waste segregation guide", "Green points info", "Report an issue",
		"City overview", "Worker management", "Analytics",
	}, QuickReplies(domain.RoleAdmin))

	// Mutating the result must not leak into later calls.
	qr := QuickReplies(domain.RoleAdmin)
	qr[0] = "mutated"
	assert.Equal(t, "Collection schedule", QuickReplies(domain.RoleAdmin)[0])
}

func TestSupportLabel(t *testing.T) {
	assert.Equal(t, "Citizen Support", SupportLabel(domain.RoleCitizen))
	assert.Equal(t, "Admin Support", SupportLabel(domain.RoleAdmin))
}

func TestDispatcher_Suggestions(t *testing.T) {
	preview, all := seededDispatcher().Suggestions(domain.RoleWorker)
	assert.Equal(t, []string{"Collection schedule", "Waste segregation guide", "Green points info"}, preview)
	assert.Len(t, all, 7)
	assert.Equal(t, "Worker Support", seededDispatcher().SupportLabel(domain.RoleWorker))
}
