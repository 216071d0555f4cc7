package service

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

// Greeting seeds every new transcript.
const Greeting = "Hi! I'm your Smart Waste Management assistant. How can I help you today?"

// QuickReplyPreview is how many suggestions the widget shows at once.
const QuickReplyPreview = 3

type rule struct {
	intent   domain.Intent
	keywords []string
	reply    string
}

func (r rule) matches(normalized string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

// Rule order is precedence: earlier rules win over later ones, and general
// rules win over role rules.
var generalRules = []rule{
	{
		intent:   domain.IntentSchedule,
		keywords: []string{"schedule", "collection"},
		reply:    "Waste collection happens every Tuesday, Thursday, and Saturday from 6 AM to 10 AM. You'll receive notifications 30 minutes before pickup.",
	},
	{
		intent:   domain.IntentSegregation,
		keywords: []string{"segregation", "separate"},
		reply:    "Please separate waste into: 🟢 Organic (food waste, garden waste), 🔵 Recyclable (paper, plastic, metal), 🔴 Hazardous (batteries, chemicals). Mixed waste reduces your eco rating.",
	},
	{
		intent:   domain.IntentGreenPoints,
		keywords: []string{"points", "green"},
		reply:    "Green Points are earned by proper waste segregation (10 pts), timely disposal (5 pts), and community participation (15 pts). Redeem them in the Green Shop!",
	},
	{
		intent:   domain.IntentReportIssue,
		keywords: []string{"report", "issue", "problem"},
		reply:    "You can report issues through the Complaint Box. Include photos and location details for faster resolution. Average response time is 24 hours.",
	},
}

var citizenRules = []rule{
	{
		intent:   domain.IntentRating,
		keywords: []string{"rating", "score"},
		reply:    "Your eco rating is based on segregation quality (40%), pickup compliance (30%), and community engagement (30%). Maintain 4+ stars for premium benefits!",
	},
	{
		intent:   domain.IntentRedeem,
		keywords: []string{"redeem", "shop"},
		reply:    "Visit the Green Shop to redeem points for compost, upcycled items, and waste utilities. New items added weekly!",
	},
}

var workerRules = []rule{
	{
		intent:   domain.IntentRoute,
		keywords: []string{"route", "path"},
		reply:    "Your route is optimized daily based on traffic and priority areas. Check 'Today's Route' for real-time updates and navigation.",
	},
	{
		intent:   domain.IntentRateHousehold,
		keywords: []string{"rate", "household"},
		reply:    "Rate households based on segregation quality. Poor segregation affects citizen ratings and helps improve city-wide compliance.",
	},
}

var adminRules = []rule{
	{
		intent:   domain.IntentCityOverview,
		keywords: []string{"overview", "city"},
		reply:    "City dashboard shows real-time collection status, compliance rates, and worker performance. Use filters to drill down by area or time period.",
	},
	{
		intent:   domain.IntentWorkerPerformance,
		keywords: []string{"worker", "performance"},
		reply:    "Worker performance is tracked via route completion, punctuality, and citizen ratings. Top performers get recognition and incentives.",
	},
}

var fallbackReplies = []string{
	"I'm here to help with waste management queries. Try asking about collection schedules, segregation guidelines, or your specific role features.",
	"For detailed assistance, you can also contact our support team at support@smartwaste.city or call 1800-WASTE-HELP.",
	"Is there something specific about waste management you'd like to know? I can help with schedules, guidelines, points, and more!",
}

var commonQuickReplies = []string{"Collection schedule", "Waste segregation guide", "Green points info", "Report an issue"}

func roleRules(role domain.Role) []rule {
	switch role {
	case domain.RoleCitizen:
		return citizenRules
	case domain.RoleWorker:
		return workerRules
	case domain.RoleAdmin:
		return adminRules
	}
	return nil
}

func roleQuickReplies(role domain.Role) []string {
	switch role {
	case domain.RoleCitizen:
		return []string{"Redeem points", "My rating", "Complaint status"}
	case domain.RoleWorker:
		return []string{"Today's route", "Rate household", "Performance stats"}
	case domain.RoleAdmin:
		return []string{"City overview", "Worker management", "Analytics"}
	}
	return nil
}

// FallbackReplies returns a copy of the replies used when no rule matches.
func FallbackReplies() []string {
	return append([]string(nil), fallbackReplies...)
}

// QuickReplies returns the common suggestions followed by the role's own.
func QuickReplies(role domain.Role) []string {
	specific := roleQuickReplies(role)
	out := make([]string, 0, len(commonQuickReplies)+len(specific))
	out = append(out, commonQuickReplies...)
	return append(out, specific...)
}

// SupportLabel is the badge the widget shows for role, e.g. "Citizen Support".
func SupportLabel(role domain.Role) string {
	switch role {
	case domain.RoleCitizen:
		return "Citizen Support"
	case domain.RoleWorker:
		return "Worker Support"
	case domain.RoleAdmin:
		return "Admin Support"
	}
	return "Support"
}

// Dispatcher is the rule-based assistant. The random source only picks among
// fallback replies; everything else is deterministic.
type Dispatcher struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDispatcher returns a dispatcher drawing fallbacks from rng. A nil rng is
// replaced by a randomly seeded one.
func NewDispatcher(rng *rand.Rand) *Dispatcher {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Dispatcher{rng: rng}
}

// Classify matches input against the general rules, then the rules of role,
// and falls back to a random canned reply.
func (d *Dispatcher) Classify(input string, role domain.Role) domain.Reply {
	normalized := strings.ToLower(input)

	for _, r := range generalRules {
		if r.matches(normalized) {
			return domain.Reply{Intent: r.intent, Text: r.reply}
		}
	}
	for _, r := range roleRules(role) {
		if r.matches(normalized) {
			return domain.Reply{Intent: r.intent, Text: r.reply}
		}
	}

	d.mu.Lock()
	i := d.rng.IntN(len(fallbackReplies))
	d.mu.Unlock()
	return domain.Reply{Intent: domain.IntentFallback, Text: fallbackReplies[i]}
}

// Suggestions returns the quick replies for role and the leading few the
// widget shows before it is expanded.
func (d *Dispatcher) Suggestions(role domain.Role) (preview, all []string) {
	all = QuickReplies(role)
	return all[:min(QuickReplyPreview, len(all))], all
}

func (d *Dispatcher) SupportLabel(role domain.Role) string {
	return SupportLabel(role)
}

// Respond returns only the reply text.
func (d *Dispatcher) Respond(input string, role domain.Role) string {
	return d.Classify(input, role).Text
}
