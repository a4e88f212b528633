package reminders

import "time"

// SubjectType says which table a reminder kind sweeps.
type SubjectType string

const (
	SubjectProject SubjectType = "project"
	SubjectQuote   SubjectType = "quote"
)

// Kind is one reminder tier: an age window over the subject's creation
// time plus whether the tier escalates to staff. The day-bounded windows
// are intentionally one-shot; a sweep running less than daily can miss
// them, which only delays outreach (earlier tiers already covered the
// subject) and never duplicates it.
type Kind struct {
	Name      string
	Subject   SubjectType
	MinAge    time.Duration
	MaxAge    time.Duration // 0 means unbounded on the old side
	Escalates bool
	Title     string
	Body      string
}

// Kinds is the closed set of reminder tiers, swept in order.
var Kinds = []Kind{
	{
		Name:    "onboarding_24h",
		Subject: SubjectProject,
		MinAge:  24 * time.Hour,
		Title:   "Your onboarding is waiting",
		Body:    "You started telling us about your project yesterday — pick up where you left off and we can get moving.",
	},
	{
		Name:    "onboarding_48h",
		Subject: SubjectProject,
		MinAge:  48 * time.Hour,
		Title:   "Still with us?",
		Body:    "Your onboarding answers are saved. A few minutes more and we can prepare your proposal.",
	},
	{
		Name:      "onboarding_7d",
		Subject:   SubjectProject,
		MinAge:    7 * 24 * time.Hour,
		MaxAge:    8 * 24 * time.Hour,
		Escalates: true,
		Title:     "Last nudge on your project",
		Body:      "It's been a week since you started onboarding. Reply to this email if anything is unclear — we're happy to help.",
	},
	{
		Name:    "quote_ready",
		Subject: SubjectQuote,
		MinAge:  time.Hour,
		MaxAge:  24 * time.Hour,
		Title:   "Your quote is ready",
		Body:    "Your quote is waiting in the portal. Take a look and let us know what you think.",
	},
	{
		Name:    "quote_3d",
		Subject: SubjectQuote,
		MinAge:  3 * 24 * time.Hour,
		MaxAge:  4 * 24 * time.Hour,
		Title:   "Any questions about your quote?",
		Body:    "Your quote has been ready for a few days. If something doesn't fit, tell us — we can adjust.",
	},
	{
		Name:      "quote_7d",
		Subject:   SubjectQuote,
		MinAge:    7 * 24 * time.Hour,
		MaxAge:    8 * 24 * time.Hour,
		Escalates: true,
		Title:     "Shall we keep your quote open?",
		Body:      "Your quote has been waiting a week. We'll keep it open — reply if you'd like to talk it through.",
	},
}

// Window maps the kind's age bounds onto a half-open creation-time range
// [from, to): age >= MinAge means created_at < now-MinAge, and MaxAge
// bounds the old side. A zero from leaves the range open-ended.
func (k Kind) Window(now time.Time) (from, to time.Time) {
	to = now.Add(-k.MinAge)
	if k.MaxAge > 0 {
		from = now.Add(-k.MaxAge)
	}
	return from, to
}
