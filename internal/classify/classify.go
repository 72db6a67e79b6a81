// Package classify implements the first of the generator's two keyword
// passes: scanning one user utterance for persona, budget, app-mention,
// and interest signals. It is pure; applying the signals to session
// memory is the generator's job.
package classify

import (
	"strings"

	"github.com/kingdomapps/concierge/internal/catalog"
	"github.com/kingdomapps/concierge/internal/memory"
)

// Signals is everything one utterance revealed. Persona and Budget are
// empty when the text carried no such signal, so callers can distinguish
// "no signal" from an explicit classification.
type Signals struct {
	Persona   memory.Persona
	Budget    memory.BudgetRange
	Apps      []string
	Interests []string
	// Topics are the trigger keywords that fired, recorded so a later
	// persona overwrite does not erase the evidence entirely.
	Topics []string
}

type personaRule struct {
	persona  memory.Persona
	keywords []string
}

// Persona rules are checked in order; the first hit wins and no
// combination happens.
var personaRules = []personaRule{
	{memory.PersonaTechnical, []string{"api", "integration", "webhook", "sdk", "developer", "technical", "code", "database"}},
	{memory.PersonaBusiness, []string{"roi", "revenue", "team", "business", "workflow", "clients", "organization", "enterprise"}},
	{memory.PersonaCreative, []string{"design", "creative", "video", "brand", "story", "artist", "content"}},
	{memory.PersonaSpiritual, []string{"prayer", "faith", "scripture", "bible", "ministry", "devotional", "spiritual", "god"}},
}

// Budget classification only fires when a price-ish trigger word is
// present; the sub-qualifiers then pick the tier, defaulting to medium.
var (
	budgetTriggers  = []string{"budget", "cost", "price", "pricing", "how much", "afford"}
	budgetLowWords  = []string{"free", "cheap", "affordable", "tight", "student"}
	budgetEntWords  = []string{"enterprise", "organization", "company-wide", "unlimited"}
	budgetHighWords = []string{"premium", "professional", "advanced", "best"}
)

// interestVocabulary mirrors the catalog's interest tags so accumulated
// interests can rank app recommendations.
var interestVocabulary = []string{
	"journaling", "prayer", "devotionals", "dreams", "prophecy",
	"video", "content", "media", "editing", "writing",
	"courses", "teaching",
	"credit", "finance", "budgeting", "stewardship",
	"freelancing", "business", "analytics", "dashboards",
}

// Classifier scans utterances against the fixed rules plus the catalog's
// product names.
type Classifier struct {
	catalog *catalog.Catalog
}

func New(cat *catalog.Catalog) *Classifier {
	return &Classifier{catalog: cat}
}

// Classify runs every rule set over the utterance. The rule sets are
// independent: one message can yield a persona, a budget, app mentions,
// and interests all at once.
func (c *Classifier) Classify(text string) Signals {
	lower := strings.ToLower(text)
	var sig Signals

	for _, rule := range personaRules {
		if kw, ok := firstMatch(lower, rule.keywords); ok {
			sig.Persona = rule.persona
			sig.Topics = append(sig.Topics, kw)
			break
		}
	}

	if kw, ok := firstMatch(lower, budgetTriggers); ok {
		sig.Topics = append(sig.Topics, kw)
		switch {
		case matchesAny(lower, budgetLowWords):
			sig.Budget = memory.BudgetLow
		case matchesAny(lower, budgetEntWords):
			sig.Budget = memory.BudgetEnterprise
		case matchesAny(lower, budgetHighWords):
			sig.Budget = memory.BudgetHigh
		default:
			sig.Budget = memory.BudgetMedium
		}
	}

	sig.Apps = c.catalog.MatchMentions(text)

	for _, tag := range interestVocabulary {
		if strings.Contains(lower, tag) {
			sig.Interests = append(sig.Interests, tag)
		}
	}

	return sig
}

func firstMatch(lower string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

func matchesAny(lower string, keywords []string) bool {
	_, ok := firstMatch(lower, keywords)
	return ok
}
