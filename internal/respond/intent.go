package respond

import "strings"

// Intent is the classified purpose of a single utterance. Exactly one
// intent is dispatched per turn.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentPricing        Intent = "pricing"
	IntentFeature        Intent = "feature"
	IntentDemo           Intent = "demo"
	IntentComparison     Intent = "comparison"
	IntentCompany        Intent = "company"
	IntentRecommendation Intent = "recommendation"
	IntentBiblical       Intent = "biblical"
	IntentDefault        Intent = "default"
)

type intentRule struct {
	intent   Intent
	keywords []string
	words    []string
}

// Intent rules are scanned in priority order; the first match wins. This
// scan is deliberately independent of the classification pass: a message
// can update the persona and still dispatch as a pricing question.
var intentRules = []intentRule{
	{IntentGreeting, []string{"hello", "good morning", "good afternoon", "good evening", "shalom"}, []string{"hi", "hey"}},
	{IntentPricing, []string{"price", "pricing", "cost", "how much", "subscription", "tier", "plan"}, nil},
	{IntentFeature, []string{"feature", "what can", "what does", "capabilit", "how does", "functionality"}, nil},
	{IntentDemo, []string{"demo", "trial", "try it", "test it", "walkthrough", "show me"}, nil},
	{IntentComparison, []string{"compare", "comparison", "versus", "difference"}, []string{"vs"}},
	{IntentCompany, []string{"who are you", "about you", "about kingdom", "your company", "your mission", "who made"}, nil},
	{IntentRecommendation, []string{"recommend", "suggest", "which app", "best app", "what should i", "help me choose"}, nil},
	{IntentBiblical, []string{"bible", "biblical", "scripture", "verse", "faith", "prayer", "god"}, nil},
}

// DetectIntent maps an utterance to exactly one intent, falling through
// to the default branch when nothing matches.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
		for _, w := range rule.words {
			if hasWord(lower, w) {
				return rule.intent
			}
		}
	}
	return IntentDefault
}

// hasWord matches whole tokens only, so "hi" does not fire inside
// "this" and "vs" does not fire inside "vscode".
func hasWord(lower, word string) bool {
	start := -1
	for i := 0; i <= len(lower); i++ {
		if i < len(lower) && isWordByte(lower[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && lower[start:i] == word {
			return true
		}
		start = -1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\''
}
