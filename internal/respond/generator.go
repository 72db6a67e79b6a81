package respond

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingdomapps/concierge/internal/catalog"
	"github.com/kingdomapps/concierge/internal/classify"
	"github.com/kingdomapps/concierge/internal/memory"
	"github.com/kingdomapps/concierge/internal/observability"
)

// Reply is one generated assistant turn.
type Reply struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Intent    Intent `json:"intent"`
	FollowUp  string `json:"follow_up,omitempty"`
}

// Generator maps (user text, session, page) to a response while updating
// session memory. It never returns an error: unknown input falls through
// to the default branch and storage trouble degrades inside the store.
type Generator struct {
	store      *memory.Store
	catalog    *catalog.Catalog
	classifier *classify.Classifier
	log        zerolog.Logger
	metrics    *observability.Metrics
}

func NewGenerator(store *memory.Store, cat *catalog.Catalog, log zerolog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{
		store:      store,
		catalog:    cat,
		classifier: classify.New(cat),
		log:        log,
		metrics:    metrics,
	}
}

// Reply runs one full turn: lazily create the session, record the page,
// apply the classification pass, dispatch exactly one intent branch, and
// append both turns to history.
func (g *Generator) Reply(ctx context.Context, sessionID, page, text string) Reply {
	start := time.Now()

	if _, ok := g.store.Get(ctx, sessionID); !ok {
		g.store.Create(ctx, sessionID, page)
	}
	// An empty page means the widget sent no navigation update; the last
	// known page stays current.
	if page != "" {
		g.store.SetCurrentPage(ctx, sessionID, page)
	}

	sig := g.classifier.Classify(text)
	g.applySignals(ctx, sessionID, sig)

	intent := DetectIntent(text)

	// Projection is taken after the classification pass on purpose: a
	// comparison question mentioning two apps for the first time must see
	// those mentions.
	mctx := g.store.Context(ctx, sessionID)
	app, hasApp := g.catalog.ByRoute(mctx.CurrentPage)

	replyText, followUp := g.compose(ctx, intent, app, hasApp, mctx)

	g.store.AddMessage(ctx, sessionID, memory.Message{
		Text:   text,
		IsUser: true,
		Context: &memory.MessageContext{
			Page:     page,
			Intent:   string(intent),
			Entities: sig.Apps,
			Topics:   sig.Topics,
		},
	})
	g.store.AddMessage(ctx, sessionID, memory.Message{Text: replyText, IsUser: false})
	if followUp != "" {
		g.store.AddFollowUpQuestion(ctx, sessionID, followUp)
	}

	if g.metrics != nil {
		g.metrics.IntentMatches.WithLabelValues(string(intent)).Inc()
		g.metrics.ObserveReplyLatency(time.Since(start))
	}
	g.log.Debug().
		Str("session_id", sessionID).
		Str("intent", string(intent)).
		Str("page", page).
		Msg("generated reply")

	return Reply{SessionID: sessionID, Text: replyText, Intent: intent, FollowUp: followUp}
}

func (g *Generator) applySignals(ctx context.Context, sessionID string, sig classify.Signals) {
	if sig.Persona != "" {
		g.store.SetPersona(ctx, sessionID, sig.Persona)
		if g.metrics != nil {
			g.metrics.PersonaSignals.WithLabelValues(string(sig.Persona)).Inc()
		}
	}
	if sig.Budget != "" {
		g.store.SetBudget(ctx, sessionID, sig.Budget)
	}
	for _, id := range sig.Apps {
		g.store.AddMentionedApp(ctx, sessionID, id)
	}
	for _, interest := range sig.Interests {
		g.store.AddInterest(ctx, sessionID, interest)
	}
	for _, topic := range sig.Topics {
		g.store.AddTopic(ctx, sessionID, topic)
	}
}

func (g *Generator) compose(ctx context.Context, intent Intent, app catalog.App, hasApp bool, mctx memory.Context) (string, string) {
	switch intent {
	case IntentGreeting:
		return g.greeting(app, hasApp, mctx)
	case IntentPricing:
		g.store.RecordPricingInquiry(ctx, mctx.SessionID)
		return g.pricing(app, hasApp, mctx)
	case IntentFeature:
		return g.feature(app, hasApp)
	case IntentDemo:
		g.store.RecordDemoRequest(ctx, mctx.SessionID)
		return g.demo(app, hasApp)
	case IntentComparison:
		return g.comparison(mctx)
	case IntentCompany:
		return g.company()
	case IntentRecommendation:
		return g.recommendation(mctx)
	case IntentBiblical:
		return g.biblical(app, hasApp)
	default:
		return g.fallback(app, hasApp)
	}
}

func (g *Generator) greeting(app catalog.App, hasApp bool, mctx memory.Context) (string, string) {
	flavor := personaFlavor(mctx.UserPersona)
	if hasApp {
		text := fmt.Sprintf("Hello and welcome! You're looking at %s: %s. %s", app.Name, lowerFirst(app.Tagline), flavor)
		return text, "What brings you here today?"
	}
	return "Hello and welcome to the Kingdom suite! " + flavor, "What brings you here today?"
}

func (g *Generator) pricing(app catalog.App, hasApp bool, mctx memory.Context) (string, string) {
	if hasApp && len(app.Pricing) > 0 {
		parts := make([]string, 0, len(app.Pricing))
		for _, tier := range app.Pricing {
			parts = append(parts, fmt.Sprintf("%s (%s)", tier.Name, tier.Price))
		}
		text := fmt.Sprintf("%s has %d plans: %s.", app.Name, len(app.Pricing), strings.Join(parts, ", "))
		switch mctx.BudgetRange {
		case memory.BudgetLow:
			text += " The " + app.Pricing[0].Name + " plan is the place to start — no card required."
		case memory.BudgetEnterprise:
			last := app.Pricing[len(app.Pricing)-1]
			text += " For organization-wide rollouts, ask us about " + last.Name + " terms."
		default:
			text += " Most people start free and upgrade once it sticks."
		}
		return text, "Want me to break down what each plan includes?"
	}
	return "Every Kingdom app offers Basic (free), Premium, and Enterprise plans, priced per app.", "Which app's pricing should I pull up?"
}

func (g *Generator) feature(app catalog.App, hasApp bool) (string, string) {
	if hasApp && len(app.Features) > 0 {
		text := fmt.Sprintf("Here's what %s gives you: %s.", app.Name, strings.Join(app.Features, ", "))
		if len(app.Benefits) > 0 {
			text += " In short: " + lowerFirst(app.Benefits[0]) + "."
		}
		return text, "Want a closer look at any of those?"
	}
	return "Each Kingdom app has its own feature set — tell me which one you're curious about and I'll walk through it.", ""
}

func (g *Generator) demo(app catalog.App, hasApp bool) (string, string) {
	if hasApp {
		text := fmt.Sprintf("You can try %s right now: the free plan needs no card, and I can set up a guided walkthrough for your first session.", app.Name)
		return text, "Should I line up a walkthrough?"
	}
	return "Every Kingdom app has a free plan you can try today. Tell me which one to set you up with.", ""
}

func (g *Generator) comparison(mctx memory.Context) (string, string) {
	// A comparison needs at least two referenced apps; the first two ever
	// mentioned win, in their original mention order.
	if len(mctx.MentionedApps) >= 2 {
		first, okA := g.catalog.ByID(mctx.MentionedApps[0])
		second, okB := g.catalog.ByID(mctx.MentionedApps[1])
		if okA && okB {
			text := fmt.Sprintf("%s is about %s, while %s is about %s. %s fits %s; %s fits %s.",
				first.Name, lowerFirst(first.Tagline),
				second.Name, lowerFirst(second.Tagline),
				first.Name, lowerFirst(first.Audience),
				second.Name, lowerFirst(second.Audience))
			return text, "Want a plan-by-plan price comparison too?"
		}
	}
	return "Happy to compare — which two apps are you weighing?", ""
}

func (g *Generator) company() (string, string) {
	apps := g.catalog.Apps()
	names := make([]string, 0, 3)
	for i, app := range apps {
		if i == 3 {
			break
		}
		names = append(names, app.Name)
	}
	text := fmt.Sprintf("Kingdom Apps builds a suite of %d faith-rooted productivity tools, including %s, all designed to help you steward your time, content, and finances well.",
		len(apps), strings.Join(names, ", "))
	return text, ""
}

func (g *Generator) recommendation(mctx memory.Context) (string, string) {
	// With no recorded interests we ask instead of guessing.
	picks := g.catalog.RecommendByInterests(mctx.UserInterests, 2)
	if len(picks) == 0 {
		return "Tell me a bit about what you're hoping to do — journaling, content, courses, finances? — and I'll point you at the right app.", ""
	}
	text := fmt.Sprintf("Based on your interest in %s, I'd start with %s: %s.",
		strings.Join(mctx.UserInterests, " and "), picks[0].Name, lowerFirst(picks[0].Tagline))
	if len(picks) > 1 {
		text += fmt.Sprintf(" %s is worth a look too.", picks[1].Name)
	}
	return text, "Want me to set up a trial for one of these?"
}

func (g *Generator) biblical(app catalog.App, hasApp bool) (string, string) {
	if hasApp && app.BiblicalPrinciple != "" {
		return fmt.Sprintf("%s is built on a simple conviction: %s", app.Name, app.BiblicalPrinciple), ""
	}
	return "Every Kingdom app starts from scripture — stewardship, diligence, and making the vision plain. Ask me about any app and I'll share the principle behind it.", ""
}

func (g *Generator) fallback(app catalog.App, hasApp bool) (string, string) {
	base := "I can help with pricing, features, demos, or comparing apps across the Kingdom suite."
	if hasApp {
		text := base + fmt.Sprintf(" Since you're on the %s page: %s.", app.Name, lowerFirst(app.Tagline))
		return text, fmt.Sprintf("What would you like to know about %s?", app.Name)
	}
	return base, "What would you like to know?"
}

func personaFlavor(p memory.Persona) string {
	switch p {
	case memory.PersonaTechnical:
		return "Happy to get into integrations and the technical details whenever you are."
	case memory.PersonaBusiness:
		return "Happy to talk team plans and outcomes whenever you're ready."
	case memory.PersonaCreative:
		return "Plenty here for creators — ask away."
	case memory.PersonaSpiritual:
		return "Every tool here is built to serve your walk, not distract from it."
	default:
		return "Ask me anything about the apps."
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
