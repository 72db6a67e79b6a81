package memory

import (
	"context"
	"errors"
	"time"
)

// Persona is the coarse inferred user-type classification. It only flavors
// response wording and is overwritten on every new signal.
type Persona string

const (
	PersonaTechnical Persona = "technical"
	PersonaBusiness  Persona = "business"
	PersonaCreative  Persona = "creative"
	PersonaSpiritual Persona = "spiritual"
	PersonaGeneral   Persona = "general"
)

// BudgetRange is the inferred spending tier, last-write-wins like Persona.
type BudgetRange string

const (
	BudgetLow        BudgetRange = "low"
	BudgetMedium     BudgetRange = "medium"
	BudgetHigh       BudgetRange = "high"
	BudgetEnterprise BudgetRange = "enterprise"
	BudgetUnknown    BudgetRange = "unknown"
)

// MessageContext is a free-form annotation attached to a message. It is
// recorded as given and never validated.
type MessageContext struct {
	Page     string   `json:"page,omitempty"`
	Intent   string   `json:"intent,omitempty"`
	Entities []string `json:"entities,omitempty"`
	Topics   []string `json:"topics,omitempty"`
}

// Message is a single conversational turn kept in session history.
type Message struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	IsUser    bool            `json:"is_user"`
	Timestamp time.Time       `json:"timestamp"`
	Context   *MessageContext `json:"context,omitempty"`
}

// SessionMemory accumulates everything learned about one chat session.
// Set-valued fields preserve insertion order and never hold duplicates.
type SessionMemory struct {
	SessionID           string      `json:"session_id"`
	CurrentPage         string      `json:"current_page"`
	UserInterests       []string    `json:"user_interests"`
	MentionedApps       []string    `json:"mentioned_apps"`
	UserPersona         Persona     `json:"user_persona"`
	BudgetRange         BudgetRange `json:"budget_range"`
	ConversationTopics  []string    `json:"conversation_topics"`
	FollowUpQuestions   []string    `json:"follow_up_questions"`
	UserGoals           []string    `json:"user_goals"`
	ConversationHistory []Message   `json:"conversation_history"`
	PricingInquiries    bool        `json:"pricing_inquiries"`
	DemoRequests        bool        `json:"demo_requests"`
	LeadQualified       bool        `json:"lead_qualified"`
	CreatedAt           time.Time   `json:"created_at"`
	LastInteraction     time.Time   `json:"last_interaction"`
}

// Context is the read-only projection handed to the response generator.
// Every field carries a safe default when the session is absent.
type Context struct {
	SessionID          string      `json:"session_id"`
	CurrentPage        string      `json:"current_page"`
	UserPersona        Persona     `json:"user_persona"`
	BudgetRange        BudgetRange `json:"budget_range"`
	UserInterests      []string    `json:"user_interests"`
	MentionedApps      []string    `json:"mentioned_apps"`
	ConversationTopics []string    `json:"conversation_topics"`
	UserGoals          []string    `json:"user_goals"`
	RecentMessages     []string    `json:"recent_messages"`
	PricingInquiries   bool        `json:"pricing_inquiries"`
	DemoRequests       bool        `json:"demo_requests"`
	LeadQualified      bool        `json:"lead_qualified"`
}

// Summary is the analytics projection of one session.
type Summary struct {
	SessionID     string        `json:"session_id"`
	TotalMessages int           `json:"total_messages"`
	UserMessages  int           `json:"user_messages"`
	BotMessages   int           `json:"bot_messages"`
	Topics        []string      `json:"topics"`
	MentionedApps []string      `json:"mentioned_apps"`
	Interests     []string      `json:"interests"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
	LeadQualified bool          `json:"lead_qualified"`
}

// ErrNotFound reports that no persisted record exists for a session key.
var ErrNotFound = errors.New("session record not found")

// Backend persists one opaque JSON blob per session key. Implementations
// must treat a zero or negative TTL as "no expiry".
type Backend interface {
	Save(ctx context.Context, key string, record []byte, ttl time.Duration) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Sweeper is implemented by backends that need a periodic expiry pass
// instead of native per-key TTL.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}
