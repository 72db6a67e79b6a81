package catalog

// Default returns the compiled-in catalog for the Kingdom app suite.
// Deployments that version the catalog separately can override it with a
// JSON file via CHAT_CATALOG_PATH.
func Default() *Catalog {
	c, err := New(defaultApps)
	if err != nil {
		// The compiled-in data is validated by tests; a bad entry here is
		// a programming error, not a runtime condition.
		panic(err)
	}
	return c
}

var defaultApps = []App{
	{
		ID:          "kingdom-voice",
		Name:        "Kingdom Voice",
		Route:       "/kingdom-voice",
		Tagline:     "Speak your journal, keep your story",
		Description: "Voice-first journaling that turns spoken reflections into organized, searchable entries.",
		Features:    []string{"Voice-to-text journaling", "Daily reflection prompts", "Scripture tagging", "Private audio vault"},
		Benefits:    []string{"Capture thoughts hands-free", "Build a consistent journaling habit"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free", Highlights: []string{"10 entries per month", "Text export"}},
			{Name: "Premium", Price: "$9.99/mo", Highlights: []string{"Unlimited entries", "Audio vault", "Prompt packs"}},
			{Name: "Enterprise", Price: "Custom", Highlights: []string{"Team spaces", "Priority support"}},
		},
		Audience:          "Believers who process out loud",
		UseCases:          []string{"Morning devotionals", "Prayer journaling", "Sermon notes"},
		BiblicalPrinciple: "Out of the abundance of the heart the mouth speaks (Luke 6:45).",
		InterestTags:      []string{"journaling", "voice", "prayer", "devotionals"},
	},
	{
		ID:          "kingdom-journal",
		Name:        "Kingdom Journal",
		Route:       "/kingdom-journal",
		Tagline:     "Guided journaling rooted in scripture",
		Description: "Structured written journaling with guided prompts, streaks, and scripture cross-references.",
		Features:    []string{"Guided prompt library", "Streak tracking", "Verse lookup", "PDF export"},
		Benefits:    []string{"Never face a blank page", "See growth over time"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$7.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Daily journalers and small groups",
		UseCases:          []string{"Quiet time", "Gratitude logs", "Group studies"},
		BiblicalPrinciple: "Write the vision; make it plain on tablets (Habakkuk 2:2).",
		InterestTags:      []string{"journaling", "writing", "devotionals", "prayer"},
	},
	{
		ID:          "kingdom-dreams",
		Name:        "Kingdom Dreams",
		Route:       "/kingdom-dreams",
		Tagline:     "Track and steward your dream life",
		Description: "A dream journal with symbol tagging, pattern timelines, and interpretation study tools.",
		Features:    []string{"Dream capture", "Symbol dictionary", "Pattern timeline", "Reminder nudges"},
		Benefits:    []string{"Spot recurring themes", "Keep dreams from fading by morning"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$6.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Anyone serious about dream tracking",
		UseCases:          []string{"Nightly dream logs", "Symbol studies"},
		BiblicalPrinciple: "Your old men shall dream dreams, your young men shall see visions (Joel 2:28).",
		InterestTags:      []string{"dreams", "journaling", "prophecy"},
	},
	{
		ID:          "kingdom-clips",
		Name:        "Kingdom Clips",
		Route:       "/kingdom-clips",
		Tagline:     "Turn sermons into shareable moments",
		Description: "Clip editing for ministries: trim long recordings into captioned short-form clips.",
		Features:    []string{"Waveform trimming", "Auto captions", "Vertical reframing", "Brand templates"},
		Benefits:    []string{"Reach people where they scroll", "Cut editing time dramatically"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$14.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Media teams and content creators",
		UseCases:          []string{"Sermon highlights", "Testimony reels"},
		BiblicalPrinciple: "Go into all the world and proclaim the gospel (Mark 16:15).",
		InterestTags:      []string{"video", "content", "media", "editing"},
	},
	{
		ID:          "kingdom-studio",
		Name:        "Kingdom Studio",
		Route:       "/kingdom-studio",
		Tagline:     "Build courses that disciple",
		Description: "A course builder for teachers: lessons, quizzes, drip schedules, and student progress.",
		Features:    []string{"Drag-and-drop lessons", "Quiz builder", "Drip scheduling", "Progress dashboards"},
		Benefits:    []string{"Launch a course without a developer", "Keep students engaged"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$19.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Teachers, pastors, and coaches",
		UseCases:          []string{"Discipleship tracks", "Membership classes"},
		BiblicalPrinciple: "Teaching them to observe all that I have commanded (Matthew 28:20).",
		InterestTags:      []string{"courses", "teaching", "content"},
	},
	{
		ID:          "kingdom-credit",
		Name:        "Kingdom Credit",
		Route:       "/kingdom-credit",
		Tagline:     "Credit education with biblical stewardship",
		Description: "Credit education tools: score tracking lessons, dispute letter guides, and budgeting basics.",
		Features:    []string{"Credit lessons", "Dispute letter templates", "Budget worksheets"},
		Benefits:    []string{"Understand your report", "Plan debt payoff with a steward's mindset"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$9.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Families rebuilding their finances",
		UseCases:          []string{"Credit repair study", "First-home preparation"},
		BiblicalPrinciple: "The borrower is the slave of the lender (Proverbs 22:7).",
		InterestTags:      []string{"finance", "credit", "budgeting", "stewardship"},
	},
	{
		ID:          "kingdom-launch",
		Name:        "Kingdom Launch",
		Route:       "/kingdom-launch",
		Tagline:     "Freelance tools for kingdom builders",
		Description: "Invoicing, proposals, and client tracking for faith-driven freelancers.",
		Features:    []string{"Invoice generator", "Proposal templates", "Client CRM", "Payment reminders"},
		Benefits:    []string{"Look professional from day one", "Get paid on time"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$12.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Freelancers and solo founders",
		UseCases:          []string{"Client onboarding", "Monthly invoicing"},
		BiblicalPrinciple: "Whatever you do, work heartily, as for the Lord (Colossians 3:23).",
		InterestTags:      []string{"freelancing", "business", "finance"},
	},
	{
		ID:          "kingdom-insights",
		Name:        "Kingdom Insights",
		Route:       "/kingdom-insights",
		Tagline:     "Dashboards for ministry and business health",
		Description: "Business intelligence dashboards: giving trends, attendance, sales, and engagement in one view.",
		Features:    []string{"Metric dashboards", "Trend alerts", "CSV import", "Team sharing"},
		Benefits:    []string{"Decide from data, not guesses", "One view for the whole team"},
		Pricing: []PricingTier{
			{Name: "Basic", Price: "Free"},
			{Name: "Premium", Price: "$24.99/mo"},
			{Name: "Enterprise", Price: "Custom"},
		},
		Audience:          "Operators, admins, and executive teams",
		UseCases:          []string{"Weekly leadership reviews", "Campaign tracking"},
		BiblicalPrinciple: "Know well the condition of your flocks (Proverbs 27:23).",
		InterestTags:      []string{"analytics", "business", "dashboards"},
	},
}
