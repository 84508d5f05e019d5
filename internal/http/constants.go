package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageLanding   = "landing"
	PageAuth      = "auth"
	PageDashboard = "dashboard"
	PageJournal   = "journal"
	PageProfile   = "profile"
	PageNotFound  = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromRoot   = "frontend/static"
)

// Pending texts shown on submit buttons while a request is in flight.
const (
	PendingSignUp   = "Registering user..."
	PendingSignIn   = "Signing in..."
	PendingIdentity = "Setting up your account..."
)

// Member page paths not owned by the auth flow.
const (
	JournalPath = "/journal"
	ProfilePath = "/profile"
)

const journalPageSize = 20

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLanding:   "landing-content",
	PageAuth:      "auth-content",
	PageDashboard: "dashboard-content",
	PageJournal:   "journal-content",
	PageProfile:   "profile-content",
	PageNotFound:  "not-found-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to the not-found page for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
