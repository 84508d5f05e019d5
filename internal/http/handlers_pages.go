package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/sunstone-mind/sunstone-web/internal/domain/auth"
	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	"github.com/sunstone-mind/sunstone-web/internal/domain/wellness"
	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
	"github.com/sunstone-mind/sunstone-web/internal/service"
)

// Landing serves GET /.
func (h *Handlers) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageMeta{Title: "Sunstone Mind", CurrentPage: PageLanding}, http.StatusOK, nil)
}

// NotFound renders the 404 page for unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageMeta{Title: "Page not found", CurrentPage: PageNotFound}, http.StatusNotFound, nil)
}

// DashboardPageData backs pages/dashboard.tmpl.
type DashboardPageData struct {
	service.Dashboard
	SelectedMood string
	Note         string
	FormError    string
	LoadError    string
}

// Dashboard serves GET /dashboard.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.dashboardPage(w, r, http.StatusOK, DashboardPageData{})
}

func (h *Handlers) dashboardPage(w http.ResponseWriter, r *http.Request, status int, data DashboardPageData) {
	rec := mustSession(r).Record()
	d, err := h.Wellness.Dashboard(r.Context(), rec.OwnerID(), rec.DisplayName())
	if err != nil {
		data.LoadError = apperrors.UserMessage(err, "We couldn't load your recent activity.")
		d = service.Dashboard{Name: rec.DisplayName(), Moods: wellness.Moods()}
		if status == http.StatusOK {
			status = errorStatus(err)
		}
	}
	data.Dashboard = d
	h.render(w, r, PageMeta{Title: "Dashboard", CurrentPage: PageDashboard}, status, data)
}

// RecordMood serves POST /dashboard/mood.
func (h *Handlers) RecordMood(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	rec := mustSession(r).Record()
	mood, note := r.PostFormValue("mood"), r.PostFormValue("note")
	if _, err := h.Wellness.RecordCheckIn(r.Context(), rec.OwnerID(), mood, note); err != nil {
		h.dashboardPage(w, r, errorStatus(err), DashboardPageData{
			SelectedMood: mood,
			Note:         note,
			FormError:    apperrors.UserMessage(err, "Could not save your check-in."),
		})
		return
	}
	if WantsPartial(r) {
		h.dashboardPage(w, r, http.StatusOK, DashboardPageData{})
		return
	}
	h.redirect(w, r, service.DashboardPath)
}

// JournalPageData backs pages/journal.tmpl.
type JournalPageData struct {
	Entries   []wellness.JournalEntry
	Tags      []wellness.Tag
	Selected  map[wellness.Tag]bool
	Body      string
	FormError string
	LoadError string
	MaxRunes  int
}

// Journal serves GET /journal.
func (h *Handlers) Journal(w http.ResponseWriter, r *http.Request) {
	h.journalPage(w, r, http.StatusOK, JournalPageData{})
}

func (h *Handlers) journalPage(w http.ResponseWriter, r *http.Request, status int, data JournalPageData) {
	rec := mustSession(r).Record()
	entries, err := h.Wellness.Journal(r.Context(), rec.OwnerID(), journalPageSize)
	if err != nil {
		data.LoadError = apperrors.UserMessage(err, "We couldn't load your journal.")
		if status == http.StatusOK {
			status = errorStatus(err)
		}
	}
	data.Entries = entries
	data.Tags = wellness.Tags()
	data.MaxRunes = wellness.MaxJournalRunes
	h.render(w, r, PageMeta{Title: "Journal", CurrentPage: PageJournal}, status, data)
}

// AddJournalEntry serves POST /journal.
func (h *Handlers) AddJournalEntry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	rec := mustSession(r).Record()
	body := r.PostFormValue("body")
	tags := r.PostForm["tags"]
	if _, err := h.Wellness.AddJournalEntry(r.Context(), rec.OwnerID(), body, tags); err != nil {
		selected := make(map[wellness.Tag]bool, len(tags))
		for _, t := range tags {
			selected[wellness.Tag(strings.ToLower(strings.TrimSpace(t)))] = true
		}
		h.journalPage(w, r, errorStatus(err), JournalPageData{
			Body:      body,
			Selected:  selected,
			FormError: apperrors.UserMessage(err, "Could not save your entry."),
		})
		return
	}
	if WantsPartial(r) {
		h.journalPage(w, r, http.StatusOK, JournalPageData{})
		return
	}
	h.redirect(w, r, JournalPath)
}

// ProfilePageData backs pages/profile.tmpl.
type ProfilePageData struct {
	service.Profile
	User      *domainauth.User
	Identity  *domainauth.Identity
	LoadError string
}

// Profile serves GET /profile.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	rec := mustSession(r).Record()
	email := ""
	if rec.State.User != nil {
		email = rec.State.User.Email
	} else if rec.Identity != nil {
		email = rec.Identity.Email
	}

	data := ProfilePageData{User: rec.State.User, Identity: rec.Identity}
	status := http.StatusOK
	p, err := h.Wellness.Profile(r.Context(), rec.OwnerID(), rec.DisplayName(), email)
	if err != nil {
		data.LoadError = apperrors.UserMessage(err, "We couldn't load your stats.")
		feedback.FromContext(r.Context()).Error(data.LoadError)
		p = service.Profile{Name: rec.DisplayName(), Email: email}
		status = errorStatus(err)
	}
	data.Profile = p
	h.render(w, r, PageMeta{Title: "Profile", CurrentPage: PageProfile}, status, data)
}
