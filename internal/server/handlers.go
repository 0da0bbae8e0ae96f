package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/conneroisu/sitepanel/internal/backend"
	"github.com/conneroisu/sitepanel/internal/components"
	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/pagination"
	"github.com/conneroisu/sitepanel/internal/version"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /admin", s.handleAdminHome)
	mux.HandleFunc("GET /admin/sites", s.handleAllSites)
	mux.HandleFunc("GET /admin/sites/new", s.handleNewSite)
	mux.HandleFunc("POST /admin/sites", s.handleCreateSite)
	mux.HandleFunc("GET /admin/sites/{siteName}", s.handleSite)
	mux.HandleFunc("GET /admin/sites/{siteName}/pages", s.handleAllPages)
	mux.HandleFunc("POST /admin/sites/{siteName}/pages", s.handleAddPage)
	mux.HandleFunc("GET /admin/sites/{siteName}/pages/{pageSlug}", s.handleEditPage)
	mux.HandleFunc("POST /admin/sites/{siteName}/pages/{pageSlug}", s.handleSavePage)
	mux.HandleFunc("POST /admin/sites/{siteName}/pages/{pageSlug}/move", s.handleMovePage)
	mux.HandleFunc("POST /admin/sites/{siteName}/pages/{pageSlug}/delete", s.handleDeletePage)

	mux.HandleFunc("GET /api/sites", s.handleAPISites)
	mux.HandleFunc("GET /api/sites/{siteName}/pages", s.handleAPIPages)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, components.Home())
}

func (s *Server) handleAdminHome(w http.ResponseWriter, r *http.Request) {
	all, err := s.sites.AllSites(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.renderAdmin(w, r, http.StatusOK, "Dashboard", components.AdminHome(len(all)))
}

func (s *Server) handleAllSites(w http.ResponseWriter, r *http.Request) {
	number, size := s.pageParams(r)
	page, err := s.sites.SitesPage(r.Context(), number, size)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.renderAdmin(w, r, http.StatusOK, "Sites", components.AllSites(page))
}

func (s *Server) handleNewSite(w http.ResponseWriter, r *http.Request) {
	s.renderAdmin(w, r, http.StatusOK, "New site", components.NewSite("", ""))
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")

	site, err := s.sites.CreateSite(r.Context(), name)
	if err != nil {
		if isFormError(err) {
			s.renderAdmin(w, r, errors.HTTPStatus(err), "New site", components.NewSite(name, err.Error()))
			return
		}
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, pagesURL(site.Name), http.StatusSeeOther)
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pagesURL(r.PathValue("siteName")), http.StatusFound)
}

func (s *Server) handleAllPages(w http.ResponseWriter, r *http.Request) {
	s.renderPages(w, r, http.StatusOK, "")
}

func (s *Server) renderPages(w http.ResponseWriter, r *http.Request, status int, formErr string) {
	site := r.PathValue("siteName")
	number, size := s.pageParams(r)

	page, err := s.sites.PagesPage(r.Context(), site, number, size)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.renderAdmin(w, r, status, site, components.SiteLayout(site, components.AllPages(site, page, formErr)))
}

func (s *Server) handleAddPage(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("siteName")

	_, err := s.sites.AddPage(r.Context(), site, r.PostFormValue("title"), r.PostFormValue("content"))
	if err != nil {
		if isFormError(err) {
			s.renderPages(w, r, errors.HTTPStatus(err), err.Error())
			return
		}
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, pagesURL(site), http.StatusSeeOther)
}

func (s *Server) handleEditPage(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("siteName")

	page, err := s.sites.Page(r.Context(), site, r.PathValue("pageSlug"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.renderAdmin(w, r, http.StatusOK, page.Title, components.SiteLayout(site, components.EditPage(site, *page, "")))
}

func (s *Server) handleSavePage(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("siteName")

	page := backend.Page{
		Site:    site,
		Slug:    r.PostFormValue("slug"),
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}
	if page.Slug == "" {
		page.Slug = r.PathValue("pageSlug")
	}
	page.ID, _ = strconv.Atoi(r.PostFormValue("id"))
	page.Index, _ = strconv.Atoi(r.PostFormValue("index"))

	if err := s.sites.UpdatePage(r.Context(), site, page); err != nil {
		if isFormError(err) {
			s.renderAdmin(w, r, errors.HTTPStatus(err), page.Title,
				components.SiteLayout(site, components.EditPage(site, page, err.Error())))
			return
		}
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, pagesURL(site), http.StatusSeeOther)
}

func (s *Server) handleMovePage(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("siteName")

	var delta int
	switch r.PostFormValue("direction") {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		s.handleError(w, r, errors.NewValidationError(errors.ErrCodeInvalidArgument, "direction must be up or down").
			WithContext("field", "direction"))
		return
	}

	if err := s.sites.MovePage(r.Context(), site, r.PathValue("pageSlug"), delta); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, backTo(r, pagesURL(site)), http.StatusSeeOther)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("siteName")

	if err := s.sites.DeletePage(r.Context(), site, r.PathValue("pageSlug")); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, backTo(r, pagesURL(site)), http.StatusSeeOther)
}

// listResponse is the JSON envelope for paginated API responses.
type listResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newListResponse[T any](p *pagination.Page[T]) listResponse[T] {
	items := p.Items.Slice()
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{
		Items:      items,
		Page:       p.Number,
		Size:       p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
	}
}

func (s *Server) handleAPISites(w http.ResponseWriter, r *http.Request) {
	number, size := s.pageParams(r)
	page, err := s.sites.SitesPage(r.Context(), number, size)
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newListResponse(page))
}

func (s *Server) handleAPIPages(w http.ResponseWriter, r *http.Request) {
	number, size := s.pageParams(r)
	page, err := s.sites.PagesPage(r.Context(), r.PathValue("siteName"), number, size)
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newListResponse(page))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"version":   version.GetShortVersion(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	}
	if s.hub != nil {
		health["websocket_clients"] = s.hub.ClientCount()
	}
	s.writeJSON(w, r, http.StatusOK, health)
}

func (s *Server) pageParams(r *http.Request) (int, int) {
	return pagination.ParseParams(r.URL.Query(), s.config.Admin.PageSize, s.config.Admin.MaxPageSize)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "Failed to render page", "path", r.URL.Path)
	}
}

func (s *Server) renderAdmin(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	s.render(w, r, status, components.AdminLayout(title, s.config.Development.LiveReload, body))
}

// handleError logs err and renders it inside the admin layout.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler.Handle(r.Context(), err)
	status := errors.HTTPStatus(err)
	s.renderAdmin(w, r, status, http.StatusText(status), components.ErrorView(status, publicMessage(err, status)))
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	s.errorHandler.Handle(r.Context(), err)
	status := errors.HTTPStatus(err)
	s.writeJSON(w, r, status, map[string]string{
		"error":      publicMessage(err, status),
		"request_id": RequestID(r.Context()),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode JSON response", "path", r.URL.Path)
	}
}

// publicMessage hides internal failures from the browser.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		if errors.TypeOf(err) == errors.ErrorTypeNetwork {
			return "the content back-end is unavailable"
		}
		return "internal server error"
	}
	return err.Error()
}

// isFormError reports whether err should be shown next to the submitted form.
func isFormError(err error) bool {
	return errors.TypeOf(err) == errors.ErrorTypeValidation
}

func pagesURL(site string) string {
	return "/admin/sites/" + url.PathEscape(site) + "/pages"
}

// backTo returns the same-site page the form was posted from so list
// actions keep the current page number, or fallback.
func backTo(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.EscapedPath() != fallback || (ref.Host != "" && ref.Host != r.Host) {
		return fallback
	}
	if ref.RawQuery == "" {
		return fallback
	}
	return fallback + "?" + ref.RawQuery
}
