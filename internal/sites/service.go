// Package sites is the service layer between the content back-end and the
// admin UI and CLI. It validates input, keeps pages in display order and
// pages long lists through bounded views.
package sites

import (
	"context"
	"sort"

	"github.com/conneroisu/sitepanel/internal/backend"
	"github.com/conneroisu/sitepanel/internal/content"
	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/conneroisu/sitepanel/internal/pagination"
	"github.com/conneroisu/sitepanel/internal/validation"
)

// Change kinds passed to a Notifier.
const (
	ChangeSites = "sites_changed"
	ChangePages = "pages_changed"
)

// Notifier is told about successful writes so connected browsers can refresh.
type Notifier interface {
	Notify(kind, site string)
}

// Service implements site and page operations on top of a back-end.
type Service struct {
	api      backend.API
	notifier Notifier
	logger   logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers a change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets the service logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger.WithComponent("sites")
	}
}

// NewService creates a service over api.
func NewService(api backend.API, opts ...Option) *Service {
	s := &Service{api: api, logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSite validates name and creates the site.
func (s *Service) CreateSite(ctx context.Context, name string) (*backend.Site, error) {
	if err := validation.ValidateSiteName(name); err != nil {
		return nil, errors.WrapValidation(err, errors.ErrCodeValidationFailed, "invalid site name").
			WithContext("field", "name")
	}

	site, err := s.api.CreateSite(ctx, name)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Site created", "site", site.Name)
	s.notify(ChangeSites, site.Name)
	return site, nil
}

// AllSites returns every site sorted by name.
func (s *Service) AllSites(ctx context.Context) ([]backend.Site, error) {
	all, err := s.api.GetAllSites(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// SitesPage returns one page of the sorted site list.
func (s *Service) SitesPage(ctx context.Context, number, size int) (*pagination.Page[backend.Site], error) {
	all, err := s.AllSites(ctx)
	if err != nil {
		return nil, err
	}
	return pagination.New(all, number, size)
}

// Pages returns the pages of site ordered by index, then slug.
func (s *Service) Pages(ctx context.Context, site string) ([]backend.Page, error) {
	pages, err := s.api.GetPages(ctx, site)
	if err != nil {
		return nil, err
	}
	sortPages(pages)
	return pages, nil
}

// PagesPage returns one page of the ordered page list of site.
func (s *Service) PagesPage(ctx context.Context, site string, number, size int) (*pagination.Page[backend.Page], error) {
	pages, err := s.Pages(ctx, site)
	if err != nil {
		return nil, err
	}
	return pagination.New(pages, number, size)
}

// Page fetches a single page.
func (s *Service) Page(ctx context.Context, site, slug string) (*backend.Page, error) {
	return s.api.GetPage(ctx, site, slug)
}

// AddPage creates a page at the end of site. The slug is derived from title.
func (s *Service) AddPage(ctx context.Context, site, title, body string) (*backend.Page, error) {
	if title == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "page title cannot be empty").
			WithContext("field", "title")
	}
	if err := content.Validate(body); err != nil {
		return nil, err
	}

	pages, err := s.Pages(ctx, site)
	if err != nil {
		return nil, err
	}

	slug := content.Slugify(title)
	for _, p := range pages {
		if p.Slug == slug {
			return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "a page with slug "+slug+" already exists").
				WithContext("field", "title").
				WithContext("slug", slug)
		}
	}

	index := 0
	if len(pages) > 0 {
		index = pages[len(pages)-1].Index + 1
	}

	page, err := s.api.AddPage(ctx, site, backend.PageAddCommand{
		Slug:    slug,
		Index:   index,
		Title:   title,
		Content: body,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Page added", "site", site, "slug", page.Slug, "index", page.Index)
	s.notify(ChangePages, site)
	return page, nil
}

// UpdatePage saves an edited page.
func (s *Service) UpdatePage(ctx context.Context, site string, page backend.Page) error {
	if page.Title == "" {
		return errors.NewValidationError(errors.ErrCodeValidationFailed, "page title cannot be empty").
			WithContext("field", "title")
	}
	if err := validation.ValidateSlug(page.Slug); err != nil {
		return errors.WrapValidation(err, errors.ErrCodeValidationFailed, "invalid slug").
			WithContext("field", "slug")
	}
	if err := content.Validate(page.Content); err != nil {
		return err
	}

	err := s.api.UpdatePage(ctx, site, backend.PageUpdateCommand{
		ID:      page.ID,
		Slug:    page.Slug,
		Index:   page.Index,
		Title:   page.Title,
		Content: page.Content,
	})
	if err != nil {
		return err
	}

	s.notify(ChangePages, site)
	return nil
}

// DeletePage removes a page.
func (s *Service) DeletePage(ctx context.Context, site, slug string) error {
	if err := s.api.DeletePage(ctx, site, slug); err != nil {
		return err
	}

	s.logger.Info(ctx, "Page deleted", "site", site, "slug", slug)
	s.notify(ChangePages, site)
	return nil
}

// MovePage moves a page delta positions (negative is up) by swapping its
// index with the page it lands on. Moves past either end do nothing.
func (s *Service) MovePage(ctx context.Context, site, slug string, delta int) error {
	pages, err := s.Pages(ctx, site)
	if err != nil {
		return err
	}

	from := -1
	for i, p := range pages {
		if p.Slug == slug {
			from = i
			break
		}
	}
	if from < 0 {
		return errors.NewNotFoundError(errors.ErrCodeNotFound, "page "+slug+" not found").
			WithContext("site", site)
	}

	to := from + delta
	if delta == 0 || to < 0 || to >= len(pages) {
		return nil
	}

	moved, other := pages[from], pages[to]
	cmds := []backend.PagePatchCommand{
		{Slug: moved.Slug, Index: other.Index},
		{Slug: other.Slug, Index: moved.Index},
	}
	// Swapping equal indices changes nothing, so the site is renumbered
	// densely in the new order instead.
	if moved.Index == other.Index {
		pages[from], pages[to] = pages[to], pages[from]
		cmds = renumber(pages)
	}

	if err := s.api.PatchPageIndices(ctx, site, cmds); err != nil {
		return err
	}

	s.logger.Debug(ctx, "Page moved", "site", site, "slug", slug, "from", from, "to", to)
	s.notify(ChangePages, site)
	return nil
}

// renumber assigns indices 0..n-1 in list order and returns commands for the
// pages whose index changes.
func renumber(pages []backend.Page) []backend.PagePatchCommand {
	var cmds []backend.PagePatchCommand
	for i, p := range pages {
		if p.Index != i {
			cmds = append(cmds, backend.PagePatchCommand{Slug: p.Slug, Index: i})
		}
	}
	return cmds
}

func (s *Service) notify(kind, site string) {
	if s.notifier != nil {
		s.notifier.Notify(kind, site)
	}
}

func sortPages(pages []backend.Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Index != pages[j].Index {
			return pages[i].Index < pages[j].Index
		}
		return pages[i].Slug < pages[j].Slug
	})
}
