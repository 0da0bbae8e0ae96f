package backend

import "context"

// Site is a content site; its name is the key every page URL is built from.
type Site struct {
	Name string `json:"name" yaml:"name"`
}

// Page is a page of a site, ordered within the site by Index.
type Page struct {
	ID      int    `json:"id,omitempty" yaml:"id,omitempty"`
	Site    string `json:"site" yaml:"site"`
	Slug    string `json:"slug" yaml:"slug"`
	Index   int    `json:"index" yaml:"index"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// PageAddCommand is the body of a page creation request.
type PageAddCommand struct {
	Site    string `json:"site"`
	Slug    string `json:"slug"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PageUpdateCommand is the body of a page update request.
type PageUpdateCommand struct {
	ID      int    `json:"id"`
	Site    string `json:"site"`
	Slug    string `json:"slug"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PagePatchCommand moves one page to a new index.
type PagePatchCommand struct {
	Slug  string `json:"slug"`
	Index int    `json:"index"`
}

// API is the set of back-end calls the rest of sitepanel depends on.
// *Client implements it; tests substitute fakes.
type API interface {
	GetAllSites(ctx context.Context) ([]Site, error)
	CreateSite(ctx context.Context, name string) (*Site, error)
	GetPages(ctx context.Context, site string) ([]Page, error)
	GetPage(ctx context.Context, site, slug string) (*Page, error)
	AddPage(ctx context.Context, site string, cmd PageAddCommand) (*Page, error)
	UpdatePage(ctx context.Context, site string, cmd PageUpdateCommand) error
	DeletePage(ctx context.Context, site, slug string) error
	PatchPageIndices(ctx context.Context, site string, cmds []PagePatchCommand) error
}
