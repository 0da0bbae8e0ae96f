package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/conneroisu/sitepanel/internal/backend"
	"github.com/conneroisu/sitepanel/internal/config"
	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"github.com/conneroisu/sitepanel/internal/server"
	"github.com/conneroisu/sitepanel/internal/sites"
	"github.com/conneroisu/sitepanel/internal/version"
	"github.com/conneroisu/sitepanel/internal/websocket"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// memoryAPI is an in-memory content back-end.
type memoryAPI struct {
	mu     sync.Mutex
	sites  []string
	pages  map[string][]backend.Page
	nextID int
}

func newMemoryAPI(sites ...string) *memoryAPI {
	m := &memoryAPI{pages: map[string][]backend.Page{}}
	for _, s := range sites {
		m.sites = append(m.sites, s)
		m.pages[s] = nil
	}
	return m
}

func (m *memoryAPI) GetAllSites(context.Context) ([]backend.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.Site, 0, len(m.sites))
	for _, name := range m.sites {
		out = append(out, backend.Site{Name: name})
	}
	return out, nil
}

func (m *memoryAPI) CreateSite(_ context.Context, name string) (*backend.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites = append(m.sites, name)
	m.pages[name] = nil
	return &backend.Site{Name: name}, nil
}

func (m *memoryAPI) GetPages(_ context.Context, site string) ([]backend.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pages, ok := m.pages[site]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return append([]backend.Page(nil), pages...), nil
}

func (m *memoryAPI) GetPage(_ context.Context, site, slug string) (*backend.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages[site] {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, backend.ErrNotFound
}

func (m *memoryAPI) AddPage(_ context.Context, site string, cmd backend.PageAddCommand) (*backend.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := backend.Page{ID: m.nextID, Site: site, Slug: cmd.Slug, Index: cmd.Index, Title: cmd.Title, Content: cmd.Content}
	m.pages[site] = append(m.pages[site], p)
	return &p, nil
}

func (m *memoryAPI) UpdatePage(context.Context, string, backend.PageUpdateCommand) error {
	return nil
}

func (m *memoryAPI) DeletePage(_ context.Context, site, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pages := m.pages[site]
	for i, p := range pages {
		if p.Slug == slug {
			m.pages[site] = append(pages[:i], pages[i+1:]...)
			return nil
		}
	}
	return backend.ErrNotFound
}

func (m *memoryAPI) PatchPageIndices(_ context.Context, site string, cmds []backend.PagePatchCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cmds {
		for i, p := range m.pages[site] {
			if p.Slug == c.Slug {
				m.pages[site][i].Index = c.Index
			}
		}
	}
	return nil
}

func (m *memoryAPI) indexOf(site, slug string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages[site] {
		if p.Slug == slug {
			return p.Index
		}
	}
	return -1
}

// runCLI executes a fresh command tree against api and returns stdout.
func runCLI(t *testing.T, api backend.API, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv(ConfigFileEnv, "")

	orig := newAPI
	newAPI = func(*config.Config, logging.Logger) (backend.API, error) { return api, nil }
	t.Cleanup(func() { newAPI = orig })

	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--log-level", "error"))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSitesList(t *testing.T) {
	api := newMemoryAPI("gamma", "alpha", "beta")

	out, err := runCLI(t, api, "sites", "list", "--size", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "beta")
	assert.NotContains(t, out, "gamma")
	assert.Contains(t, out, "Showing 1-2 of 3 sites (page 1 of 2)")
}

func TestSitesListJSON(t *testing.T) {
	api := newMemoryAPI("gamma", "alpha", "beta")

	out, err := runCLI(t, api, "sites", "list", "--page", "2", "--size", "2", "-o", "json")
	require.NoError(t, err)

	var got listOutput[backend.Site]
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []backend.Site{{Name: "gamma"}}, got.Items)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 2, got.Size)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.TotalPages)
}

func TestSitesListPastTheEnd(t *testing.T) {
	api := newMemoryAPI("alpha")

	out, err := runCLI(t, api, "sites", "list", "--page", "5", "-o", "json")
	require.NoError(t, err)

	var got listOutput[backend.Site]
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got.Items)
	assert.NotNil(t, got.Items)
	assert.Equal(t, 1, got.Total)

	out, err = runCLI(t, api, "sites", "list", "--page", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Page 5 is past the end")
}

func TestSitesListRejectsUnknownFormat(t *testing.T) {
	_, err := runCLI(t, newMemoryAPI(), "sites", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format xml")
}

func TestSitesCreate(t *testing.T) {
	api := newMemoryAPI()

	out, err := runCLI(t, api, "sites", "create", "blog")
	require.NoError(t, err)
	assert.Equal(t, "Created site blog\n", out)

	_, err = runCLI(t, api, "sites", "create", "a/b")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func TestPagesLifecycle(t *testing.T) {
	api := newMemoryAPI("blog")

	out, err := runCLI(t, api, "pages", "add", "blog", "Hello World", "--content", "<p>Hi there</p>")
	require.NoError(t, err)
	assert.Equal(t, "Added page blog/hello-world at index 0\n", out)

	_, err = runCLI(t, api, "pages", "add", "blog", "About")
	require.NoError(t, err)

	out, err = runCLI(t, api, "pages", "list", "blog")
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "hello-world")
	assert.Contains(t, out, "Hi there")
	assert.Less(t, strings.Index(out, "hello-world"), strings.Index(out, "about"))

	out, err = runCLI(t, api, "pages", "move", "blog", "about", "--up")
	require.NoError(t, err)
	assert.Equal(t, "Moved page blog/about up\n", out)
	assert.Equal(t, 0, api.indexOf("blog", "about"))
	assert.Equal(t, 1, api.indexOf("blog", "hello-world"))

	out, err = runCLI(t, api, "pages", "show", "blog", "hello-world")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "<p>Hi there</p>")

	out, err = runCLI(t, api, "pages", "delete", "blog", "about")
	require.NoError(t, err)
	assert.Equal(t, "Deleted page blog/about\n", out)
	assert.Equal(t, -1, api.indexOf("blog", "about"))
}

func TestPagesAddRejectsUnsafeContent(t *testing.T) {
	api := newMemoryAPI("blog")

	_, err := runCLI(t, api, "pages", "add", "blog", "Bad", "--content", `<script>alert(1)</script>`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
	assert.Equal(t, -1, api.indexOf("blog", "bad"))
}

func TestPagesAddFromFile(t *testing.T) {
	api := newMemoryAPI("blog")
	file := filepath.Join(t.TempDir(), "about.html")
	require.NoError(t, os.WriteFile(file, []byte("<p>About us</p>"), 0o644))

	_, err := runCLI(t, api, "pages", "add", "blog", "About", "--content-file", file)
	require.NoError(t, err)

	page, err := api.GetPage(context.Background(), "blog", "about")
	require.NoError(t, err)
	assert.Equal(t, "<p>About us</p>", page.Content)
}

func TestPagesListYAML(t *testing.T) {
	api := newMemoryAPI("blog")
	_, err := runCLI(t, api, "pages", "add", "blog", "First")
	require.NoError(t, err)

	out, err := runCLI(t, api, "pages", "list", "blog", "-o", "yaml")
	require.NoError(t, err)

	var got listOutput[backend.Page]
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "first", got.Items[0].Slug)
	assert.Equal(t, 1, got.Total)
}

func TestPagesMoveNeedsDirection(t *testing.T) {
	api := newMemoryAPI("blog")

	_, err := runCLI(t, api, "pages", "move", "blog", "about")
	require.Error(t, err)

	_, err = runCLI(t, api, "pages", "move", "blog", "about", "--up", "--down")
	require.Error(t, err)
}

func TestPagesUnknownSite(t *testing.T) {
	_, err := runCLI(t, newMemoryAPI(), "pages", "list", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestExport(t *testing.T) {
	api := newMemoryAPI("docs", "blog")
	_, err := runCLI(t, api, "pages", "add", "blog", "Hello")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "snapshot.yml")
	_, err = runCLI(t, api, "export", "--file", file)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, yaml.Unmarshal(data, &snap))
	require.Len(t, snap.Sites, 2)
	assert.Equal(t, "blog", snap.Sites[0].Name)
	require.Len(t, snap.Sites[0].Pages, 1)
	assert.Equal(t, "hello", snap.Sites[0].Pages[0].Slug)
	assert.Equal(t, "docs", snap.Sites[1].Name)
	assert.Empty(t, snap.Sites[1].Pages)
	assert.False(t, snap.ExportedAt.IsZero())
}

func TestExportToStdout(t *testing.T) {
	out, err := runCLI(t, newMemoryAPI("blog"), "export")
	require.NoError(t, err)
	assert.Contains(t, out, "sites:")
	assert.Contains(t, out, "name: blog")
}

func TestConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "panel.yml")
	require.NoError(t, os.WriteFile(file, []byte("admin:\n  page_size: 1\n"), 0o644))

	out, err := runCLI(t, newMemoryAPI("alpha", "beta"), "sites", "list", "--config", file, "-o", "json")
	require.NoError(t, err)

	var got listOutput[backend.Site]
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Size)
	assert.Equal(t, 2, got.TotalPages)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := runCLI(t, newMemoryAPI(), "sites", "list", "--config", filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, nil, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.GetShortVersion()+"\n", out)

	out, err = runCLI(t, nil, "version", "--format", "json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.GetVersion(), info.Version)

	out, err = runCLI(t, nil, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "sitepanel "))

	_, err = runCLI(t, nil, "version", "--format", "xml")
	require.Error(t, err)
}

func TestStartServerReleasesHubWhenListenFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           ln.Addr().(*net.TCPAddr).Port,
			Environment:    "test",
			AllowedOrigins: []string{"http://127.0.0.1"},
			RateLimit:      config.RateLimitConfig{Enabled: true, RequestsPerSecond: 5, Burst: 10},
		},
		Admin: config.AdminConfig{PageSize: 10, MaxPageSize: 100},
	}
	hub := websocket.NewHub(cfg.Server.AllowedOrigins, nil)
	srv := server.New(cfg, sites.NewService(newMemoryAPI(), sites.WithNotifier(hub)), hub, nil)

	err = startServer(context.Background(), io.Discard, cfg.Addr(), srv)
	require.Error(t, err)
	assert.True(t, hub.IsShutdown())
	assert.True(t, srv.IsShutdown())
}
