package components

import (
	"context"
	"strconv"

	"github.com/a-h/templ"
	"github.com/conneroisu/sitepanel/internal/backend"
	"github.com/conneroisu/sitepanel/internal/content"
	"github.com/conneroisu/sitepanel/internal/pagination"
)

// excerptLength is the number of runes of page content shown in lists.
const excerptLength = 80

// AllSites lists one page of sites.
func AllSites(page *pagination.Page[backend.Site]) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h1>Sites</h1>`)
		if page.Total == 0 {
			h.raw(`<p>No sites yet. <a href="/admin/sites/new">Create one</a>.</p>`)
			return
		}

		h.raw(`<table><thead><tr><th>Name</th></tr></thead><tbody>`)
		for site := range page.Items.All() {
			h.raw(`<tr><td><a href="`)
			h.attrURL(sitePath(site.Name))
			h.raw(`">`)
			h.text(content.DisplayName(site.Name))
			h.raw(`</a></td></tr>`)
		}
		h.raw(`</tbody></table>`)
		h.render(ctx, Pager("/admin/sites", page))
	})
}

// NewSite is the site creation form. name and errMsg echo a rejected
// submission.
func NewSite(name, errMsg string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<h1>New site</h1>`)
		formError(h, errMsg)
		h.raw(`<form method="post" action="/admin/sites"><label>Name <input name="name" required maxlength="100" value="`)
		h.text(name)
		h.raw(`"></label> <button type="submit">Create</button></form>`)
	})
}

// AllPages lists one page of a site's pages with reorder and delete
// controls, followed by the form for adding a page.
func AllPages(site string, page *pagination.Page[backend.Page], errMsg string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h2>Pages</h2>`)
		formError(h, errMsg)

		if page.Total == 0 {
			h.raw(`<p>This site has no pages yet.</p>`)
		} else {
			h.raw(`<table><thead><tr><th>#</th><th>Title</th><th>Excerpt</th><th></th></tr></thead><tbody>`)
			it := page.Items.Iterator()
			for p, ok := it.Next(); ok; p, ok = it.Next() {
				pageRow(h, site, p)
			}
			h.raw(`</tbody></table>`)
			h.render(ctx, Pager(sitePath(site)+"/pages", page))
		}

		h.raw(`<h3>Add page</h3><form method="post" action="`)
		h.attrURL(sitePath(site) + "/pages")
		h.raw(`"><p><label>Title <input name="title" required></label></p><p><label>Content<br><textarea name="content" rows="6" cols="60"></textarea></label></p><button type="submit">Add</button></form>`)
	})
}

func pageRow(h *htmlWriter, site string, p backend.Page) {
	path := pagePath(site, p.Slug)

	h.raw(`<tr><td>`)
	h.text(strconv.Itoa(p.Index))
	h.raw(`</td><td><a href="`)
	h.attrURL(path)
	h.raw(`">`)
	h.text(p.Title)
	h.raw(`</a></td><td>`)
	h.text(content.Excerpt(p.Content, excerptLength))
	h.raw(`</td><td>`)
	for _, mv := range []struct{ dir, label string }{{"up", "↑"}, {"down", "↓"}} {
		h.raw(`<form class="inline" method="post" action="`)
		h.attrURL(path + "/move")
		h.raw(`"><input type="hidden" name="direction" value="`)
		h.raw(mv.dir)
		h.raw(`"><button type="submit" title="Move `)
		h.raw(mv.dir)
		h.raw(`">`)
		h.raw(mv.label)
		h.raw(`</button></form>`)
	}
	h.raw(`<form class="inline" method="post" action="`)
	h.attrURL(path + "/delete")
	h.raw(`"><button type="submit">Delete</button></form></td></tr>`)
}

// EditPage is the page editor.
func EditPage(site string, page backend.Page, errMsg string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<h2>Edit `)
		h.text(page.Title)
		h.raw(`</h2>`)
		formError(h, errMsg)
		h.raw(`<form method="post" action="`)
		h.attrURL(pagePath(site, page.Slug))
		h.raw(`"><input type="hidden" name="id" value="`)
		h.text(strconv.Itoa(page.ID))
		h.raw(`"><input type="hidden" name="index" value="`)
		h.text(strconv.Itoa(page.Index))
		h.raw(`"><p><label>Title <input name="title" required value="`)
		h.text(page.Title)
		h.raw(`"></label></p><p><label>Slug <input name="slug" required pattern="[a-z0-9]+(-[a-z0-9]+)*" value="`)
		h.text(page.Slug)
		h.raw(`"></label></p><p><label>Content<br><textarea name="content" rows="16" cols="80">`)
		h.text(page.Content)
		h.raw(`</textarea></label></p><button type="submit">Save</button> <a href="`)
		h.attrURL(sitePath(site) + "/pages")
		h.raw(`">Cancel</a></form>`)
	})
}

// Pager links to the neighbouring pages of a paginated list at basePath.
func Pager[T any](basePath string, page *pagination.Page[T]) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		if page.TotalPages() <= 1 {
			return
		}

		link := func(number int, label string) {
			h.raw(`<a href="`)
			h.attrURL(basePath + "?page=" + strconv.Itoa(number) + "&size=" + strconv.Itoa(page.Size))
			h.raw(`">`)
			h.raw(label)
			h.raw(`</a>`)
		}

		h.raw(`<nav class="pager" aria-label="pagination">`)
		if page.HasPrev() {
			link(page.PrevNumber(), "&laquo; Previous")
		}
		h.raw(`<span>`)
		h.textf("Page %d of %d", page.Number, page.TotalPages())
		h.raw(`</span>`)
		if page.HasNext() {
			link(page.NextNumber(), "Next &raquo;")
		}
		h.raw(`</nav>`)
	})
}
