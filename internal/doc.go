// Package internal contains the implementation packages for sitepanel.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - view: bounds-checked windows over slices
//   - pagination: numbered pages built on view windows
//   - backend: REST client for the content back-end
//   - content: slugs, excerpts and HTML safety checks for page bodies
//   - sites: site and page operations, ordering and change notification
//   - components: templ components for the admin UI
//   - server: admin HTTP server, JSON API and middleware
//   - websocket: live update hub for open admin pages
//   - watcher: config file monitoring with debouncing
//   - config, logging, errors, validation, version: shared infrastructure
//
// # Inter-Package Communication
//
// The sites service is the only caller of the back-end client. The server
// and the CLI both go through it, and it reports successful writes to a
// Notifier, which the websocket hub implements, so every open admin page
// refreshes after a change made from either surface.
package internal
