// Package build provides the build pipeline for sitebuilder.
//
// A build walks the content directory into a page tree, validates it,
// resolves menus, renders HTML and optionally exports a SQLite index. The
// CLI build, check and preview commands all route through Service.
package build
