// Package sitetree assembles the hierarchical content tree of a site.
//
// A Page is one node of the tree. Pages are created by the Builder while a
// content directory is walked, merged from partial metadata arriving from
// several files, attached to their parent when the directory is left and
// finally checked by Validate. Taxonomy terms are Pages too: a term lists
// every page classified under it as a child without becoming its parent.
//
// The Registry owns the taxonomy terms of one build. A new Registry is
// created for every run.
package sitetree
