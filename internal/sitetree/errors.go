package sitetree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBlankURL              = errors.New("blank url")
	ErrDuplicateURL          = errors.New("duplicate url")
	ErrBlankSlug             = errors.New("blank slug on non-root page")
	ErrRootSlug              = errors.New("root page must not have a slug")
	ErrDanglingMenuReference = errors.New("dangling menu reference")
	ErrNoCurrentPage         = errors.New("no current page")
	ErrNoRoot                = errors.New("content tree has no root")
)

// ValidationError reports the first invariant violation found in a tree.
type ValidationError struct {
	Err    error
	URL    string
	Slug   string
	Titles []string
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDuplicateURL):
		return fmt.Sprintf("%v %q used by %d pages (%s)", e.Err, e.URL, len(e.Titles), strings.Join(e.Titles, ", "))
	case errors.Is(e.Err, ErrRootSlug), errors.Is(e.Err, ErrBlankSlug):
		return fmt.Sprintf("%v: url %q slug %q", e.Err, e.URL, e.Slug)
	default:
		return fmt.Sprintf("%v: page %q", e.Err, strings.Join(e.Titles, ", "))
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MenuError lists every menu reference of a page that did not resolve.
type MenuError struct {
	Owner   string
	Missing []string
}

func (e *MenuError) Error() string {
	return fmt.Sprintf("%v: missing urls in menu for %q: %s", ErrDanglingMenuReference, e.Owner, strings.Join(e.Missing, ", "))
}

func (e *MenuError) Unwrap() error { return ErrDanglingMenuReference }
