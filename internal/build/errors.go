package build

import "errors"

// Sentinel errors for pipeline failures that have no more specific cause.
// They are always wrapped with context at the call site.
var (
	ErrNoConfig = errors.New("sitebuilder: config required")
	ErrNoRoot   = errors.New("sitebuilder: content tree has no root")
)
