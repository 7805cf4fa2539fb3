package frontmatter

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported metadata format")
	ErrDecodeFailed      = errors.New("decode metadata")
	ErrInvalidRecord     = errors.New("invalid metadata record")
)
