package commands

import (
	"errors"

	foundation "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// ErrSkippedFiles is returned by check --strict when files were skipped.
var ErrSkippedFiles = errors.New("content files were skipped")

func errSkippedFiles(n int) error {
	return foundation.WrapError(ErrSkippedFiles, foundation.CategoryContent, "strict check failed").
		WithContext("skipped", n).
		Fatal().
		Build()
}
