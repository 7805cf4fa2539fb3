package build

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/sitetree"
)

// Stage names used for logging and metrics.
const (
	StageWalk     = "walk"
	StageValidate = "validate"
	StageMenus    = "menus"
	StageRender   = "render"
	StageExport   = "export"
)

// Service runs site builds.
type Service interface {
	// Run executes walk, validate, menus, render and export in that order.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains the inputs of one build.
type Request struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Content overrides the content filesystem. Defaults to Config.Content.Dir on disk.
	Content billy.Filesystem

	// Output overrides the output filesystem. Defaults to Config.Output.Directory on disk.
	Output billy.Filesystem

	Options Options
}

// Options modify build behavior.
type Options struct {
	// CheckOnly stops after menus are resolved; nothing is written.
	CheckOnly bool

	// SkipExport disables the SQLite export even when configured.
	SkipExport bool
}

// Result is the outcome of a build.
type Result struct {
	Status  Status
	BuildID string

	// Root and Registry are set once the walk stage succeeds.
	Root     *sitetree.Page
	Registry *sitetree.Registry

	FilesProcessed int
	Skipped        []sitetree.SkippedFile

	// Pages counts structural pages; Written lists the files the render stage wrote.
	Pages   int
	Written []string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Status represents the outcome of a build.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusWarning   Status = "warning"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsSuccess reports whether the build produced a complete site.
// Skipped files only downgrade a build to a warning.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusWarning
}
