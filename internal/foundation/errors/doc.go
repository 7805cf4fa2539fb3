// Package errors provides classified error primitives used across sitebuilder.
//
// A ClassifiedError carries a category (config, content, walk, render, ...),
// a severity and structured context. Errors are created with the fluent
// ErrorBuilder and rendered for the terminal by CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryContent, "decode metadata").
//		WithContext("path", path).
//		Build()
package errors
