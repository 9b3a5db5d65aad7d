// Package errors provides classified error primitives used across docnav.
//
// A ClassifiedError carries a category (config, validation, render, ...),
// a severity, a retry strategy and structured context. Errors are built
// with the fluent ErrorBuilder and presented to users by CLIErrorAdapter,
// which also maps categories to process exit codes.
//
//	err := errors.ValidationError("site configuration is invalid").
//		WithContext("issues", 3).
//		Build()
package errors
