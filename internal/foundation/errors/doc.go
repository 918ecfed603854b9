// Package errors provides the classified error primitives used across docharness.
//
// Every failure the harness surfaces is a ClassifiedError carrying a category,
// a severity and structured context. Tests and the CLI branch on the category:
// a missing artifact is CategoryNotFound, a baseline mismatch is
// CategoryBaseline, and anything the build driver reports is CategoryBuild.
//
// Example usage:
//
//	err := errors.MissingArtifact(path).
//		WithContext("builder", "html").
//		Build()
package errors
