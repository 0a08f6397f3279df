// Package errors provides the classified error primitives used across nocms.
//
// A ClassifiedError carries a category (config, load, render, tag, snapshot,
// ...), a severity and structured context. Components build them through the
// fluent ErrorBuilder and the CLI maps categories to exit codes through
// CLIErrorAdapter.
//
// Example usage:
//
//	err := errors.LoadError("front matter block missing").
//		WithContext("page", "blog/hello.md").
//		Build()
package errors
