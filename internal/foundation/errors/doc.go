// Package errors provides the classified error primitives used across routegen.
//
// Every failure the generation pipeline reports carries a category naming the
// stage that produced it (import, validation, data, render, ...), a severity and
// a structured context map. Errors are built with the fluent ErrorBuilder:
//
//	err := errors.ValidationError("ensure 'html' function is exported").
//		WithContext("route", origin).
//		Build()
//
// CLIErrorAdapter turns classified errors into exit codes and stderr output.
package errors
