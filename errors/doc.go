// Package errors provides the structured error type used across mediagraph.
// Every failure carries a machine-readable code that classifies it as a
// construction, transition, element, query or protocol error, together with
// retryable and fatal detection and an HTTP status for the status API.
package errors
