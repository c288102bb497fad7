// Package logger is the structured logging layer, built on zerolog.
//
// Loggers are scoped by deriving: a pipeline logger becomes an element
// logger through WithElement, the controller adds the session through
// WithFields, and code holding a context picks up the session and trace
// IDs with WithContext. Console output is meant for people watching a
// player; JSON output for collectors.
//
//	logging:
//	  level: info
//	  format: console
//	  output: stderr
package logger
