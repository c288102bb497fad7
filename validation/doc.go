// Package validation checks configuration sections and pipeline
// descriptions.
//
// Single-field rules live in validate struct tags and are checked by
// Validate. The media_uri tag accepts absolute URIs a source can open.
// Rules that span several fields go through a Validator:
//
//	v := validation.New()
//	v.Custom(cfg.Launch == "" || cfg.File == "", "pipeline", "launch and file are mutually exclusive")
//	return v.Err()
//
// Both report an INVALID_INPUT error whose Details["fields"] lists every
// failure.
package validation
