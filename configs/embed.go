// Package configs provides the embedded configuration template.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. `vectorsync init` writes it to the project root;
// internal/config.Load layers the parsed file over the built-in
// defaults.
package configs

import _ "embed"

// ConfigTemplate is the annotated example configuration written by
// `vectorsync init`.
//
//go:embed config.example.yaml
var ConfigTemplate string
