// Package web embeds the static gallery shell.
package web

import "embed"

// FS holds the embedded frontend assets served at /.
//
//go:embed index.html
var FS embed.FS
