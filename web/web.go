// Package web holds the HTML templates served by the portal
package web

import "embed"

// Templates contains every page and partial under templates/
//
//go:embed templates/*.html
var Templates embed.FS
