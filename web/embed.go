package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates
var TemplatesFS embed.FS

// StaticFS embeds static assets.
//
//go:embed static
var StaticFS embed.FS
