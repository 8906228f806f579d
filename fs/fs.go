package appfs

import "embed"

// FS embeds runtime assets: goose migrations and email templates.
//go:embed migrations assets
var FS embed.FS
