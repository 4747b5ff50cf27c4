// Package assets embeds the stylesheet and the small script every page loads.
package assets

import "embed"

//go:embed css js
var Assets embed.FS
