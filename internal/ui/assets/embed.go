// Package assets embeds the stylesheet served by the ops UI.
package assets

import "embed"

//go:embed static
var files embed.FS

// Files exposes the embedded asset tree. Entries keep their static/
// prefix; the router takes the subtree before serving.
func Files() embed.FS {
	return files
}
