// Package web embeds the single-page browser client.
package web

import _ "embed"

//go:embed static/index.html
var indexHTML []byte

// IndexHTML returns the browser page served at "/".
func IndexHTML() []byte {
	return indexHTML
}
