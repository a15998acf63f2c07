// Package static embeds the client loader served at /ape.js.
package static

import _ "embed"

//go:embed ape.js
var ApeJS []byte
