package store

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// User-entered text is plain text; anything that looks like markup is
// stripped before it reaches storage.
var strictPolicy = bluemonday.StrictPolicy()

func sanitize(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
