package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var ugc = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from user supplied bodies and trims surrounding space.
func Sanitize(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}
