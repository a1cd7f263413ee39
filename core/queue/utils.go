package queue

import (
	"fmt"
	"strings"
)

// qualifiedStructName extracts the type name from any value, removing pointer prefixes.
// Used to generate package-qualified task names from payload types
// (e.g., "mail.EmailPayload" from mail.EmailPayload{}).
func qualifiedStructName(v any) string {
	s := fmt.Sprintf("%T", v)
	s = strings.TrimLeft(s, "*")

	return s
}
