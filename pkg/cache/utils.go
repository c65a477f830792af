package cache

import "strings"

// Key joins parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
