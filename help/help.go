// Package help holds small generic helpers shared across the runtime,
// mirroring the teacher's grab-bag utility package but trimmed to what the
// actor runtime actually needs.
package help

// Contains reports whether slice holds item.
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// JoinStrings concatenates strs with sep, without pulling in strings.Join's
// import just for one call site's worth of log formatting.
func JoinStrings(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for i := 1; i < len(strs); i++ {
		result += sep + strs[i]
	}
	return result
}
