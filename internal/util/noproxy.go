package util

import "strings"

// parseNoProxy returns a matcher for a NO_PROXY style list: comma separated
// hosts or domain suffixes, "*" bypasses everything
func parseNoProxy(list string) func(host string) bool {
	var entries []string
	for _, e := range strings.Split(list, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			entries = append(entries, strings.TrimPrefix(e, "."))
		}
	}

	return func(host string) bool {
		host = strings.ToLower(host)
		for _, e := range entries {
			if e == "*" || host == e || strings.HasSuffix(host, "."+e) {
				return true
			}
		}
		return false
	}
}
