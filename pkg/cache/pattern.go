package cache

import "strings"

// matchPattern reports whether key is selected by a caller-supplied pattern.
// A single trailing '*' is the only wildcard placement the API promises:
// "airdrop-check:*" matches every key starting with "airdrop-check:". A
// pattern without a trailing '*' is an exact-match comparison. This keeps
// bulk invalidation a cheap per-key prefix test rather than regex evaluation.
func matchPattern(pattern, key string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return pattern == key
}
