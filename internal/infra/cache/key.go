package cache

import (
	"strings"

	"github.com/totegamma/wbconstraints"
)

// MaxKeyLength is the longest key memcached accepts.
const MaxKeyLength = 250

// SafeKey returns key unchanged if it is short and free of whitespace and
// control characters. Otherwise the offending part is replaced by its xxh3
// digest, keeping the namespace prefix readable.
func SafeKey(key string) string {
	if len(key) <= MaxKeyLength && !strings.ContainsFunc(key, isUnsafe) {
		return key
	}
	digest := wbconstraints.HashBytes([]byte(key))
	prefix, _, _ := strings.Cut(key, ":")
	prefix = strings.Map(func(r rune) rune {
		if isUnsafe(r) {
			return '_'
		}
		return r
	}, prefix)
	if limit := MaxKeyLength - len(digest) - len(":hash:"); len(prefix) > limit {
		prefix = prefix[:limit]
	}
	return prefix + ":hash:" + digest
}

func isUnsafe(r rune) bool {
	return r <= ' ' || r == 0x7f
}
