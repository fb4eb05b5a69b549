package wbconstraints

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

func entityTypeOf(id string) EntityType {
	if len(id) < 2 {
		return EntityTypeUnknown
	}
	if strings.HasPrefix(id, "L") {
		switch {
		case strings.Contains(id, "-F"):
			return EntityTypeForm
		case strings.Contains(id, "-S"):
			return EntityTypeSense
		}
	}
	if !isDigits(strings.SplitN(id[1:], "-", 2)[0]) {
		return EntityTypeUnknown
	}
	switch id[0] {
	case 'Q':
		return EntityTypeItem
	case 'P':
		return EntityTypeProperty
	case 'L':
		return EntityTypeLexeme
	case 'M':
		return EntityTypeMediaInfo
	default:
		return EntityTypeUnknown
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func ParseEntityID(s string) (EntityID, error) {
	id := EntityID(strings.ToUpper(strings.TrimSpace(s)))
	if id.EntityType() == EntityTypeUnknown {
		return "", fmt.Errorf("invalid entity id: %q", s)
	}
	return id, nil
}

func ParsePropertyID(s string) (PropertyID, error) {
	id, err := ParseEntityID(s)
	if err != nil {
		return "", err
	}
	if id.EntityType() != EntityTypeProperty {
		return "", fmt.Errorf("not a property id: %q", s)
	}
	return PropertyID(id), nil
}

// EntityIDFromGUID extracts the entity id prefix of a statement GUID ("Q1$...").
func EntityIDFromGUID(guid string) (EntityID, error) {
	prefix, _, found := strings.Cut(guid, "$")
	if !found || prefix == "" {
		return "", fmt.Errorf("invalid statement guid: %q", guid)
	}
	return ParseEntityID(prefix)
}

func ComposeGUID(id EntityID, suffix string) string {
	return id.String() + "$" + suffix
}

// HashBytes returns the hex encoded 128-bit xxh3 digest of b.
func HashBytes(b []byte) string {
	sum := xxh3.Hash128(b).Bytes()
	return hex.EncodeToString(sum[:])
}
