package spec

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// IDGenerator mints stable opaque ids of the shape "<kind>-<slug>-<hash>"
// (or "...-N" on collision). Ids derived from the same kind and name are
// reproducible, which keeps normalization deterministic.
type IDGenerator struct {
	used    map[string]struct{}
	counter map[string]int
	byKey   map[string]string
}

// NewIDGenerator creates a generator with optional pre-reserved ids.
func NewIDGenerator(existing ...string) *IDGenerator {
	g := &IDGenerator{
		used:    make(map[string]struct{}, len(existing)+8),
		counter: make(map[string]int, len(existing)+8),
		byKey:   make(map[string]string, len(existing)+8),
	}
	for _, id := range existing {
		id = strings.TrimSpace(id)
		if id != "" {
			g.used[id] = struct{}{}
		}
	}
	return g
}

// Generate returns a unique id for an entity of the given kind and name.
func (g *IDGenerator) Generate(kind, name string) string {
	if g == nil {
		g = NewIDGenerator()
	}
	base := baseID(kind, name)
	if _, ok := g.used[base]; !ok {
		g.used[base] = struct{}{}
		g.counter[base] = 1
		return base
	}
	n := g.counter[base]
	if n < 1 {
		n = 1
	}
	for {
		n++
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, exists := g.used[candidate]; exists {
			continue
		}
		g.used[candidate] = struct{}{}
		g.counter[base] = n
		return candidate
	}
}

// GenerateForKey returns a stable id for a logical key; repeated calls with
// the same key return the previously generated id.
func (g *IDGenerator) GenerateForKey(key, kind, name string) string {
	if g == nil {
		g = NewIDGenerator()
	}
	key = strings.TrimSpace(key)
	if key != "" {
		if id, ok := g.byKey[key]; ok {
			return id
		}
	}
	id := g.Generate(kind, name)
	if key != "" {
		g.byKey[key] = id
	}
	return id
}

func baseID(kind, name string) string {
	slug := Slug(name)
	if slug == "" {
		slug = "entity"
	}
	kind = strings.TrimSpace(strings.ToLower(kind))
	if kind == "" {
		return fmt.Sprintf("%s-%s", slug, shortHashHex(name))
	}
	return fmt.Sprintf("%s-%s-%s", kind, slug, shortHashHex(kind+":"+name))
}

func shortHashHex(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%08x", uint32(h.Sum64()&0xffffffff))
}

// Slug lowercases s and collapses non-alphanumeric runs into single dashes.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
