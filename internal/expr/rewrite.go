package expr

import (
	"encoding/hex"
	"strings"

	"memory_console/internal/models"
)

const identPrefix = "a_"

// ident maps an alias to a CEL identifier. Aliases may contain '.' and '-',
// so they are hex encoded rather than used verbatim.
func ident(alias string) string {
	return identPrefix + hex.EncodeToString([]byte(alias))
}

// rewrite replaces every [alias] outside string literals with its CEL identifier.
// Brackets whose content is not alias-shaped (list literals such as [1, 2]) are
// left untouched. It returns the rewritten text and the referenced aliases in
// order of first appearance.
func rewrite(condition string) (string, []string) {
	var (
		b     strings.Builder
		refs  []string
		seen  = map[string]bool{}
		quote byte
	)
	b.Grow(len(condition))

	for i := 0; i < len(condition); i++ {
		c := condition[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(condition):
				i++
				b.WriteByte(condition[i])
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			b.WriteByte(c)
		case '[':
			end := strings.IndexAny(condition[i+1:], "[]")
			if end < 0 || condition[i+1+end] != ']' {
				b.WriteByte(c)
				continue
			}
			alias := strings.TrimSpace(condition[i+1 : i+1+end])
			if !models.ValidAlias(alias) {
				b.WriteByte(c)
				continue
			}
			b.WriteString(ident(alias))
			if !seen[alias] {
				seen[alias] = true
				refs = append(refs, alias)
			}
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), refs
}

// References returns the aliases a condition refers to, in order of first appearance.
func References(condition string) []string {
	_, refs := rewrite(condition)
	return refs
}

// humanize puts [alias] back into evaluator messages that mention generated identifiers.
func humanize(msg string, refs []string) string {
	for _, a := range refs {
		msg = strings.ReplaceAll(msg, ident(a), "["+a+"]")
	}
	return msg
}
