package i18n

import (
	"fmt"
	"strings"
)

// M holds placeholder values.
type M map[string]any

// ReplacePlaceholders substitutes {{name}} with values from m. Unknown
// placeholders are left as they are.
func ReplacePlaceholders(s string, m M) string {
	if len(m) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	pairs := make([]string, 0, len(m)*2)
	for k, v := range m {
		pairs = append(pairs, "{{"+k+"}}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
