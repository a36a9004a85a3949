package output

import "strings"

// Rule is one top-level block of a stylesheet.
type Rule struct {
	Selector     string
	Declarations []string
}

// SplitRules breaks a stylesheet into its top-level rules. Nested blocks such
// as @media keep their inner text as a single declaration. Comments are
// dropped. Malformed trailing text without a closing brace is ignored.
func SplitRules(css string) []Rule {
	css = stripComments(css)

	var (
		rules []Rule
		depth int
		start int
		open  int
	)
	for i := 0; i < len(css); i++ {
		switch css[i] {
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			if depth == 0 {
				start = i + 1
				continue
			}
			depth--
			if depth == 0 {
				selector := strings.TrimSpace(css[start:open])
				if selector != "" {
					rules = append(rules, Rule{
						Selector:     selector,
						Declarations: splitDeclarations(css[open+1 : i]),
					})
				}
				start = i + 1
			}
		}
	}
	return rules
}

func splitDeclarations(body string) []string {
	body = strings.TrimSpace(body)
	if strings.Contains(body, "{") {
		return []string{body}
	}
	parts := strings.Split(body, ";")
	decls := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			decls = append(decls, part)
		}
	}
	return decls
}

func stripComments(css string) string {
	var sb strings.Builder
	for {
		begin := strings.Index(css, "/*")
		if begin < 0 {
			sb.WriteString(css)
			return sb.String()
		}
		sb.WriteString(css[:begin])
		end := strings.Index(css[begin+2:], "*/")
		if end < 0 {
			return sb.String()
		}
		css = css[begin+2+end+2:]
	}
}
