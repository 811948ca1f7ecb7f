package kb

import (
	"fmt"
	"regexp"
	"strings"
)

// reportTrie dispatches report-number prefixes in O(length) instead of a
// linear scan over every pattern. Keys are lowercase bytes; all separator
// characters (space, tab, dash, slash) route through a single space edge.
type reportTrie struct {
	root *trieNode
}

type trieNode struct {
	children map[byte]*trieNode
	leaves   []trieLeaf
}

type trieLeaf struct {
	standardized string
	// Anchored at the start of the remaining text: `[\s\-/]*(?:alt1|alt2|…)`.
	numerationRE *regexp.Regexp
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[byte]*trieNode)}
}

func buildReportTrie(text string) (*reportTrie, error) {
	root := newTrieNode()
	var numerations []string
	groupHasPrefixes := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "*****") {
			continue
		}
		if strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">") {
			// A pattern line after prefixes starts a new group.
			if groupHasPrefixes {
				numerations, groupHasPrefixes = nil, false
			}
			numerations = append(numerations, numerationToRegex(line[1:len(line)-1]))
			continue
		}
		prefix, standardized, ok := strings.Cut(line, "--->")
		if !ok {
			continue
		}
		if err := insertPrefix(root, strings.TrimSpace(prefix), strings.TrimSpace(standardized), numerations); err != nil {
			return nil, err
		}
		groupHasPrefixes = true
	}
	return &reportTrie{root: root}, nil
}

func insertPrefix(root *trieNode, prefix, standardized string, numerations []string) error {
	if len(numerations) == 0 {
		return fmt.Errorf("prefix %q has no numeration patterns", prefix)
	}
	normalized := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(prefix, "\t", " "), "  ", " "))

	node := root
	for i := 0; i < len(normalized); i++ {
		b := normalized[i]
		child, ok := node.children[b]
		if !ok {
			child = newTrieNode()
			node.children[b] = child
		}
		node = child
	}

	pattern := `(?i)^[\s\-/]*(?:` + strings.Join(numerations, "|") + `)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("numeration pattern for %q: %w", prefix, err)
	}
	node.leaves = append(node.leaves, trieLeaf{standardized: standardized, numerationRE: re})
	return nil
}

// findMatch finds the first report-number match anywhere in text.
func (t *reportTrie) findMatch(text string) (matched, standardized string, ok bool) {
	for start := 0; start < len(text); start++ {
		if start > 0 && isAlnum(text[start-1]) {
			continue
		}
		if m, std, found := t.matchAt(text, start); found {
			return m, std, true
		}
	}
	return "", "", false
}

func (t *reportTrie) matchAt(text string, start int) (string, string, bool) {
	node := t.root
	pos := start
	bestEnd := -1
	bestStd := ""

	for {
		// Every node with leaves gets a numeration attempt on the tail.
		for _, leaf := range node.leaves {
			if loc := leaf.numerationRE.FindStringIndex(text[pos:]); loc != nil && loc[0] == 0 {
				end := pos + loc[1]
				if end > bestEnd {
					bestEnd = end
					bestStd = leaf.standardized
				}
			}
		}
		if pos >= len(text) {
			break
		}
		b := lowerByte(text[pos])
		if b == ' ' || b == '\t' || b == '-' || b == '/' {
			child, ok := node.children[' ']
			if !ok {
				break
			}
			for pos < len(text) && isReportSeparator(text[pos]) {
				pos++
			}
			node = child
		} else if child, ok := node.children[b]; ok {
			node = child
			pos++
		} else {
			break
		}
	}
	if bestEnd < 0 {
		return "", "", false
	}
	return text[start:bestEnd], bestStd, true
}

func isReportSeparator(b byte) bool {
	return b == ' ' || b == '\t' || b == '-' || b == '/'
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

// numerationToRegex converts the KB numeration DSL to a regex fragment.
// DSL: `9`→digit, `9?`→optional digit, `yyyy`→year, `yy`→2-digit year,
// `mm`→month, `a`→letter, `s`/space→separator (optional together with a
// following `9?`). Regex constructs pass through verbatim.
func numerationToRegex(dsl string) string {
	var out strings.Builder
	runes := []rune(dsl)
	for i := 0; i < len(runes); {
		if n := emitRegexConstruct(runes, i, &out); n > 0 {
			i += n
			continue
		}
		if n := emitDSLToken(runes, i, &out); n > 0 {
			i += n
			continue
		}
		out.WriteRune(runes[i])
		i++
	}
	return out.String()
}

// emitRegexConstruct copies a pass-through regex construct (escape, char
// class, group, quantifier) and returns the rune count consumed, or 0.
func emitRegexConstruct(runes []rune, i int, out *strings.Builder) int {
	switch runes[i] {
	case '\\':
		if i+1 < len(runes) {
			out.WriteRune(runes[i])
			out.WriteRune(runes[i+1])
			return 2
		}
		return 0
	case '[':
		return emitCharClass(runes, i, out)
	case '(':
		return emitGroup(runes, i, out)
	case ')', '|', '+', '*', '?':
		out.WriteRune(runes[i])
		return 1
	}
	return 0
}

func emitCharClass(runes []rune, start int, out *strings.Builder) int {
	i := start
	for i < len(runes) {
		out.WriteRune(runes[i])
		if runes[i] == ']' && i > start {
			return i - start + 1
		}
		i++
	}
	return i - start
}

func emitGroup(runes []rune, start int, out *strings.Builder) int {
	i := start
	depth := 0
	for i < len(runes) {
		if runes[i] == '(' {
			depth++
		}
		if runes[i] == ')' {
			depth--
		}
		out.WriteRune(runes[i])
		i++
		if depth == 0 {
			if i < len(runes) && (runes[i] == '?' || runes[i] == '+' || runes[i] == '*') {
				out.WriteRune(runes[i])
				i++
			}
			break
		}
	}
	return i - start
}

func emitDSLToken(runes []rune, i int, out *strings.Builder) int {
	rest := string(runes[i:])
	switch {
	case strings.HasPrefix(rest, "yyyy"):
		out.WriteString(`[12]\d{3}`)
		return 4
	case strings.HasPrefix(rest, "yy"):
		out.WriteString(`\d{2}`)
		return 2
	case strings.HasPrefix(rest, "mm"):
		out.WriteString(`[01]\d`)
		return 2
	case runes[i] == '9' && i+1 < len(runes) && runes[i+1] == '?':
		out.WriteString(`\d?`)
		return 2
	case runes[i] == '9':
		out.WriteString(`\d`)
		return 1
	case runes[i] == 's', runes[i] == ' ':
		// A separator before an optional digit is optional along with it.
		if i+2 < len(runes) && runes[i+1] == '9' && runes[i+2] == '?' {
			out.WriteString(`(?:[\s\-/]+\d)?`)
			return 3
		}
		out.WriteString(`[\s\-/]+`)
		return 1
	case runes[i] == 'a':
		out.WriteString(`[A-Za-z]`)
		if i+1 < len(runes) && runes[i+1] == '?' {
			out.WriteString("?")
			return 2
		}
		return 1
	}
	return 0
}
