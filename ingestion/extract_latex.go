package ingestion

import "strings"

// Commands whose arguments carry no prose; the argument groups are dropped
// along with the command itself.
var latexDropArgs = map[string]bool{
	"documentclass":     true,
	"documentstyle":     true,
	"usepackage":        true,
	"input":             true,
	"include":           true,
	"includegraphics":   true,
	"label":             true,
	"ref":               true,
	"eqref":             true,
	"pageref":           true,
	"cite":              true,
	"citep":             true,
	"citet":             true,
	"bibliography":      true,
	"bibliographystyle": true,
	"pagestyle":         true,
	"newcommand":        true,
	"renewcommand":      true,
	"setlength":         true,
	"vspace":            true,
	"hspace":            true,
}

// extractLaTeX converts LaTeX markup to plain prose: comments, environments
// and commands are stripped while the textual arguments of text-bearing
// commands (\section, \textbf, ...) are kept. Fidelity target is readable
// prose, not a typesetting-accurate rendition.
func extractLaTeX(content string) string {
	runes := []rune(content)
	var sb strings.Builder
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch r {
		case '%':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case '\\':
			i = consumeLatexCommand(runes, i, &sb)
		case '{', '}', '$':
			i++
		case '~':
			sb.WriteByte(' ')
			i++
		default:
			sb.WriteRune(r)
			i++
		}
	}

	return sb.String()
}

// consumeLatexCommand handles the token starting at the backslash at pos and
// returns the index after everything it consumed.
func consumeLatexCommand(runes []rune, pos int, sb *strings.Builder) int {
	i := pos + 1
	if i >= len(runes) {
		return i
	}

	// Escaped symbol (\%, \&, \_, ...) or forced break (\\).
	if !isLatexLetter(runes[i]) {
		if runes[i] == '\\' {
			sb.WriteByte('\n')
		} else {
			sb.WriteRune(runes[i])
		}
		return i + 1
	}

	start := i
	for i < len(runes) && isLatexLetter(runes[i]) {
		i++
	}
	name := string(runes[start:i])

	// Trailing star variant (\section*).
	if i < len(runes) && runes[i] == '*' {
		i++
	}

	switch {
	case name == "begin" || name == "end":
		i = skipLatexGroup(runes, i)
	case latexDropArgs[name]:
		i = skipLatexOptional(runes, i)
		for i < len(runes) && runes[i] == '{' {
			i = skipLatexGroup(runes, i)
		}
	default:
		// Text-bearing command: drop any [..] options, leave brace groups to
		// the main loop so their content flows into the output.
		i = skipLatexOptional(runes, i)
	}

	return i
}

func skipLatexOptional(runes []rune, pos int) int {
	if pos >= len(runes) || runes[pos] != '[' {
		return pos
	}
	for pos < len(runes) && runes[pos] != ']' {
		pos++
	}
	if pos < len(runes) {
		pos++
	}
	return pos
}

func skipLatexGroup(runes []rune, pos int) int {
	if pos >= len(runes) || runes[pos] != '{' {
		return pos
	}
	depth := 0
	for pos < len(runes) {
		switch runes[pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return pos + 1
			}
		}
		pos++
	}
	return pos
}

func isLatexLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
