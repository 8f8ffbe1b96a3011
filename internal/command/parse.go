package command

import (
	"strings"
)

// Command is a parsed slash command. Arguments may be double-quoted to keep
// spaces.
type Command struct {
	Name string
	Args []string
	Raw  string

	ends []int
}

// Arg returns argument i, or "" when there are fewer arguments.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Rest returns the unparsed text after the first n arguments, so a message
// body keeps its own spacing and quotes.
func (c Command) Rest(n int) string {
	if n < 0 || n >= len(c.ends) {
		return ""
	}
	return strings.TrimSpace(c.Raw[c.ends[n]:])
}

// Parse reports whether a submitted line is a slash command. Plain text, a
// "/me <action>" line and a line escaped with "//" are messages.
func Parse(input string) (Command, bool) {
	trimmed := strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "//") || IsAction(trimmed) {
		return Command{}, false
	}
	raw := strings.TrimSpace(trimmed[1:])
	tokens, ends := tokenize(raw)
	if len(tokens) == 0 {
		return Command{Raw: raw}, true
	}
	return Command{
		Name: strings.ToLower(tokens[0]),
		Args: tokens[1:],
		Raw:  raw,
		ends: ends,
	}, true
}

// IsAction reports whether line is a "/me" action with some text.
func IsAction(line string) bool {
	rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "/me ")
	return ok && strings.TrimSpace(rest) != ""
}

// MessageText returns the text to send for a plain line. A leading "//"
// stands for a literal slash.
func MessageText(line string) string {
	lead := len(line) - len(strings.TrimLeft(line, " \t"))
	if strings.HasPrefix(line[lead:], "//") {
		return line[:lead] + line[lead+1:]
	}
	return line
}

// tokenize splits raw on whitespace outside double quotes. ends holds the
// byte offset just past each token.
func tokenize(raw string) (tokens []string, ends []int) {
	i := 0
	for {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) {
			return tokens, ends
		}
		var b strings.Builder
		quoted := false
		for i < len(raw) {
			ch := raw[i]
			if ch == '"' {
				quoted = !quoted
				i++
				continue
			}
			if !quoted && isSpace(ch) {
				break
			}
			b.WriteByte(ch)
			i++
		}
		tokens = append(tokens, b.String())
		ends = append(ends, i)
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
