package mdview

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnbalancedBraces reports a { without } or the reverse.
	ErrUnbalancedBraces = errors.New("unbalanced braces")
	// ErrEnvironment reports a \begin without a matching \end.
	ErrEnvironment = errors.New("mismatched environment")
	// ErrTrailingBackslash reports a lone \ at the end of the source.
	ErrTrailingBackslash = errors.New("trailing backslash")
)

// CheckTeX performs the structural checks a math view needs before
// typesetting src. It does not know individual commands.
func CheckTeX(src string) error {
	depth := 0
	var envs []string
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if i+1 >= len(src) {
				return ErrTrailingBackslash
			}
			rest := src[i+1:]
			if name, n, ok := environment(rest, "begin"); ok {
				envs = append(envs, name)
				i += n
				continue
			}
			if name, n, ok := environment(rest, "end"); ok {
				if len(envs) == 0 || envs[len(envs)-1] != name {
					return fmt.Errorf("%w: \\end{%s}", ErrEnvironment, name)
				}
				envs = envs[:len(envs)-1]
				i += n
				continue
			}
			// escaped character, including \{ and \}
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unexpected }", ErrUnbalancedBraces)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed {", ErrUnbalancedBraces, depth)
	}
	if len(envs) > 0 {
		return fmt.Errorf("%w: \\begin{%s} is not closed", ErrEnvironment, envs[len(envs)-1])
	}
	return nil
}

// environment matches "begin{name}" or "end{name}" at the start of s and
// returns the name and the number of bytes it spans.
func environment(s, cmd string) (string, int, bool) {
	if !strings.HasPrefix(s, cmd+"{") {
		return "", 0, false
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return "", 0, false
	}
	return s[len(cmd)+1 : end], end + 1, true
}
