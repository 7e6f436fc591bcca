// Package shlex splits command strings into argument vectors using
// POSIX-like word splitting rules, in the spirit of Python's
// shlex.split(). Single quotes are fully literal, double quotes allow
// backslash escapes for ", \, $ and `, and a bare backslash escapes
// the next character.
package shlex

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrUnclosedQuote is returned when a quote is opened but never closed
	ErrUnclosedQuote = errors.New("unclosed quote in command string")

	// ErrTrailingEscape is returned when the input ends with a bare backslash
	ErrTrailingEscape = errors.New("trailing escape character at end of command")
)

type scanState int

const (
	stateWord scanState = iota
	stateSingle
	stateDouble
)

// Split parses a command string into its argument vector.
//
//	Split(`make test`) => ["make", "test"]
//	Split(`sh -c "echo hi"`) => ["sh", "-c", "echo hi"]
//	Split(`echo 'a b'`) => ["echo", "a b"]
func Split(input string) ([]string, error) {
	args := []string{}
	var word strings.Builder
	state := stateWord
	haveWord := false // distinguishes "" (quoted empty arg) from no word

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '\\' && state != stateSingle {
			if i+1 == len(runes) {
				return nil, ErrTrailingEscape
			}
			i++
			next := runes[i]
			if state == stateDouble && !isDoubleQuoteSpecial(next) {
				// Inside double quotes the backslash is literal
				// unless it escapes a special character.
				word.WriteRune('\\')
			}
			word.WriteRune(next)
			haveWord = true
			continue
		}

		switch state {
		case stateSingle:
			if ch == '\'' {
				state = stateWord
			} else {
				word.WriteRune(ch)
			}
		case stateDouble:
			if ch == '"' {
				state = stateWord
			} else {
				word.WriteRune(ch)
			}
		default:
			switch {
			case ch == '\'':
				state = stateSingle
				haveWord = true
			case ch == '"':
				state = stateDouble
				haveWord = true
			case unicode.IsSpace(ch):
				if haveWord {
					args = append(args, word.String())
					word.Reset()
					haveWord = false
				}
			default:
				word.WriteRune(ch)
				haveWord = true
			}
		}
	}

	switch state {
	case stateSingle:
		return nil, fmt.Errorf("%w: unclosed single quote", ErrUnclosedQuote)
	case stateDouble:
		return nil, fmt.Errorf("%w: unclosed double quote", ErrUnclosedQuote)
	}

	if haveWord {
		args = append(args, word.String())
	}
	return args, nil
}

func isDoubleQuoteSpecial(ch rune) bool {
	return ch == '"' || ch == '\\' || ch == '$' || ch == '`'
}

// Join renders an argument vector back into a single command string,
// quoting arguments that need it. Join and Split round-trip.
func Join(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsFunc(arg, func(ch rune) bool {
		return unicode.IsSpace(ch) || strings.ContainsRune(`'"\$`+"`", ch)
	}) {
		return arg
	}
	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, ch := range arg {
		if isDoubleQuoteSpecial(ch) {
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	b.WriteByte('"')
	return b.String()
}
