// Package factor expands environment name patterns with brace
// alternatives into concrete environment names.
//
// A pattern is a sequence of literal runs and brace groups; a brace
// group holds comma-separated alternatives, any of which may be empty:
//
//	Expand("py{36,37}") => ["py36", "py37"]
//	Expand("py36{,-arduino}") => ["py36", "py36-arduino"]
//
// Groups multiply left to right, so "py{36,37}{,-x}" yields py36,
// py36-x, py37, py37-x. Nested groups are not supported.
package factor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnclosedBrace is returned when a '{' has no matching '}'
	ErrUnclosedBrace = errors.New("❌ unclosed brace in environment pattern")

	// ErrNestedBrace is returned when a brace group contains another '{'
	ErrNestedBrace = errors.New("❌ nested braces are not supported")

	// ErrUnmatchedBrace is returned for a '}' with no opening '{'
	ErrUnmatchedBrace = errors.New("❌ unmatched closing brace in environment pattern")
)

// segment is one piece of a parsed pattern: either a single literal
// (alternatives has length 1) or a brace group.
type segment struct {
	alternatives []string
}

// Expand expands one pattern into the concrete names it denotes, in
// left-to-right alternative order. A pattern without braces expands to
// itself. Duplicate names produced by the same pattern are kept; callers
// that need set semantics deduplicate across the whole list.
func Expand(pattern string) ([]string, error) {
	segments, err := parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, pattern)
	}

	names := []string{""}
	for _, seg := range segments {
		next := make([]string, 0, len(names)*len(seg.alternatives))
		for _, prefix := range names {
			for _, alt := range seg.alternatives {
				next = append(next, prefix+alt)
			}
		}
		names = next
	}
	return names, nil
}

// ExpandList expands a whitespace- or comma-separated list of patterns
// into a single deduplicated name list. Commas inside brace groups
// separate alternatives, not patterns. The first occurrence of a name
// wins, so the output order is fully determined by the input.
func ExpandList(list string) ([]string, error) {
	patterns, err := splitList(list)
	if err != nil {
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		expanded, err := Expand(pattern)
		if err != nil {
			return nil, err
		}
		for _, name := range expanded {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// parse splits a pattern into literal and brace-group segments.
func parse(pattern string) ([]segment, error) {
	var segments []segment
	var literal strings.Builder
	var group strings.Builder
	inGroup := false

	flushLiteral := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{alternatives: []string{literal.String()}})
			literal.Reset()
		}
	}

	for _, ch := range pattern {
		switch {
		case ch == '{' && inGroup:
			return nil, ErrNestedBrace
		case ch == '{':
			flushLiteral()
			inGroup = true
		case ch == '}' && !inGroup:
			return nil, ErrUnmatchedBrace
		case ch == '}':
			segments = append(segments, segment{alternatives: strings.Split(group.String(), ",")})
			group.Reset()
			inGroup = false
		case inGroup:
			group.WriteRune(ch)
		default:
			literal.WriteRune(ch)
		}
	}

	if inGroup {
		return nil, ErrUnclosedBrace
	}
	flushLiteral()
	return segments, nil
}

// splitList tokenizes an envlist on whitespace and commas, treating
// commas inside brace groups as part of the pattern.
func splitList(list string) ([]string, error) {
	var patterns []string
	var current strings.Builder
	depth := 0

	flush := func() {
		if current.Len() > 0 {
			patterns = append(patterns, current.String())
			current.Reset()
		}
	}

	for _, ch := range list {
		switch {
		case ch == '{':
			depth++
			current.WriteRune(ch)
		case ch == '}':
			if depth == 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnmatchedBrace, list)
			}
			depth--
			current.WriteRune(ch)
		case (ch == ',' || ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r') && depth == 0:
			flush()
		default:
			current.WriteRune(ch)
		}
	}

	if depth > 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnclosedBrace, list)
	}
	flush()
	return patterns, nil
}
