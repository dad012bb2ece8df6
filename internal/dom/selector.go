package dom

import (
	"strconv"
	"strings"

	"github.com/domtestrun/domtest/internal/domerr"
)

// AttrOp enumerates the attribute-matcher operators spec.md §4.2 requires.
type AttrOp string

const (
	AttrExists    AttrOp = ""
	AttrEquals    AttrOp = "="
	AttrIncludes  AttrOp = "~=" // space-separated word match
	AttrDashMatch AttrOp = "|=" // exact or prefix-followed-by-hyphen
	AttrPrefix    AttrOp = "^="
	AttrSuffix    AttrOp = "$="
	AttrSubstring AttrOp = "*="
)

// AttrMatcher is one [attr op value] clause.
type AttrMatcher struct {
	Name  string
	Op    AttrOp
	Value string
}

// NthFormula is the parsed an+b form nth-child/nth-of-type family accept.
type NthFormula struct {
	A, B int
}

// Matches reports whether 1-based position satisfies a*n+b for some n>=0.
func (f NthFormula) Matches(position int) bool {
	if f.A == 0 {
		return position == f.B
	}
	diff := position - f.B
	if diff%f.A != 0 {
		return false
	}
	return diff/f.A >= 0
}

// PseudoKind distinguishes the pseudo-class families §4.2 names.
type PseudoKind int

const (
	PseudoFirstChild PseudoKind = iota
	PseudoLastChild
	PseudoOnlyChild
	PseudoFirstOfType
	PseudoLastOfType
	PseudoOnlyOfType
	PseudoNthChild
	PseudoNthLastChild
	PseudoNthOfType
	PseudoNthLastOfType
	PseudoEmpty
	PseudoRoot
	PseudoChecked
	PseudoDisabled
	PseudoEnabled
	PseudoRequired
	PseudoOptional
	PseudoIndeterminate
	PseudoNot
	PseudoIs
	PseudoWhere
	PseudoHas
)

// Pseudo is one :pseudo-class(...) clause attached to a simple selector.
type Pseudo struct {
	Kind    PseudoKind
	Formula NthFormula   // valid for the Nth* kinds
	Nested  *SelectorList // valid for Not/Is/Where/Has
	Raw     string        // original text, for UnsupportedSelector messages
}

// SimpleSelector is one compound unit: tag + id + classes + attrs + pseudos,
// all of which must hold simultaneously.
type SimpleSelector struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   []AttrMatcher
	Pseudos []Pseudo
}

// Combinator is the relationship between two compound parts.
type Combinator int

const (
	CombinatorNone Combinator = iota
	CombinatorDescendant
	CombinatorChild
	CombinatorAdjacentSibling
	CombinatorGeneralSibling
)

// SelectorPart is one compound selector plus the combinator that follows it
// (toward the subject), mirroring the teacher's left-to-right chain shape.
type SelectorPart struct {
	Sel        *SimpleSelector
	Combinator Combinator
}

// Selector is one full compound chain (no top-level commas).
type Selector struct {
	Parts []SelectorPart
	Raw   string
}

func (s *Selector) subject() *SimpleSelector {
	if len(s.Parts) == 0 {
		return &SimpleSelector{Tag: "*"}
	}
	return s.Parts[len(s.Parts)-1].Sel
}

// SelectorList is a comma-separated group of selectors.
type SelectorList struct {
	Selectors []*Selector
	Raw       string
}

// ParseSelectorList parses a full selector string (spec.md §4.2 grammar),
// returning domerr.UnsupportedSelector for anything outside the supported
// subset. The algorithm generalizes the teacher's one-shot
// tokenizeSelectorParts/parseSelector pair into a full chain+pseudo+list
// grammar while keeping its core recursive structure: split into tokens at
// top level, classify each token, build compound parts right-to-left.
func ParseSelectorList(raw string) (*SelectorList, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &domerr.UnsupportedSelector{Selector: raw}
	}
	groups := splitTopLevel(trimmed, ',')
	list := &SelectorList{Raw: raw}
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" {
			return nil, &domerr.UnsupportedSelector{Selector: raw}
		}
		sel, err := parseSelectorChain(g)
		if err != nil {
			return nil, err
		}
		list.Selectors = append(list.Selectors, sel)
	}
	return list, nil
}

// splitTopLevel splits s on sep, ignoring occurrences inside [], (), or
// quotes.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depthBracket, depthParen := 0, 0
	inQuote := byte(0)
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '[':
			depthBracket++
		case c == ']':
			if depthBracket > 0 {
				depthBracket--
			}
		case c == '(':
			depthParen++
		case c == ')':
			if depthParen > 0 {
				depthParen--
			}
		case c == sep && depthBracket == 0 && depthParen == 0:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func parseSelectorChain(s string) (*Selector, error) {
	tokens, err := tokenizeChain(s)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, &domerr.UnsupportedSelector{Selector: s}
	}
	var parts []SelectorPart
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if isCombinatorToken(tok) {
			return nil, &domerr.UnsupportedSelector{Selector: s}
		}
		sel, err := parseSimpleSelector(tok)
		if err != nil {
			return nil, err
		}
		i++
		comb := CombinatorNone
		if i < len(tokens) {
			switch tokens[i] {
			case ">":
				comb = CombinatorChild
				i++
			case "+":
				comb = CombinatorAdjacentSibling
				i++
			case "~":
				comb = CombinatorGeneralSibling
				i++
			case " ":
				comb = CombinatorDescendant
				i++
			default:
				comb = CombinatorDescendant
			}
		}
		parts = append(parts, SelectorPart{Sel: sel, Combinator: comb})
	}
	return &Selector{Parts: parts, Raw: s}, nil
}

func isCombinatorToken(tok string) bool {
	return tok == ">" || tok == "+" || tok == "~" || tok == " "
}

// tokenizeChain splits a compound-selector chain into alternating
// simple-selector and combinator tokens, respecting bracket/paren/quote
// nesting (generalizing the teacher's tokenizeSelectorParts).
func tokenizeChain(s string) ([]string, error) {
	var tokens []string
	n := len(s)
	i := 0
	for i < n {
		wsStart := i
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		if s[i] == '>' || s[i] == '+' || s[i] == '~' {
			tokens = append(tokens, string(s[i]))
			i++
			for i < n && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
			continue
		}
		if wsStart < i && len(tokens) > 0 && !isCombinatorToken(tokens[len(tokens)-1]) {
			tokens = append(tokens, " ")
		}
		start := i
		depthBracket, depthParen := 0, 0
		inQuote := byte(0)
		for i < n {
			c := s[i]
			if inQuote != 0 {
				if c == inQuote {
					inQuote = 0
				}
				i++
				continue
			}
			switch c {
			case '\'', '"':
				inQuote = c
				i++
				continue
			case '[':
				depthBracket++
				i++
				continue
			case ']':
				if depthBracket > 0 {
					depthBracket--
				}
				i++
				continue
			case '(':
				depthParen++
				i++
				continue
			case ')':
				if depthParen > 0 {
					depthParen--
				}
				i++
				continue
			}
			if depthBracket == 0 && depthParen == 0 {
				if c == ' ' || c == '\t' || c == '>' || c == '+' || c == '~' {
					break
				}
			}
			i++
		}
		if i > start {
			tokens = append(tokens, s[start:i])
		}
	}
	return tokens, nil
}

func parseSimpleSelector(s string) (*SimpleSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &SimpleSelector{Tag: "*"}, nil
	}
	sel := &SimpleSelector{}
	i, n := 0, len(s)
	start := i
	for i < n && s[i] != '#' && s[i] != '.' && s[i] != '[' && s[i] != ':' {
		i++
	}
	if i > start {
		sel.Tag = s[start:i]
	}
	for i < n {
		switch s[i] {
		case '#':
			i++
			start = i
			for i < n && s[i] != '#' && s[i] != '.' && s[i] != '[' && s[i] != ':' {
				i++
			}
			sel.ID = s[start:i]
		case '.':
			i++
			start = i
			for i < n && s[i] != '#' && s[i] != '.' && s[i] != '[' && s[i] != ':' {
				i++
			}
			sel.Classes = append(sel.Classes, s[start:i])
		case '[':
			i++
			start = i
			depth := 1
			for i < n && depth > 0 {
				if s[i] == '[' {
					depth++
				} else if s[i] == ']' {
					depth--
					if depth == 0 {
						break
					}
				}
				i++
			}
			attrStr := s[start:i]
			if i < n {
				i++
			}
			sel.Attrs = append(sel.Attrs, parseAttrMatcher(attrStr))
		case ':':
			i++
			start = i
			for i < n && s[i] != '(' && s[i] != '#' && s[i] != '.' && s[i] != '[' && s[i] != ':' {
				i++
			}
			name := s[start:i]
			var args string
			if i < n && s[i] == '(' {
				i++
				pstart := i
				depth := 1
				for i < n && depth > 0 {
					if s[i] == '(' {
						depth++
					} else if s[i] == ')' {
						depth--
						if depth == 0 {
							break
						}
					}
					i++
				}
				args = s[pstart:i]
				if i < n {
					i++
				}
			}
			p, err := parsePseudo(name, args)
			if err != nil {
				return nil, err
			}
			sel.Pseudos = append(sel.Pseudos, *p)
		default:
			i++
		}
	}
	return sel, nil
}

func parsePseudo(name, args string) (*Pseudo, error) {
	raw := ":" + name
	if args != "" {
		raw += "(" + args + ")"
	}
	switch strings.ToLower(name) {
	case "first-child":
		return &Pseudo{Kind: PseudoFirstChild, Raw: raw}, nil
	case "last-child":
		return &Pseudo{Kind: PseudoLastChild, Raw: raw}, nil
	case "only-child":
		return &Pseudo{Kind: PseudoOnlyChild, Raw: raw}, nil
	case "first-of-type":
		return &Pseudo{Kind: PseudoFirstOfType, Raw: raw}, nil
	case "last-of-type":
		return &Pseudo{Kind: PseudoLastOfType, Raw: raw}, nil
	case "only-of-type":
		return &Pseudo{Kind: PseudoOnlyOfType, Raw: raw}, nil
	case "empty":
		return &Pseudo{Kind: PseudoEmpty, Raw: raw}, nil
	case "root":
		return &Pseudo{Kind: PseudoRoot, Raw: raw}, nil
	case "checked":
		return &Pseudo{Kind: PseudoChecked, Raw: raw}, nil
	case "disabled":
		return &Pseudo{Kind: PseudoDisabled, Raw: raw}, nil
	case "enabled":
		return &Pseudo{Kind: PseudoEnabled, Raw: raw}, nil
	case "required":
		return &Pseudo{Kind: PseudoRequired, Raw: raw}, nil
	case "optional":
		return &Pseudo{Kind: PseudoOptional, Raw: raw}, nil
	case "indeterminate":
		return &Pseudo{Kind: PseudoIndeterminate, Raw: raw}, nil
	case "nth-child", "nth-last-child", "nth-of-type", "nth-last-of-type":
		f, err := parseNthFormula(args)
		if err != nil {
			return nil, &domerr.UnsupportedSelector{Selector: raw}
		}
		kind := PseudoNthChild
		switch strings.ToLower(name) {
		case "nth-last-child":
			kind = PseudoNthLastChild
		case "nth-of-type":
			kind = PseudoNthOfType
		case "nth-last-of-type":
			kind = PseudoNthLastOfType
		}
		return &Pseudo{Kind: kind, Formula: f, Raw: raw}, nil
	case "not", "is", "where", "has":
		nested, err := ParseSelectorList(args)
		if err != nil {
			return nil, &domerr.UnsupportedSelector{Selector: raw}
		}
		kind := PseudoNot
		switch strings.ToLower(name) {
		case "is":
			kind = PseudoIs
		case "where":
			kind = PseudoWhere
		case "has":
			kind = PseudoHas
		}
		return &Pseudo{Kind: kind, Nested: nested, Raw: raw}, nil
	default:
		return nil, &domerr.UnsupportedSelector{Selector: raw}
	}
}

// parseNthFormula parses "even", "odd", or "an+b" (a, b optionally signed,
// either may be omitted).
func parseNthFormula(s string) (NthFormula, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "even":
		return NthFormula{A: 2, B: 0}, nil
	case "odd":
		return NthFormula{A: 2, B: 1}, nil
	}
	s = strings.ReplaceAll(s, " ", "")
	if !strings.Contains(s, "n") {
		b, err := strconv.Atoi(s)
		if err != nil {
			return NthFormula{}, err
		}
		return NthFormula{A: 0, B: b}, nil
	}
	parts := strings.SplitN(s, "n", 2)
	aStr := parts[0]
	a := 1
	switch aStr {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		v, err := strconv.Atoi(aStr)
		if err != nil {
			return NthFormula{}, err
		}
		a = v
	}
	b := 0
	rest := strings.TrimSpace(parts[1])
	if rest != "" {
		v, err := strconv.Atoi(rest)
		if err != nil {
			return NthFormula{}, err
		}
		b = v
	}
	return NthFormula{A: a, B: b}, nil
}

func parseAttrMatcher(s string) AttrMatcher {
	for _, op := range []AttrOp{"*=", "^=", "$=", "~=", "|=", "="} {
		if idx := strings.Index(s, string(op)); idx != -1 {
			name := strings.TrimSpace(s[:idx])
			value := strings.TrimSpace(s[idx+len(op):])
			value = strings.Trim(value, `"'`)
			return AttrMatcher{Name: name, Op: op, Value: value}
		}
	}
	return AttrMatcher{Name: strings.TrimSpace(s), Op: AttrExists}
}
