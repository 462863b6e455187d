package steam

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/spf13/afero"
)

// Pair is one key/value entry of a scope. Value is a string or a Tree.
type Pair struct {
	Key   string
	Value any
}

// Tree is a parsed KeyValues scope. Entries keep document order and
// repeated keys are kept as separate entries. All keys are lower-cased at
// parse time because the format is case-insensitive ("AppState" and
// "appstate" name the same scope).
type Tree struct {
	pairs []Pair
}

// ParseKeyValues parses Valve's text KeyValues format (libraryfolders.vdf,
// appmanifest_*.acf) into a Tree holding the document's root scopes.
func ParseKeyValues(r io.Reader) (Tree, error) {
	p := &kvParser{s: vdf.NewScanner(r)}
	tree, err := p.parseDocument()
	if err != nil {
		return Tree{}, fmt.Errorf("parse keyvalues: %w", err)
	}
	return tree, nil
}

// readKeyValues opens path on fs and parses it.
func readKeyValues(fs afero.Fs, path string) (Tree, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Tree{}, err
	}
	defer f.Close()

	return ParseKeyValues(f)
}

// Pairs returns the scope's entries in document order.
func (t Tree) Pairs() []Pair {
	return t.pairs
}

// Scope returns the nested scope stored under key. When the key repeats,
// the last scope wins.
func (t Tree) Scope(key string) (Tree, bool) {
	key = strings.ToLower(key)
	for i := len(t.pairs) - 1; i >= 0; i-- {
		if v, ok := t.pairs[i].Value.(Tree); ok && t.pairs[i].Key == key {
			return v, true
		}
	}
	return Tree{}, false
}

// String returns the string value stored under key. When the key repeats,
// the last value wins.
func (t Tree) String(key string) (string, bool) {
	key = strings.ToLower(key)
	for i := len(t.pairs) - 1; i >= 0; i-- {
		if v, ok := t.pairs[i].Value.(string); ok && t.pairs[i].Key == key {
			return v, true
		}
	}
	return "", false
}

var errUnterminatedScope = errors.New("unterminated scope")

// kvParser builds an ordered Tree from vdf's token stream. vdf's own Parser
// decodes into a map, which loses document order and merges repeated keys.
type kvParser struct {
	s *vdf.Scanner
}

// next returns the next token that is not whitespace, a line ending or part
// of a // comment.
func (p *kvParser) next() (vdf.Token, string) {
	for {
		tok, lit := p.s.Scan(false)
		switch tok {
		case vdf.WS, vdf.EOL:
			continue
		case vdf.CommentDoubleSlash:
			for {
				tok, _ = p.s.Scan(true)
				if tok == vdf.EOL || tok == vdf.EOF {
					break
				}
			}
			if tok == vdf.EOF {
				return tok, ""
			}
			continue
		}
		return tok, lit
	}
}

// text reads the token as a key or value. Quoted strings are read up to the
// closing quote; a backslash makes the following token literal.
func (p *kvParser) text(tok vdf.Token, lit string) (string, bool, error) {
	switch tok {
	case vdf.Ident:
		return lit, true, nil
	case vdf.QuotationMark:
	default:
		return "", false, nil
	}

	var sb strings.Builder
	escaped := false
	for {
		tok, lit := p.s.Scan(true)
		switch {
		case tok == vdf.EOF:
			return "", false, vdf.ErrNotValidFormat
		case escaped:
			escaped = false
		case tok == vdf.EscapeSequence:
			escaped = true
			continue
		case tok == vdf.QuotationMark:
			return sb.String(), true, nil
		}
		sb.WriteString(lit)
	}
}

// parseDocument reads root entries until EOF. Every root value must be a
// scope.
func (p *kvParser) parseDocument() (Tree, error) {
	var root Tree
	for {
		tok, lit := p.next()
		if tok == vdf.EOF {
			if len(root.pairs) == 0 {
				return Tree{}, errors.New("empty document")
			}
			return root, nil
		}

		key, ok, err := p.text(tok, lit)
		if err != nil {
			return Tree{}, err
		}
		if !ok {
			return Tree{}, fmt.Errorf("found %q, expected a key", lit)
		}

		if tok, lit = p.next(); tok != vdf.CurlyBraceOpen {
			return Tree{}, fmt.Errorf("found %q after %q, expected a curly brace", lit, key)
		}
		scope, err := p.parseScope()
		if err != nil {
			return Tree{}, err
		}
		root.pairs = append(root.pairs, Pair{Key: strings.ToLower(key), Value: scope})
	}
}

// parseScope reads entries after an opening brace up to the matching
// closing brace.
func (p *kvParser) parseScope() (Tree, error) {
	var t Tree
	for {
		tok, lit := p.next()
		switch tok {
		case vdf.CurlyBraceClose:
			return t, nil
		case vdf.EOF:
			return Tree{}, errUnterminatedScope
		}

		key, ok, err := p.text(tok, lit)
		if err != nil {
			return Tree{}, err
		}
		if !ok {
			return Tree{}, fmt.Errorf("found %q, expected a key", lit)
		}

		tok, lit = p.next()
		if tok == vdf.CurlyBraceOpen {
			nested, err := p.parseScope()
			if err != nil {
				return Tree{}, err
			}
			t.pairs = append(t.pairs, Pair{Key: strings.ToLower(key), Value: nested})
			continue
		}

		value, ok, err := p.text(tok, lit)
		if err != nil {
			return Tree{}, err
		}
		if !ok {
			if tok == vdf.EOF {
				return Tree{}, errUnterminatedScope
			}
			return Tree{}, fmt.Errorf("found %q after %q, expected a value or scope", lit, key)
		}
		t.pairs = append(t.pairs, Pair{Key: strings.ToLower(key), Value: value})
	}
}
