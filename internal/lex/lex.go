// Package lex splits a command line into words and pipe separators.
//
// Words are either unquoted runs of non-space characters or double-quoted
// strings, which may contain whitespace and the pipe character. Once the
// lexer reports an error it yields nothing further.
package lex

import (
	"errors"
	"io"
	"iter"
	"strings"
)

// ErrUnterminatedString is returned when a quoted word is never closed.
var ErrUnterminatedString = errors.New("quoted string left unclosed")

// Characters with special meaning to the lexer.
const (
	Quote = '"'
	Pipe  = '|'
)

// Kind distinguishes words from stage separators.
type Kind int

const (
	Word      Kind = iota // quoted or unquoted word
	Separator             // pipe between stages
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Separator:
		return "separator"
	default:
		return "kind(?)"
	}
}

// Token is a single lexical item. Text is empty for separators.
type Token struct {
	Kind Kind
	Text string
}

func (t Token) String() string {
	if t.Kind == Separator {
		return string(Pipe)
	}
	return t.Text
}

type state int

const (
	scanning state = iota
	quoted
	failed
)

// Lexer tokenizes a single line.
type Lexer struct {
	src   string
	pos   int
	state state
}

// New creates a lexer over line.
func New(line string) *Lexer {
	return &Lexer{src: line}
}

// Next returns the next token. It returns io.EOF when the input is
// exhausted. After returning any other error, every later call returns
// io.EOF.
func (l *Lexer) Next() (Token, error) {
	for {
		switch l.state {
		case failed:
			return Token{}, io.EOF

		case quoted:
			end := strings.IndexByte(l.src[l.pos:], Quote)
			if end < 0 {
				l.fail()
				return Token{}, ErrUnterminatedString
			}
			text := l.src[l.pos : l.pos+end]
			l.pos += end + 1
			l.state = scanning
			return Token{Kind: Word, Text: text}, nil

		default:
			if l.pos >= len(l.src) {
				return Token{}, io.EOF
			}
			switch c := l.src[l.pos]; {
			case isSpace(c):
				l.pos++
			case c == Pipe:
				l.pos++
				return Token{Kind: Separator}, nil
			case c == Quote:
				l.pos++
				l.state = quoted
			default:
				return l.unquoted(), nil
			}
		}
	}
}

func (l *Lexer) unquoted() Token {
	start := l.pos
	for l.pos < len(l.src) && !terminatesUnquoted(l.src[l.pos]) {
		l.pos++
	}
	return Token{Kind: Word, Text: l.src[start:l.pos]}
}

// fail discards the rest of the input.
func (l *Lexer) fail() {
	l.state = failed
	l.src = ""
	l.pos = 0
}

// Tokens returns a lazy sequence over the tokens of line. An error is
// yielded at most once and ends the sequence.
func Tokens(line string) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		l := New(line)
		for {
			tok, err := l.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Token{}, err)
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// All tokenizes line eagerly. On error no tokens are returned.
func All(line string) ([]Token, error) {
	var toks []Token
	for tok, err := range Tokens(line) {
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func terminatesUnquoted(c byte) bool {
	return isSpace(c) || c == Pipe
}
