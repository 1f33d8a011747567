package lex

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func word(s string) Token { return Token{Kind: Word, Text: s} }

var sep = Token{Kind: Separator}

func TestAll(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Token
	}{
		{"empty", "", nil},
		{"only whitespace", " \t\r\n ", nil},
		{"single word", "string", []Token{word("string")}},
		{"two words", "one two", []Token{word("one"), word("two")}},
		{"pipe", "one| two", []Token{word("one"), sep, word("two")}},
		{"pipe no spaces", "a|b", []Token{word("a"), sep, word("b")}},
		{"adjacent pipes", "a||b", []Token{word("a"), sep, sep, word("b")}},
		{"quoted", `"foo bar"`, []Token{word("foo bar")}},
		{"empty quoted", `""`, []Token{word("")}},
		{"quoted pipe", `echo "a | b"`, []Token{word("echo"), word("a | b")}},
		{"quote inside unquoted", `ab"c`, []Token{word(`ab"c`)}},
		{
			"mixed",
			`foo "bar baz" qux| one two "three" ""`,
			[]Token{
				word("foo"), word("bar baz"), word("qux"), sep,
				word("one"), word("two"), word("three"), word(""),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := All(tt.line)
			if err != nil {
				t.Fatalf("All(%q): %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("All(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, line := range []string{`"`, `"abc`, `echo "abc`, `a | b "c | d`, `x "y z`} {
		toks, err := All(line)
		if !errors.Is(err, ErrUnterminatedString) {
			t.Errorf("All(%q): expected ErrUnterminatedString, got %v", line, err)
		}
		if toks != nil {
			t.Errorf("All(%q): expected no tokens, got %v", line, toks)
		}
	}
}

func TestErrorIsSticky(t *testing.T) {
	l := New(`echo "never closed | cat`)
	tok, err := l.Next()
	if err != nil || tok != word("echo") {
		t.Fatalf("first token = %v, %v", tok, err)
	}
	if _, err := l.Next(); !errors.Is(err, ErrUnterminatedString) {
		t.Fatalf("expected ErrUnterminatedString, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if tok, err := l.Next(); err != io.EOF {
			t.Fatalf("call %d after error: got %v, %v; want io.EOF", i, tok, err)
		}
	}
}

func TestTokensStopsAfterError(t *testing.T) {
	var n, errs int
	for _, err := range Tokens(`a b "c`) {
		if err != nil {
			errs++
			continue
		}
		n++
	}
	if n != 2 || errs != 1 {
		t.Errorf("got %d tokens and %d errors, want 2 and 1", n, errs)
	}
}

func TestTokensEarlyBreak(t *testing.T) {
	var got []string
	for tok := range Tokens("a b c") {
		got = append(got, tok.Text)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 {
		t.Errorf("expected to stop after 2 tokens, got %v", got)
	}
}

func TestRejoinCollapsesWhitespace(t *testing.T) {
	for _, line := range []string{"a b c", "  lead and trail  ", "tabs\tand\nnewlines", "x"} {
		toks, err := All(line)
		if err != nil {
			t.Fatal(err)
		}
		words := make([]string, len(toks))
		for i, tok := range toks {
			words[i] = tok.Text
		}
		if got, want := strings.Join(words, " "), strings.Join(strings.Fields(line), " "); got != want {
			t.Errorf("rejoin(%q) = %q, want %q", line, got, want)
		}
	}
}
