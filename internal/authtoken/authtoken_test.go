package authtoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  string
	}{
		{name: "single field", parts: []string{"abc"}, want: "abc"},
		{name: "all present", parts: []string{"t1", "p1", "pp1", "a1"}, want: "t1;p1;pp1;a1"},
		{name: "leading absent", parts: []string{"", "p1", "pp1"}, want: ";p1;pp1"},
		{name: "trailing absent trimmed", parts: []string{"t1", "", "", ""}, want: "t1"},
		{name: "middle absent kept", parts: []string{"t1", "", "pp1"}, want: "t1;;pp1"},
		{name: "all absent", parts: []string{"", "", ""}, want: ""},
		{name: "no parts", parts: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.parts...))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		token string
		arity int
		want  Token
	}{
		{name: "empty token", token: "", arity: 4, want: Token{"", "", "", ""}},
		{name: "short token padded", token: "abc", arity: 3, want: Token{"abc", "", ""}},
		{name: "exact", token: "t;o;c", arity: 3, want: Token{"t", "o", "c"}},
		{name: "leading absent", token: ";p1;pp1", arity: 4, want: Token{"", "p1", "pp1", ""}},
		{name: "extra fields dropped", token: "a;b;c;d;e", arity: 4, want: Token{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.token, tt.arity)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, tt.arity)
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	tuples := []Token{
		{"t1", "p1", "pp1", "a1"},
		{"", "p1", "pp1", ""},
		{"", "", "", "a1"},
		{"t1", "", "", ""},
		{"", "", "", ""},
		{"x", "", "z"},
	}

	for _, tuple := range tuples {
		assert.Equal(t, tuple, Decode(Encode(tuple...), len(tuple)), "tuple %q", []string(tuple))
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		prev string
		next string
		want string
	}{
		{name: "new transaction keeps profile ids", prev: ";p1;pp1", next: "t9", want: "t9;p1;pp1"},
		{name: "new fields win", prev: "t1;p1;pp1;a1", next: "t2;;pp2", want: "t2;p1;pp2;a1"},
		{name: "empty next keeps prev", prev: "t1;p1", next: "", want: "t1;p1"},
		{name: "empty prev takes next", prev: "", next: "t1;;;a1", want: "t1;;;a1"},
		{name: "both empty", prev: "", next: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.prev, tt.next, 4))
		})
	}
}

func TestToken_Field(t *testing.T) {
	tok := Decode("a;b", 3)

	assert.Equal(t, "a", tok.Field(0))
	assert.Equal(t, "b", tok.Field(1))
	assert.Equal(t, "", tok.Field(2))
	assert.Equal(t, "", tok.Field(7))
	assert.Equal(t, "a;b", tok.String())
}
