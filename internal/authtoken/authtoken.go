// Package authtoken encodes the composite authorization handles that some backends
// split into several identifiers (transaction, customer profile, payment profile,
// shipping address) and hand back to callers as one opaque string.
package authtoken

import "strings"

// Separator joins the fields of a token.
const Separator = ";"

// Token is a decoded authorization handle. An empty field means absent.
type Token []string

// Encode joins parts with Separator. Trailing absent fields are trimmed,
// so Encode("abc") == "abc" and Encode("", "p1", "") == ";p1".
func Encode(parts ...string) string {
	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	return strings.Join(parts[:end], Separator)
}

// Decode splits token into exactly arity fields. Missing fields are padded
// with "" and fields past arity are dropped. Decode never fails.
func Decode(token string, arity int) Token {
	out := make(Token, arity)
	if token == "" {
		return out
	}
	copy(out, strings.Split(token, Separator))
	return out
}

// Merge combines two tokens position by position. A present field of next wins;
// otherwise the field of prev is kept.
func Merge(prev, next string, arity int) string {
	p := Decode(prev, arity)
	n := Decode(next, arity)
	for i := range p {
		if n[i] != "" {
			p[i] = n[i]
		}
	}
	return Encode(p...)
}

// Field returns the i-th field, or "" when the token is too short.
func (t Token) Field(i int) string {
	if i < 0 || i >= len(t) {
		return ""
	}
	return t[i]
}

// String re-encodes the token.
func (t Token) String() string {
	return Encode(t...)
}
