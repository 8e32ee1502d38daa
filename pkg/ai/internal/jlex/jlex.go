// ABOUTME: Walkers over easyjson's jlexer for hand-written, reflection-free decoders
// ABOUTME: Shared by the provider packages that decode SSE payloads on the hot path

package jlex

import "github.com/mailru/easyjson/jlexer"

// Object walks a JSON object, calling field for each key whose value is not
// null. field must consume the value (read it or call in.SkipRecursive).
// A null object is skipped.
func Object(in *jlexer.Lexer, field func(key string)) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		field(key)
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

// Array walks a JSON array, calling elem once per element. A null array is
// skipped.
func Array(in *jlexer.Lexer, elem func()) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('[')
	for !in.IsDelim(']') {
		elem()
		in.WantComma()
	}
	in.Delim(']')
}

// Decode runs fn over data and returns the first lexing error.
func Decode(data []byte, fn func(in *jlexer.Lexer)) error {
	in := jlexer.Lexer{Data: data}
	fn(&in)
	return in.Error()
}
