// Package textenc converts artifact bytes to and from named text encodings.
package textenc

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"git.home.luguber.info/inful/docharness/internal/foundation/errors"
)

// Default is used when no encoding name is given.
const Default = "utf-8"

// Lookup resolves a WHATWG encoding label such as "utf-8", "latin1" or "shift_jis".
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = Default
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "unknown text encoding").
			WithContext("encoding", name).
			Build()
	}
	return enc, nil
}

// Decode converts data in the named encoding to a Go string.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "decode text").
			WithContext("encoding", name).
			Build()
	}
	return string(out), nil
}

// Encode converts s to bytes in the named encoding.
func Encode(s string, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(s), nil
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "encode text").
			WithContext("encoding", name).
			Build()
	}
	return out, nil
}
