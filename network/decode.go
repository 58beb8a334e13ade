package network

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html/charset"
)

const utf8Name = "utf-8"

var boms = []struct {
	prefix []byte
	name   string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, utf8Name},
	{[]byte{0xFE, 0xFF}, "utf-16be"},
	{[]byte{0xFF, 0xFE}, "utf-16le"},
}

// charsetRulePrefix is the exact byte sequence an @charset rule starts
// with. Anything else, even with different spacing or quotes, is ignored.
var charsetRulePrefix = []byte(`@charset "`)

// maxCharsetRuleLen bounds how far the label of an @charset rule is
// searched for.
const maxCharsetRuleLen = 1024

// DecodeStyleSheet converts stylesheet bytes to text and returns the name of
// the encoding used. The encoding is chosen from, in order: a byte order
// mark, the transport charset (e.g. the Content-Type parameter), a leading
// @charset rule, the environment encoding (e.g. that of the referring
// document) and finally UTF-8. Unknown labels are skipped.
func DecodeStyleSheet(data []byte, transportCharset, environmentCharset string) (string, string, error) {
	for _, bom := range boms {
		if bytes.HasPrefix(data, bom.prefix) {
			return decode(data[len(bom.prefix):], bom.name)
		}
	}

	if _, name := charset.Lookup(transportCharset); name != "" {
		return decode(data, name)
	}

	if label, ok := charsetRuleLabel(data); ok {
		if _, name := charset.Lookup(label); name != "" {
			// UTF-16 labels in an ASCII @charset rule mean UTF-8
			if name == "utf-16be" || name == "utf-16le" {
				name = utf8Name
			}
			return decode(data, name)
		}
	}

	if _, name := charset.Lookup(environmentCharset); name != "" {
		return decode(data, name)
	}

	return decode(data, utf8Name)
}

// charsetRuleLabel extracts the label of a leading `@charset "label";`.
func charsetRuleLabel(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, charsetRulePrefix) {
		return "", false
	}
	rest := data[len(charsetRulePrefix):]
	if len(rest) > maxCharsetRuleLen {
		rest = rest[:maxCharsetRuleLen]
	}
	end := bytes.Index(rest, []byte(`";`))
	if end < 0 {
		return "", false
	}
	return string(rest[:end]), true
}

func decode(data []byte, name string) (string, string, error) {
	enc, canonical := charset.Lookup(name)
	if enc == nil {
		return "", "", fmt.Errorf("unsupported encoding %q", name)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode stylesheet as %s: %w", canonical, err)
	}
	return string(out), canonical, nil
}
