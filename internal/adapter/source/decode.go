package source

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decoder returns a body decoder for the named encoding: "windows-1251" or
// "utf-8".
func Decoder(encoding string) (func([]byte) (string, error), error) {
	switch strings.ToLower(encoding) {
	case "windows-1251", "cp1251":
		return DecodeWindows1251, nil
	case "utf-8", "utf8", "":
		return DecodeUTF8, nil
	default:
		return nil, fmt.Errorf("unsupported source encoding %q", encoding)
	}
}

// DecodeWindows1251 converts a windows-1251 page to UTF-8. Every byte is
// decoded; pages served as UTF-8 need the "utf-8" decoder instead.
func DecodeWindows1251(body []byte) (string, error) {
	out, err := charmap.Windows1251.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("decode windows-1251: %w", err)
	}
	return string(out), nil
}

// DecodeUTF8 returns body as text.
func DecodeUTF8(body []byte) (string, error) {
	if !utf8.Valid(body) {
		return "", fmt.Errorf("source body is not valid utf-8")
	}
	return string(body), nil
}
