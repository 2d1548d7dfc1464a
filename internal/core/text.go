package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText composes Vietnamese diacritics (NFC), lower-cases and trims.
// Keyboards and clipboard sources differ on whether "ệ" arrives precomposed,
// so every rule and marker lookup runs on this form.
func NormalizeText(s string) string {
	return strings.TrimSpace(cases.Lower(language.Vietnamese).String(norm.NFC.String(s)))
}

// CollapseSpaces joins whitespace-separated fields with single spaces.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ComposeText applies NFC composition without changing case, so byte
// offsets found by case-insensitive patterns can be used to cut the text.
func ComposeText(s string) string {
	return norm.NFC.String(s)
}
