// Package pii applies one-way masking to inbound order data. Masking is
// deterministic and there is no unmask operation anywhere in the system.
package pii

import "strings"

// Redacted replaces fields that are always masked regardless of source
// value (document ids and payment transaction ids at ingestion).
const Redacted = "***"

// MaskPhone reveals at most the last 4 characters of a phone number.
// Blank input yields the empty string, callers omit it from output.
func MaskPhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return Redacted
	}
	return Redacted + s[len(s)-4:]
}

// MaskAddress reveals at most the leading 5 characters of a street line.
func MaskAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	r := []rune(s)
	if len(r) <= 5 {
		return Redacted
	}
	return string(r[:5]) + Redacted
}

// MaskDocumentID reveals at most the last 2 characters of a document id.
func MaskDocumentID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if len(s) <= 2 {
		return Redacted
	}
	return Redacted + s[len(s)-2:]
}
