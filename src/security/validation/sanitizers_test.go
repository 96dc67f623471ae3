package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "bold", SanitizeText("<b>bold</b>"))
	assert.Equal(t, "Supermarket", SanitizeText(`<a href="http://evil">Supermarket</a>`))
	assert.Equal(t, "plain text", SanitizeText("plain text"))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "ab", StripUnprintable("a\x00b"))
	assert.Equal(t, "line1\nline2\ttabbed", StripUnprintable("line1\nline2\ttabbed"))
	assert.Equal(t, "café", StripUnprintable("café"))
}

func TestSanitizeNumericString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"$1,234.56", "1234.56"},
		{"MXN 15,000.75", "15000.75"},
		{"-50", "-50"},
		{"**** 9931", "9931"},
		{"n/a", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeNumericString(tt.in), "input %q", tt.in)
	}
}
