package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestContent(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Bonjour", "Bonjour"},
		{"trim", "  Bonjour \n", "Bonjour"},
		{"control chars", "Bon\x00jo\x07ur\x7f", "Bonjour"},
		{"keeps tab as space", "a\t\tb", "a b"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"space runs", "a    b \t c", "a b c"},
		{"vertical tab and form feed", "a\x0b\x0cb", "ab"},
		{"empty", "", ""},
		{"only whitespace", " \n\t\r\n ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Content(tc.in))
		})
	}
}

func TestContentTruncates(t *testing.T) {
	long := strings.Repeat("é", MaxContentLength+500)
	out := Content(long)
	assert.Equal(t, MaxContentLength, utf8.RuneCountInString(out))
}

func TestContentIdempotent(t *testing.T) {
	inputs := []string{
		"Bonjour",
		"  a \n\n\n b \r\n\r\n\r\n c\t\t",
		"\x01\x02 hello \x1f world \x7f",
		" \n \n \n ",
		strings.Repeat("ab ", MaxContentLength/3+10),
		strings.Repeat("x", MaxContentLength-1) + "   yz",
		"a\r\r\r\rb",
		"invalid \xff utf8",
	}
	for _, in := range inputs {
		once := Content(in)
		assert.Equal(t, once, Content(once), "input %q", in)
	}
}

func TestContentNeverReturnsBannedCharacters(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 0x80; i++ {
		b.WriteByte(byte(i))
		b.WriteString("x")
	}
	out := Content(b.String())
	for _, r := range out {
		banned := (r <= 0x08) || r == 0x0b || r == 0x0c || (r >= 0x0e && r <= 0x1f) || r == 0x7f || r == '\r'
		assert.False(t, banned, "found banned rune %U", r)
	}
	assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxContentLength)
}

func TestValue(t *testing.T) {
	assert.Equal(t, "hi", Value(" hi "))
	assert.Equal(t, "", Value(42))
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "", Value(map[string]any{"content": "x"}))
}
