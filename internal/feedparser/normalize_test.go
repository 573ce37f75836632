package feedparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"entity decode and strip tags", "<p>Hello &amp; world</p>", "Hello & world"},
		{"collapse whitespace", "  foo\n\tbar  ", "foo bar"},
		{"empty string", "", ""},
		{"double-encoded entity", "Tom &amp;amp; Jerry", "Tom & Jerry"},
		{"nested tags", "<div><b>bold</b> text</div>", "bold text"},
		{"whitespace only", "   \n\t  ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize(tc.in))
		})
	}
}

func TestOrEmpty(t *testing.T) {
	assert.Equal(t, "", orEmpty("   "))
	assert.Equal(t, "", orEmpty(""))
	assert.Equal(t, "hello", orEmpty("hello"))
}
