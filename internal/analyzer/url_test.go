package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com", "https://example.com"},
		{"trailing slash", "https://example.com/", "https://example.com"},
		{"fragment stripped", "https://example.com/about#team", "https://example.com/about"},
		{"whitespace trimmed", "  https://example.com  ", "https://example.com"},
		{"query kept", "https://example.com/search?q=1", "https://example.com/search?q=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeURLRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "ftp://example.com", "https://", "not a url at all://"} {
		_, err := NormalizeURL(in)
		require.Error(t, err, "input %q", in)
	}
}
