package analyzer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"with www and path", "https://www.example.com/foo", "example-com"},
		{"plain domain", "https://example.com", "example-com"},
		{"subdomain", "https://shop.example.dk", "shop-example-dk"},
		{"port stripped", "http://example.com:8080/", "example-com"},
		{"uppercase host", "https://WWW.Example.COM", "example-com"},
		{"no scheme", "example.com", "example-com"},
		{"garbage", "://", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, DeriveSlug(tt.url))
		})
	}
}

func TestUniqueSlugAppendsCounter(t *testing.T) {
	t.Parallel()

	existing := map[string]bool{}
	taken := func(s string) bool { return existing[s] }

	for i, want := range []string{"example-com", "example-com-1", "example-com-2", "example-com-3"} {
		got := UniqueSlug("example-com", taken)
		require.Equal(t, want, got, "collision %d", i)
		existing[got] = true
	}
}

func TestUniqueSlugFallsBackToRandomToken(t *testing.T) {
	t.Parallel()

	got := UniqueSlug("", func(string) bool { return false })
	require.Regexp(t, `^site-[0-9a-f-]{8}$`, got)
}
