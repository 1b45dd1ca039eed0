package imageresolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshoup521/NewsHub/internal/imageresolver"
)

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	registry := imageresolver.NewRegistry()

	tests := []struct {
		name string
		urls []string
		want string
	}{
		{name: "exact host", urls: []string{"https://techcrunch.com/feed/"}, want: "TechCrunch"},
		{name: "www subdomain", urls: []string{"https://www.theverge.com/rss/index.xml"}, want: "The Verge"},
		{name: "feed subdomain", urls: []string{"https://feeds.sciencedaily.com/sciencedaily"}, want: "Science Daily"},
		{name: "mixed case host", urls: []string{"https://WWW.ESPN.COM/espn/rss/news"}, want: "ESPN"},
		{name: "lookalike domain", urls: []string{"https://notespn.com/feed"}},
		{name: "unknown", urls: []string{"https://news.ycombinator.com/rss"}},
		{name: "falls through to second url", urls: []string{"https://feeds.example.com/x", "https://techcrunch.com/2024/01/01/a"}, want: "TechCrunch"},
		{name: "garbage", urls: []string{"::not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := registry.Lookup(tt.urls...)
			if tt.want == "" {
				assert.Nil(t, pub)
				return
			}
			require.NotNil(t, pub)
			assert.Equal(t, tt.want, pub.Name)
		})
	}
}

func TestRegistry_ByName(t *testing.T) {
	t.Parallel()

	registry := imageresolver.NewRegistry()

	pub := registry.ByName("the verge")
	require.NotNil(t, pub)
	assert.Equal(t, "The Verge", pub.Name)
	assert.NotEmpty(t, pub.Patterns)

	assert.Nil(t, registry.ByName("Hacker News"))
}

func TestNewRegistry_Custom(t *testing.T) {
	t.Parallel()

	registry := imageresolver.NewRegistry(imageresolver.Publisher{Name: "Local", Domains: []string{"local.test"}})

	require.NotNil(t, registry.Lookup("http://blog.local.test/feed"))
	assert.Nil(t, registry.Lookup("https://techcrunch.com/feed"))
}
