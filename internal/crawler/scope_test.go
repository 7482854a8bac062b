package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
)

func TestScopeDomain(t *testing.T) {
	s, err := newScope(&audit.Project{Domain: "example.com"})
	require.NoError(t, err)

	assert.True(t, s.inScope("https://example.com/a"))
	assert.True(t, s.inScope("https://www.example.com/a"))
	assert.False(t, s.inScope("https://sub.example.com/a"))
	assert.False(t, s.inScope("https://other.org/a"))
	assert.False(t, s.inScope("ftp://example.com/a"))
}

func TestScopeSubdomains(t *testing.T) {
	s, err := newScope(&audit.Project{Domain: "example.com", IncludeSubdomains: true})
	require.NoError(t, err)

	assert.True(t, s.inScope("https://blog.example.com/post"))
	assert.False(t, s.inScope("https://example.com.evil.org/"))
}

func TestScopePath(t *testing.T) {
	s, err := newScope(&audit.Project{Domain: "example.com", ScopePath: "/blog"})
	require.NoError(t, err)

	assert.True(t, s.inScope("https://example.com/blog/post-1"))
	assert.False(t, s.inScope("https://example.com/shop"))
}

func TestScopePatterns(t *testing.T) {
	s, err := newScope(&audit.Project{
		Domain:          "example.com",
		IncludePatterns: []string{`/docs/`},
		ExcludePatterns: []string{`\.pdf$`},
	})
	require.NoError(t, err)

	assert.True(t, s.inScope("https://example.com/docs/intro"))
	assert.False(t, s.inScope("https://example.com/pricing"))
	assert.False(t, s.inScope("https://example.com/docs/manual.pdf"))
}

func TestScopeInvalidPattern(t *testing.T) {
	_, err := newScope(&audit.Project{Domain: "example.com", IncludePatterns: []string{"("}})
	assert.Error(t, err)
}
