package treesitter

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCachesParserPerLanguage(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	first, ok := reg.ParserFor("python")
	require.True(t, ok)
	second, ok := reg.ParserFor("python")
	require.True(t, ok)
	assert.Same(t, first, second)
	assert.Equal(t, "python", first.Language())
}

func TestRegistryUnknownLanguage(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	p, ok := reg.ParserFor("cobol")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestRegistryConcurrentFirstUse(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	const n = 16
	got := make([]*Parser, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _ := reg.ParserFor("go")
			got[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, got[0], got[i])
	}
}

func TestParseEverySupportedLanguage(t *testing.T) {
	reg := NewRegistry()
	defer reg.Close()

	for _, lang := range SupportedLanguages() {
		p, ok := reg.ParserFor(lang)
		require.True(t, ok, lang)

		tree, err := p.Parse(context.Background(), []byte(""))
		require.NoError(t, err, lang)
		assert.NotNil(t, tree.RootNode(), lang)
		tree.Close()
	}
}
