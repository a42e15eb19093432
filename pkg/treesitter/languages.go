package treesitter

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammars maps a language identifier to its grammar constructor. Grammars
// are only materialized when a parser is first requested.
var grammars = map[string]func() *sitter.Language{
	"python":     python.GetLanguage,
	"javascript": javascript.GetLanguage,
	"typescript": typescript.GetLanguage,
	"tsx":        tsx.GetLanguage,
	"java":       java.GetLanguage,
	"go":         golang.GetLanguage,
	"rust":       rust.GetLanguage,
	"c":          c.GetLanguage,
	"cpp":        cpp.GetLanguage,
	"kotlin":     kotlin.GetLanguage,
}

func SupportedLanguages() []string {
	keys := make([]string, 0, len(grammars))
	for k := range grammars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
