package indexer

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/dpolishuk/coderead/pkg/treesitter"
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is the parse tree surface the extractor depends on. Lines are 0-based.
type Node interface {
	Kind() string
	StartByte() int
	EndByte() int
	StartLine() int
	EndLine() int
	Children() []Node
}

// ExtractResult is the structural model of one source file.
type ExtractResult struct {
	Language  string
	Units     []*models.CodeUnit
	LineCount int
}

// Extractor turns source text into a forest of code units.
type Extractor struct {
	registry *treesitter.Registry
}

// NewExtractor creates a new code unit extractor backed by registry.
func NewExtractor(registry *treesitter.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Extract parses content as language and returns its unit forest. The
// boolean is false when there is no grammar or no extraction rules for the
// language; that is a skip, not an error.
func (e *Extractor) Extract(ctx context.Context, content []byte, language string) (*ExtractResult, bool, error) {
	langRules, ok := rulesFor(language)
	if !ok {
		return nil, false, nil
	}
	parser, ok := e.registry.ParserFor(language)
	if !ok {
		return nil, false, nil
	}

	tree, err := parser.Parse(ctx, content)
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse code: %w", err)
	}
	defer tree.Close()

	units := extractUnits(sitterNode{tree.RootNode()}, content, langRules, "")
	return &ExtractResult{
		Language:  language,
		Units:     units,
		LineCount: bytes.Count(content, []byte("\n")) + 1,
	}, true, nil
}

// ExtractTree runs extraction over an already parsed tree.
func ExtractTree(root Node, content []byte, language string) ([]*models.CodeUnit, bool) {
	langRules, ok := rulesFor(language)
	if !ok {
		return nil, false
	}
	return extractUnits(root, content, langRules, ""), true
}

// extractUnits walks the children of node. parentClass is the name of the
// innermost enclosing class, or "" outside any class.
func extractUnits(node Node, content []byte, r *languageRules, parentClass string) []*models.CodeUnit {
	var units []*models.CodeUnit
	for _, child := range node.Children() {
		kind := child.Kind()
		switch {
		case r.functionKinds.has(kind):
			// Function bodies are not searched for nested units.
			if unit, ok := newUnit(child, content, r, functionType(parentClass)); ok {
				if parentClass != "" {
					unit.Metadata["parent_class"] = parentClass
				}
				units = append(units, unit)
			}
		case r.classKinds.has(kind):
			unit, ok := newUnit(child, content, r, models.UnitClass)
			if !ok {
				units = append(units, extractUnits(child, content, r, parentClass)...)
				continue
			}
			unit.Children = extractUnits(child, content, r, unit.Name)
			units = append(units, unit)
		default:
			units = append(units, extractUnits(child, content, r, parentClass)...)
		}
	}
	return units
}

func functionType(parentClass string) models.CodeUnitType {
	if parentClass != "" {
		return models.UnitMethod
	}
	return models.UnitFunction
}

func newUnit(node Node, content []byte, r *languageRules, unitType models.CodeUnitType) (*models.CodeUnit, bool) {
	name, ok := findName(node, content, r)
	if !ok {
		return nil, false
	}
	source := nodeText(node, content)
	return &models.CodeUnit{
		Type:      unitType,
		Name:      name,
		StartLine: node.StartLine() + 1,
		EndLine:   node.EndLine() + 1,
		Signature: signature(source, r.indentBlocks),
		Source:    source,
		Metadata:  map[string]any{},
	}, true
}

// findName looks for the unit name among the immediate children of node.
// Declarator wrappers are searched first so that a C return type is never
// mistaken for the function name.
func findName(node Node, content []byte, r *languageRules) (string, bool) {
	children := node.Children()
	for _, child := range children {
		if r.declaratorKinds.has(child.Kind()) {
			if name, ok := declaratorName(child, content, r); ok {
				return name, true
			}
		}
	}
	for _, child := range children {
		if r.nameKinds.has(child.Kind()) {
			return nodeText(child, content), true
		}
	}
	return "", false
}

func declaratorName(declarator Node, content []byte, r *languageRules) (string, bool) {
	for _, child := range declarator.Children() {
		if r.nameKinds.has(child.Kind()) {
			return nodeText(child, content), true
		}
		if r.declaratorKinds.has(child.Kind()) {
			if name, ok := declaratorName(child, content, r); ok {
				return name, true
			}
		}
	}
	return "", false
}

// signature returns the declaration header of a unit's source.
func signature(source string, indentBlocks bool) string {
	lines := strings.Split(source, "\n")
	if indentBlocks {
		var sig []string
		for _, line := range lines {
			sig = append(sig, line)
			if strings.HasSuffix(strings.TrimSpace(line), ":") {
				break
			}
		}
		return strings.Join(sig, "\n")
	}
	first := lines[0]
	if i := strings.Index(first, "{"); i >= 0 {
		return strings.TrimSpace(first[:i])
	}
	return strings.TrimSpace(first)
}

func nodeText(node Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start < 0 || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// sitterNode adapts a tree-sitter node to Node.
type sitterNode struct {
	n *sitter.Node
}

func (s sitterNode) Kind() string   { return s.n.Type() }
func (s sitterNode) StartByte() int { return int(s.n.StartByte()) }
func (s sitterNode) EndByte() int   { return int(s.n.EndByte()) }
func (s sitterNode) StartLine() int { return int(s.n.StartPoint().Row) }
func (s sitterNode) EndLine() int   { return int(s.n.EndPoint().Row) }

func (s sitterNode) Children() []Node {
	count := int(s.n.ChildCount())
	children := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		if child := s.n.Child(i); child != nil {
			children = append(children, sitterNode{child})
		}
	}
	return children
}
