package indexer

// languageRules is the static extraction configuration for one language.
type languageRules struct {
	functionKinds set
	classKinds    set
	// nameKinds are node kinds whose text is taken as the unit name when
	// found among a unit node's immediate children.
	nameKinds set
	// declaratorKinds wrap the name one or more levels down (C family).
	declaratorKinds set
	// indentBlocks marks languages whose bodies are introduced by ':'.
	indentBlocks bool
}

type set map[string]struct{}

func newSet(items ...string) set {
	s := make(set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

func (s set) has(item string) bool {
	_, ok := s[item]
	return ok
}

var jsFunctionKinds = []string{
	"function_declaration",
	"generator_function_declaration",
	"function",
	"function_expression",
	"arrow_function",
	"method_definition",
}

var rules = map[string]*languageRules{
	"python": {
		functionKinds: newSet("function_definition"),
		classKinds:    newSet("class_definition"),
		nameKinds:     newSet("identifier"),
		indentBlocks:  true,
	},
	"javascript": {
		functionKinds: newSet(jsFunctionKinds...),
		classKinds:    newSet("class_declaration"),
		nameKinds:     newSet("identifier", "property_identifier"),
	},
	"typescript": {
		functionKinds: newSet(jsFunctionKinds...),
		classKinds:    newSet("class_declaration", "abstract_class_declaration", "interface_declaration"),
		nameKinds:     newSet("identifier", "type_identifier", "property_identifier"),
	},
	"tsx": {
		functionKinds: newSet(jsFunctionKinds...),
		classKinds:    newSet("class_declaration", "abstract_class_declaration", "interface_declaration"),
		nameKinds:     newSet("identifier", "type_identifier", "property_identifier"),
	},
	"java": {
		functionKinds: newSet("method_declaration", "constructor_declaration"),
		classKinds:    newSet("class_declaration", "interface_declaration"),
		nameKinds:     newSet("identifier"),
	},
	"go": {
		functionKinds: newSet("function_declaration", "method_declaration"),
		classKinds:    newSet("type_spec"),
		nameKinds:     newSet("identifier", "field_identifier", "type_identifier"),
	},
	"rust": {
		functionKinds: newSet("function_item"),
		classKinds:    newSet("struct_item", "impl_item", "trait_item"),
		nameKinds:     newSet("identifier", "type_identifier"),
	},
	"c": {
		functionKinds:   newSet("function_definition"),
		classKinds:      newSet("struct_specifier"),
		nameKinds:       newSet("identifier", "type_identifier"),
		declaratorKinds: newSet("function_declarator", "pointer_declarator"),
	},
	"cpp": {
		functionKinds:   newSet("function_definition"),
		classKinds:      newSet("class_specifier", "struct_specifier"),
		nameKinds:       newSet("identifier", "type_identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name"),
		declaratorKinds: newSet("function_declarator", "pointer_declarator", "reference_declarator"),
	},
	"kotlin": {
		functionKinds: newSet("function_declaration"),
		classKinds:    newSet("class_declaration", "object_declaration"),
		nameKinds:     newSet("simple_identifier", "type_identifier"),
	},
}

func rulesFor(language string) (*languageRules, bool) {
	r, ok := rules[language]
	return r, ok
}
