package models

import "time"

type CodeUnitType string

const (
	UnitFunction CodeUnitType = "function"
	UnitClass    CodeUnitType = "class"
	UnitMethod   CodeUnitType = "method"
)

// CodeUnit is a function, class or method of a file. Units form an owned
// forest: Children is populated on extraction and on detail reads.
type CodeUnit struct {
	ID          string         `json:"id"`
	FileID      string         `json:"fileId"`
	ParentID    *string        `json:"parentId,omitempty"`
	Type        CodeUnitType   `json:"type"`
	Name        string         `json:"name"`
	StartLine   int            `json:"startLine"`
	EndLine     int            `json:"endLine"`
	Signature   string         `json:"signature"`
	Description *string        `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// Source is the unit's text. It feeds description generation and is not persisted.
	Source   string      `json:"-"`
	Children []*CodeUnit `json:"children,omitempty"`
}

// Contains reports whether other's line range lies within u's.
func (u *CodeUnit) Contains(other *CodeUnit) bool {
	return other.StartLine >= u.StartLine && other.EndLine <= u.EndLine
}

// Walk visits u and its descendants depth-first, parents before children.
func (u *CodeUnit) Walk(fn func(unit, parent *CodeUnit)) {
	var walk func(unit, parent *CodeUnit)
	walk = func(unit, parent *CodeUnit) {
		fn(unit, parent)
		for _, child := range unit.Children {
			walk(child, unit)
		}
	}
	walk(u, nil)
}
