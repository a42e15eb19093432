package db

import (
	"testing"

	"github.com/dpolishuk/coderead/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBuildTree(t *testing.T) {
	dirs := []*models.Directory{
		{ID: "d-root", Path: "", Name: "hello"},
		{ID: "d-src", Path: "src", Name: "src", ParentID: strPtr("d-root")},
		{ID: "d-app", Path: "src/app", Name: "app", ParentID: strPtr("d-src")},
		{ID: "d-docs", Path: "docs", Name: "docs", ParentID: strPtr("d-root")},
	}
	files := []*models.File{
		{ID: "f1", DirectoryID: "d-root", Name: "main.go", Path: "main.go"},
		{ID: "f2", DirectoryID: "d-app", Name: "z.py", Path: "src/app/z.py"},
		{ID: "f3", DirectoryID: "d-app", Name: "a.py", Path: "src/app/a.py"},
	}

	root := buildTree(dirs, files)
	require.NotNil(t, root)
	assert.Equal(t, "hello", root.Name)
	require.Len(t, root.Directories, 2)
	assert.Equal(t, "docs", root.Directories[0].Name)
	assert.Equal(t, "src", root.Directories[1].Name)
	assert.Len(t, root.Files, 1)

	app := root.Directories[1].Directories[0]
	assert.Equal(t, "src/app", app.Path)
	require.Len(t, app.Files, 2)
	assert.Equal(t, "a.py", app.Files[0].Name)
	assert.Equal(t, "z.py", app.Files[1].Name)
	assert.Empty(t, root.Directories[0].Files)
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Nil(t, buildTree(nil, nil))
}

func TestBuildGraph(t *testing.T) {
	dirs := []*models.Directory{
		{ID: "d-root", Path: "", Name: "hello"},
		{ID: "d-src", Path: "src", Name: "src", ParentID: strPtr("d-root")},
	}
	files := []*models.File{{ID: "f1", DirectoryID: "d-src", Path: "src/calc.py", Language: "python"}}
	units := []*models.CodeUnit{
		{ID: "u1", FileID: "f1", Type: models.UnitClass, Name: "Calculator"},
		{ID: "u2", FileID: "f1", ParentID: strPtr("u1"), Type: models.UnitMethod, Name: "add"},
	}

	graph := buildGraph(dirs, files, units)
	assert.Len(t, graph.Nodes, 5)

	edges := map[string]string{}
	for _, e := range graph.Edges {
		edges[e.ID] = e.Type
	}
	assert.Equal(t, map[string]string{
		"d-root->d-src": "CONTAINS",
		"d-src->f1":     "CONTAINS",
		"f1->u1":        "DECLARES",
		"u1->u2":        "ENCLOSES",
	}, edges)
}
