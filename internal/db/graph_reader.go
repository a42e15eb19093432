package db

import (
	"context"
	"sort"

	"github.com/dpolishuk/coderead/internal/models"
)

// TreeNode is a directory with its nested subdirectories and files.
type TreeNode struct {
	*models.Directory
	Directories []*TreeNode    `json:"directories"`
	Files       []*models.File `json:"files"`
}

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type GraphNode struct {
	ID    string         `json:"id"`
	Label string         `json:"label"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// GetTree returns the directory tree of a repository, or nil before its
// first analysis.
func (s *Store) GetTree(ctx context.Context, repoID string) (*TreeNode, error) {
	dirs, err := s.ListDirectories(ctx, repoID)
	if err != nil {
		return nil, err
	}
	files, err := s.ListRepositoryFiles(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return buildTree(dirs, files), nil
}

func buildTree(dirs []*models.Directory, files []*models.File) *TreeNode {
	nodes := make(map[string]*TreeNode, len(dirs))
	for _, d := range dirs {
		nodes[d.ID] = &TreeNode{Directory: d, Directories: []*TreeNode{}, Files: []*models.File{}}
	}

	var root *TreeNode
	for _, d := range dirs {
		node := nodes[d.ID]
		if d.ParentID == nil {
			if d.IsRoot() {
				root = node
			}
			continue
		}
		if parent, ok := nodes[*d.ParentID]; ok {
			parent.Directories = append(parent.Directories, node)
		}
	}
	for _, f := range files {
		if dir, ok := nodes[f.DirectoryID]; ok {
			dir.Files = append(dir.Files, f)
		}
	}

	for _, node := range nodes {
		sort.Slice(node.Directories, func(i, j int) bool { return node.Directories[i].Name < node.Directories[j].Name })
		sort.Slice(node.Files, func(i, j int) bool { return node.Files[i].Name < node.Files[j].Name })
	}
	return root
}

// GetGraph returns the repository's directories, files and code units as a
// node/edge list for visualization.
func (s *Store) GetGraph(ctx context.Context, repoID string) (*GraphData, error) {
	dirs, err := s.ListDirectories(ctx, repoID)
	if err != nil {
		return nil, err
	}
	files, err := s.ListRepositoryFiles(ctx, repoID)
	if err != nil {
		return nil, err
	}
	units, err := s.listUnits(ctx, `
		MATCH (u:CodeUnit {repoId: $id})
		RETURN u
		ORDER BY u.fileId, u.startLine
	`, repoID)
	if err != nil {
		return nil, err
	}
	return buildGraph(dirs, files, units), nil
}

func buildGraph(dirs []*models.Directory, files []*models.File, units []*models.CodeUnit) *GraphData {
	graph := &GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	edge := func(source, target, kind string) {
		graph.Edges = append(graph.Edges, GraphEdge{
			ID:     source + "->" + target,
			Source: source,
			Target: target,
			Type:   kind,
		})
	}

	for _, d := range dirs {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    d.ID,
			Label: d.Name,
			Type:  "Directory",
			Props: map[string]any{"path": d.Path},
		})
		if d.ParentID != nil {
			edge(*d.ParentID, d.ID, "CONTAINS")
		}
	}

	for _, f := range files {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    f.ID,
			Label: f.Path,
			Type:  "File",
			Props: map[string]any{"language": f.Language, "lineCount": f.LineCount},
		})
		edge(f.DirectoryID, f.ID, "CONTAINS")
	}

	for _, u := range units {
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    u.ID,
			Label: u.Name,
			Type:  string(u.Type),
			Props: map[string]any{"signature": u.Signature, "startLine": u.StartLine, "endLine": u.EndLine},
		})
		if u.ParentID != nil {
			edge(*u.ParentID, u.ID, "ENCLOSES")
		} else {
			edge(u.FileID, u.ID, "DECLARES")
		}
	}
	return graph
}
