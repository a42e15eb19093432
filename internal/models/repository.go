package models

import "time"

type Repository struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	URL            string    `json:"githubUrl"`
	DefaultBranch  string    `json:"defaultBranch"`
	LastCommitHash *string   `json:"lastCommitHash,omitempty"`
	Summary        *string   `json:"summary,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FullName returns the "owner/name" form used in logs and clone paths.
func (r *Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

type CreateRepositoryInput struct {
	URL string `json:"githubUrl"`
}

type Directory struct {
	ID        string    `json:"id"`
	RepoID    string    `json:"repositoryId"`
	ParentID  *string   `json:"parentId,omitempty"`
	Path      string    `json:"path"` // "" is the repository root
	Name      string    `json:"name"`
	Summary   *string   `json:"summary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRoot reports whether d is the repository root directory.
func (d *Directory) IsRoot() bool {
	return d.Path == ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
