package git

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidRepoURL  = errors.New("invalid GitHub URL")
	ErrInvalidRepoPath = errors.New("working copy path escapes the repositories directory")
)

// GitService keeps one local working copy per (owner, name) under basePath.
type GitService struct {
	basePath   string
	remoteBase string
}

// SyncResult describes a working copy after CloneOrPull.
type SyncResult struct {
	Path         string
	Commit       string
	ChangedFiles []string
}

// NewGitService creates a service cloning from remoteBase, which is either a
// URL such as https://github.com or a local directory of repositories.
func NewGitService(basePath, remoteBase string) *GitService {
	return &GitService{basePath: basePath, remoteBase: remoteBase}
}

// GetRepoPath returns the local working copy path for a repository.
func (s *GitService) GetRepoPath(owner, name string) string {
	return filepath.Join(s.basePath, owner, name)
}

// CloneURL builds the remote URL, embedding token as credentials when set.
func (s *GitService) CloneURL(owner, name, token string) string {
	u, err := url.Parse(s.remoteBase)
	if err != nil || u.Scheme == "" {
		return filepath.Join(s.remoteBase, owner, name)
	}
	if token != "" {
		u.User = url.User(token)
	}
	return u.JoinPath(owner, name+".git").String()
}

// CloneOrPull brings the working copy up to date with the remote and reports
// the files touched since the previous local revision. A fresh clone reports
// every file; an unchanged revision reports none.
func (s *GitService) CloneOrPull(ctx context.Context, owner, name, token string) (*SyncResult, error) {
	repoPath, err := s.workingCopy(owner, name)
	if err != nil {
		return nil, err
	}
	remote := s.CloneURL(owner, name, token)

	if _, err := os.Stat(repoPath); err != nil {
		return s.clone(ctx, repoPath, remote)
	}

	if !s.isValid(ctx, repoPath) {
		log.Printf("Working copy %s/%s is corrupted, re-cloning", owner, name)
		if err := os.RemoveAll(repoPath); err != nil {
			return nil, fmt.Errorf("failed to remove corrupted clone: %w", err)
		}
		return s.clone(ctx, repoPath, remote)
	}

	return s.pull(ctx, repoPath)
}

// workingCopy resolves the local path of a repository and rejects any that
// would land outside basePath.
func (s *GitService) workingCopy(owner, name string) (string, error) {
	if !validSegment(owner) || !validSegment(name) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidRepoPath, owner, name)
	}
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	repoPath, err := filepath.Abs(s.GetRepoPath(owner, name))
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, repoPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidRepoPath, owner, name)
	}
	return s.GetRepoPath(owner, name), nil
}

func (s *GitService) clone(ctx context.Context, repoPath, remote string) (*SyncResult, error) {
	if err := os.MkdirAll(filepath.Dir(repoPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create repos directory: %w", err)
	}

	if _, err := runGit(ctx, "", "clone", remote, repoPath); err != nil {
		return nil, fmt.Errorf("git clone failed: %w", err)
	}

	commit, err := s.GetCurrentCommit(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	files, err := ListFiles(repoPath)
	if err != nil {
		return nil, err
	}

	return &SyncResult{Path: repoPath, Commit: commit, ChangedFiles: files}, nil
}

func (s *GitService) pull(ctx context.Context, repoPath string) (*SyncResult, error) {
	oldCommit, err := s.GetCurrentCommit(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	if _, err := runGit(ctx, repoPath, "fetch", "origin"); err != nil {
		return nil, fmt.Errorf("git fetch failed: %w", err)
	}

	branch, err := runGit(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active branch: %w", err)
	}

	if _, err := runGit(ctx, repoPath, "reset", "--hard", "origin/"+branch); err != nil {
		return nil, fmt.Errorf("git reset failed: %w", err)
	}

	newCommit, err := s.GetCurrentCommit(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Path: repoPath, Commit: newCommit, ChangedFiles: []string{}}
	if oldCommit == newCommit {
		return result, nil
	}

	result.ChangedFiles, err = s.ChangedFiles(ctx, repoPath, oldCommit, newCommit)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ChangedFiles returns every path appearing on either side of a diff entry
// between two revisions. Renames are reported as a removal plus an addition.
func (s *GitService) ChangedFiles(ctx context.Context, repoPath, oldCommit, newCommit string) ([]string, error) {
	out, err := runGit(ctx, repoPath, "diff", "--name-only", "--no-renames", oldCommit, newCommit)
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	seen := make(map[string]bool)
	files := []string{}
	for _, line := range strings.Split(out, "\n") {
		if line != "" && !seen[line] {
			seen[line] = true
			files = append(files, line)
		}
	}
	sort.Strings(files)
	return files, nil
}

// GetCurrentCommit returns the current commit hash
func (s *GitService) GetCurrentCommit(ctx context.Context, repoPath string) (string, error) {
	out, err := runGit(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get commit hash: %w", err)
	}
	return out, nil
}

// isValid reports whether repoPath is the top level of a usable working copy.
func (s *GitService) isValid(ctx context.Context, repoPath string) bool {
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		return false
	}
	_, err := s.GetCurrentCommit(ctx, repoPath)
	return err == nil
}

// AllFiles lists every file of the working copy of (owner, name).
func (s *GitService) AllFiles(owner, name string) ([]string, error) {
	repoPath, err := s.workingCopy(owner, name)
	if err != nil {
		return nil, err
	}
	return ListFiles(repoPath)
}

// ReadFile returns a file of the working copy as text. Invalid UTF-8 is
// replaced rather than rejected.
func (s *GitService) ReadFile(owner, name, path string) (string, error) {
	repoPath, err := s.workingCopy(owner, name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(repoPath, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// HashContent returns the hex SHA-256 of content's UTF-8 bytes.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ListFiles returns every file of the working tree as slash-separated
// relative paths, excluding the .git directory.
func ListFiles(repoPath string) ([]string, error) {
	files := []string{}
	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

var repoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`github\.com[:/]([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?/?$`),
	regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?$`),
}

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// validSegment reports whether s is a usable owner or repository name.
func validSegment(s string) bool {
	return s != "." && s != ".." && segmentPattern.MatchString(s)
}

// ParseRepoURL extracts owner and name from a GitHub URL or "owner/name".
func ParseRepoURL(raw string) (owner, name string, err error) {
	raw = strings.TrimSpace(raw)
	for _, re := range repoURLPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			if !validSegment(m[1]) || !validSegment(m[2]) {
				break
			}
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoURL, raw)
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}
