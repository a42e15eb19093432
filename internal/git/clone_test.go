package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		name  string
	}{
		{"https://github.com/owner/repo", "owner", "repo"},
		{"https://github.com/owner/repo.git", "owner", "repo"},
		{"https://github.com/owner/repo/", "owner", "repo"},
		{"git@github.com:owner/repo.git", "owner", "repo"},
		{"owner/repo", "owner", "repo"},
	}

	for _, tt := range tests {
		owner, name, err := ParseRepoURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.owner, owner, tt.url)
		assert.Equal(t, tt.name, name, tt.url)
	}

	for _, bad := range []string{"", "repo", "https://gitlab.com/a/b/c", "../victim", "../..", "owner/..", "https://github.com/../victim", "own er/repo"} {
		_, _, err := ParseRepoURL(bad)
		assert.ErrorIs(t, err, ErrInvalidRepoURL, bad)
	}
}

func TestCloneURL(t *testing.T) {
	s := NewGitService(t.TempDir(), "https://github.com")
	assert.Equal(t, "https://github.com/octo/hello.git", s.CloneURL("octo", "hello", ""))
	assert.Equal(t, "https://secret@github.com/octo/hello.git", s.CloneURL("octo", "hello", "secret"))

	local := NewGitService(t.TempDir(), "/srv/repos")
	assert.Equal(t, filepath.Join("/srv/repos", "octo", "hello"), local.CloneURL("octo", "hello", "secret"))
}

func TestHashContent(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashContent(""))
	assert.Equal(t, HashContent("def a(): pass"), HashContent("def a(): pass"))
	assert.NotEqual(t, HashContent("a"), HashContent("b"))
}

// remote is a throwaway upstream repository used as the clone source.
type remote struct {
	t    *testing.T
	base string
	dir  string
}

func newRemote(t *testing.T) *remote {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	base := t.TempDir()
	dir := filepath.Join(base, "octo", "hello")
	require.NoError(t, os.MkdirAll(dir, 0755))

	r := &remote{t: t, base: base, dir: dir}
	r.git("init", "-q")
	return r
}

func (r *remote) git(args ...string) {
	r.t.Helper()
	args = append([]string{"-c", "user.name=test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	require.NoError(r.t, err, string(out))
}

func (r *remote) write(path, content string) {
	r.t.Helper()
	full := filepath.Join(r.dir, filepath.FromSlash(path))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0644))
}

func (r *remote) commit(msg string) {
	r.t.Helper()
	r.git("add", "-A")
	r.git("commit", "-q", "-m", msg)
}

func TestCloneOrPull(t *testing.T) {
	r := newRemote(t)
	r.write("a.py", "def a(): pass\n")
	r.write("b.py", "def b(): pass\n")
	r.write("pkg/c.go", "package pkg\n")
	r.commit("initial")

	ctx := context.Background()
	s := NewGitService(t.TempDir(), r.base)

	first, err := s.CloneOrPull(ctx, "octo", "hello", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.py", "b.py", "pkg/c.go"}, first.ChangedFiles)
	assert.Len(t, first.Commit, 40)
	assert.Equal(t, s.GetRepoPath("octo", "hello"), first.Path)

	unchanged, err := s.CloneOrPull(ctx, "octo", "hello", "")
	require.NoError(t, err)
	assert.Empty(t, unchanged.ChangedFiles)
	assert.Equal(t, first.Commit, unchanged.Commit)

	r.write("a.py", "def a(): return 1\n")
	require.NoError(t, os.Remove(filepath.Join(r.dir, "b.py")))
	r.write("pkg/d.go", "package pkg\n")
	r.commit("second")

	second, err := s.CloneOrPull(ctx, "octo", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py", "pkg/d.go"}, second.ChangedFiles)
	assert.NotEqual(t, first.Commit, second.Commit)

	content, err := s.ReadFile("octo", "hello", "a.py")
	require.NoError(t, err)
	assert.Equal(t, "def a(): return 1\n", content)
}

func TestCloneOrPullRecoversCorruptedClone(t *testing.T) {
	r := newRemote(t)
	r.write("main.go", "package main\n")
	r.commit("initial")

	ctx := context.Background()
	s := NewGitService(t.TempDir(), r.base)

	_, err := s.CloneOrPull(ctx, "octo", "hello", "")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(filepath.Join(s.GetRepoPath("octo", "hello"), ".git")))

	result, err := s.CloneOrPull(ctx, "octo", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, result.ChangedFiles)
}

func TestReadFileReplacesInvalidUTF8(t *testing.T) {
	base := t.TempDir()
	s := NewGitService(base, "")
	dir := s.GetRepoPath("o", "n")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.py"), []byte("a\xffb"), 0644))

	content, err := s.ReadFile("o", "n", "x.py")
	require.NoError(t, err)
	assert.Equal(t, "a�b", content)
}

func TestListFilesSkipsGitDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.py"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), nil, 0644))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{".env", "src/a.py"}, files)
}

func TestCloneOrPullRejectsEscapingPaths(t *testing.T) {
	parent := t.TempDir()
	victim := filepath.Join(parent, "victim")
	require.NoError(t, os.MkdirAll(victim, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(victim, "precious.txt"), []byte("keep"), 0644))

	s := NewGitService(filepath.Join(parent, "repos"), parent)
	for _, tc := range []struct{ owner, name string }{
		{"..", "victim"},
		{"..", ".."},
		{"octo", ".."},
		{"a/b", "c"},
		{"", "victim"},
	} {
		_, err := s.CloneOrPull(context.Background(), tc.owner, tc.name, "")
		assert.ErrorIs(t, err, ErrInvalidRepoPath, tc.owner+"/"+tc.name)
	}

	_, err := s.ReadFile("..", "victim", "precious.txt")
	assert.ErrorIs(t, err, ErrInvalidRepoPath)
	_, err = s.AllFiles("..", "victim")
	assert.ErrorIs(t, err, ErrInvalidRepoPath)

	_, err = os.Stat(filepath.Join(victim, "precious.txt"))
	assert.NoError(t, err)
}
