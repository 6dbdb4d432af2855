// Package testsupport builds throwaway go-git repositories for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

const (
	// AuthorNameConstant is the author recorded on every builder commit.
	AuthorNameConstant = "Ada Lovelace"
	// AuthorEmailConstant is the author email recorded on every builder commit.
	AuthorEmailConstant = "ada@example.com"
	// InMemoryRepositoryPathConstant is the path reported for in-memory repositories.
	InMemoryRepositoryPathConstant = "/in-memory/repository"
	filePermissionsConstant        = 0o644
	commitIntervalConstant         = time.Minute
)

// BaseCommitTime is the committer time of the first builder commit; each later commit adds a minute.
var BaseCommitTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// RepositoryBuilder creates commits, remotes, and remote-tracking refs step by step.
type RepositoryBuilder struct {
	testInstance testing.TB
	repository   *git.Repository
	filesystem   billy.Filesystem
	path         string
	commitCount  int
}

// NewInMemoryRepository initializes a repository backed by memory storage and a memfs worktree.
func NewInMemoryRepository(testInstance testing.TB) *RepositoryBuilder {
	testInstance.Helper()
	filesystem := memfs.New()
	repository, initError := git.Init(memory.NewStorage(), filesystem)
	require.NoError(testInstance, initError)
	return &RepositoryBuilder{testInstance: testInstance, repository: repository, filesystem: filesystem, path: InMemoryRepositoryPathConstant}
}

// NewOnDiskRepository initializes a non-bare repository inside a temporary directory.
func NewOnDiskRepository(testInstance testing.TB) *RepositoryBuilder {
	testInstance.Helper()
	repositoryPath := testInstance.TempDir()
	repository, initError := git.PlainInit(repositoryPath, false)
	require.NoError(testInstance, initError)
	worktree, worktreeError := repository.Worktree()
	require.NoError(testInstance, worktreeError)
	return &RepositoryBuilder{testInstance: testInstance, repository: repository, filesystem: worktree.Filesystem, path: repositoryPath}
}

// Repository exposes the underlying go-git repository.
func (builder *RepositoryBuilder) Repository() *git.Repository {
	return builder.repository
}

// Path returns the repository path.
func (builder *RepositoryBuilder) Path() string {
	return builder.path
}

// IsolateGlobalConfiguration points HOME and XDG_CONFIG_HOME at an empty directory so only local config is read.
func IsolateGlobalConfiguration(testInstance *testing.T) {
	homeDirectory := testInstance.TempDir()
	testInstance.Setenv("HOME", homeDirectory)
	testInstance.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDirectory, ".config"))
	testInstance.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(homeDirectory, ".gitconfig"))
}

// SetIdentity writes user.name and user.email to the local configuration.
func (builder *RepositoryBuilder) SetIdentity(name string, email string) *RepositoryBuilder {
	builder.testInstance.Helper()
	repositoryConfiguration, configurationError := builder.repository.Config()
	require.NoError(builder.testInstance, configurationError)
	repositoryConfiguration.User.Name = name
	repositoryConfiguration.User.Email = email
	require.NoError(builder.testInstance, builder.repository.SetConfig(repositoryConfiguration))
	return builder
}

// AddRemote registers a remote with a single URL.
func (builder *RepositoryBuilder) AddRemote(name string, url string) *RepositoryBuilder {
	builder.testInstance.Helper()
	_, remoteError := builder.repository.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(builder.testInstance, remoteError)
	return builder
}

// WriteFile writes content to the worktree and stages it.
func (builder *RepositoryBuilder) WriteFile(path string, content string) *RepositoryBuilder {
	builder.testInstance.Helper()
	builder.WriteUntrackedFile(path, content)
	worktree := builder.worktree()
	_, addError := worktree.Add(path)
	require.NoError(builder.testInstance, addError)
	return builder
}

// WriteUntrackedFile writes content to the worktree without staging it.
func (builder *RepositoryBuilder) WriteUntrackedFile(path string, content string) *RepositoryBuilder {
	builder.testInstance.Helper()
	require.NoError(builder.testInstance, util.WriteFile(builder.filesystem, path, []byte(content), os.FileMode(filePermissionsConstant)))
	return builder
}

// RemoveFile deletes a tracked file and stages the deletion.
func (builder *RepositoryBuilder) RemoveFile(path string) *RepositoryBuilder {
	builder.testInstance.Helper()
	_, removeError := builder.worktree().Remove(path)
	require.NoError(builder.testInstance, removeError)
	return builder
}

// MoveFile renames a tracked file and stages the rename.
func (builder *RepositoryBuilder) MoveFile(fromPath string, toPath string) *RepositoryBuilder {
	builder.testInstance.Helper()
	_, moveError := builder.worktree().Move(fromPath, toPath)
	require.NoError(builder.testInstance, moveError)
	return builder
}

// Commit records the staged changes and returns the new commit hash.
func (builder *RepositoryBuilder) Commit(message string) plumbing.Hash {
	builder.testInstance.Helper()
	return builder.CommitAt(message, BaseCommitTime.Add(time.Duration(builder.commitCount)*commitIntervalConstant))
}

// CommitAt records the staged changes with an explicit committer time.
// When parents are given they replace HEAD as the parents of the new commit.
func (builder *RepositoryBuilder) CommitAt(message string, when time.Time, parents ...plumbing.Hash) plumbing.Hash {
	builder.testInstance.Helper()
	signature := &object.Signature{
		Name:  AuthorNameConstant,
		Email: AuthorEmailConstant,
		When:  when,
	}
	builder.commitCount++
	commitHash, commitError := builder.worktree().Commit(message, &git.CommitOptions{Author: signature, Committer: signature, Parents: parents})
	require.NoError(builder.testInstance, commitError)
	return commitHash
}

// Branch returns the short name of the checked out branch.
func (builder *RepositoryBuilder) Branch() string {
	builder.testInstance.Helper()
	headReference, headError := builder.repository.Head()
	require.NoError(builder.testInstance, headError)
	return headReference.Name().Short()
}

// MarkPushed points refs/remotes/<remote>/<branch> at commitHash, as a push followed by a fetch would.
func (builder *RepositoryBuilder) MarkPushed(remoteName string, branchName string, commitHash plumbing.Hash) *RepositoryBuilder {
	builder.testInstance.Helper()
	reference := plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remoteName, branchName), commitHash)
	require.NoError(builder.testInstance, builder.repository.Storer.SetReference(reference))
	return builder
}

// DetachHead points HEAD directly at commitHash.
func (builder *RepositoryBuilder) DetachHead(commitHash plumbing.Hash) *RepositoryBuilder {
	builder.testInstance.Helper()
	require.NoError(builder.testInstance, builder.repository.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, commitHash)))
	return builder
}

// CommitObject loads the commit object for commitHash.
func (builder *RepositoryBuilder) CommitObject(commitHash plumbing.Hash) *object.Commit {
	builder.testInstance.Helper()
	loadedCommit, lookupError := builder.repository.CommitObject(commitHash)
	require.NoError(builder.testInstance, lookupError)
	return loadedCommit
}

func (builder *RepositoryBuilder) worktree() *git.Worktree {
	builder.testInstance.Helper()
	worktree, worktreeError := builder.repository.Worktree()
	require.NoError(builder.testInstance, worktreeError)
	return worktree
}
