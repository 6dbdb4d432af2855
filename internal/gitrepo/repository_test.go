package gitrepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/livegit/internal/gitrepo"
	"github.com/temirov/livegit/internal/gitrepo/testsupport"
)

const (
	testOriginURLConstant        = "git@github.com:octocat/hello-world.git"
	testUpstreamURLConstant      = "https://github.com/upstream/hello-world.git"
	testIdentityNameConstant     = "Grace Hopper"
	testIdentityEmailConstant    = "grace@example.com"
	testReadmePathConstant       = "README.md"
	testReadmeContentConstant    = "hello\n"
	testInitialCommitMessage     = "initial commit"
	testUntrackedFirstConstant   = "notes/todo.txt"
	testUntrackedSecondConstant  = "scratch.txt"
	testGitDirectoryNameConstant = ".git"
)

func TestOpenValidatesGitDirectory(testInstance *testing.T) {
	testCases := []struct {
		name          string
		prepare       func(testInstance *testing.T) string
		expectedError error
	}{
		{
			name: "missing_git_directory",
			prepare: func(testInstance *testing.T) string {
				return testInstance.TempDir()
			},
			expectedError: gitrepo.ErrRepositoryNotFound,
		},
		{
			name: "git_entry_is_file",
			prepare: func(testInstance *testing.T) string {
				directory := testInstance.TempDir()
				writeError := os.WriteFile(filepath.Join(directory, testGitDirectoryNameConstant), []byte("gitdir: elsewhere\n"), 0o600)
				require.NoError(testInstance, writeError)
				return directory
			},
			expectedError: gitrepo.ErrGitPathNotDirectory,
		},
		{
			name: "empty_path",
			prepare: func(testInstance *testing.T) string {
				return ""
			},
			expectedError: gitrepo.ErrRepositoryPathRequired,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			repository, openError := gitrepo.Open(testCase.prepare(testInstance))
			require.ErrorIs(testInstance, openError, testCase.expectedError)
			require.Nil(testInstance, repository)
		})
	}
}

func TestOpenReturnsRepositoryRootedAtPath(testInstance *testing.T) {
	builder := testsupport.NewOnDiskRepository(testInstance)

	repository, openError := gitrepo.Open(builder.Path())
	require.NoError(testInstance, openError)

	expectedPath, absoluteError := filepath.Abs(builder.Path())
	require.NoError(testInstance, absoluteError)
	require.Equal(testInstance, expectedPath, repository.Path())
}

func TestNewRepositoryRejectsNilHandle(testInstance *testing.T) {
	repository, creationError := gitrepo.NewRepository(testsupport.InMemoryRepositoryPathConstant, nil)
	require.ErrorIs(testInstance, creationError, gitrepo.ErrRepositoryHandleMissing)
	require.Nil(testInstance, repository)
}

func TestOriginRemoteResolution(testInstance *testing.T) {
	testCases := []struct {
		name          string
		remotes       map[string]string
		expectedURL   string
		expectedError error
	}{
		{
			name:        "origin_present",
			remotes:     map[string]string{gitrepo.OriginRemoteNameConstant: testOriginURLConstant, "upstream": testUpstreamURLConstant},
			expectedURL: testOriginURLConstant,
		},
		{
			name:          "only_other_remotes",
			remotes:       map[string]string{"upstream": testUpstreamURLConstant},
			expectedError: gitrepo.ErrOriginRemoteMissing,
		},
		{
			name:          "no_remotes",
			remotes:       map[string]string{},
			expectedError: gitrepo.ErrOriginRemoteMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := testsupport.NewInMemoryRepository(testInstance)
			for remoteName, remoteURL := range testCase.remotes {
				builder.AddRemote(remoteName, remoteURL)
			}
			repository, creationError := gitrepo.NewRepository(builder.Path(), builder.Repository())
			require.NoError(testInstance, creationError)

			originRemote, resolveError := repository.OriginRemote()
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, resolveError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, gitrepo.OriginRemoteNameConstant, originRemote.Name)
			require.Equal(testInstance, testCase.expectedURL, originRemote.URL)
		})
	}
}

func TestFetchOriginRequiresOriginBeforeNetwork(testInstance *testing.T) {
	builder := testsupport.NewInMemoryRepository(testInstance)
	builder.AddRemote("upstream", testUpstreamURLConstant)
	repository, creationError := gitrepo.NewRepository(builder.Path(), builder.Repository())
	require.NoError(testInstance, creationError)

	fetchError := repository.FetchOrigin(context.Background())
	require.ErrorIs(testInstance, fetchError, gitrepo.ErrOriginRemoteMissing)
}

func TestFetchOriginPropagatesTransportFailure(testInstance *testing.T) {
	builder := testsupport.NewOnDiskRepository(testInstance)
	builder.WriteFile(testReadmePathConstant, testReadmeContentConstant)
	builder.Commit(testInitialCommitMessage)
	builder.AddRemote(gitrepo.OriginRemoteNameConstant, filepath.Join(testInstance.TempDir(), "missing.git"))

	repository, openError := gitrepo.Open(builder.Path())
	require.NoError(testInstance, openError)

	fetchError := repository.FetchOrigin(context.Background())
	require.Error(testInstance, fetchError)
	require.ErrorContains(testInstance, fetchError, "unable to fetch from origin")
}

func TestIdentityReadsLocalConfiguration(testInstance *testing.T) {
	testsupport.IsolateGlobalConfiguration(testInstance)

	testCases := []struct {
		name          string
		identityName  string
		identityEmail string
	}{
		{
			name:          "identity_configured",
			identityName:  testIdentityNameConstant,
			identityEmail: testIdentityEmailConstant,
		},
		{
			name:          "identity_unset",
			identityName:  "",
			identityEmail: "",
		},
		{
			name:          "email_passes_through_verbatim",
			identityName:  testIdentityNameConstant,
			identityEmail: "not-an-email",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := testsupport.NewInMemoryRepository(testInstance)
			if len(testCase.identityName) > 0 || len(testCase.identityEmail) > 0 {
				builder.SetIdentity(testCase.identityName, testCase.identityEmail)
			}
			repository, creationError := gitrepo.NewRepository(builder.Path(), builder.Repository())
			require.NoError(testInstance, creationError)

			identity, identityError := repository.Identity()
			require.NoError(testInstance, identityError)
			require.Equal(testInstance, gitrepo.Identity{Name: testCase.identityName, Email: testCase.identityEmail}, identity)
		})
	}
}

func TestCurrentBranch(testInstance *testing.T) {
	builder := testsupport.NewInMemoryRepository(testInstance)
	repository, creationError := gitrepo.NewRepository(builder.Path(), builder.Repository())
	require.NoError(testInstance, creationError)

	_, emptyError := repository.CurrentBranch()
	require.ErrorIs(testInstance, emptyError, gitrepo.ErrRepositoryEmpty)

	builder.WriteFile(testReadmePathConstant, testReadmeContentConstant)
	commitHash := builder.Commit(testInitialCommitMessage)

	branchName, branchError := repository.CurrentBranch()
	require.NoError(testInstance, branchError)
	require.Equal(testInstance, builder.Branch(), branchName)

	builder.DetachHead(commitHash)
	_, detachedError := repository.CurrentBranch()
	require.ErrorIs(testInstance, detachedError, gitrepo.ErrDetachedHead)
}

func TestUntrackedFilesMatchesNewUnstagedFiles(testInstance *testing.T) {
	builder := testsupport.NewInMemoryRepository(testInstance)
	builder.WriteFile(testReadmePathConstant, testReadmeContentConstant)
	builder.Commit(testInitialCommitMessage)

	repository, creationError := gitrepo.NewRepository(builder.Path(), builder.Repository())
	require.NoError(testInstance, creationError)

	untrackedFiles, untrackedError := repository.UntrackedFiles()
	require.NoError(testInstance, untrackedError)
	require.NotNil(testInstance, untrackedFiles)
	require.Empty(testInstance, untrackedFiles)

	builder.WriteUntrackedFile(testUntrackedSecondConstant, "draft\n")
	builder.WriteUntrackedFile(testUntrackedFirstConstant, "later\n")
	builder.WriteUntrackedFile(testReadmePathConstant, "modified\n")

	untrackedFiles, untrackedError = repository.UntrackedFiles()
	require.NoError(testInstance, untrackedError)
	require.Equal(testInstance, []string{testUntrackedFirstConstant, testUntrackedSecondConstant}, untrackedFiles)
}
