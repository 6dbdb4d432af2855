package workingcopy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/livegit/internal/gitrepo"
	"github.com/temirov/livegit/internal/gitrepo/testsupport"
	"github.com/temirov/livegit/internal/workingcopy"
)

const (
	testOriginURLConstant            = "git@github.com:octocat/hello-world.git"
	testComputerIDConstant           = "computer-42"
	testCollectionIdentifierConstant = "0b6f5c8e-5d7a-4c55-8d0c-0c8a0d5ad001"
	testIdentityNameConstant         = "Grace Hopper"
	testIdentityEmailConstant        = "grace@example.com"
	testMainFileConstant             = "main.go"
	testUtilFileConstant             = "util.go"
	testUntrackedFileConstant        = "notes.txt"
)

type stubStatisticsCollector struct {
	statistics map[string]any
	err        error
	paths      []string
}

func (collector *stubStatisticsCollector) Collect(executionContext context.Context, repositoryPath string) (map[string]any, error) {
	collector.paths = append(collector.paths, repositoryPath)
	return collector.statistics, collector.err
}

type recordingOpener struct {
	builder *testsupport.RepositoryBuilder
	calls   int
}

func (opener *recordingOpener) open(repositoryPath string) (*gitrepo.Repository, error) {
	opener.calls++
	return gitrepo.NewRepository(opener.builder.Path(), opener.builder.Repository())
}

func buildThreeCommitRepository(testInstance *testing.T) (*testsupport.RepositoryBuilder, []plumbing.Hash) {
	testsupport.IsolateGlobalConfiguration(testInstance)

	builder := testsupport.NewInMemoryRepository(testInstance)
	builder.SetIdentity(testIdentityNameConstant, testIdentityEmailConstant)
	builder.AddRemote(gitrepo.OriginRemoteNameConstant, testOriginURLConstant)

	builder.WriteFile(testMainFileConstant, "package main\n")
	firstHash := builder.Commit("first")
	builder.WriteFile(testMainFileConstant, "package main\n\nfunc main() {}\n")
	secondHash := builder.Commit("second\n\nwire main")
	builder.WriteFile(testUtilFileConstant, "package main\n")
	thirdHash := builder.Commit("third")

	return builder, []plumbing.Hash{firstHash, secondHash, thirdHash}
}

func newTestService(testInstance *testing.T, opener *recordingOpener, collector workingcopy.StatisticsCollector, logger *zap.Logger) *workingcopy.Service {
	service, creationError := workingcopy.NewService(workingcopy.Dependencies{
		Logger:              logger,
		RepositoryOpener:    opener.open,
		StatisticsCollector: collector,
		IdentifierGenerator: func() string { return testCollectionIdentifierConstant },
	})
	require.NoError(testInstance, creationError)
	return service
}

func offlineOptions() workingcopy.Options {
	return workingcopy.Options{
		RepositoryPath: testsupport.InMemoryRepositoryPathConstant,
		Parameters:     workingcopy.Parameters{ComputerID: testComputerIDConstant},
		SkipFetch:      true,
	}
}

func TestNewServiceRequiresStatisticsCollector(testInstance *testing.T) {
	service, creationError := workingcopy.NewService(workingcopy.Dependencies{})
	require.Nil(testInstance, service)
	require.ErrorIs(testInstance, creationError, workingcopy.ErrStatisticsCollectorMissing)
}

func TestCollectWorkingCopyRoundTrip(testInstance *testing.T) {
	builder, hashes := buildThreeCommitRepository(testInstance)
	builder.MarkPushed(gitrepo.OriginRemoteNameConstant, builder.Branch(), hashes[0])
	builder.WriteUntrackedFile(testUntrackedFileConstant, "scratch\n")
	builder.WriteUntrackedFile(testUtilFileConstant, "package main\n\nfunc helper() {}\n")

	statistics := map[string]any{"numAhead": 2, "numBehind": 0, "branch": "master"}
	collector := &stubStatisticsCollector{statistics: statistics}
	opener := &recordingOpener{builder: builder}
	service := newTestService(testInstance, opener, collector, nil)

	workingCopy, collectError := service.CollectWorkingCopy(context.Background(), offlineOptions())
	require.NoError(testInstance, collectError)

	require.Equal(testInstance, testComputerIDConstant, workingCopy.ComputerID)
	require.Equal(testInstance, builder.Branch(), workingCopy.BranchName)
	require.Equal(testInstance, testOriginURLConstant, workingCopy.RemoteURL)
	require.Equal(testInstance, testsupport.InMemoryRepositoryPathConstant, workingCopy.ClientDir)
	require.Equal(testInstance, []string{testUntrackedFileConstant}, workingCopy.UntrackedFiles)
	require.Equal(testInstance, statistics, workingCopy.FileStats)
	require.Equal(testInstance, []string{testsupport.InMemoryRepositoryPathConstant}, collector.paths)

	require.Len(testInstance, workingCopy.WorkingTreeDiff, 1)
	require.Equal(testInstance, testUtilFileConstant, workingCopy.WorkingTreeDiff[0].File)
	require.Contains(testInstance, workingCopy.WorkingTreeDiff[0].Content, "+func helper() {}")

	require.Len(testInstance, workingCopy.UnpushedCommits, 2)
	secondRecord := workingCopy.UnpushedCommits[0]
	require.Equal(testInstance, hashes[1].String(), secondRecord.ClientHash)
	require.Equal(testInstance, workingcopy.Author{Name: testsupport.AuthorNameConstant, Email: testsupport.AuthorEmailConstant}, secondRecord.Author)
	require.Equal(testInstance, "second\n\nwire main", secondRecord.Message)
	require.Equal(testInstance, testsupport.BaseCommitTime.Unix()+60, secondRecord.Timestamp)
	require.Equal(testInstance, []string{testMainFileConstant}, secondRecord.Files)
	require.Len(testInstance, secondRecord.Diff, 1)
	require.Equal(testInstance, testMainFileConstant, secondRecord.Diff[0].File)
	require.Contains(testInstance, secondRecord.Diff[0].Content, "+func main() {}")

	thirdRecord := workingCopy.UnpushedCommits[1]
	require.Equal(testInstance, hashes[2].String(), thirdRecord.ClientHash)
	require.Equal(testInstance, []string{testUtilFileConstant}, thirdRecord.Files)
	require.Len(testInstance, thirdRecord.Diff, 1)
	require.Equal(testInstance, testUtilFileConstant, thirdRecord.Diff[0].File)

	require.Len(testInstance, workingCopy.HistoryCommits, 3)
	require.Equal(testInstance, hashes[2].String(), workingCopy.HistoryCommits[0].ClientHash)
	require.Empty(testInstance, workingCopy.HistoryCommits[0].Files)
	require.NotNil(testInstance, workingCopy.HistoryCommits[0].Files)
	require.NotNil(testInstance, workingCopy.HistoryCommits[0].Diff)
	require.Equal(testInstance, hashes[1].String(), workingCopy.HistoryCommits[1].ClientHash)
	require.Equal(testInstance, []string{testUtilFileConstant}, workingCopy.HistoryCommits[1].Files)
	require.Empty(testInstance, workingCopy.HistoryCommits[1].Diff)
	require.Equal(testInstance, hashes[0].String(), workingCopy.HistoryCommits[2].ClientHash)
	require.Equal(testInstance, []string{testMainFileConstant}, workingCopy.HistoryCommits[2].Files)
	require.Len(testInstance, workingCopy.HistoryCommits[2].Diff, 1)
	require.Contains(testInstance, workingCopy.HistoryCommits[2].Diff[0].Content, "-func main() {}")
}

func TestCollectWorkingCopyEverythingPushed(testInstance *testing.T) {
	builder, hashes := buildThreeCommitRepository(testInstance)
	builder.MarkPushed(gitrepo.OriginRemoteNameConstant, builder.Branch(), hashes[2])

	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, nil)

	workingCopy, collectError := service.CollectWorkingCopy(context.Background(), offlineOptions())
	require.NoError(testInstance, collectError)
	require.NotNil(testInstance, workingCopy.UnpushedCommits)
	require.Empty(testInstance, workingCopy.UnpushedCommits)
	require.NotNil(testInstance, workingCopy.UntrackedFiles)
	require.Empty(testInstance, workingCopy.UntrackedFiles)
	require.NotNil(testInstance, workingCopy.WorkingTreeDiff)
	require.Empty(testInstance, workingCopy.WorkingTreeDiff)
	require.NotNil(testInstance, workingCopy.FileStats)
	require.Len(testInstance, workingCopy.HistoryCommits, 3)
}

func TestCollectWorkingCopyRootCommitUnpushed(testInstance *testing.T) {
	builder, _ := buildThreeCommitRepository(testInstance)

	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, nil)

	workingCopy, collectError := service.CollectWorkingCopy(context.Background(), offlineOptions())
	require.NoError(testInstance, collectError)
	require.Len(testInstance, workingCopy.UnpushedCommits, 3)
	require.Empty(testInstance, workingCopy.UnpushedCommits[0].Files)
	require.Empty(testInstance, workingCopy.UnpushedCommits[0].Diff)
	require.Equal(testInstance, []string{testMainFileConstant}, workingCopy.UnpushedCommits[1].Files)
}

func TestCollectWorkingCopyDiffsUnpushedCommitsAgainstTheirParents(testInstance *testing.T) {
	testsupport.IsolateGlobalConfiguration(testInstance)

	builder := testsupport.NewInMemoryRepository(testInstance)
	builder.AddRemote(gitrepo.OriginRemoteNameConstant, testOriginURLConstant)
	builder.WriteFile(testMainFileConstant, "package main\n")
	pushedHash := builder.Commit("pushed")
	builder.MarkPushed(gitrepo.OriginRemoteNameConstant, builder.Branch(), pushedHash)

	builder.WriteFile(testUtilFileConstant, "package main\n")
	parentHash := builder.CommitAt("parent with a late clock", testsupport.BaseCommitTime.Add(time.Hour))
	builder.WriteFile(testUtilFileConstant, "package main\n\nfunc helper() {}\n")
	childHash := builder.CommitAt("child with an early clock", testsupport.BaseCommitTime.Add(10*time.Minute))

	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, nil)

	workingCopy, collectError := service.CollectWorkingCopy(context.Background(), offlineOptions())
	require.NoError(testInstance, collectError)
	require.Len(testInstance, workingCopy.UnpushedCommits, 2)

	parentRecord := workingCopy.UnpushedCommits[0]
	require.Equal(testInstance, parentHash.String(), parentRecord.ClientHash)
	require.Equal(testInstance, []string{testUtilFileConstant}, parentRecord.Files)
	require.Len(testInstance, parentRecord.Diff, 1)
	require.Contains(testInstance, parentRecord.Diff[0].Content, "new file mode")
	require.Contains(testInstance, parentRecord.Diff[0].Content, "+package main")

	childRecord := workingCopy.UnpushedCommits[1]
	require.Equal(testInstance, childHash.String(), childRecord.ClientHash)
	require.Len(testInstance, childRecord.Diff, 1)
	require.Contains(testInstance, childRecord.Diff[0].Content, "+func helper() {}")
	require.NotContains(testInstance, childRecord.Diff[0].Content, "-func helper() {}")
}

func TestCollectWorkingCopyFailures(testInstance *testing.T) {
	statisticsFailure := errors.New("gitstatus exploded")

	testCases := []struct {
		name                string
		prepare             func(builder *testsupport.RepositoryBuilder, hashes []plumbing.Hash)
		withoutOrigin       bool
		options             func() workingcopy.Options
		statisticsError     error
		expectedError       error
		expectedErrorText   string
		expectedOpenCalls   int
		expectStatisticsRun bool
	}{
		{
			name: "missing_computer_id",
			options: func() workingcopy.Options {
				options := offlineOptions()
				options.Parameters.ComputerID = "  "
				return options
			},
			expectedError:     workingcopy.ErrComputerIDRequired,
			expectedOpenCalls: 0,
		},
		{
			name:              "missing_origin",
			withoutOrigin:     true,
			options:           offlineOptions,
			expectedError:     gitrepo.ErrOriginRemoteMissing,
			expectedOpenCalls: 1,
		},
		{
			name: "detached_head",
			prepare: func(builder *testsupport.RepositoryBuilder, hashes []plumbing.Hash) {
				builder.DetachHead(hashes[1])
			},
			options:           offlineOptions,
			expectedError:     gitrepo.ErrDetachedHead,
			expectedOpenCalls: 1,
		},
		{
			name:                "statistics_failure",
			options:             offlineOptions,
			statisticsError:     statisticsFailure,
			expectedError:       statisticsFailure,
			expectedErrorText:   "unable to collect file statistics: gitstatus exploded",
			expectedOpenCalls:   1,
			expectStatisticsRun: true,
		},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			testsupport.IsolateGlobalConfiguration(subTest)
			builder := testsupport.NewInMemoryRepository(subTest)
			if !testCase.withoutOrigin {
				builder.AddRemote(gitrepo.OriginRemoteNameConstant, testOriginURLConstant)
			}
			builder.WriteFile(testMainFileConstant, "package main\n")
			firstHash := builder.Commit("first")
			builder.WriteFile(testUtilFileConstant, "package main\n")
			secondHash := builder.Commit("second")
			if testCase.prepare != nil {
				testCase.prepare(builder, []plumbing.Hash{firstHash, secondHash})
			}

			opener := &recordingOpener{builder: builder}
			collector := &stubStatisticsCollector{err: testCase.statisticsError}
			service := newTestService(subTest, opener, collector, nil)

			workingCopy, collectError := service.CollectWorkingCopy(context.Background(), testCase.options())
			require.Error(subTest, collectError)
			require.ErrorIs(subTest, collectError, testCase.expectedError)
			if len(testCase.expectedErrorText) > 0 {
				require.EqualError(subTest, collectError, testCase.expectedErrorText)
			}
			require.Equal(subTest, workingcopy.WorkingCopy{}, workingCopy)
			require.Equal(subTest, testCase.expectedOpenCalls, opener.calls)
			require.Equal(subTest, testCase.expectStatisticsRun, len(collector.paths) > 0)
		})
	}
}

func TestCollectWorkingCopyFetchFailurePropagates(testInstance *testing.T) {
	testsupport.IsolateGlobalConfiguration(testInstance)
	builder := testsupport.NewOnDiskRepository(testInstance)
	builder.AddRemote(gitrepo.OriginRemoteNameConstant, testInstance.TempDir()+"/missing-origin")
	builder.WriteFile(testMainFileConstant, "package main\n")
	builder.Commit("first")

	collector := &stubStatisticsCollector{}
	service, creationError := workingcopy.NewService(workingcopy.Dependencies{StatisticsCollector: collector})
	require.NoError(testInstance, creationError)

	options := offlineOptions()
	options.RepositoryPath = builder.Path()
	options.SkipFetch = false

	_, collectError := service.CollectWorkingCopy(context.Background(), options)
	require.ErrorContains(testInstance, collectError, "unable to fetch from origin")
	require.Empty(testInstance, collector.paths)
}

func TestCollectWorkingCopyOpensOnDiskRepository(testInstance *testing.T) {
	testsupport.IsolateGlobalConfiguration(testInstance)
	builder := testsupport.NewOnDiskRepository(testInstance)
	builder.AddRemote(gitrepo.OriginRemoteNameConstant, testOriginURLConstant)
	builder.WriteFile(testMainFileConstant, "package main\n")
	builder.Commit("first")

	service, creationError := workingcopy.NewService(workingcopy.Dependencies{StatisticsCollector: &stubStatisticsCollector{}})
	require.NoError(testInstance, creationError)

	options := offlineOptions()
	options.RepositoryPath = builder.Path()

	workingCopy, collectError := service.CollectWorkingCopy(context.Background(), options)
	require.NoError(testInstance, collectError)
	require.Equal(testInstance, builder.Path(), workingCopy.ClientDir)
	require.Len(testInstance, workingCopy.UnpushedCommits, 1)
	require.Len(testInstance, workingCopy.HistoryCommits, 1)
}

func TestCollectWorkingCopyLogsCollectionIdentifier(testInstance *testing.T) {
	builder, hashes := buildThreeCommitRepository(testInstance)
	builder.MarkPushed(gitrepo.OriginRemoteNameConstant, builder.Branch(), hashes[1])

	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, zap.New(observedCore))

	_, collectError := service.CollectWorkingCopy(context.Background(), offlineOptions())
	require.NoError(testInstance, collectError)

	require.NotZero(testInstance, observedLogs.Len())
	for _, entry := range observedLogs.All() {
		require.Equal(testInstance, testCollectionIdentifierConstant, entry.ContextMap()["collection_id"], entry.Message)
	}

	unpushedEntries := observedLogs.FilterMessage("unpushed commits collected").All()
	require.Len(testInstance, unpushedEntries, 1)
	require.Equal(testInstance, int64(1), unpushedEntries[0].ContextMap()["unpushed_count"])
	require.Len(testInstance, observedLogs.FilterMessage("fetch skipped").All(), 1)
	require.Len(testInstance, observedLogs.FilterMessage("working copy collected").All(), 1)
}

func TestCollectWorkingCopyUsesProvidedCollectionIdentifier(testInstance *testing.T) {
	builder, _ := buildThreeCommitRepository(testInstance)

	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, zap.New(observedCore))

	options := offlineOptions()
	options.CollectionIdentifier = "from-context"
	_, collectError := service.CollectWorkingCopy(context.Background(), options)
	require.NoError(testInstance, collectError)
	require.Equal(testInstance, "from-context", observedLogs.All()[0].ContextMap()["collection_id"])
}

func TestCollectComputer(testInstance *testing.T) {
	builder, _ := buildThreeCommitRepository(testInstance)
	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, nil)

	computer, collectError := service.CollectComputer(context.Background(), testsupport.InMemoryRepositoryPathConstant)
	require.NoError(testInstance, collectError)
	require.Equal(testInstance, workingcopy.Computer{
		Name:      testIdentityNameConstant,
		Email:     testIdentityEmailConstant,
		RemoteURL: testOriginURLConstant,
	}, computer)
}

func TestCollectComputerRequiresOrigin(testInstance *testing.T) {
	testsupport.IsolateGlobalConfiguration(testInstance)
	builder := testsupport.NewInMemoryRepository(testInstance)
	builder.AddRemote("upstream", testOriginURLConstant)

	service := newTestService(testInstance, &recordingOpener{builder: builder}, &stubStatisticsCollector{}, nil)

	_, collectError := service.CollectComputer(context.Background(), testsupport.InMemoryRepositoryPathConstant)
	require.ErrorIs(testInstance, collectError, gitrepo.ErrOriginRemoteMissing)
}

func TestCollectComputerOpenFailure(testInstance *testing.T) {
	service, creationError := workingcopy.NewService(workingcopy.Dependencies{StatisticsCollector: &stubStatisticsCollector{}})
	require.NoError(testInstance, creationError)

	_, collectError := service.CollectComputer(context.Background(), testInstance.TempDir())
	require.ErrorIs(testInstance, collectError, gitrepo.ErrRepositoryNotFound)
}
