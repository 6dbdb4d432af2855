package workingcopy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/temirov/livegit/internal/gitrepo"
)

const (
	computerIDRequiredMessageConstant         = "computer ID must be provided"
	statisticsCollectorMissingMessageConstant = "statistics collector not configured"
	identityErrorTemplateConstant             = "unable to read user identity: %w"
	branchErrorTemplateConstant               = "unable to determine current branch: %w"
	untrackedErrorTemplateConstant            = "unable to list untracked files: %w"
	workingTreeDiffErrorTemplateConstant      = "unable to diff uncommitted changes: %w"
	unpushedErrorTemplateConstant             = "unable to list unpushed commits on %s: %w"
	historyErrorTemplateConstant              = "unable to walk commit history: %w"
	commitRecordErrorTemplateConstant         = "unable to describe commit %s: %w"
	statisticsErrorTemplateConstant           = "unable to collect file statistics: %w"
	logMessageComputerCollectedConstant       = "computer metadata collected"
	logMessageRepositoryOpenedConstant        = "repository opened"
	logMessageFetchSkippedConstant            = "fetch skipped"
	logMessageFetchCompletedConstant          = "fetched origin"
	logMessageUnpushedCollectedConstant       = "unpushed commits collected"
	logMessageHistoryCollectedConstant        = "history collected"
	logMessageStatisticsCollectedConstant     = "file statistics collected"
	logMessageWorkingCopyCollectedConstant    = "working copy collected"
	logFieldCollectionIdentifierConstant      = "collection_id"
	logFieldRepositoryPathConstant            = "repository_path"
	logFieldRemoteURLConstant                 = "remote_url"
	logFieldBranchConstant                    = "branch"
	logFieldUntrackedCountConstant            = "untracked_count"
	logFieldPendingCountConstant              = "pending_count"
	logFieldUnpushedCountConstant             = "unpushed_count"
	logFieldHistoryCountConstant              = "history_count"
	logFieldStatisticsKeyCountConstant        = "statistics_key_count"
	logFieldElapsedConstant                   = "elapsed"
)

// ErrComputerIDRequired indicates CollectWorkingCopy was called without a computer ID.
var ErrComputerIDRequired = errors.New(computerIDRequiredMessageConstant)

// ErrStatisticsCollectorMissing indicates the service was built without a statistics collector.
var ErrStatisticsCollectorMissing = errors.New(statisticsCollectorMissingMessageConstant)

// Dependencies wires the collaborators of Service. Only StatisticsCollector is mandatory.
type Dependencies struct {
	Logger              *zap.Logger
	RepositoryOpener    RepositoryOpener
	StatisticsCollector StatisticsCollector
	IdentifierGenerator IdentifierGenerator
}

// Options configures a single working copy collection.
type Options struct {
	RepositoryPath       string
	Parameters           Parameters
	SkipFetch            bool
	FetchTimeout         time.Duration
	CollectionIdentifier string
}

// Service collects Computer and WorkingCopy records.
type Service struct {
	logger              *zap.Logger
	openRepository      RepositoryOpener
	statisticsCollector StatisticsCollector
	newIdentifier       IdentifierGenerator
}

// NewService validates dependencies and fills in defaults for the optional ones.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.StatisticsCollector == nil {
		return nil, ErrStatisticsCollectorMissing
	}

	service := &Service{
		logger:              dependencies.Logger,
		openRepository:      dependencies.RepositoryOpener,
		statisticsCollector: dependencies.StatisticsCollector,
		newIdentifier:       dependencies.IdentifierGenerator,
	}
	if service.logger == nil {
		service.logger = zap.NewNop()
	}
	if service.openRepository == nil {
		service.openRepository = gitrepo.Open
	}
	if service.newIdentifier == nil {
		service.newIdentifier = newRandomIdentifier
	}
	return service, nil
}

// CollectComputer reads the user identity and origin URL of the repository at repositoryPath.
func (service *Service) CollectComputer(executionContext context.Context, repositoryPath string) (Computer, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Computer{}, contextError
	}

	repository, openError := service.openRepository(repositoryPath)
	if openError != nil {
		return Computer{}, openError
	}
	if contextError := executionContext.Err(); contextError != nil {
		return Computer{}, contextError
	}

	originRemote, originError := repository.OriginRemote()
	if originError != nil {
		return Computer{}, originError
	}

	identity, identityError := repository.Identity()
	if identityError != nil {
		return Computer{}, fmt.Errorf(identityErrorTemplateConstant, identityError)
	}

	service.logger.Debug(
		logMessageComputerCollectedConstant,
		zap.String(logFieldRepositoryPathConstant, repository.Path()),
		zap.String(logFieldRemoteURLConstant, originRemote.URL),
	)

	return Computer{Name: identity.Name, Email: identity.Email, RemoteURL: originRemote.URL}, nil
}

// CollectWorkingCopy gathers the full working copy snapshot. Any failing step aborts the collection.
func (service *Service) CollectWorkingCopy(executionContext context.Context, options Options) (WorkingCopy, error) {
	if len(strings.TrimSpace(options.Parameters.ComputerID)) == 0 {
		return WorkingCopy{}, ErrComputerIDRequired
	}

	startTime := time.Now()
	collectionIdentifier := options.CollectionIdentifier
	if len(collectionIdentifier) == 0 {
		collectionIdentifier = service.newIdentifier()
	}
	logger := service.logger.With(zap.String(logFieldCollectionIdentifierConstant, collectionIdentifier))

	repository, openError := service.openRepository(options.RepositoryPath)
	if openError != nil {
		return WorkingCopy{}, openError
	}
	logger = logger.With(zap.String(logFieldRepositoryPathConstant, repository.Path()))

	originRemote, originError := repository.OriginRemote()
	if originError != nil {
		return WorkingCopy{}, originError
	}

	branchName, branchError := repository.CurrentBranch()
	if branchError != nil {
		return WorkingCopy{}, fmt.Errorf(branchErrorTemplateConstant, branchError)
	}

	untrackedFiles, untrackedError := repository.UntrackedFiles()
	if untrackedError != nil {
		return WorkingCopy{}, fmt.Errorf(untrackedErrorTemplateConstant, untrackedError)
	}

	workingTreeDiff, workingTreeDiffError := service.describeWorkingTree(executionContext, repository)
	if workingTreeDiffError != nil {
		return WorkingCopy{}, workingTreeDiffError
	}
	logger.Info(
		logMessageRepositoryOpenedConstant,
		zap.String(logFieldBranchConstant, branchName),
		zap.String(logFieldRemoteURLConstant, originRemote.URL),
		zap.Int(logFieldUntrackedCountConstant, len(untrackedFiles)),
		zap.Int(logFieldPendingCountConstant, len(workingTreeDiff)),
	)

	if fetchError := service.fetchOrigin(executionContext, logger, repository, options); fetchError != nil {
		return WorkingCopy{}, fetchError
	}

	unpushedCommits, unpushedError := service.describeUnpushedCommits(executionContext, repository, branchName)
	if unpushedError != nil {
		return WorkingCopy{}, unpushedError
	}
	logger.Info(logMessageUnpushedCollectedConstant, zap.Int(logFieldUnpushedCountConstant, len(unpushedCommits)))

	historyCommits, historyError := service.describeHistory(executionContext, repository)
	if historyError != nil {
		return WorkingCopy{}, historyError
	}
	logger.Info(logMessageHistoryCollectedConstant, zap.Int(logFieldHistoryCountConstant, len(historyCommits)))

	fileStatistics, statisticsError := service.statisticsCollector.Collect(executionContext, repository.Path())
	if statisticsError != nil {
		return WorkingCopy{}, fmt.Errorf(statisticsErrorTemplateConstant, statisticsError)
	}
	if fileStatistics == nil {
		fileStatistics = map[string]any{}
	}
	logger.Debug(logMessageStatisticsCollectedConstant, zap.Int(logFieldStatisticsKeyCountConstant, len(fileStatistics)))

	workingCopy := WorkingCopy{
		ComputerID:      options.Parameters.ComputerID,
		BranchName:      branchName,
		RemoteURL:       originRemote.URL,
		UntrackedFiles:  untrackedFiles,
		WorkingTreeDiff: workingTreeDiff,
		UnpushedCommits: unpushedCommits,
		HistoryCommits:  historyCommits,
		ClientDir:       repository.Path(),
		FileStats:       fileStatistics,
	}

	logger.Info(logMessageWorkingCopyCollectedConstant, zap.Duration(logFieldElapsedConstant, time.Since(startTime)))
	return workingCopy, nil
}

func (service *Service) fetchOrigin(executionContext context.Context, logger *zap.Logger, repository *gitrepo.Repository, options Options) error {
	if options.SkipFetch {
		logger.Info(logMessageFetchSkippedConstant)
		return nil
	}

	fetchContext := executionContext
	if options.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchContext, cancel = context.WithTimeout(executionContext, options.FetchTimeout)
		defer cancel()
	}

	if fetchError := repository.FetchOrigin(fetchContext); fetchError != nil {
		return fetchError
	}
	logger.Info(logMessageFetchCompletedConstant)
	return nil
}

func (service *Service) describeUnpushedCommits(executionContext context.Context, repository *gitrepo.Repository, branchName string) ([]CommitRecord, error) {
	unpushedCommits, unpushedError := repository.UnpushedCommits(executionContext, branchName)
	if unpushedError != nil {
		return nil, fmt.Errorf(unpushedErrorTemplateConstant, branchName, unpushedError)
	}

	records := make([]CommitRecord, 0, len(unpushedCommits))
	var previousCommit *object.Commit
	for commitIndex, unpushedCommit := range unpushedCommits {
		if commitIndex == 0 {
			firstParent, parentError := repository.FirstParent(unpushedCommit)
			if parentError != nil {
				return nil, parentError
			}
			previousCommit = firstParent
		}

		record, recordError := describeCommit(executionContext, repository, unpushedCommit, previousCommit)
		if recordError != nil {
			return nil, recordError
		}
		records = append(records, record)
		previousCommit = unpushedCommit
	}
	return records, nil
}

func (service *Service) describeWorkingTree(executionContext context.Context, repository *gitrepo.Repository) ([]FileDiff, error) {
	pendingChanges, changesError := repository.WorkingTreeChanges(executionContext)
	if changesError != nil {
		return nil, fmt.Errorf(workingTreeDiffErrorTemplateConstant, changesError)
	}
	return convertFileDiffs(pendingChanges), nil
}

func (service *Service) describeHistory(executionContext context.Context, repository *gitrepo.Repository) ([]CommitRecord, error) {
	historyCommits, historyError := repository.History(executionContext)
	if historyError != nil {
		return nil, fmt.Errorf(historyErrorTemplateConstant, historyError)
	}

	records := make([]CommitRecord, 0, len(historyCommits))
	var previouslyVisited *object.Commit
	for _, historyCommit := range historyCommits {
		record, recordError := describeCommit(executionContext, repository, historyCommit, previouslyVisited)
		if recordError != nil {
			return nil, recordError
		}
		records = append(records, record)
		previouslyVisited = historyCommit
	}
	return records, nil
}

func describeCommit(executionContext context.Context, repository *gitrepo.Repository, commit *object.Commit, previous *object.Commit) (CommitRecord, error) {
	changes, changesError := repository.Changes(executionContext, commit, previous)
	if changesError != nil {
		return CommitRecord{}, fmt.Errorf(commitRecordErrorTemplateConstant, commit.Hash, changesError)
	}

	return CommitRecord{
		ClientHash: commit.Hash.String(),
		Author:     Author{Name: commit.Author.Name, Email: commit.Author.Email},
		Message:    commit.Message,
		Timestamp:  commit.Committer.When.Unix(),
		Files:      changes.Files,
		Diff:       convertFileDiffs(changes.Diffs),
	}, nil
}

func convertFileDiffs(changedFiles []gitrepo.FileDiff) []FileDiff {
	fileDiffs := make([]FileDiff, 0, len(changedFiles))
	for _, changedFile := range changedFiles {
		fileDiffs = append(fileDiffs, FileDiff{File: changedFile.Path, Content: changedFile.Content})
	}
	return fileDiffs
}
