package workingcopy

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/temirov/livegit/internal/gitrepo"
)

// OutputFormat selects how records are written.
type OutputFormat string

// Supported output formats.
const (
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatYAML    OutputFormat = "yaml"
	OutputFormatSummary OutputFormat = "summary"
)

const (
	jsonIndentConstant                = "  "
	yamlIndentConstant                = 2
	shortHashLengthConstant           = 7
	unsupportedOutputTemplateConstant = "unsupported output format %q"
	encodeErrorTemplateConstant       = "unable to encode %s output: %w"
	summaryHeaderTemplateConstant     = "%s %s\n"
	summaryFieldTemplateConstant      = "  %-18s %s\n"
	summaryListItemTemplateConstant   = "    - %s\n"
	summaryCommitTemplateConstant     = "    %s %s (%d files)\n"
	summaryStatisticTemplateConstant  = "    %s: %v\n"
	summaryRemoteSlugTemplateConstant = "%s (%s)"
	summaryIdentityTemplateConstant   = "%s <%s>"
	summaryComputerTitleConstant      = "Computer"
	summaryWorkingCopyTitleConstant   = "Working copy"
	summaryComputerIDLabelConstant    = "computer:"
	summaryBranchLabelConstant        = "branch:"
	summaryRemoteLabelConstant        = "remote:"
	summaryIdentityLabelConstant      = "identity:"
	summaryUntrackedLabelConstant     = "untracked files:"
	summaryPendingLabelConstant       = "pending edits:"
	summaryUnpushedLabelConstant      = "unpushed commits:"
	summaryHistoryLabelConstant       = "history commits:"
	summaryStatisticsLabelConstant    = "file stats:"
	summaryEmptyValueConstant         = "-"
)

// SupportedOutputFormats lists the accepted output format names.
func SupportedOutputFormats() []string {
	return []string{string(OutputFormatJSON), string(OutputFormatYAML), string(OutputFormatSummary)}
}

// Renderer writes records in a single output format.
type Renderer struct {
	format OutputFormat
}

// NewRenderer returns a renderer for format.
func NewRenderer(format OutputFormat) (*Renderer, error) {
	switch format {
	case OutputFormatJSON, OutputFormatYAML, OutputFormatSummary:
		return &Renderer{format: format}, nil
	default:
		return nil, fmt.Errorf(unsupportedOutputTemplateConstant, format)
	}
}

// RenderComputer writes a Computer record.
func (renderer *Renderer) RenderComputer(writer io.Writer, computer Computer) error {
	if renderer.format == OutputFormatSummary {
		writeSummaryHeader(writer, summaryComputerTitleConstant, computer.Name)
		writeSummaryField(writer, summaryIdentityLabelConstant, fmt.Sprintf(summaryIdentityTemplateConstant, displayValue(computer.Name), displayValue(computer.Email)))
		writeSummaryField(writer, summaryRemoteLabelConstant, describeRemote(computer.RemoteURL))
		return nil
	}
	return renderer.encode(writer, computer)
}

// RenderWorkingCopy writes a WorkingCopy record.
func (renderer *Renderer) RenderWorkingCopy(writer io.Writer, workingCopy WorkingCopy) error {
	if renderer.format != OutputFormatSummary {
		return renderer.encode(writer, workingCopy)
	}

	writeSummaryHeader(writer, summaryWorkingCopyTitleConstant, workingCopy.ClientDir)
	writeSummaryField(writer, summaryComputerIDLabelConstant, workingCopy.ComputerID)
	writeSummaryField(writer, summaryBranchLabelConstant, workingCopy.BranchName)
	writeSummaryField(writer, summaryRemoteLabelConstant, describeRemote(workingCopy.RemoteURL))

	writeSummaryField(writer, summaryUntrackedLabelConstant, countLabel(len(workingCopy.UntrackedFiles)))
	for _, untrackedFile := range workingCopy.UntrackedFiles {
		fmt.Fprintf(writer, summaryListItemTemplateConstant, untrackedFile)
	}

	writeSummaryField(writer, summaryPendingLabelConstant, countLabel(len(workingCopy.WorkingTreeDiff)))
	for _, pendingDiff := range workingCopy.WorkingTreeDiff {
		fmt.Fprintf(writer, summaryListItemTemplateConstant, pendingDiff.File)
	}

	writeSummaryField(writer, summaryUnpushedLabelConstant, countLabel(len(workingCopy.UnpushedCommits)))
	hashColor := color.New(color.FgYellow)
	for _, unpushedCommit := range workingCopy.UnpushedCommits {
		fmt.Fprintf(writer, summaryCommitTemplateConstant, hashColor.Sprint(shortHash(unpushedCommit.ClientHash)), firstLine(unpushedCommit.Message), len(unpushedCommit.Files))
	}

	writeSummaryField(writer, summaryHistoryLabelConstant, countLabel(len(workingCopy.HistoryCommits)))

	writeSummaryField(writer, summaryStatisticsLabelConstant, countLabel(len(workingCopy.FileStats)))
	statisticKeys := make([]string, 0, len(workingCopy.FileStats))
	for statisticKey := range workingCopy.FileStats {
		statisticKeys = append(statisticKeys, statisticKey)
	}
	sort.Strings(statisticKeys)
	for _, statisticKey := range statisticKeys {
		fmt.Fprintf(writer, summaryStatisticTemplateConstant, statisticKey, workingCopy.FileStats[statisticKey])
	}
	return nil
}

func (renderer *Renderer) encode(writer io.Writer, record any) error {
	switch renderer.format {
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(yamlIndentConstant)
		if encodeError := encoder.Encode(record); encodeError != nil {
			return fmt.Errorf(encodeErrorTemplateConstant, renderer.format, encodeError)
		}
		if closeError := encoder.Close(); closeError != nil {
			return fmt.Errorf(encodeErrorTemplateConstant, renderer.format, closeError)
		}
		return nil
	default:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", jsonIndentConstant)
		encoder.SetEscapeHTML(false)
		if encodeError := encoder.Encode(record); encodeError != nil {
			return fmt.Errorf(encodeErrorTemplateConstant, renderer.format, encodeError)
		}
		return nil
	}
}

func writeSummaryHeader(writer io.Writer, title string, subject string) {
	fmt.Fprintf(writer, summaryHeaderTemplateConstant, color.New(color.Bold).Sprint(title), color.New(color.FgCyan).Sprint(displayValue(subject)))
}

func writeSummaryField(writer io.Writer, label string, value string) {
	fmt.Fprintf(writer, summaryFieldTemplateConstant, label, displayValue(value))
}

func describeRemote(remoteURL string) string {
	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return remoteURL
	}
	return fmt.Sprintf(summaryRemoteSlugTemplateConstant, remoteURL, color.New(color.FgGreen).Sprint(parsedRemote.Slug()))
}

func displayValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return summaryEmptyValueConstant
	}
	return value
}

func countLabel(count int) string {
	return strconv.Itoa(count)
}

func shortHash(hash string) string {
	if len(hash) <= shortHashLengthConstant {
		return hash
	}
	return hash[:shortHashLengthConstant]
}

func firstLine(message string) string {
	trimmedMessage := strings.TrimSpace(message)
	if lineBreakIndex := strings.IndexByte(trimmedMessage, '\n'); lineBreakIndex >= 0 {
		return strings.TrimSpace(trimmedMessage[:lineBreakIndex])
	}
	return trimmedMessage
}
