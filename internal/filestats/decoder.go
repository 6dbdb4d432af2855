package filestats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	emptyOutputMessageConstant      = "no output"
	fieldCountErrorTemplateConstant = "expected %d whitespace-separated fields, found %d"
	jsonDecodeErrorTemplateConstant = "invalid JSON object: %w"
	jsonObjectPrefixConstant        = "{"
	statisticsKeyBranchConstant     = "branch"
	statisticsKeyAheadConstant      = "numAhead"
	statisticsKeyBehindConstant     = "numBehind"
	statisticsKeyStagedConstant     = "numStaged"
	statisticsKeyConflictsConstant  = "numConflicts"
	statisticsKeyChangedConstant    = "numChanged"
	statisticsKeyUntrackedConstant  = "numUntracked"
)

// ErrEmptyOutput indicates the helper printed nothing.
var ErrEmptyOutput = errors.New(emptyOutputMessageConstant)

// PromptFieldKeys names, in order, the fields of the whitespace-separated helper format.
var PromptFieldKeys = []string{
	statisticsKeyBranchConstant,
	statisticsKeyAheadConstant,
	statisticsKeyBehindConstant,
	statisticsKeyStagedConstant,
	statisticsKeyConflictsConstant,
	statisticsKeyChangedConstant,
	statisticsKeyUntrackedConstant,
}

// DecodeOutput turns helper output into a statistics mapping.
func DecodeOutput(output string) (map[string]any, error) {
	trimmedOutput := strings.TrimSpace(output)
	if len(trimmedOutput) == 0 {
		return nil, ErrEmptyOutput
	}

	if strings.HasPrefix(trimmedOutput, jsonObjectPrefixConstant) {
		statistics := map[string]any{}
		if decodeError := json.Unmarshal([]byte(trimmedOutput), &statistics); decodeError != nil {
			return nil, fmt.Errorf(jsonDecodeErrorTemplateConstant, decodeError)
		}
		return statistics, nil
	}

	fields := strings.Fields(trimmedOutput)
	if len(fields) != len(PromptFieldKeys) {
		return nil, fmt.Errorf(fieldCountErrorTemplateConstant, len(PromptFieldKeys), len(fields))
	}

	statistics := make(map[string]any, len(fields))
	for fieldIndex, fieldValue := range fields {
		fieldKey := PromptFieldKeys[fieldIndex]
		if fieldKey == statisticsKeyBranchConstant {
			statistics[fieldKey] = fieldValue
			continue
		}
		if numericValue, parseError := strconv.Atoi(fieldValue); parseError == nil {
			statistics[fieldKey] = numericValue
			continue
		}
		statistics[fieldKey] = fieldValue
	}
	return statistics, nil
}
