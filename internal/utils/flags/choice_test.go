package flags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "json",
			choices:        []string{"json", "yaml", "summary"},
			description:    "Output format for the collected record.",
			expectedOutput: "`<JSON|yaml|summary>` Output format for the collected record.",
		},
		{
			name:           "DefaultLastChoice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Log encoding.",
			expectedOutput: "`<structured|CONSOLE>` Log encoding.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "info",
			choices:        []string{"debug", "info"},
			expectedOutput: "`<debug|INFO>`",
		},
		{
			name:           "DuplicatesAndWhitespace",
			defaultChoice:  " yaml ",
			choices:        []string{" yaml", "YAML ", "json", ""},
			description:    "Pick one.",
			expectedOutput: "`<YAML|json>` Pick one.",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedOutput, FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description))
		})
	}
}

func TestNormalizeChoice(t *testing.T) {
	choices := []string{"json", "yaml", "summary"}

	testCases := []struct {
		name          string
		value         string
		expected      string
		expectedError string
	}{
		{name: "ExactMatch", value: "yaml", expected: "yaml"},
		{name: "CaseInsensitive", value: " SUMMARY ", expected: "summary"},
		{name: "EmptySelectsDefault", value: "", expected: "json"},
		{name: "Unsupported", value: "xml", expectedError: `unsupported output format "xml" (expected one of json, yaml, summary)`},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			normalized, normalizeError := NormalizeChoice("output format", testCase.value, "json", choices)
			if len(testCase.expectedError) > 0 {
				require.EqualError(t, normalizeError, testCase.expectedError)
				return
			}
			require.NoError(t, normalizeError)
			require.Equal(t, testCase.expected, normalized)
		})
	}
}
