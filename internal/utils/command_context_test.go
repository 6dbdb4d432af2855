package utils_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/livegit/internal/utils"
)

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithConfigurationFilePath(context.Background(), "/etc/livegit/config.yaml")
	executionContext = accessor.WithCollectionIdentifier(executionContext, "6f1c0f0e-1111-4a4a-9c9c-000000000001")

	configurationFilePath, configurationFilePathAvailable := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, configurationFilePathAvailable)
	require.Equal(testInstance, "/etc/livegit/config.yaml", configurationFilePath)

	collectionIdentifier, collectionIdentifierAvailable := accessor.CollectionIdentifier(executionContext)
	require.True(testInstance, collectionIdentifierAvailable)
	require.Equal(testInstance, "6f1c0f0e-1111-4a4a-9c9c-000000000001", collectionIdentifier)
}

func TestCommandContextAccessorMissingValues(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	testCases := []struct {
		name             string
		executionContext context.Context
	}{
		{name: "nil_context", executionContext: nil},
		{name: "background_context", executionContext: context.Background()},
		{name: "empty_values", executionContext: accessor.WithCollectionIdentifier(accessor.WithConfigurationFilePath(nil, ""), "")},
	}

	for testCaseIndex := range testCases {
		testCase := testCases[testCaseIndex]
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			_, configurationFilePathAvailable := accessor.ConfigurationFilePath(testCase.executionContext)
			require.False(subTest, configurationFilePathAvailable)

			_, collectionIdentifierAvailable := accessor.CollectionIdentifier(testCase.executionContext)
			require.False(subTest, collectionIdentifierAvailable)
		})
	}
}
