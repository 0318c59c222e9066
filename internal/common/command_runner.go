package common

import (
	"context"

	"hiringbuddy/internal/errors"
)

// WorkflowOperationFunc is a generic signature for a workflow operation
// that produces a displayable result.
type WorkflowOperationFunc[Output any] func(context.Context) (Output, error)

// RunWorkflowCommand encapsulates the common logic for CLI commands that
// drive a workflow operation and print its result.
func RunWorkflowCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	operation WorkflowOperationFunc[Output],
) error {
	outputHandler := NewOutputHandler(logger)

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
