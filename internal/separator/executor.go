package separator

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Executor abstracts running the external separator binary so tests can
// substitute a stub process.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		// Context expiry kills the process; surface the timeout rather
		// than the resulting signal exit.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("separator terminated: %w", ctxErr)
		}
		return fmt.Errorf("separator: %w", err)
	}
	return nil
}
