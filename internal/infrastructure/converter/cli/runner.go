// Package cli runs the external conversion and edit tools as child
// processes. Success is decided solely by a zero exit status; the tool
// runs to completion without a timeout, and both output streams are
// fully drained before the verdict.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/psemenov/texify/internal/core/domain"
)

type Runner struct {
	interpreter   string
	convertScript string
	editScript    string
}

func NewRunner(interpreter, convertScript, editScript string) *Runner {
	if interpreter == "" {
		interpreter = "python3"
	}
	return &Runner{
		interpreter:   interpreter,
		convertScript: convertScript,
		editScript:    editScript,
	}
}

// Convert transforms the staged input file into LaTeX at outputPath and
// returns the tool's accumulated stdout.
func (r *Runner) Convert(ctx context.Context, inputPath, outputPath string) (string, error) {
	return r.run(ctx, domain.ErrConversion, "convert", r.convertScript,
		"--input", inputPath,
		"--output", outputPath,
	)
}

// Edit feeds the current LaTeX text and free-form instructions to the
// edit tool; the rewritten document arrives on stdout.
func (r *Runner) Edit(ctx context.Context, tex, instructions string) (string, error) {
	return r.run(ctx, domain.ErrEdit, "edit", r.editScript,
		"--tex", tex,
		"--instructions", instructions,
	)
}

func (r *Runner) run(ctx context.Context, kind error, operation, script string, args ...string) (string, error) {
	argv := append([]string{script}, args...)
	cmd := exec.CommandContext(ctx, r.interpreter, argv...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = fmt.Sprintf("%s tool exited with code %d", operation, exitErr.ExitCode())
			} else {
				msg = fmt.Sprintf("%s tool exited with code %d: %s", operation, exitErr.ExitCode(), msg)
			}
			return "", domain.WrapError(kind, operation, errors.New(msg))
		}
		return "", domain.WrapError(kind, operation, err)
	}

	return stdout.String(), nil
}
