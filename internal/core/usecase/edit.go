package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/psemenov/texify/internal/core/domain"
	"github.com/psemenov/texify/internal/core/ports"
)

// EditDocumentUseCase rewrites existing LaTeX text through the external
// edit tool. Pure request/response: nothing durable is touched.
type EditDocumentUseCase struct {
	converter ports.DocumentConverter
}

func NewEditDocumentUseCase(converter ports.DocumentConverter) *EditDocumentUseCase {
	return &EditDocumentUseCase{converter: converter}
}

func (uc *EditDocumentUseCase) Edit(ctx context.Context, tex, instructions string) (string, error) {
	if strings.TrimSpace(tex) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "edit document", errors.New("currentTex is required"))
	}
	if strings.TrimSpace(instructions) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "edit document", errors.New("instructions are required"))
	}

	out, err := uc.converter.Edit(ctx, tex, instructions)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
