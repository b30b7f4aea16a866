package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/importer"
	"go.uber.org/zap"
)

// ImportService runs spreadsheet imports on behalf of admins
type ImportService struct {
	importer *importer.Importer
	logger   *zap.Logger
}

func NewImportService(imp *importer.Importer, logger *zap.Logger) *ImportService {
	return &ImportService{importer: imp, logger: logger}
}

// Import loads a workbook into projectName. Empty and unreadable files are
// rejected before anything is written.
func (s *ImportService) Import(ctx context.Context, r io.Reader, projectName string) (*domain.ImportResultDTO, error) {
	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		return nil, fmt.Errorf("%w: project is required", ErrInvalidInput)
	}

	res, err := s.importer.Import(ctx, r, projectName)
	if err != nil {
		if errors.Is(err, ErrEmptyFile) || errors.Is(err, ErrUnreadableFile) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to import: %w", err)
	}

	return &domain.ImportResultDTO{
		Message: fmt.Sprintf("import finished: %d created, %d updated", res.Created, res.Updated),
		Created: res.Created,
		Updated: res.Updated,
		Skipped: res.Skipped,
	}, nil
}
