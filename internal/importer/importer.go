package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/logger"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mode controls how rows are committed
type Mode string

const (
	// ModeBestEffort writes every row on its own; a failing row is logged and skipped
	ModeBestEffort Mode = "best_effort"
	// ModeTransactional wraps each sheet in a transaction with a savepoint per row
	ModeTransactional Mode = "transactional"
)

var (
	ErrEmptyFile      = errors.New("uploaded file is empty")
	ErrUnreadableFile = errors.New("file is not a readable spreadsheet")
)

// Result counts what an import did
type Result struct {
	Created   int
	Updated   int
	Skipped   int
	Complexes []string
}

type outcome int

const (
	outcomeNone outcome = iota
	outcomeCreated
	outcomeUpdated
)

// Importer loads resident spreadsheets into the projects store
type Importer struct {
	db        *gorm.DB
	projects  *repository.ProjectRepository
	complexes *repository.ComplexRepository
	residents *repository.ResidentRepository
	owners    *repository.SecondaryOwnerRepository
	mode      Mode
	logger    *zap.Logger
}

func New(db *gorm.DB, mode Mode, log *zap.Logger) *Importer {
	if mode == "" {
		mode = ModeBestEffort
	}
	return &Importer{
		db:        db,
		projects:  repository.NewProjectRepository(db),
		complexes: repository.NewComplexRepository(db),
		residents: repository.NewResidentRepository(db),
		owners:    repository.NewSecondaryOwnerRepository(db),
		mode:      mode,
		logger:    log,
	}
}

type sheetRows struct {
	name      string
	rows      []Row
	complexes []string
}

// Import reads the whole workbook before touching the store, so an empty or
// corrupt upload leaves no trace.
func (im *Importer) Import(ctx context.Context, r io.Reader, projectName string) (Result, error) {
	var res Result
	log := logger.WithProject(im.logger, projectName, "")

	data, err := io.ReadAll(r)
	if err != nil {
		return res, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return res, ErrEmptyFile
	}

	sheets, err := readWorkbook(data)
	if err != nil {
		return res, err
	}

	if err := im.projects.EnsureExists(ctx, projectName); err != nil {
		return res, fmt.Errorf("failed to register project: %w", err)
	}

	seen := map[string]bool{}
	for _, sheet := range sheets {
		var created, updated, skipped int
		switch im.mode {
		case ModeTransactional:
			created, updated, skipped, err = im.importSheetTx(ctx, projectName, sheet, log)
			if err != nil {
				log.Error("Sheet transaction failed", zap.String("sheet", sheet.name), zap.Error(err))
				res.Skipped += len(sheet.rows)
				continue
			}
		default:
			created, updated, skipped = im.importSheet(ctx, projectName, sheet, log)
		}
		res.Created += created
		res.Updated += updated
		res.Skipped += skipped
		for _, c := range sheet.complexes {
			if !seen[c] {
				seen[c] = true
				res.Complexes = append(res.Complexes, c)
			}
		}
	}

	for _, c := range res.Complexes {
		if err := im.complexes.EnsureExists(ctx, projectName, c); err != nil {
			log.Warn("Failed to register complex", zap.String("complex", c), zap.Error(err))
		}
	}

	log.Info("Spreadsheet imported",
		zap.String("mode", string(im.mode)),
		zap.Int("sheets", len(sheets)),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func readWorkbook(data []byte) ([]sheetRows, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrUnreadableFile
	}

	sheets := make([]sheetRows, 0, len(names))
	for _, name := range names {
		raw, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s: %v", ErrUnreadableFile, name, err)
		}
		rows, complexes := ParseSheet(raw)
		sheets = append(sheets, sheetRows{name: name, rows: rows, complexes: complexes})
	}
	return sheets, nil
}

func (im *Importer) importSheet(ctx context.Context, projectName string, sheet sheetRows, log *zap.Logger) (created, updated, skipped int) {
	for _, row := range sheet.rows {
		out, err := applyRow(ctx, im.residents, im.owners, projectName, row)
		if err != nil {
			log.Warn("Row import failed", zap.String("sheet", sheet.name), zap.Int("line", row.Line), zap.Error(err))
			skipped++
			continue
		}
		switch out {
		case outcomeCreated:
			created++
		case outcomeUpdated:
			updated++
		}
	}
	return created, updated, skipped
}

func (im *Importer) importSheetTx(ctx context.Context, projectName string, sheet sheetRows, log *zap.Logger) (created, updated, skipped int, err error) {
	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		residents := im.residents.WithTx(tx)
		owners := im.owners.WithTx(tx)
		created, updated, skipped = 0, 0, 0

		for _, row := range sheet.rows {
			sp := fmt.Sprintf("row_%d", row.Line)
			if err := tx.SavePoint(sp).Error; err != nil {
				return fmt.Errorf("savepoint: %w", err)
			}
			out, rowErr := applyRow(ctx, residents, owners, projectName, row)
			if rowErr != nil {
				if err := tx.RollbackTo(sp).Error; err != nil {
					return fmt.Errorf("rollback to savepoint: %w", err)
				}
				log.Warn("Row import rolled back", zap.String("sheet", sheet.name), zap.Int("line", row.Line), zap.Error(rowErr))
				skipped++
				continue
			}
			switch out {
			case outcomeCreated:
				created++
			case outcomeUpdated:
				updated++
			}
		}
		return nil
	})
	return created, updated, skipped, err
}

// applyRow inserts a new resident for an unseen unit, or attaches a
// secondary owner to the existing one.
func applyRow(ctx context.Context, residents *repository.ResidentRepository, owners *repository.SecondaryOwnerRepository, projectName string, row Row) (outcome, error) {
	existing, err := residents.FindByUnit(ctx, projectName, repository.ImportBlock, repository.ImportBlock, row.Key())
	if err != nil && !repository.IsNotFound(err) {
		return outcomeNone, fmt.Errorf("failed to look up unit: %w", err)
	}

	if existing != nil {
		if row.Unknown {
			return outcomeNone, nil
		}
		exists, err := owners.ExistsByName(ctx, existing.ID, row.Name)
		if err != nil {
			return outcomeNone, fmt.Errorf("failed to check owner: %w", err)
		}
		if exists {
			return outcomeNone, nil
		}
		if err := owners.Create(ctx, &domain.SecondaryOwner{
			ResidentID:           existing.ID,
			Name:                 row.Name,
			Phone:                row.Phone,
			IDNumber:             row.IDNumber,
			LawyerStatus:         domain.LawyerStatusNotHandled,
			RepresentationStatus: domain.RepresentationUnsigned,
		}); err != nil {
			return outcomeNone, fmt.Errorf("failed to add secondary owner: %w", err)
		}
		return outcomeUpdated, nil
	}

	resident := &domain.Resident{
		ProjectName:          projectName,
		ComplexName:          row.Complex,
		Block:                repository.ImportBlock,
		Parcel:               repository.ImportBlock,
		SubParcel:            row.Key(),
		Name:                 row.Name,
		Phone:                row.Phone,
		IDNumber:             row.IDNumber,
		CurrentAddress:       row.Address(),
		WarningNote:          row.WarningNote,
		SourceType:           "excel",
		Status:               domain.WorkflowStatusNone,
		LawyerStatus:         domain.LawyerStatusNotHandled,
		RepresentationStatus: domain.RepresentationUnsigned,
		Version:              1,
	}
	if err := residents.Create(ctx, resident); err != nil {
		return outcomeNone, fmt.Errorf("failed to create resident: %w", err)
	}
	return outcomeCreated, nil
}
