package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// maxSheetNameLength is the spreadsheet format's limit, counted in characters
const maxSheetNameLength = 31

type exportColumn struct {
	header string
	width  float64
	value  func(r *domain.Resident) string
}

var exportColumns = []exportColumn{
	{"מתחם", 15, func(r *domain.Resident) string { return r.ComplexName }},
	{"רחוב", 20, func(r *domain.Resident) string { return streetOf(r.CurrentAddress) }},
	{"מספר בית", 12, func(r *domain.Resident) string { return houseOf(r.CurrentAddress) }},
	{"מספר דירה", 12, func(r *domain.Resident) string { return r.SubParcel }},
	{"שם דייר", 20, func(r *domain.Resident) string {
		if r.Name == "" {
			return domain.UnknownOccupantName
		}
		return r.Name
	}},
	{"טלפון", 15, func(r *domain.Resident) string { return r.Phone }},
	{"ת.ז.", 12, func(r *domain.Resident) string { return r.IDNumber }},
	{"סטטוס", 15, func(r *domain.Resident) string { return string(r.Status) }},
	{`סטטוס עו"ד`, 15, func(r *domain.Resident) string { return string(r.LawyerStatus) }},
	{"סטטוס נציגות", 15, func(r *domain.Resident) string { return string(r.RepresentationStatus) }},
	{"הערות", 30, func(r *domain.Resident) string { return r.Note }},
	{"הערות אזהרה", 20, func(r *domain.Resident) string { return r.WarningNote }},
	{"שוכר", 10, func(r *domain.Resident) string {
		if r.IsRenter {
			return "כן"
		}
		return "לא"
	}},
	{"שם שוכר", 20, func(r *domain.Resident) string { return r.TenantName }},
	{"טלפון שוכר", 15, func(r *domain.Resident) string { return r.TenantPhone }},
	{"כתובת בפועל", 30, func(r *domain.Resident) string { return r.ActualAddress }},
	{"מקור", 12, func(r *domain.Resident) string { return r.SourceType }},
}

// splitAddress separates "street house" at the last space so multi-word
// street names stay whole
func splitAddress(address string) (street, house string) {
	address = strings.TrimSpace(address)
	i := strings.LastIndex(address, " ")
	if i < 0 {
		return address, ""
	}
	return address[:i], address[i+1:]
}

func streetOf(address string) string {
	street, _ := splitAddress(address)
	return street
}

func houseOf(address string) string {
	_, house := splitAddress(address)
	return house
}

var sheetNameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_",
	"|", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

// exportSheetName derives a sheet name that the spreadsheet format accepts
func exportSheetName(projectName, complexName string) string {
	name := projectName
	if complexName != "" {
		name = projectName + "_" + complexName
	}
	name = sheetNameReplacer.Replace(name)
	if runes := []rune(name); len(runes) > maxSheetNameLength {
		name = string(runes[:maxSheetNameLength])
	}
	name = strings.Trim(name, "'")
	if name == "" {
		name = "residents"
	}
	return name
}

// ExportFile is a generated workbook ready for download
type ExportFile struct {
	FileName string
	Data     *bytes.Buffer
	Rows     int
}

// ExportService renders residents into a right-to-left spreadsheet
type ExportService struct {
	residents *repository.ResidentRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewExportService(residents *repository.ResidentRepository, logger *zap.Logger) *ExportService {
	return &ExportService{residents: residents, logger: logger, now: time.Now}
}

// ExportProject builds the workbook for a project, or for one complex when
// complexName is set. No matching residents is ErrNotFound.
func (s *ExportService) ExportProject(ctx context.Context, projectName, complexName string) (*ExportFile, error) {
	residents, err := s.residents.ListForExport(ctx, projectName, complexName)
	if err != nil {
		return nil, fmt.Errorf("failed to load residents: %w", err)
	}
	if len(residents) == 0 {
		return nil, fmt.Errorf("%w: no residents found for this project", ErrNotFound)
	}

	sheet := exportSheetName(projectName, complexName)
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return nil, fmt.Errorf("failed to set sheet direction: %w", err)
	}

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i := range residents {
		row := make([]interface{}, len(exportColumns))
		for j, col := range exportColumns {
			row[j] = col.value(&residents[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	fileName := fmt.Sprintf("%s_%s.xlsx", sheet, s.now().UTC().Format("2006-01-02"))
	s.logger.Info("project exported",
		zap.String("project", projectName),
		zap.String("complex", complexName),
		zap.Int("residents", len(residents)),
		zap.String("file", fileName),
	)
	return &ExportFile{FileName: fileName, Data: buf, Rows: len(residents)}, nil
}
