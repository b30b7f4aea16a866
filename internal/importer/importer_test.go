package importer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/importer"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var header = []interface{}{"מתחם", "תת מתחם", "רחוב", "מספר בית", "דירה", "שם", "ת.ז.", "טלפון", "", "", "", "", "הערות אזהרה"}

func workbook(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cellRef, &row))
		}
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func ownersSheet() [][]interface{} {
	return [][]interface{}{
		header,
		{"A", "", "Herzl", "10", "1", "Dana Levi", "123", "541234567", "", "", "", "", "lien"},
		{"", "", "", "", "", "Avi Levi", "456", "0529999999"},
		{"", "", "", "", "2", "", "", ""},
		{"B", "", "Weizman", "3.0", "4.0", "Moshe Cohen", "", "03-555-1234"},
	}
}

func TestImport_CreatesResidentsAndSecondaryOwners(t *testing.T) {
	stores := testutil.SetupStores(t)
	im := importer.New(stores.Projects, importer.ModeBestEffort, zap.NewNop())
	data := workbook(t, map[string][][]interface{}{"Owners": ownersSheet()})

	res, err := im.Import(context.Background(), bytes.NewReader(data), "Bat Yam")
	require.NoError(t, err)

	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.ElementsMatch(t, []string{"A", "B"}, res.Complexes)

	var residents []domain.Resident
	require.NoError(t, stores.Projects.Order("id").Find(&residents).Error)
	require.Len(t, residents, 3)

	assert.Equal(t, "Herzl_10_1", residents[0].SubParcel)
	assert.Equal(t, "Herzl 10", residents[0].CurrentAddress)
	assert.Equal(t, "0541234567", residents[0].Phone)
	assert.Equal(t, "lien", residents[0].WarningNote)
	assert.Equal(t, "excel", residents[0].SourceType)

	// apartment 2 inherits street and house, and the blank name becomes the sentinel
	assert.Equal(t, "Herzl_10_2", residents[1].SubParcel)
	assert.Equal(t, domain.UnknownOccupantName, residents[1].Name)
	assert.Equal(t, "A", residents[1].ComplexName)

	assert.Equal(t, "Weizman_3_4", residents[2].SubParcel)
	assert.Equal(t, "035551234", residents[2].Phone)

	var owners []domain.SecondaryOwner
	require.NoError(t, stores.Projects.Find(&owners).Error)
	require.Len(t, owners, 1)
	assert.Equal(t, "Avi Levi", owners[0].Name)
	assert.Equal(t, residents[0].ID, owners[0].ResidentID)

	var complexes []domain.Complex
	require.NoError(t, stores.Projects.Find(&complexes).Error)
	assert.Len(t, complexes, 2)

	var project domain.Project
	require.NoError(t, stores.Projects.First(&project, "project_name = ?", "Bat Yam").Error)
	assert.Equal(t, domain.StageOrganizing, project.ProjectStatus)
}

func TestImport_IsIdempotent(t *testing.T) {
	for _, mode := range []importer.Mode{importer.ModeBestEffort, importer.ModeTransactional} {
		t.Run(string(mode), func(t *testing.T) {
			stores := testutil.SetupStores(t)
			im := importer.New(stores.Projects, mode, zap.NewNop())
			data := workbook(t, map[string][][]interface{}{"Owners": ownersSheet()})

			first, err := im.Import(context.Background(), bytes.NewReader(data), "Holon")
			require.NoError(t, err)
			assert.Equal(t, 3, first.Created)

			second, err := im.Import(context.Background(), bytes.NewReader(data), "Holon")
			require.NoError(t, err)
			assert.Equal(t, 0, second.Created)
			assert.Equal(t, 0, second.Updated)

			var count int64
			require.NoError(t, stores.Projects.Model(&domain.Resident{}).Count(&count).Error)
			assert.Equal(t, int64(3), count)
		})
	}
}

func TestImport_SameKeyInAnotherProjectIsSeparate(t *testing.T) {
	stores := testutil.SetupStores(t)
	im := importer.New(stores.Projects, importer.ModeBestEffort, zap.NewNop())
	data := workbook(t, map[string][][]interface{}{"Owners": ownersSheet()})

	_, err := im.Import(context.Background(), bytes.NewReader(data), "P1")
	require.NoError(t, err)
	res, err := im.Import(context.Background(), bytes.NewReader(data), "P2")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
}

func TestImport_EmptyFile(t *testing.T) {
	stores := testutil.SetupStores(t)
	im := importer.New(stores.Projects, importer.ModeBestEffort, zap.NewNop())

	_, err := im.Import(context.Background(), bytes.NewReader(nil), "P")
	assert.ErrorIs(t, err, importer.ErrEmptyFile)

	var count int64
	require.NoError(t, stores.Projects.Model(&domain.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImport_UnreadableFile(t *testing.T) {
	stores := testutil.SetupStores(t)
	im := importer.New(stores.Projects, importer.ModeTransactional, zap.NewNop())

	_, err := im.Import(context.Background(), strings.NewReader("definitely not a workbook"), "P")
	assert.ErrorIs(t, err, importer.ErrUnreadableFile)

	var count int64
	require.NoError(t, stores.Projects.Model(&domain.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImport_SkipsShortSheets(t *testing.T) {
	stores := testutil.SetupStores(t)
	im := importer.New(stores.Projects, importer.ModeBestEffort, zap.NewNop())
	data := workbook(t, map[string][][]interface{}{"Only header": {header}})

	res, err := im.Import(context.Background(), bytes.NewReader(data), "P")
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Empty(t, res.Complexes)
}

// failResident makes inserts of the named resident fail, like a constraint
// violation on a malformed row would
func failResident(t *testing.T, db *gorm.DB, name string) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_resident", func(tx *gorm.DB) {
		if r, ok := tx.Statement.Dest.(*domain.Resident); ok && r.Name == name {
			_ = tx.AddError(errors.New("row rejected by store"))
		}
	})
	require.NoError(t, err)
}

func TestImport_FailedRowIsSkipped(t *testing.T) {
	for _, mode := range []importer.Mode{importer.ModeBestEffort, importer.ModeTransactional} {
		t.Run(string(mode), func(t *testing.T) {
			stores := testutil.SetupStores(t)
			failResident(t, stores.Projects, "Bad")
			im := importer.New(stores.Projects, mode, zap.NewNop())
			data := workbook(t, map[string][][]interface{}{"Owners": {
				header,
				{"A", "", "Herzl", "10", "1", "Good One", "", "0501111111"},
				{"", "", "", "", "2", "Bad", "", "0502222222"},
				{"", "", "", "", "3", "Good Two", "", "0503333333"},
			}})

			res, err := im.Import(context.Background(), bytes.NewReader(data), "Lod")
			require.NoError(t, err)
			assert.Equal(t, 2, res.Created)
			assert.Equal(t, 1, res.Skipped)

			var residents []domain.Resident
			require.NoError(t, stores.Projects.Order("id").Find(&residents).Error)
			require.Len(t, residents, 2)
			assert.Equal(t, "Good One", residents[0].Name)
			assert.Equal(t, "Good Two", residents[1].Name)
			assert.Equal(t, "Herzl_10_3", residents[1].SubParcel)
		})
	}
}
