package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportService_ExportProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "A")
	testutil.CreateComplex(t, h.stores.Projects, "Gilo", "B")
	testutil.CreateResident(t, h.stores.Projects, "Gilo", "A", "Ben Yehuda_12_3", "Ruth",
		testutil.WithAddress("Ben Yehuda 12"), testutil.WithPhone("0501234567"),
		testutil.WithLawyerStatus(domain.LawyerStatusFullySigned))
	testutil.CreateResident(t, h.stores.Projects, "Gilo", "B", "Herzl_1_1", "",
		testutil.WithAddress("Herzl 1"))

	t.Run("whole project", func(t *testing.T) {
		file, err := h.export.ExportProject(ctx, "Gilo", "")
		require.NoError(t, err)
		assert.Equal(t, 2, file.Rows)
		assert.True(t, strings.HasPrefix(file.FileName, "Gilo_"))
		assert.True(t, strings.HasSuffix(file.FileName, ".xlsx"))

		wb, err := excelize.OpenReader(file.Data)
		require.NoError(t, err)
		defer wb.Close()

		require.Equal(t, []string{"Gilo"}, wb.GetSheetList())
		rows, err := wb.GetRows("Gilo")
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Len(t, rows[0], 17)
		assert.Equal(t, "מתחם", rows[0][0])

		assert.Equal(t, "A", rows[1][0])
		assert.Equal(t, "Ben Yehuda", rows[1][1])
		assert.Equal(t, "12", rows[1][2])
		assert.Equal(t, "Ruth", rows[1][4])
		assert.Equal(t, "0501234567", rows[1][5])
		assert.Equal(t, string(domain.LawyerStatusFullySigned), rows[1][8])

		assert.Equal(t, domain.UnknownOccupantName, rows[2][4])
	})

	t.Run("single complex", func(t *testing.T) {
		file, err := h.export.ExportProject(ctx, "Gilo", "B")
		require.NoError(t, err)
		assert.Equal(t, 1, file.Rows)
		assert.True(t, strings.HasPrefix(file.FileName, "Gilo_B_"))
	})

	t.Run("no residents", func(t *testing.T) {
		_, err := h.export.ExportProject(ctx, "Gilo", "C")
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("long names are truncated", func(t *testing.T) {
		long := strings.Repeat("פרויקט", 8)
		testutil.CreateComplex(t, h.stores.Projects, long, "A")
		testutil.CreateResident(t, h.stores.Projects, long, "A", "x", "R")

		file, err := h.export.ExportProject(ctx, long, "")
		require.NoError(t, err)
		wb, err := excelize.OpenReader(file.Data)
		require.NoError(t, err)
		defer wb.Close()
		assert.Len(t, []rune(wb.GetSheetList()[0]), 31)
	})
}
