package export

import (
	"bytes"
	"testing"
	"time"

	"storefront/internal/repository"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteSchedules(t *testing.T) {
	var buf bytes.Buffer
	revisions := []repository.Revision{
		{ID: 2, Revision: "r2", Origin: "node-a", CreatedAt: time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, WriteSchedules(&buf, *store.DefaultRecord(), revisions))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{schedulesSheet, historySheet}, f.GetSheetList())

	rows, err := f.GetRows(schedulesSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 6)
	assert.Equal(t, scheduleColumns, rows[0])

	// Rows are sorted by category name.
	assert.Equal(t, "bebidas", rows[1][0])
	burgers := rows[3]
	assert.Equal(t, "hamburguesas", burgers[0])
	assert.Equal(t, "sí", burgers[1])
	assert.Equal(t, "friday, saturday, sunday", burgers[2])
	assert.Equal(t, "no", burgers[4])
	assert.Equal(t, "19:00", burgers[10])
	assert.Equal(t, []string{"19:00", "21:00", "21:30"}, burgers[13:16])

	last := rows[len(rows)-1]
	assert.Equal(t, []string{"Horario general", "11:00", "23:00"}, last)

	history, err := f.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, []string{"2", "r2", "node-a", "2026-10-16T20:00:00Z"}, history[1])
}

func TestWriteSchedules_NoHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchedules(&buf, *store.DefaultRecord(), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{schedulesSheet}, f.GetSheetList())
}
