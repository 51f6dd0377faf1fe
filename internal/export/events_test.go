package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Kerhoff/InSync/internal/models"
)

func TestEventsWorkbook(t *testing.T) {
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.Local)
	events := []models.Event{{
		ID:         "5",
		Name:       "Picnic",
		StartTime:  models.NewTimestamp(start),
		EndTime:    models.NewTimestamp(start.Add(2 * time.Hour)),
		Location:   "Park",
		Privacy:    models.PrivacyPublic,
		RepeatRule: models.RepeatNone,
	}}

	data, err := EventsWorkbook(events)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{EventsSheet}, f.GetSheetList())

	rows, err := f.GetRows(EventsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Event ID", rows[0][0])
	assert.Equal(t, []string{"5", "Picnic", "2026-10-20 10:00:00", "2026-10-20 12:00:00", "Park", "", "Not Private", "No Repeat"}, rows[1])
}

func TestEventsWorkbook_Empty(t *testing.T) {
	data, err := EventsWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(EventsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
