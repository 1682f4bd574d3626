package exchange

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jing2uo/pricepanel/model"
)

func TestEaster(t *testing.T) {
	assert.Equal(t, date(2024, time.March, 31), easter(2024))
	assert.Equal(t, date(2025, time.April, 20), easter(2025))
	assert.Equal(t, date(2019, time.April, 21), easter(2019))
}

func TestNYSEHolidays2024(t *testing.T) {
	want := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 15),
		date(2024, time.February, 19),
		date(2024, time.March, 29),
		date(2024, time.May, 27),
		date(2024, time.June, 19),
		date(2024, time.July, 4),
		date(2024, time.September, 2),
		date(2024, time.November, 28),
		date(2024, time.December, 25),
	}
	assert.Equal(t, want, nyseHolidays(2024))
}

func TestNYSESaturdayNewYearNotObserved(t *testing.T) {
	// 2022-01-01 is a Saturday.
	for _, h := range nyseHolidays(2022) {
		assert.NotEqual(t, date(2021, time.December, 31), h)
		assert.NotEqual(t, date(2022, time.January, 1), h)
	}
}

func TestLSEChristmasSubstitutes(t *testing.T) {
	// 2021-12-25 is a Saturday.
	got := lseHolidays(2021)
	assert.Contains(t, got, date(2021, time.December, 27))
	assert.Contains(t, got, date(2021, time.December, 28))
	assert.Contains(t, got, date(2021, time.April, 5))
}

func TestSessionsBuiltin(t *testing.T) {
	src := NewSource("")
	got, err := src.Sessions(context.Background(), "xnys",
		time.Date(2024, time.July, 1, 9, 30, 0, 0, time.UTC),
		date(2024, time.July, 8))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.July, 1),
		date(2024, time.July, 2),
		date(2024, time.July, 3),
		date(2024, time.July, 5),
		date(2024, time.July, 8),
	}, got)
}

func TestSessionsUnknown(t *testing.T) {
	_, err := NewSource(t.TempDir()).Sessions(context.Background(), "XTKS", date(2024, 1, 1), date(2024, 1, 31))

	var calErr *model.UnsupportedCalendarError
	require.True(t, errors.As(err, &calErr))
	assert.Equal(t, "XTKS", calErr.Calendar)
	assert.Contains(t, err.Error(), "unknown exchange id")
	assert.Equal(t, Known(), calErr.Known)
	assert.Contains(t, calErr.Hint(), "(XLON, XNAS, XNYS)")
}

func TestSessionsFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "# tokyo\n2024-01-05\n2024-01-04\n\n2024-01-09\n2024-02-01\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "XTKS.txt"), []byte(content), 0o644))

	got, err := NewSource(dir).Sessions(context.Background(), "XTKS", date(2024, 1, 1), date(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		date(2024, time.January, 4),
		date(2024, time.January, 5),
		date(2024, time.January, 9),
	}, got)
}

func TestSessionsBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "XNYS.txt"), []byte("not-a-date\n"), 0o644))

	_, err := NewSource(dir).Sessions(context.Background(), "XNYS", date(2024, 1, 1), date(2024, 1, 31))
	var calErr *model.UnsupportedCalendarError
	assert.True(t, errors.As(err, &calErr))
}

func TestKnown(t *testing.T) {
	assert.Equal(t, []string{"XLON", "XNAS", "XNYS"}, Known())
}
