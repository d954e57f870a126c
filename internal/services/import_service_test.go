package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "refdata/internal/errors"
	"refdata/internal/models"
	"refdata/internal/testutil"
)

func decodeReport(t *testing.T, proc *models.ProcessRequest) []RowResult {
	t.Helper()
	var report []RowResult
	require.NoError(t, json.Unmarshal(proc.Payload, &report))
	return report
}

// chunkReader serves one chunk per Read call and then fails with err on
// every call. onRead runs before each call with its 1-based number.
type chunkReader struct {
	chunks []string
	err    error
	reads  int
	onRead func(n int)
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.reads++
	if r.onRead != nil {
		r.onRead(r.reads)
	}
	if len(r.chunks) == 0 {
		return 0, r.err
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestImport(t *testing.T) {
	ctx := context.Background()

	t.Run("row_failures_are_isolated", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		file := "assetClass,assetClassDescription\nBOND,Bonds\n,Missing class\nEQUITY,Equities\n"
		proc, err := cat.Imports.Import(ctx, AssetClassEntity.Slug, strings.NewReader(file), "classes.csv", "alice")
		require.NoError(t, err)

		assert.Equal(t, models.ProcessStatusCompleted, proc.Status)
		assert.Equal(t, models.ProcessTypeBulkInsert, proc.Type)
		assert.Equal(t, int64(1), proc.ProcessID)
		assert.Equal(t, "classes.csv", proc.FileName)
		assert.Equal(t, 3, proc.Total)
		assert.Equal(t, 2, proc.Succeeded)
		assert.Equal(t, 1, proc.Failed)

		report := decodeReport(t, proc)
		require.Len(t, report, 3)
		assert.True(t, report[0].Success)
		assert.False(t, report[1].Success)
		assert.Equal(t, 2, report[1].RowIndex)
		assert.Equal(t, "is required", report[1].Errors["assetClass"])
		assert.True(t, report[2].Success)

		page, err := cat.AssetClasses.List(ctx, ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("duplicate_rows_conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		file := "assetClass,assetClassDescription\nBOND,Bonds\nBOND,Bonds\n"
		proc, err := cat.Imports.Import(ctx, AssetClassEntity.Slug, strings.NewReader(file), "classes.csv", "alice")
		require.NoError(t, err)

		report := decodeReport(t, proc)
		require.Len(t, report, 2)
		assert.False(t, report[1].Success)
		assert.Equal(t, "assetClass 'BOND' is already present", report[1].Message)
	})

	t.Run("column_count_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		file := "\ufeffassetClass, assetClassDescription\nBOND,Bonds,extra\nFX,Currencies\n"
		proc, err := cat.Imports.Import(ctx, AssetClassEntity.Slug, strings.NewReader(file), "classes.csv", "alice")
		require.NoError(t, err)

		report := decodeReport(t, proc)
		require.Len(t, report, 2)
		assert.Equal(t, "row has 3 columns, header has 2", report[0].Message)
		assert.True(t, report[1].Success, "header cells are trimmed of spaces and a byte order mark")
	})

	t.Run("references_resolved_per_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)
		cal := testutil.CreateTestCalendar(t, db)

		file := "exchangeCode,name,country,calendar\n" +
			"LSE,London,GB," + cal.ID + "\n" +
			"NYSE,New York,US," + models.NewID() + "\n"
		proc, err := cat.Imports.Import(ctx, ExchangeEntity.Slug, strings.NewReader(file), "exchanges.csv", "alice")
		require.NoError(t, err)

		assert.Equal(t, 1, proc.Succeeded)
		assert.Equal(t, 1, proc.Failed)
		report := decodeReport(t, proc)
		assert.Contains(t, report[1].Errors["calendar"], "does not exist in calendars")
	})

	t.Run("bonds", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)
		refs := testutil.CreateTestBondRefs(t, db)

		file := "securityId,name,securityCode,assetClass,currency,issueDate,maturityDate,couponType,paymentFrequency,paymentHolidayCalender,dayCountConvention,putCalls\n" +
			"SEC-1,Bond One,B1," + refs.AssetClass.ID + ",usd,2024-01-01,2030-01-01,Fixed,Annual," + refs.Calendar.ID + ",ACT/360," +
			`"[{""type"":""Put"",""startDate"":""2027-01-01"",""endDate"":""2027-02-01"",""strikePrice"":""100""}]"` + "\n"
		proc, err := cat.Imports.Import(ctx, BondSecurityEntity.Slug, strings.NewReader(file), "bonds.csv", "alice")
		require.NoError(t, err)
		require.Equal(t, 1, proc.Succeeded, string(proc.Payload))

		page, err := cat.Bonds.List(ctx, ListQuery{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "USD", page.Data[0].Currency)
		assert.Len(t, page.Data[0].PutCalls, 1)
	})

	t.Run("empty_file", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		proc, err := cat.Imports.Import(ctx, AssetClassEntity.Slug, strings.NewReader(""), "empty.csv", "alice")
		require.NoError(t, err)
		assert.Equal(t, models.ProcessStatusFailed, proc.Status)
		assert.Equal(t, "file has no readable header", proc.Message)
		assert.Zero(t, proc.Total)
	})

	t.Run("failing_reader_stops_the_import", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		file := &chunkReader{
			chunks: []string{"assetClass,assetClassDescription\nBOND,Bonds\n"},
			err:    errors.New("disk read error"),
		}
		proc, err := cat.Imports.Import(ctx, AssetClassEntity.Slug, file, "classes.csv", "alice")
		require.NoError(t, err)

		assert.Equal(t, models.ProcessStatusFailed, proc.Status)
		assert.Equal(t, "import stopped after 1 rows: disk read error", proc.Message)
		assert.Equal(t, 1, proc.Total)
		assert.Equal(t, 1, proc.Succeeded)
		assert.Less(t, file.reads, 5)

		stored, err := cat.Processes.Get(ctx, proc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProcessStatusFailed, stored.Status)
	})

	t.Run("cancelled_import_is_not_completed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		file := &chunkReader{
			chunks: []string{"assetClass,assetClassDescription\n", "BOND,Bonds\n", "EQUITY,Equities\n"},
			onRead: func(n int) {
				if n == 2 {
					cancel()
				}
			},
		}
		proc, err := cat.Imports.Import(runCtx, AssetClassEntity.Slug, file, "classes.csv", "alice")
		require.NoError(t, err)

		assert.Equal(t, models.ProcessStatusFailed, proc.Status)
		assert.Contains(t, proc.Message, context.Canceled.Error())

		stored, err := cat.Processes.Get(ctx, proc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProcessStatusFailed, stored.Status)
	})

	t.Run("unknown_entity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		_, err := cat.Imports.Import(ctx, "widgets", strings.NewReader("a\n1\n"), "w.csv", "alice")
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)

		var count int64
		require.NoError(t, db.Model(&models.ProcessRequest{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("process_ids_are_sequential", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cat := NewCatalog(db)

		first, err := cat.Imports.Import(ctx, QuoteEntity.Slug, strings.NewReader(""), "q.csv", "alice")
		require.NoError(t, err)
		second, err := cat.Imports.Import(ctx, QuoteEntity.Slug, strings.NewReader(""), "q.csv", "alice")
		require.NoError(t, err)
		assert.Equal(t, first.ProcessID+1, second.ProcessID)
	})
}

func TestProcessGet(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	cat := NewCatalog(db)

	proc, err := cat.Imports.Import(ctx, QuoteEntity.Slug,
		strings.NewReader("quoteType,quoteName\nPrice,Clean price\n"), "quotes.csv", "alice")
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		got, err := cat.Processes.Get(ctx, proc.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ProcessStatusCompleted, got.Status)
		assert.Equal(t, 1, got.Succeeded)
		assert.Equal(t, "alice", got.CreatedByUser)
		assert.Len(t, decodeReport(t, got), 1)
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := cat.Processes.Get(ctx, models.NewID())
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)

		_, err = cat.Processes.Get(ctx, "7")
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)
	})
}
