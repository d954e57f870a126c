package services

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/logger"
	"refdata/internal/metrics"
	"refdata/internal/models"
	"refdata/internal/pagination"
	"refdata/internal/sequence"
	"refdata/internal/testutil"
)

func init() {
	logger.Init("test")
}

func newAssetClasses(db *gorm.DB) *Resource[models.AssetClass] {
	return NewResource[models.AssetClass](db, AssetClassEntity, sequence.New(), NewAuditService(db))
}

func newExchanges(db *gorm.DB) *Resource[models.Exchange] {
	return NewResource[models.Exchange](db, ExchangeEntity, sequence.New(), NewAuditService(db))
}

func auditActions(t *testing.T, db *gorm.DB, table, id string) []models.AuditAction {
	t.Helper()
	var records []models.AuditRecord
	require.NoError(t, db.Table(models.AuditTable(table)).
		Where("action_item_id = ?", id).Order("action_date").Order("id").Find(&records).Error)
	actions := make([]models.AuditAction, 0, len(records))
	for _, r := range records {
		actions = append(actions, r.Action)
	}
	return actions
}

func TestResourceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "BOND"}, "alice")
		require.NoError(t, err)

		assert.True(t, models.IsID(ac.ID))
		assert.Equal(t, int64(1), ac.AssetClassID)
		assert.Equal(t, "alice", ac.CreatedByUser)
		assert.False(t, ac.IsDeleted)
		assert.Equal(t, []models.AuditAction{models.AuditActionCreate}, auditActions(t, db, models.TableAssetClasses, ac.ID))
	})

	t.Run("sequence_ids_are_dense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		first, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)
		second, err := svc.Create(ctx, map[string]any{"assetClass": "EQUITY", "assetClassDescription": "Equities"}, "alice")
		require.NoError(t, err)

		assert.Equal(t, int64(1), first.AssetClassID)
		assert.Equal(t, int64(2), second.AssetClassID)
	})

	t.Run("duplicate_natural_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)
		input := map[string]any{"assetClass": "BOND", "assetClassDescription": "BOND"}

		_, err := svc.Create(ctx, input, "alice")
		require.NoError(t, err)

		_, err = svc.Create(ctx, input, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrConflict.Code)
		assert.Contains(t, err.Error(), "assetClass 'BOND' is already present")

		var count int64
		require.NoError(t, db.Model(&models.AssetClass{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("missing_required_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		_, err := svc.Create(ctx, map[string]any{"assetClass": "BOND"}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrValidation.Code)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "is required", appErr.Fields["assetClassDescription"])
	})

	t.Run("rule_violation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cal := testutil.CreateTestCalendar(t, db)
		svc := newExchanges(db)

		_, err := svc.Create(ctx, map[string]any{
			"exchangeCode": "LSE", "name": "London", "country": "XX", "calendar": cal.ID,
		}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrValidation.Code)
		assert.Contains(t, err.Error(), "country")
	})

	t.Run("unknown_reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExchanges(db)
		missing := models.NewID()

		_, err := svc.Create(ctx, map[string]any{
			"exchangeCode": "LSE", "name": "London", "country": "gb", "calendar": missing,
		}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrReference.Code)
		assert.Contains(t, err.Error(), "'"+missing+"' does not exist in calendars")
	})

	t.Run("malformed_reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExchanges(db)

		_, err := svc.Create(ctx, map[string]any{
			"exchangeCode": "LSE", "name": "London", "country": "GB", "calendar": "cal-1",
		}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrReference.Code)
		assert.Contains(t, err.Error(), "'cal-1' is not a valid id for calendars")
	})

	t.Run("deleted_reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cal := testutil.CreateTestCalendar(t, db)
		require.NoError(t, db.Model(cal).Update("is_deleted", true).Error)
		svc := newExchanges(db)

		_, err := svc.Create(ctx, map[string]any{
			"exchangeCode": "LSE", "name": "London", "country": "GB", "calendar": cal.ID,
		}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrReference.Code)
	})

	t.Run("resolves_references_on_read", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		cal := testutil.CreateTestCalendar(t, db)
		svc := newExchanges(db)

		ex, err := svc.Create(ctx, map[string]any{
			"exchangeCode": "lse", "name": "London", "country": "gb", "micCode": "xlon", "calendar": cal.ID,
		}, "alice")
		require.NoError(t, err)
		assert.Equal(t, "LSE", ex.ExchangeCode)
		assert.Equal(t, "XLON", ex.MICCode)

		got, err := svc.Get(ctx, ex.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Calendar)
		assert.Equal(t, cal.CalendarName, got.Calendar.CalendarName)
	})
}

func TestResourceAtomicity(t *testing.T) {
	ctx := context.Background()

	t.Run("failed_audit_insert_rolls_back_create", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		auditTable := models.AuditTable(models.TableAssetClasses)
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_audit", func(tx *gorm.DB) {
			if tx.Statement.Table == auditTable {
				_ = tx.AddError(errors.New("audit store unavailable"))
			}
		}))

		aborts := metrics.MutationAborts.WithLabelValues(AssetClassEntity.Name, OpCreate)
		before := promtest.ToFloat64(aborts)

		_, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "BOND"}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrMutationFailed.Code)
		assert.Equal(t, apperrors.ErrMutationFailed.Message, err.Error())
		assert.Equal(t, before+1, promtest.ToFloat64(aborts))

		var primary, audits int64
		require.NoError(t, db.Model(&models.AssetClass{}).Count(&primary).Error)
		require.NoError(t, db.Table(auditTable).Count(&audits).Error)
		assert.Zero(t, primary)
		assert.Zero(t, audits)

		n, err := sequence.New().Current(db, models.TableAssetClasses)
		require.NoError(t, err)
		assert.Zero(t, n, "sequence bump must roll back with the insert")
	})

	t.Run("failed_audit_insert_rolls_back_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)

		auditTable := models.AuditTable(models.TableAssetClasses)
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_audit", func(tx *gorm.DB) {
			if tx.Statement.Table == auditTable {
				_ = tx.AddError(errors.New("audit store unavailable"))
			}
		}))

		_, err = svc.Update(ctx, ac.ID, map[string]any{"assetClassDescription": "Fixed income"}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrMutationFailed.Code)

		var got models.AssetClass
		require.NoError(t, db.Where("id = ?", ac.ID).Take(&got).Error)
		assert.Equal(t, "Bonds", got.AssetClassDescription)
		assert.Empty(t, got.ChangedByUser)
		assert.Len(t, auditActions(t, db, models.TableAssetClasses, ac.ID), 1)
	})
}

func TestResourceUniqueIndex(t *testing.T) {
	ctx := context.Background()

	failPrimaryWrites := func(t *testing.T, db *gorm.DB) {
		t.Helper()
		fail := func(tx *gorm.DB) {
			if tx.Statement.Table == models.TableAssetClasses {
				_ = tx.AddError(errors.New("UNIQUE constraint failed: asset_classes.asset_class, asset_classes.asset_class_description"))
			}
		}
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:unique_create", fail))
		require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:unique_update", fail))
	}

	t.Run("create_collision_reads_like_the_check", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)
		failPrimaryWrites(t, db)

		aborts := metrics.MutationAborts.WithLabelValues(AssetClassEntity.Name, OpCreate)
		before := promtest.ToFloat64(aborts)

		_, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		testutil.AssertAppError(t, err, apperrors.ErrConflict.Code)
		assert.Equal(t, "assetClass 'BOND' is already present", err.Error())
		assert.Equal(t, before, promtest.ToFloat64(aborts))
	})

	t.Run("update_collision_uses_the_resulting_key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)
		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)
		failPrimaryWrites(t, db)

		_, err = svc.Update(ctx, ac.ID, map[string]any{"assetClassDescription": "Fixed income"}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrConflict.Code)
		assert.Equal(t, "assetClass 'BOND' is already present", err.Error())
	})
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"sqlite", errors.New("UNIQUE constraint failed: quotes.quote_name"), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "uq_quotes_natural_key" (SQLSTATE 23505)`), true},
		{"wrapped", errors.Join(errors.New("insert quote"), gorm.ErrDuplicatedKey), true},
		{"other", errors.New("connection reset by peer"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}

func TestResourceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)

		updated, err := svc.Update(ctx, ac.ID, map[string]any{"assetClassDescription": "Fixed income"}, "bob")
		require.NoError(t, err)

		assert.Equal(t, "BOND", updated.AssetClass)
		assert.Equal(t, "Fixed income", updated.AssetClassDescription)
		assert.Equal(t, "alice", updated.CreatedByUser)
		assert.Equal(t, "bob", updated.ChangedByUser)
		require.NotNil(t, updated.ChangedDate)
		assert.Equal(t, ac.AssetClassID, updated.AssetClassID)
		assert.Equal(t,
			[]models.AuditAction{models.AuditActionCreate, models.AuditActionEdit},
			auditActions(t, db, models.TableAssetClasses, ac.ID))
	})

	t.Run("merged_key_conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		_, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)
		other, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Other"}, "alice")
		require.NoError(t, err)

		_, err = svc.Update(ctx, other.ID, map[string]any{"assetClassDescription": "Bonds"}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrConflict.Code)
		assert.Contains(t, err.Error(), "assetClass 'BOND' is already present")
	})

	t.Run("own_key_is_not_a_conflict", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)

		_, err = svc.Update(ctx, ac.ID, map[string]any{"assetClass": "bond"}, "bob")
		require.NoError(t, err)
		_, err = svc.Update(ctx, ac.ID, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "bob")
		require.NoError(t, err)
	})

	t.Run("cannot_clear_required_field", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)

		_, err = svc.Update(ctx, ac.ID, map[string]any{"assetClass": ""}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrValidation.Code)
	})

	t.Run("no_updatable_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "Bonds"}, "alice")
		require.NoError(t, err)

		_, err = svc.Update(ctx, ac.ID, map[string]any{"unknown": "x"}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrValidation.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		_, err := svc.Update(ctx, models.NewID(), map[string]any{"assetClass": "X"}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)

		_, err = svc.Update(ctx, "42", map[string]any{"assetClass": "X"}, "bob")
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)
	})
}

func TestResourceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("soft_delete_hides_record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "BOND"}, "alice")
		require.NoError(t, err)

		deleted, err := svc.Delete(ctx, ac.ID, " obsolete ", "bob")
		require.NoError(t, err)
		assert.True(t, deleted.IsDeleted)
		assert.Equal(t, "bob", deleted.DeletedBy)
		assert.Equal(t, "obsolete", deleted.DeleteReason)

		_, err = svc.Get(ctx, ac.ID)
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)

		page, err := svc.List(ctx, ListQuery{})
		require.NoError(t, err)
		assert.Zero(t, page.Total)

		page, err = svc.List(ctx, ListQuery{IncludeDeleted: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)

		assert.Equal(t,
			[]models.AuditAction{models.AuditActionCreate, models.AuditActionDelete},
			auditActions(t, db, models.TableAssetClasses, ac.ID))
	})

	t.Run("natural_key_reusable_after_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)
		input := map[string]any{"assetClass": "BOND", "assetClassDescription": "BOND"}

		first, err := svc.Create(ctx, input, "alice")
		require.NoError(t, err)
		_, err = svc.Delete(ctx, first.ID, "", "alice")
		require.NoError(t, err)

		second, err := svc.Create(ctx, input, "alice")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, int64(2), second.AssetClassID)
	})

	t.Run("delete_twice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "BOND"}, "alice")
		require.NoError(t, err)
		_, err = svc.Delete(ctx, ac.ID, "", "alice")
		require.NoError(t, err)

		_, err = svc.Delete(ctx, ac.ID, "", "alice")
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)
		assert.Len(t, auditActions(t, db, models.TableAssetClasses, ac.ID), 2)
	})
}

func TestResourceList(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, svc *Resource[models.AssetClass], names ...string) {
		t.Helper()
		for _, name := range names {
			_, err := svc.Create(ctx, map[string]any{"assetClass": name, "assetClassDescription": name + " desc"}, "alice")
			require.NoError(t, err)
		}
	}

	t.Run("paginates_newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)
		seed(t, svc, "A1", "A2", "A3", "A4", "A5", "A6", "A7")

		page, err := svc.List(ctx, ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(7), page.Total)
		assert.Equal(t, 5, page.PerPage, "asset classes default to 5 per page")
		assert.Len(t, page.Data, 5)
		assert.Equal(t, "A7", page.Data[0].AssetClass)
		require.NotNil(t, page.LastPage)
		assert.Equal(t, 2, *page.LastPage)
		require.NotNil(t, page.NextPage)
		assert.Equal(t, 2, *page.NextPage)

		page, err = svc.List(ctx, ListQuery{PageRequest: pagination.PageRequest{Page: 2}})
		require.NoError(t, err)
		assert.Len(t, page.Data, 2)
		assert.Equal(t, 6, page.From)
		assert.Equal(t, 7, page.To)
		assert.Nil(t, page.NextPage)
	})

	t.Run("prefix_search", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)
		seed(t, svc, "BOND", "BONUS", "EQUITY", "50%_OFF", "50X")

		page, err := svc.List(ctx, ListQuery{Search: "bon"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)

		page, err = svc.List(ctx, ListQuery{Search: "equity desc", SearchKey: "assetClassDescription"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)

		page, err = svc.List(ctx, ListQuery{Search: "50%"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total, "wildcards in the search term are literal")
	})

	t.Run("search_key_not_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newAssetClasses(db)

		_, err := svc.List(ctx, ListQuery{Search: "x", SearchKey: "createdByUser"})
		testutil.AssertAppError(t, err, apperrors.ErrValidation.Code)
	})
}

func TestResourceAuditTrail(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newAssetClasses(db)

	ac, err := svc.Create(ctx, map[string]any{"assetClass": "BOND", "assetClassDescription": "v1"}, "alice")
	require.NoError(t, err)
	_, err = svc.Update(ctx, ac.ID, map[string]any{"assetClassDescription": "v2"}, "bob")
	require.NoError(t, err)
	_, err = svc.Delete(ctx, ac.ID, "gone", "carol")
	require.NoError(t, err)

	t.Run("newest_first_with_snapshots", func(t *testing.T) {
		trail, err := svc.AuditTrail(ctx, ac.ID, pagination.PageRequest{})
		require.NoError(t, err)
		require.Len(t, trail.Data, 3)

		assert.Equal(t, models.AuditActionDelete, trail.Data[0].Action)
		assert.Equal(t, "carol", trail.Data[0].ActionBy)
		assert.Equal(t, models.AuditActionEdit, trail.Data[1].Action)
		assert.Contains(t, string(trail.Data[1].Snapshot), `"assetClassDescription":"v2"`)
		assert.Equal(t, models.AuditActionCreate, trail.Data[2].Action)
		assert.Contains(t, string(trail.Data[2].Snapshot), `"assetClassDescription":"v1"`)
	})

	t.Run("unknown_record", func(t *testing.T) {
		_, err := svc.AuditTrail(ctx, models.NewID(), pagination.PageRequest{})
		testutil.AssertAppError(t, err, apperrors.ErrNotFound.Code)
	})
}
