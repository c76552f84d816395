package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

var partnerCols = []string{
	"user_id", "name", "email", "active", "is_available", "current_orders", "lat", "lng",
	"location_updated_at", "average_delivery_time", "created_at", "updated_at",
}

func partnerRows(now time.Time, userID int64, available bool, orders []int64) *pgxmockv3.Rows {
	return pgxmockv3.NewRows(partnerCols).
		AddRow(userID, "Dan", "dan@example.com", true, available, orders, 0.0, 0.0, nil, 25, now, now)
}

func TestPartnerRepositoryCreate(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &partnerRepository{db: storage.pool}
	now := time.Now()

	mock.ExpectExec("INSERT INTO delivery_partners").WithArgs(int64(2), 25).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectQuery("WHERE dp.user_id=").WithArgs(int64(2)).WillReturnRows(partnerRows(now, 2, false, nil))
	partner, err := repo.Create(context.Background(), 2, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partner.UserID != 2 || partner.IsAvailable || partner.CurrentOrders == nil || len(partner.CurrentOrders) != 0 {
		t.Fatalf("unexpected partner: %+v", partner)
	}

	cases := []struct {
		code string
		want error
	}{
		{pgUniqueViolation, domainErrors.ErrAlreadyExists},
		{pgForeignKeyViolation, domainErrors.ErrUserNotFound},
		{pgCheckViolation, domainErrors.ErrInvalidDeliveryAvg},
	}
	for _, tc := range cases {
		mock.ExpectExec("INSERT INTO delivery_partners").WithArgs(int64(2), 25).WillReturnError(&pgconn.PgError{Code: tc.code})
		if _, err := repo.Create(context.Background(), 2, 25); !errors.Is(err, tc.want) {
			t.Fatalf("code %s: expected %v, got %v", tc.code, tc.want, err)
		}
	}

	mock.ExpectExec("INSERT INTO delivery_partners").WithArgs(int64(2), 25).WillReturnError(errors.New("insert"))
	if _, err := repo.Create(context.Background(), 2, 25); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPartnerRepositoryGet(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &partnerRepository{db: storage.pool}
	now := time.Now()
	located := now.Add(-time.Minute)

	mock.ExpectQuery("WHERE dp.user_id=").WithArgs(int64(2)).WillReturnRows(
		pgxmockv3.NewRows(partnerCols).
			AddRow(int64(2), "Dan", "dan@example.com", true, true, []int64{5, 6}, 55.75, 37.61, &located, 30, now, now),
	)
	partner, err := repo.GetByUserID(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !partner.IsAvailable || len(partner.CurrentOrders) != 2 || partner.Location.Lat != 55.75 {
		t.Fatalf("unexpected partner: %+v", partner)
	}
	if partner.LocationUpdatedAt == nil || !partner.LocationUpdatedAt.Equal(located) {
		t.Fatalf("expected location timestamp, got %v", partner.LocationUpdatedAt)
	}

	mock.ExpectQuery("WHERE dp.user_id=").WithArgs(int64(3)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByUserID(context.Background(), 3); !errors.Is(err, domainErrors.ErrPartnerNotFound) {
		t.Fatalf("expected partner not found, got %v", err)
	}

	mock.ExpectQuery("FOR UPDATE OF dp").WithArgs(int64(2)).WillReturnRows(partnerRows(now, 2, true, []int64{5}))
	if _, err := repo.GetByUserIDForUpdate(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPartnerRepositoryList(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &partnerRepository{db: storage.pool}
	now := time.Now()

	mock.ExpectQuery("FROM delivery_partners dp JOIN users u ON u.id = dp.user_id ORDER BY u.name").WillReturnRows(
		pgxmockv3.NewRows(partnerCols).
			AddRow(int64(2), "Ann", "ann@example.com", true, false, []int64{}, 0.0, 0.0, nil, 30, now, now).
			AddRow(int64(3), "Bob", "bob@example.com", true, true, []int64{1}, 0.0, 0.0, nil, 20, now, now),
	)
	partners, err := repo.List(context.Background(), model.PartnerFilter{})
	if err != nil || len(partners) != 2 {
		t.Fatalf("unexpected result: %v err=%v", partners, err)
	}

	mock.ExpectQuery("WHERE dp.is_available AND u.active").WillReturnRows(partnerRows(now, 3, true, nil))
	partners, err = repo.List(context.Background(), model.PartnerFilter{AvailableOnly: true})
	if err != nil || len(partners) != 1 || partners[0].UserID != 3 {
		t.Fatalf("unexpected result: %v err=%v", partners, err)
	}

	mock.ExpectQuery("FROM delivery_partners dp").WillReturnError(errors.New("query"))
	if _, err := repo.List(context.Background(), model.PartnerFilter{}); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectQuery("FROM delivery_partners dp").WillReturnRows(
		pgxmockv3.NewRows(partnerCols).AddRow("bad", "Ann", "ann@example.com", true, false, []int64{}, 0.0, 0.0, nil, 30, now, now),
	)
	if _, err := repo.List(context.Background(), model.PartnerFilter{}); err == nil {
		t.Fatal("expected scan error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPartnerRepositoryListRowsError(t *testing.T) {
	repo := &partnerRepository{db: &rowsErrorPool{rows: &errorRows{err: errors.New("rows err")}}}

	if _, err := repo.List(context.Background(), model.PartnerFilter{}); err == nil || err.Error() != "rows err" {
		t.Fatalf("expected rows err, got %v", err)
	}
}

func TestPartnerRepositoryToggleAndLocation(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &partnerRepository{db: storage.pool}
	now := time.Now()

	mock.ExpectQuery("SET is_available = NOT is_available").WithArgs(int64(2)).WillReturnRows(partnerRows(now, 2, true, nil))
	partner, err := repo.ToggleAvailability(context.Background(), 2)
	if err != nil || !partner.IsAvailable {
		t.Fatalf("unexpected result: %+v err=%v", partner, err)
	}

	mock.ExpectQuery("SET is_available = NOT is_available").WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.ToggleAvailability(context.Background(), 9); !errors.Is(err, domainErrors.ErrPartnerNotFound) {
		t.Fatalf("expected partner not found, got %v", err)
	}

	located := now
	mock.ExpectQuery("SET lat=").WithArgs(int64(2), 40.7, -74.0).WillReturnRows(
		pgxmockv3.NewRows(partnerCols).AddRow(int64(2), "Dan", "dan@example.com", true, true, []int64{}, 40.7, -74.0, &located, 25, now, now),
	)
	partner, err = repo.UpdateLocation(context.Background(), 2, model.Location{Lat: 40.7, Lng: -74.0})
	if err != nil || partner.Location.Lng != -74.0 || partner.LocationUpdatedAt == nil {
		t.Fatalf("unexpected result: %+v err=%v", partner, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPartnerRepositoryAddActiveOrder(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &partnerRepository{db: storage.pool}
	now := time.Now()

	mock.ExpectExec("SET current_orders = array_append").WithArgs(int64(2), int64(10), model.MaxActiveOrders).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.AddActiveOrder(context.Background(), 2, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec("SET current_orders = array_append").WithArgs(int64(2), int64(11), model.MaxActiveOrders).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectQuery("WHERE dp.user_id=").WithArgs(int64(2)).WillReturnRows(partnerRows(now, 2, true, []int64{1, 2, 3}))
	if err := repo.AddActiveOrder(context.Background(), 2, 11); !errors.Is(err, domainErrors.ErrPartnerAtCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}

	mock.ExpectExec("SET current_orders = array_append").WithArgs(int64(2), int64(1), model.MaxActiveOrders).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectQuery("WHERE dp.user_id=").WithArgs(int64(2)).WillReturnRows(partnerRows(now, 2, true, []int64{1}))
	if err := repo.AddActiveOrder(context.Background(), 2, 1); !errors.Is(err, domainErrors.ErrDuplicateAssignment) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	mock.ExpectExec("SET current_orders = array_append").WithArgs(int64(4), int64(1), model.MaxActiveOrders).
		WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	mock.ExpectQuery("WHERE dp.user_id=").WithArgs(int64(4)).WillReturnError(pgx.ErrNoRows)
	if err := repo.AddActiveOrder(context.Background(), 4, 1); !errors.Is(err, domainErrors.ErrPartnerNotFound) {
		t.Fatalf("expected partner not found, got %v", err)
	}

	mock.ExpectExec("SET current_orders = array_append").WithArgs(int64(2), int64(12), model.MaxActiveOrders).
		WillReturnError(errors.New("update"))
	if err := repo.AddActiveOrder(context.Background(), 2, 12); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPartnerRepositoryRemoveAndReconcile(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &partnerRepository{db: storage.pool}

	// Removing twice leaves the same state and never fails.
	for i := 0; i < 2; i++ {
		mock.ExpectExec("SET current_orders = array_remove").WithArgs(int64(2), int64(10)).
			WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
		if err := repo.RemoveActiveOrder(context.Background(), 2, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	mock.ExpectExec("SET current_orders = array_remove").WithArgs(int64(2), int64(11)).WillReturnError(errors.New("update"))
	if err := repo.RemoveActiveOrder(context.Background(), 2, 11); err == nil {
		t.Fatal("expected error")
	}

	mock.ExpectExec("UPDATE delivery_partners dp SET current_orders = ARRAY").WillReturnResult(pgxmockv3.NewResult("UPDATE", 3))
	repaired, err := repo.ReconcileActiveOrders(context.Background())
	if err != nil || repaired != 3 {
		t.Fatalf("unexpected result: %d err=%v", repaired, err)
	}

	mock.ExpectExec("UPDATE delivery_partners dp SET current_orders = ARRAY").WillReturnError(errors.New("reconcile"))
	if _, err := repo.ReconcileActiveOrders(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
