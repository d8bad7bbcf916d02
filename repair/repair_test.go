package repair

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func expectRepairWrite(mock sqlmock.Sqlmock, affected int64) {
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tgvmax SET dispo = 'OUI'").
		WillReturnResult(sqlmock.NewResult(0, affected))
	mock.ExpectCommit()
}

func TestRepairCoupuresFixesCoveredLegs(t *testing.T) {
	engine, mock := newTestEngine(t)

	// PARIS->DIJON 09:00-11:00 unavailable, covered by PARIS->LYON 09:00-13:00
	mock.ExpectQuery("SELECT b.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(42))
	expectRepairWrite(mock, 1)

	fixed, err := engine.RepairCoupures(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixed != 1 {
		t.Errorf("fixed = %d, want 1", fixed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepairCoupuresIdempotent(t *testing.T) {
	engine, mock := newTestEngine(t)

	mock.ExpectQuery("SELECT b.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(42))
	expectRepairWrite(mock, 1)
	// Second run: nothing left to fix, no write transaction
	mock.ExpectQuery("SELECT b.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}))

	if _, err := engine.RepairCoupures(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	fixed, err := engine.RepairCoupures(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if fixed != 0 {
		t.Errorf("second run fixed = %d, want 0", fixed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepairSouduresIteratesToFixedPoint(t *testing.T) {
	engine, mock := newTestEngine(t)

	// Pass 1 fixes two splices, pass 2 one more enabled by pass 1, pass 3 none
	mock.ExpectQuery("SELECT a.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(1).AddRow(2))
	expectRepairWrite(mock, 2)
	mock.ExpectQuery("SELECT a.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(3))
	expectRepairWrite(mock, 1)
	mock.ExpectQuery("SELECT a.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}))

	fixed, err := engine.RepairSoudures(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixed != 3 {
		t.Errorf("fixed = %d, want 3", fixed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCleanupUnavailableDeletes(t *testing.T) {
	engine, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tgvmax WHERE dispo").
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	deleted, err := engine.CleanupUnavailable(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 7 {
		t.Errorf("deleted = %d, want 7", deleted)
	}
}

func TestRemovePastLegs(t *testing.T) {
	engine, mock := newTestEngine(t)

	now := time.Date(2025, 7, 12, 14, 30, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM tgvmax WHERE date").
		WithArgs("2025-07-12", "14:30").
		WillReturnResult(sqlmock.NewResult(0, 12))

	removed, err := engine.RemovePastLegs(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 12 {
		t.Errorf("removed = %d, want 12", removed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOptimizeRunsAllStepsAndReports(t *testing.T) {
	engine, mock := newTestEngine(t)

	countColumns := []string{"available", "total"}
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows(countColumns).AddRow(80, 100))
	// Coupures
	mock.ExpectQuery("SELECT b.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(1))
	expectRepairWrite(mock, 1)
	// Soudures: one pass with a fix, one empty
	mock.ExpectQuery("SELECT a.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}).AddRow(2))
	expectRepairWrite(mock, 1)
	mock.ExpectQuery("SELECT a.uid").
		WillReturnRows(sqlmock.NewRows([]string{"uid"}))
	// Cleanup
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tgvmax WHERE dispo").
		WillReturnResult(sqlmock.NewResult(0, 18))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows(countColumns).AddRow(82, 82))

	summary, err := engine.Optimize(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.CoupureFixes != 1 || summary.SoudureFixes != 1 {
		t.Errorf("fixes = %d/%d, want 1/1", summary.CoupureFixes, summary.SoudureFixes)
	}
	if summary.TripsDeleted != 18 {
		t.Errorf("deleted = %d, want 18", summary.TripsDeleted)
	}
	if summary.NewAvailableTrips != 2 {
		t.Errorf("new available = %d, want 2", summary.NewAvailableTrips)
	}
	if summary.FinalAvailabilityRate != 100 {
		t.Errorf("availability = %.1f, want 100.0", summary.FinalAvailabilityRate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestOptimizeAbortsOnFailedStep(t *testing.T) {
	engine, mock := newTestEngine(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"available", "total"}).AddRow(80, 100))
	mock.ExpectQuery("SELECT b.uid").
		WillReturnError(context.DeadlineExceeded)

	if _, err := engine.Optimize(context.Background()); err == nil {
		t.Fatal("expected the failed scan to abort the optimization")
	}
}
