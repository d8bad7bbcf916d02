package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var testLegColumns = []string{"uid", "date", "origine", "destination", "heure_depart", "heure_arrivee", "train_no", "axe", "dispo"}

func newTestStore(t *testing.T) (*TripStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, "IC NUIT"), mock
}

func TestDirectLegsSingleValuesUseEquality(t *testing.T) {
	ts, mock := newTestStore(t)

	rows := sqlmock.NewRows(testLegColumns).
		AddRow(7, "2025-07-12", "PARIS (intramuros)", "LYON PART DIEU", "08:00", "10:00", "6603", "SUD EST", "OUI")
	mock.ExpectQuery(`origine = \$1\s+AND\s+destination = \$2\s+AND\s+date = \$3`).
		WithArgs("PARIS (intramuros)", "LYON PART DIEU", "2025-07-12", "IC NUIT").
		WillReturnRows(rows)

	legs, err := ts.DirectLegs(context.Background(),
		[]string{"2025-07-12"}, []string{"PARIS (intramuros)"}, []string{"LYON PART DIEU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(legs))
	}
	if legs[0].UID != 7 || legs[0].TrainNo != "6603" || !legs[0].Available() {
		t.Errorf("unexpected leg mapping: %+v", legs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDirectLegsMultipleValuesUseIn(t *testing.T) {
	ts, mock := newTestStore(t)

	mock.ExpectQuery(`origine IN \(\$1, \$2\)\s+AND\s+destination = \$3`).
		WithArgs("PARIS (intramuros)", "MASSY TGV", "LYON PART DIEU", "2025-07-12", "IC NUIT").
		WillReturnRows(sqlmock.NewRows(testLegColumns))

	_, err := ts.DirectLegs(context.Background(),
		[]string{"2025-07-12"}, []string{"PARIS (intramuros)", "MASSY TGV"}, []string{"LYON PART DIEU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCandidateLegsFilterTouchesEitherEnd(t *testing.T) {
	ts, mock := newTestStore(t)

	rows := sqlmock.NewRows(testLegColumns).
		AddRow(1, "2025-07-12", "PARIS (intramuros)", "DIJON", "09:00", "10:30", "1001", "SUD EST", "OUI").
		AddRow(2, "2025-07-12", "DIJON", "LYON PART DIEU", "11:00", "12:00", "1002", "SUD EST", "OUI")
	mock.ExpectQuery(`AND \(origine = \$2 OR destination = \$3\)`).
		WithArgs("2025-07-12", "PARIS (intramuros)", "LYON PART DIEU", "IC NUIT").
		WillReturnRows(rows)

	legs, err := ts.CandidateLegs(context.Background(),
		[]string{"2025-07-12"}, []string{"PARIS (intramuros)"}, []string{"LYON PART DIEU"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}
}

func TestTownsSorted(t *testing.T) {
	ts, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"town"}).
		AddRow("PARIS (intramuros)").
		AddRow("AVIGNON TGV").
		AddRow("LYON PART DIEU")
	mock.ExpectQuery("SELECT DISTINCT origine").WillReturnRows(rows)

	towns, err := ts.Towns(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"AVIGNON TGV", "LYON PART DIEU", "PARIS (intramuros)"}
	if !reflect.DeepEqual(towns, want) {
		t.Errorf("towns = %v, want %v", towns, want)
	}
}

func TestRoundTripsMapping(t *testing.T) {
	ts, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{
		"destination", "heure_depart", "heure_arrivee", "heure_depart", "heure_arrivee",
		"train_no", "train_no", "axe", "axe",
	}).AddRow("LYON PART DIEU", "08:00", "10:00", "18:00", "20:00", "6603", "6618", "SUD EST", "SUD EST")
	mock.ExpectQuery("FROM tgvmax AS aller").
		WithArgs("2025-07-12", "PARIS (intramuros)", "IC NUIT", "2025-07-13", "10:00").
		WillReturnRows(rows)

	trips, err := ts.RoundTrips(context.Background(), "PARIS (intramuros)", "2025-07-12", "2025-07-13", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("expected 1 round trip, got %d", len(trips))
	}
	got := trips[0]
	if got.Destination != "LYON PART DIEU" || got.OutboundDeparture != "08:00" ||
		got.ReturnArrival != "20:00" || got.ReturnTrain != "6618" {
		t.Errorf("unexpected mapping: %+v", got)
	}
}
