// Package repair corrects the availability inconsistencies the upstream feed
// ships: sub-segments cut out of longer available segments (coupures) and
// direct segments achievable via chained available legs (soudures). It then
// removes every leg still unavailable so the search path stays cheap.
package repair

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

// MaxSoudurePasses bounds the fixed-point iteration over splice repairs.
const MaxSoudurePasses = 10

// Engine runs the repair steps against the tgvmax table. Each step scans in one
// read and writes in one transaction; a failed step aborts the whole run.
type Engine struct {
	db *sql.DB
}

func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// Summary reports what one full optimization run changed.
type Summary struct {
	CoupureFixes          int
	SoudureFixes          int
	TripsDeleted          int64
	NewAvailableTrips     int
	FinalAvailabilityRate float64
	TotalTime             time.Duration
}

// coupureScan finds unavailable legs provably covered by a longer available
// segment of the same train: same date, same origin, same departure, with the
// short leg's arrival strictly inside the long leg's span.
const coupureScan = `
    SELECT b.uid
    FROM tgvmax b
    WHERE b.dispo <> 'OUI'
      AND EXISTS (
        SELECT 1 FROM tgvmax c
        WHERE c.dispo = 'OUI'
          AND c.date = b.date
          AND c.train_no = b.train_no
          AND c.origine = b.origine
          AND c.heure_depart = b.heure_depart
          AND b.heure_arrivee > c.heure_depart
          AND b.heure_arrivee < c.heure_arrivee
      )`

// soudureScan finds unavailable legs achievable by chaining two available legs
// of the same train with no gap between them.
const soudureScan = `
    SELECT a.uid
    FROM tgvmax a
    WHERE a.dispo <> 'OUI'
      AND EXISTS (
        SELECT 1
        FROM tgvmax l1
        JOIN tgvmax l2
          ON l2.date = l1.date
         AND l2.train_no = l1.train_no
         AND l2.origine = l1.destination
        WHERE l1.dispo = 'OUI' AND l2.dispo = 'OUI'
          AND l1.date = a.date
          AND l1.train_no = a.train_no
          AND l1.origine = a.origine
          AND l2.destination = a.destination
          AND l2.heure_depart >= l1.heure_arrivee
      )`

// RepairCoupures flips every illegitimately cut leg back to available. Returns
// the number of legs fixed.
func (e *Engine) RepairCoupures(ctx context.Context) (int, error) {
	start := time.Now()
	fixed, err := e.repairPass(ctx, coupureScan)
	if err != nil {
		return 0, fmt.Errorf("coupure repair failed: %v", err)
	}
	log.Printf("Coupure repair: %d legs fixed in %v", fixed, time.Since(start))
	return fixed, nil
}

// RepairSoudures flips every illegitimately spliced leg back to available,
// iterating to a fixed point since one fix can enable another. Returns the
// total number of legs fixed across passes.
func (e *Engine) RepairSoudures(ctx context.Context) (int, error) {
	start := time.Now()
	total := 0
	passes := 0
	for passes < MaxSoudurePasses {
		passes++
		fixed, err := e.repairPass(ctx, soudureScan)
		if err != nil {
			return total, fmt.Errorf("soudure repair pass %d failed: %v", passes, err)
		}
		if fixed == 0 {
			break
		}
		total += fixed
		log.Printf("Soudure repair pass %d: %d legs fixed", passes, fixed)
	}
	log.Printf("Soudure repair: %d legs fixed in %d pass(es), %v", total, passes, time.Since(start))
	return total, nil
}

// repairPass scans for repairable legs, then flips them in one transaction.
func (e *Engine) repairPass(ctx context.Context, scanQuery string) (int, error) {
	rows, err := e.db.QueryContext(ctx, scanQuery)
	if err != nil {
		return 0, fmt.Errorf("scan failed: %v", err)
	}
	var uids []int64
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			log.Printf("Skipping unreadable uid row during repair scan: %v", err)
			continue
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("scan failed: %v", err)
	}
	rows.Close()

	if len(uids) == 0 {
		return 0, nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin failed: %v", err)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE tgvmax SET dispo = 'OUI' WHERE uid = ANY($1)`, pq.Array(uids))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("update failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit failed: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return len(uids), nil
	}
	return int(affected), nil
}

// CleanupUnavailable deletes every leg still marked unavailable after the
// repairs. Returns the number of legs deleted.
func (e *Engine) CleanupUnavailable(ctx context.Context) (int64, error) {
	start := time.Now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cleanup begin failed: %v", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tgvmax WHERE dispo <> 'OUI'`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("cleanup failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cleanup commit failed: %v", err)
	}
	deleted, _ := result.RowsAffected()
	log.Printf("Cleanup: %d unavailable legs deleted in %v", deleted, time.Since(start))
	return deleted, nil
}

// RemovePastLegs deletes legs whose date is in the past, or whose departure on
// the current date has already gone by.
func (e *Engine) RemovePastLegs(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	today := now.Format("2006-01-02")
	clock := now.Format("15:04")

	result, err := e.db.ExecContext(ctx,
		`DELETE FROM tgvmax WHERE date < $1 OR (date = $1 AND heure_depart < $2)`,
		today, clock)
	if err != nil {
		return 0, fmt.Errorf("past leg cleanup failed: %v", err)
	}
	removed, _ := result.RowsAffected()
	log.Printf("Past leg cleanup: %d legs removed in %v", removed, time.Since(start))
	return removed, nil
}

// Optimize runs the full repair sequence: coupures, soudures to a fixed point,
// then deletion of everything still unavailable. Any failed step aborts the
// run; nothing is partially applied beyond the steps already committed.
func (e *Engine) Optimize(ctx context.Context) (*Summary, error) {
	start := time.Now()
	log.Printf("Starting database optimization")

	availableBefore, totalBefore, err := e.countLegs(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Before optimization: %d/%d legs available", availableBefore, totalBefore)

	summary := &Summary{}

	summary.CoupureFixes, err = e.RepairCoupures(ctx)
	if err != nil {
		return nil, err
	}
	summary.SoudureFixes, err = e.RepairSoudures(ctx)
	if err != nil {
		return nil, err
	}
	summary.TripsDeleted, err = e.CleanupUnavailable(ctx)
	if err != nil {
		return nil, err
	}

	availableAfter, totalAfter, err := e.countLegs(ctx)
	if err != nil {
		return nil, err
	}
	summary.NewAvailableTrips = availableAfter - availableBefore
	if totalAfter > 0 {
		summary.FinalAvailabilityRate = 100 * float64(availableAfter) / float64(totalAfter)
	}
	summary.TotalTime = time.Since(start)

	log.Printf("After optimization: %d/%d legs available (%.1f%%), took %v",
		availableAfter, totalAfter, summary.FinalAvailabilityRate, summary.TotalTime)
	return summary, nil
}

func (e *Engine) countLegs(ctx context.Context) (available, total int, err error) {
	err = e.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FILTER (WHERE dispo = 'OUI'), COUNT(*) FROM tgvmax`).
		Scan(&available, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("leg count failed: %v", err)
	}
	return available, total, nil
}
