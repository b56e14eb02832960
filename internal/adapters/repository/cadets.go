package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/pkg/metrics"
)

const (
	cadetColumns = `cadet_id, cap_id, first_name, last_name, date_of_birth`

	sqlCadetList   = `SELECT ` + cadetColumns + ` FROM cadet ORDER BY last_name, first_name LIMIT 200`
	sqlCadetSearch = `SELECT ` + cadetColumns + ` FROM cadet WHERE CONCAT(first_name, ' ', last_name) LIKE ? OR CAST(cap_id AS CHAR) LIKE ? ORDER BY last_name, first_name LIMIT 200`
	sqlCadetGet    = `SELECT ` + cadetColumns + ` FROM cadet WHERE cadet_id = ?`
	sqlCadetInsert = `INSERT INTO cadet (cap_id, first_name, last_name, date_of_birth) VALUES (?, ?, ?, ?)`

	sqlCadetUnlinkRanks        = `DELETE FROM rank_has_cadet WHERE cadet_cadet_id = ?`
	sqlCadetUnlinkRequirements = `DELETE FROM cadet_has_requirement WHERE cadet_cadet_id = ?`
	sqlCadetUnlinkPositions    = `DELETE FROM position_has_cadet WHERE cadet_cadet_id = ?`
	sqlCadetDelete             = `DELETE FROM cadet WHERE cadet_id = ?`

	sqlCadetSummary = `SELECT c.cadet_id, c.cap_id, c.first_name, c.last_name, c.date_of_birth, ` +
		`(SELECT COUNT(*) FROM report r WHERE r.cadet_cadet_id = c.cadet_id) AS report_count ` +
		`FROM cadet c WHERE c.cadet_id = ?`
	sqlCadetPositions = "SELECT p.position_id, p.position_name, p.line, p.level FROM position_has_cadet phc " +
		"JOIN `position` p ON phc.position_position_id = p.position_id WHERE phc.cadet_cadet_id = ? ORDER BY p.position_id"
)

func scanCadet(sc scanner) (model.Cadet, error) {
	var (
		c   model.Cadet
		dob sql.NullTime
	)
	if err := sc.Scan(&c.ID, &c.CapID, &c.FirstName, &c.LastName, &dob); err != nil {
		return model.Cadet{}, err
	}
	if dob.Valid {
		c.DateOfBirth = model.NewDate(dob.Time)
	}
	return c, nil
}

// ListCadets implements CadetStore.ListCadets.
func (s *MySQLStore) ListCadets(ctx context.Context) (out []model.Cadet, err error) {
	defer s.track("list_cadets", time.Now(), &err)
	return queryAll(ctx, s.db, sqlCadetList, scanCadet)
}

// SearchCadets implements CadetStore.SearchCadets. An empty q lists all cadets.
func (s *MySQLStore) SearchCadets(ctx context.Context, q string) (out []model.Cadet, err error) {
	if q == "" {
		return s.ListCadets(ctx)
	}
	defer s.track("search_cadets", time.Now(), &err)
	like := "%" + q + "%"
	return queryAll(ctx, s.db, sqlCadetSearch, scanCadet, like, like)
}

// GetCadet implements CadetStore.GetCadet.
func (s *MySQLStore) GetCadet(ctx context.Context, id int64) (c model.Cadet, err error) {
	defer s.track("get_cadet", time.Now(), &err)
	return queryOne(ctx, s.db, sqlCadetGet, scanCadet, id)
}

// CreateCadet implements CadetStore.CreateCadet.
func (s *MySQLStore) CreateCadet(ctx context.Context, in model.NewCadet) (id int64, err error) {
	defer s.track("create_cadet", time.Now(), &err)

	id, err = insertID(s.db.ExecContext(ctx, sqlCadetInsert, in.CapID, in.FirstName, in.LastName, in.DateOfBirth.Arg()))
	if err == nil {
		metrics.RecordEntityCreated("cadet")
	}
	return id, err
}

// UpdateCadet implements CadetStore.UpdateCadet.
func (s *MySQLStore) UpdateCadet(ctx context.Context, id int64, p model.CadetPatch) (n int64, err error) {
	defer s.track("update_cadet", time.Now(), &err)

	var sets []assignment
	if p.CapID != nil {
		sets = append(sets, assignment{"cap_id", *p.CapID})
	}
	if p.FirstName != nil {
		sets = append(sets, assignment{"first_name", *p.FirstName})
	}
	if p.LastName != nil {
		sets = append(sets, assignment{"last_name", *p.LastName})
	}
	if p.DateOfBirth != nil {
		sets = append(sets, assignment{"date_of_birth", p.DateOfBirth.Arg()})
	}
	return s.update(ctx, "cadet", "cadet_id", sets, id)
}

// DeleteCadet implements CadetStore.DeleteCadet. Reports and inspections are
// not removed; a cadet that still has them fails with ErrConflict.
func (s *MySQLStore) DeleteCadet(ctx context.Context, id int64) (n int64, err error) {
	const op = "delete_cadet"
	defer s.track(op, time.Now(), &err)

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		for _, q := range []string{sqlCadetUnlinkRanks, sqlCadetUnlinkRequirements, sqlCadetUnlinkPositions} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		var err error
		n, err = affected(tx.ExecContext(ctx, sqlCadetDelete, id))
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordEntitiesDeleted("cadet", n)
	return n, nil
}

// CadetSummary implements CadetStore.CadetSummary.
func (s *MySQLStore) CadetSummary(ctx context.Context, id int64) (out model.CadetSummary, err error) {
	defer s.track("cadet_summary", time.Now(), &err)

	return queryOne(ctx, s.db, sqlCadetSummary, func(sc scanner) (model.CadetSummary, error) {
		var (
			cs  model.CadetSummary
			dob sql.NullTime
		)
		if err := sc.Scan(&cs.ID, &cs.CapID, &cs.FirstName, &cs.LastName, &dob, &cs.ReportCount); err != nil {
			return model.CadetSummary{}, err
		}
		if dob.Valid {
			cs.DateOfBirth = model.NewDate(dob.Time)
		}
		return cs, nil
	}, id)
}

// CadetReports implements CadetStore.CadetReports.
func (s *MySQLStore) CadetReports(ctx context.Context, id int64) (out []model.Report, err error) {
	defer s.track("cadet_reports", time.Now(), &err)
	return queryAll(ctx, s.db, sqlCadetReports, scanReport, id)
}

// CadetPositions implements CadetStore.CadetPositions.
func (s *MySQLStore) CadetPositions(ctx context.Context, id int64) (out []model.Position, err error) {
	defer s.track("cadet_positions", time.Now(), &err)
	return queryAll(ctx, s.db, sqlCadetPositions, scanPosition, id)
}
