package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/pkg/metrics"
)

// aggregateCategory labels the single score row written per inspection.
const aggregateCategory = "aggregate"

const (
	inspectionColumns = `i.inspection_id, chi.cadet_cadet_id, i.inspection_date, i.inspector_cap_id, i.total_score, i.rating, i.comments, i.inspection_score_id`

	sqlInspectionScoreInsert = `INSERT INTO inspection_score (category, score) VALUES (?, ?)`
	sqlInspectionInsert      = `INSERT INTO inspection (inspection_date, inspector_cap_id, total_score, rating, comments, inspection_score_id) VALUES (?, ?, ?, ?, ?, ?)`
	sqlInspectionLinkCadet   = `INSERT INTO cadet_has_inspection (cadet_cadet_id, inspection_inspection_id) VALUES (?, ?)`

	sqlInspectionGet = `SELECT ` + inspectionColumns + ` FROM inspection i ` +
		`LEFT JOIN cadet_has_inspection chi ON chi.inspection_inspection_id = i.inspection_id WHERE i.inspection_id = ? LIMIT 1`
	sqlCadetInspections = `SELECT ` + inspectionColumns + ` FROM cadet_has_inspection chi ` +
		`JOIN inspection i ON chi.inspection_inspection_id = i.inspection_id WHERE chi.cadet_cadet_id = ? ` +
		`ORDER BY i.inspection_date DESC, i.inspection_id DESC`

	sqlInspectionScoreID     = `SELECT inspection_score_id FROM inspection WHERE inspection_id = ? FOR UPDATE`
	sqlInspectionUnlinkCadet = `DELETE FROM cadet_has_inspection WHERE inspection_inspection_id = ?`
	sqlInspectionDelete      = `DELETE FROM inspection WHERE inspection_id = ?`
	sqlInspectionScoreDelete = `DELETE FROM inspection_score WHERE inspection_score_id = ?`
)

func scanInspection(sc scanner) (model.Inspection, error) {
	var (
		in        model.Inspection
		cadetID   sql.NullInt64
		on        sql.NullTime
		inspector sql.NullString
		total     sql.NullFloat64
		rating    sql.NullString
		comments  sql.NullString
		scoreID   sql.NullInt64
	)
	if err := sc.Scan(&in.ID, &cadetID, &on, &inspector, &total, &rating, &comments, &scoreID); err != nil {
		return model.Inspection{}, err
	}
	in.CadetID = cadetID.Int64
	if on.Valid {
		in.InspectionDate = model.NewDate(on.Time)
	}
	in.InspectorCapID = inspector.String
	in.TotalScore = total.Float64
	in.Rating = rating.String
	in.Comments = comments.String
	in.ScoreID = scoreID.Int64
	return in, nil
}

// CreateInspection implements InspectionStore.CreateInspection.
// A zero inspection date means today.
func (s *MySQLStore) CreateInspection(ctx context.Context, in model.NewInspection) (id int64, err error) {
	const op = "create_inspection"
	defer s.track(op, time.Now(), &err)

	on := in.InspectionDate
	if on.IsZero() {
		on = model.NewDate(s.now())
	}

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		scoreID, err := insertID(tx.ExecContext(ctx, sqlInspectionScoreInsert, aggregateCategory, in.TotalScore))
		if err != nil {
			return err
		}
		id, err = insertID(tx.ExecContext(ctx, sqlInspectionInsert,
			on.Arg(), in.InspectorCapID, in.TotalScore, in.Rating, in.Comments, scoreID))
		if err != nil {
			return err
		}
		if in.CadetID > 0 {
			_, err = tx.ExecContext(ctx, sqlInspectionLinkCadet, in.CadetID, id)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordEntityCreated("inspection")
	return id, nil
}

// GetInspection implements InspectionStore.GetInspection.
func (s *MySQLStore) GetInspection(ctx context.Context, id int64) (out model.Inspection, err error) {
	defer s.track("get_inspection", time.Now(), &err)
	return queryOne(ctx, s.db, sqlInspectionGet, scanInspection, id)
}

// CadetInspections implements InspectionStore.CadetInspections.
func (s *MySQLStore) CadetInspections(ctx context.Context, cadetID int64) (out []model.Inspection, err error) {
	defer s.track("cadet_inspections", time.Now(), &err)
	return queryAll(ctx, s.db, sqlCadetInspections, scanInspection, cadetID)
}

// DeleteInspection implements InspectionStore.DeleteInspection. A missing
// inspection deletes nothing and reports zero rows.
func (s *MySQLStore) DeleteInspection(ctx context.Context, id int64) (n int64, err error) {
	const op = "delete_inspection"
	defer s.track(op, time.Now(), &err)

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		var scoreID sql.NullInt64
		err := tx.QueryRowContext(ctx, sqlInspectionScoreID, id).Scan(&scoreID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlInspectionUnlinkCadet, id); err != nil {
			return err
		}
		if n, err = affected(tx.ExecContext(ctx, sqlInspectionDelete, id)); err != nil {
			return err
		}
		if scoreID.Valid {
			_, err = tx.ExecContext(ctx, sqlInspectionScoreDelete, scoreID.Int64)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordEntitiesDeleted("inspection", n)
	return n, nil
}
