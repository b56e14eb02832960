package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/pkg/metrics"
)

const (
	sqlPositionList         = "SELECT position_id, position_name, line, level FROM `position` ORDER BY position_id"
	sqlPositionGet          = "SELECT position_id, position_name, line, level FROM `position` WHERE position_id = ?"
	sqlPositionInsert       = "INSERT INTO `position` (position_name, line, level) VALUES (?, ?, ?)"
	sqlPositionUnlinkCadets = `DELETE FROM position_has_cadet WHERE position_position_id = ?`
	sqlPositionDelete       = "DELETE FROM `position` WHERE position_id = ?"
	sqlPositionAssign       = `INSERT INTO position_has_cadet (position_position_id, cadet_cadet_id) VALUES (?, ?)`
	sqlPositionUnassign     = `DELETE FROM position_has_cadet WHERE position_position_id = ? AND cadet_cadet_id = ?`
)

func scanPosition(sc scanner) (model.Position, error) {
	var (
		p     model.Position
		line  sql.NullInt64
		level sql.NullString
	)
	if err := sc.Scan(&p.ID, &p.Name, &line, &level); err != nil {
		return model.Position{}, err
	}
	p.Line = int(line.Int64)
	p.Level = level.String
	return p, nil
}

// ListPositions implements PositionStore.ListPositions.
func (s *MySQLStore) ListPositions(ctx context.Context) (out []model.Position, err error) {
	defer s.track("list_positions", time.Now(), &err)
	return queryAll(ctx, s.db, sqlPositionList, scanPosition)
}

// GetPosition implements PositionStore.GetPosition.
func (s *MySQLStore) GetPosition(ctx context.Context, id int64) (p model.Position, err error) {
	defer s.track("get_position", time.Now(), &err)
	return queryOne(ctx, s.db, sqlPositionGet, scanPosition, id)
}

// CreatePosition implements PositionStore.CreatePosition.
func (s *MySQLStore) CreatePosition(ctx context.Context, in model.NewPosition) (id int64, err error) {
	defer s.track("create_position", time.Now(), &err)

	id, err = insertID(s.db.ExecContext(ctx, sqlPositionInsert, in.Name, in.Line, in.Level))
	if err == nil {
		metrics.RecordEntityCreated("position")
	}
	return id, err
}

// UpdatePosition implements PositionStore.UpdatePosition.
func (s *MySQLStore) UpdatePosition(ctx context.Context, id int64, p model.PositionPatch) (n int64, err error) {
	defer s.track("update_position", time.Now(), &err)

	var sets []assignment
	if p.Name != nil {
		sets = append(sets, assignment{"position_name", *p.Name})
	}
	if p.Line != nil {
		sets = append(sets, assignment{"line", *p.Line})
	}
	if p.Level != nil {
		sets = append(sets, assignment{"level", *p.Level})
	}
	return s.update(ctx, "`position`", "position_id", sets, id)
}

// DeletePosition implements PositionStore.DeletePosition.
func (s *MySQLStore) DeletePosition(ctx context.Context, id int64) (n int64, err error) {
	const op = "delete_position"
	defer s.track(op, time.Now(), &err)

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlPositionUnlinkCadets, id); err != nil {
			return err
		}
		var err error
		n, err = affected(tx.ExecContext(ctx, sqlPositionDelete, id))
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordEntitiesDeleted("position", n)
	return n, nil
}

// AssignCadet implements PositionStore.AssignCadet. Assigning twice is a conflict.
func (s *MySQLStore) AssignCadet(ctx context.Context, positionID, cadetID int64) (n int64, err error) {
	defer s.track("assign_cadet", time.Now(), &err)
	return affected(s.db.ExecContext(ctx, sqlPositionAssign, positionID, cadetID))
}

// UnassignCadet implements PositionStore.UnassignCadet.
func (s *MySQLStore) UnassignCadet(ctx context.Context, positionID, cadetID int64) (n int64, err error) {
	defer s.track("unassign_cadet", time.Now(), &err)
	return affected(s.db.ExecContext(ctx, sqlPositionUnassign, positionID, cadetID))
}
