package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/pkg/metrics"
)

const (
	sqlRankList   = "SELECT rank_id, rank_name, rank_order FROM `rank` ORDER BY rank_order ASC"
	sqlCadetRanks = "SELECT r.rank_id, r.rank_name, r.rank_order, rh.date_received FROM rank_has_cadet rh " +
		"JOIN `rank` r ON rh.rank_rank_id = r.rank_id WHERE rh.cadet_cadet_id = ? ORDER BY r.rank_order ASC"
	sqlRankAward = `INSERT INTO rank_has_cadet (rank_rank_id, cadet_cadet_id, date_received) VALUES (?, ?, ?) ` +
		`ON DUPLICATE KEY UPDATE date_received = VALUES(date_received)`

	sqlRequirementsForRank = `SELECT r.requirement_id, r.requirement_name, r.description FROM rank_has_requirement rr ` +
		`JOIN requirement r ON rr.rank_requirement_requirement_id = r.requirement_id WHERE rr.rank_rank_id = ? ORDER BY r.requirement_id`
	sqlRequirementInsert = `INSERT INTO requirement (requirement_name, description) VALUES (?, ?)`
	sqlRequirementLink   = `INSERT INTO rank_has_requirement (rank_rank_id, rank_requirement_requirement_id) VALUES (?, ?)`
	// Re-linking an existing pair matches one row and changes nothing.
	sqlRequirementLinkIdempotent = sqlRequirementLink + ` ON DUPLICATE KEY UPDATE rank_rank_id = rank_rank_id`
	sqlRequirementUnlink         = `DELETE FROM rank_has_requirement WHERE rank_rank_id = ? AND rank_requirement_requirement_id = ?`
	sqlRequirementUnlinkAll      = `DELETE FROM rank_has_requirement WHERE rank_requirement_requirement_id = ?`
	sqlRequirementUncompleteAll  = `DELETE FROM cadet_has_requirement WHERE requirement_requirement_id = ?`
	sqlRequirementDelete         = `DELETE FROM requirement WHERE requirement_id = ?`

	sqlCompletions = `SELECT requirement_requirement_id, date_completed FROM cadet_has_requirement WHERE cadet_cadet_id = ? ORDER BY requirement_requirement_id`
	sqlComplete    = `INSERT INTO cadet_has_requirement (cadet_cadet_id, requirement_requirement_id, date_completed) VALUES (?, ?, ?) ` +
		`ON DUPLICATE KEY UPDATE date_completed = VALUES(date_completed)`
	sqlUncomplete = `DELETE FROM cadet_has_requirement WHERE cadet_cadet_id = ? AND requirement_requirement_id = ?`
)

func scanRank(sc scanner) (model.Rank, error) {
	var r model.Rank
	if err := sc.Scan(&r.ID, &r.Name, &r.Order); err != nil {
		return model.Rank{}, err
	}
	return r, nil
}

func scanRequirement(sc scanner) (model.Requirement, error) {
	var (
		r    model.Requirement
		desc sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Name, &desc); err != nil {
		return model.Requirement{}, err
	}
	r.Description = desc.String
	return r, nil
}

// ListRanks implements RankStore.ListRanks.
func (s *MySQLStore) ListRanks(ctx context.Context) (out []model.Rank, err error) {
	defer s.track("list_ranks", time.Now(), &err)
	return queryAll(ctx, s.db, sqlRankList, scanRank)
}

// CadetRanks implements RankStore.CadetRanks.
func (s *MySQLStore) CadetRanks(ctx context.Context, cadetID int64) (out []model.CadetRank, err error) {
	defer s.track("cadet_ranks", time.Now(), &err)

	return queryAll(ctx, s.db, sqlCadetRanks, func(sc scanner) (model.CadetRank, error) {
		var (
			cr       model.CadetRank
			received sql.NullTime
		)
		if err := sc.Scan(&cr.ID, &cr.Name, &cr.Order, &received); err != nil {
			return model.CadetRank{}, err
		}
		if received.Valid {
			cr.DateReceived = model.NewDate(received.Time)
		}
		return cr, nil
	}, cadetID)
}

// AwardRank implements RankStore.AwardRank.
func (s *MySQLStore) AwardRank(ctx context.Context, cadetID, rankID int64, received time.Time) (n int64, err error) {
	defer s.track("award_rank", time.Now(), &err)

	if received.IsZero() {
		received = s.now()
	}
	return affected(s.db.ExecContext(ctx, sqlRankAward, rankID, cadetID, model.NewDate(received).Arg()))
}

// RequirementsForRank implements RequirementStore.RequirementsForRank.
func (s *MySQLStore) RequirementsForRank(ctx context.Context, rankID int64) (out []model.Requirement, err error) {
	defer s.track("requirements_for_rank", time.Now(), &err)
	return queryAll(ctx, s.db, sqlRequirementsForRank, scanRequirement, rankID)
}

// CreateRequirement implements RequirementStore.CreateRequirement.
func (s *MySQLStore) CreateRequirement(ctx context.Context, in model.NewRequirement) (id int64, err error) {
	const op = "create_requirement"
	defer s.track(op, time.Now(), &err)

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		var err error
		id, err = insertID(tx.ExecContext(ctx, sqlRequirementInsert, in.Name, in.Description))
		if err != nil {
			return err
		}
		if in.RankID > 0 {
			_, err = tx.ExecContext(ctx, sqlRequirementLink, in.RankID, id)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordEntityCreated("requirement")
	return id, nil
}

// UpdateRequirement implements RequirementStore.UpdateRequirement.
func (s *MySQLStore) UpdateRequirement(ctx context.Context, id int64, p model.RequirementPatch) (n int64, err error) {
	defer s.track("update_requirement", time.Now(), &err)

	var sets []assignment
	if p.Name != nil {
		sets = append(sets, assignment{"requirement_name", *p.Name})
	}
	if p.Description != nil {
		sets = append(sets, assignment{"description", *p.Description})
	}
	return s.update(ctx, "requirement", "requirement_id", sets, id)
}

// DeleteRequirement implements RequirementStore.DeleteRequirement.
func (s *MySQLStore) DeleteRequirement(ctx context.Context, id int64) (n int64, err error) {
	const op = "delete_requirement"
	defer s.track(op, time.Now(), &err)

	err = s.withTx(ctx, op, func(tx *sql.Tx) error {
		for _, q := range []string{sqlRequirementUnlinkAll, sqlRequirementUncompleteAll} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		var err error
		n, err = affected(tx.ExecContext(ctx, sqlRequirementDelete, id))
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordEntitiesDeleted("requirement", n)
	return n, nil
}

// LinkRequirement implements RequirementStore.LinkRequirement.
func (s *MySQLStore) LinkRequirement(ctx context.Context, rankID, requirementID int64) (n int64, err error) {
	defer s.track("link_requirement", time.Now(), &err)
	return affected(s.db.ExecContext(ctx, sqlRequirementLinkIdempotent, rankID, requirementID))
}

// UnlinkRequirement implements RequirementStore.UnlinkRequirement.
func (s *MySQLStore) UnlinkRequirement(ctx context.Context, rankID, requirementID int64) (n int64, err error) {
	defer s.track("unlink_requirement", time.Now(), &err)
	return affected(s.db.ExecContext(ctx, sqlRequirementUnlink, rankID, requirementID))
}

// Completions implements RequirementStore.Completions.
func (s *MySQLStore) Completions(ctx context.Context, cadetID int64) (out []model.Completion, err error) {
	defer s.track("completions", time.Now(), &err)

	return queryAll(ctx, s.db, sqlCompletions, func(sc scanner) (model.Completion, error) {
		var (
			c  model.Completion
			on sql.NullTime
		)
		if err := sc.Scan(&c.RequirementID, &on); err != nil {
			return model.Completion{}, err
		}
		if on.Valid {
			c.DateCompleted = model.NewDate(on.Time)
		}
		return c, nil
	}, cadetID)
}

// CompleteRequirement implements RequirementStore.CompleteRequirement.
// A zero date means today.
func (s *MySQLStore) CompleteRequirement(ctx context.Context, cadetID, requirementID int64, on time.Time) (n int64, err error) {
	defer s.track("complete_requirement", time.Now(), &err)

	if on.IsZero() {
		on = s.now()
	}
	return affected(s.db.ExecContext(ctx, sqlComplete, cadetID, requirementID, model.NewDate(on).Arg()))
}

// UncompleteRequirement implements RequirementStore.UncompleteRequirement.
func (s *MySQLStore) UncompleteRequirement(ctx context.Context, cadetID, requirementID int64) (n int64, err error) {
	defer s.track("uncomplete_requirement", time.Now(), &err)
	return affected(s.db.ExecContext(ctx, sqlUncomplete, cadetID, requirementID))
}
