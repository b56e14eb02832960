// Package repository is the data-access layer over the cadet_tracker MySQL schema.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/okian/cadettracker/internal/domain/model"
)

// Store provides read/write access to the cadet tracker tables.
// Single-row getters return ErrNotFound when no row matches. Updates and
// deletes return the affected row count. Constraint violations are reported
// as ErrConflict.
type Store interface {
	CadetStore
	ReportStore
	PositionStore
	RankStore
	RequirementStore
	InspectionStore

	// Ping runs SELECT 1.
	Ping(ctx context.Context) error
	// Database returns the current schema name.
	Database(ctx context.Context) (string, error)
	// Stats reports connection pool statistics.
	Stats() sql.DBStats
	Close() error
}

// CadetStore covers the cadet table and the per-cadet views used by profiles.
type CadetStore interface {
	ListCadets(ctx context.Context) ([]model.Cadet, error)
	// SearchCadets matches q against "first last" and cap_id.
	SearchCadets(ctx context.Context, q string) ([]model.Cadet, error)
	GetCadet(ctx context.Context, id int64) (model.Cadet, error)
	CreateCadet(ctx context.Context, in model.NewCadet) (int64, error)
	UpdateCadet(ctx context.Context, id int64, p model.CadetPatch) (int64, error)
	// DeleteCadet removes the cadet's rank, completion and position rows
	// and then the cadet, in one transaction.
	DeleteCadet(ctx context.Context, id int64) (int64, error)

	CadetSummary(ctx context.Context, id int64) (model.CadetSummary, error)
	CadetReports(ctx context.Context, id int64) ([]model.Report, error)
	CadetPositions(ctx context.Context, id int64) ([]model.Position, error)
}

// ReportStore covers the report table.
type ReportStore interface {
	ListReports(ctx context.Context) ([]model.Report, error)
	GetReport(ctx context.Context, id int64) (model.Report, error)
	CreateReport(ctx context.Context, in model.NewReport) (int64, error)
	UpdateReport(ctx context.Context, id int64, p model.ReportPatch) (int64, error)
	DeleteReport(ctx context.Context, id int64) (int64, error)
}

// PositionStore covers positions and their cadet assignments.
type PositionStore interface {
	ListPositions(ctx context.Context) ([]model.Position, error)
	GetPosition(ctx context.Context, id int64) (model.Position, error)
	CreatePosition(ctx context.Context, in model.NewPosition) (int64, error)
	UpdatePosition(ctx context.Context, id int64, p model.PositionPatch) (int64, error)
	// DeletePosition removes the position's assignments and then the position,
	// in one transaction.
	DeletePosition(ctx context.Context, id int64) (int64, error)
	AssignCadet(ctx context.Context, positionID, cadetID int64) (int64, error)
	UnassignCadet(ctx context.Context, positionID, cadetID int64) (int64, error)
}

// RankStore covers ranks and the ranks held by cadets.
type RankStore interface {
	ListRanks(ctx context.Context) ([]model.Rank, error)
	CadetRanks(ctx context.Context, cadetID int64) ([]model.CadetRank, error)
	// AwardRank records that the cadet holds the rank. Awarding a held rank
	// again updates its date.
	AwardRank(ctx context.Context, cadetID, rankID int64, received time.Time) (int64, error)
}

// RequirementStore covers requirements, their rank links and cadet completions.
type RequirementStore interface {
	RequirementsForRank(ctx context.Context, rankID int64) ([]model.Requirement, error)
	// CreateRequirement inserts the requirement and, for a positive RankID,
	// its rank link in one transaction.
	CreateRequirement(ctx context.Context, in model.NewRequirement) (int64, error)
	UpdateRequirement(ctx context.Context, id int64, p model.RequirementPatch) (int64, error)
	// DeleteRequirement removes rank links and completions and then the
	// requirement, in one transaction.
	DeleteRequirement(ctx context.Context, id int64) (int64, error)
	// LinkRequirement is idempotent.
	LinkRequirement(ctx context.Context, rankID, requirementID int64) (int64, error)
	UnlinkRequirement(ctx context.Context, rankID, requirementID int64) (int64, error)

	Completions(ctx context.Context, cadetID int64) ([]model.Completion, error)
	CompleteRequirement(ctx context.Context, cadetID, requirementID int64, on time.Time) (int64, error)
	UncompleteRequirement(ctx context.Context, cadetID, requirementID int64) (int64, error)
}

// InspectionStore covers inspections, their aggregate score and cadet link.
type InspectionStore interface {
	// CreateInspection inserts the score row, the inspection row and, for a
	// positive CadetID, the cadet link in one transaction.
	CreateInspection(ctx context.Context, in model.NewInspection) (int64, error)
	GetInspection(ctx context.Context, id int64) (model.Inspection, error)
	CadetInspections(ctx context.Context, cadetID int64) ([]model.Inspection, error)
	// DeleteInspection removes the cadet link, the inspection and its score
	// row, in that order, in one transaction.
	DeleteInspection(ctx context.Context, id int64) (int64, error)
}
