package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/okian/cadettracker/internal/domain/model"
	"github.com/okian/cadettracker/pkg/metrics"
)

const (
	reportColumns = `report_id, cadet_cadet_id, report_type, description, Incident_date, resolved, resolved_by`

	sqlReportList   = `SELECT ` + reportColumns + ` FROM report ORDER BY Incident_date DESC LIMIT 500`
	sqlReportGet    = `SELECT ` + reportColumns + ` FROM report WHERE report_id = ?`
	sqlReportInsert = `INSERT INTO report (cadet_cadet_id, report_type, description, created_by, Incident_date, resolved, resolved_by) VALUES (?, ?, ?, NULL, ?, ?, ?)`
	sqlReportDelete = `DELETE FROM report WHERE report_id = ?`
	sqlCadetReports = `SELECT ` + reportColumns + ` FROM report WHERE cadet_cadet_id = ? ORDER BY Incident_date DESC`
)

func scanReport(sc scanner) (model.Report, error) {
	var (
		r            model.Report
		reportType   sql.NullString
		description  sql.NullString
		incidentDate sql.NullTime
		resolved     sql.NullBool
		resolvedBy   sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.CadetID, &reportType, &description, &incidentDate, &resolved, &resolvedBy); err != nil {
		return model.Report{}, err
	}
	r.ReportType = reportType.String
	r.Description = description.String
	if incidentDate.Valid {
		r.IncidentDate = model.NewDate(incidentDate.Time)
	}
	r.Resolved = resolved.Bool
	r.ResolvedBy = nullString(resolvedBy)
	return r, nil
}

// ListReports implements ReportStore.ListReports.
func (s *MySQLStore) ListReports(ctx context.Context) (out []model.Report, err error) {
	defer s.track("list_reports", time.Now(), &err)
	return queryAll(ctx, s.db, sqlReportList, scanReport)
}

// GetReport implements ReportStore.GetReport.
func (s *MySQLStore) GetReport(ctx context.Context, id int64) (r model.Report, err error) {
	defer s.track("get_report", time.Now(), &err)
	return queryOne(ctx, s.db, sqlReportGet, scanReport, id)
}

// CreateReport implements ReportStore.CreateReport.
func (s *MySQLStore) CreateReport(ctx context.Context, in model.NewReport) (id int64, err error) {
	defer s.track("create_report", time.Now(), &err)

	id, err = insertID(s.db.ExecContext(ctx, sqlReportInsert,
		in.CadetID, in.ReportType, in.Description, in.IncidentDate.Arg(), bool(in.Resolved), stringArg(in.ResolvedBy)))
	if err == nil {
		metrics.RecordEntityCreated("report")
	}
	return id, err
}

// UpdateReport implements ReportStore.UpdateReport.
func (s *MySQLStore) UpdateReport(ctx context.Context, id int64, p model.ReportPatch) (n int64, err error) {
	defer s.track("update_report", time.Now(), &err)

	var sets []assignment
	if p.ReportType != nil {
		sets = append(sets, assignment{"report_type", *p.ReportType})
	}
	if p.Description != nil {
		sets = append(sets, assignment{"description", *p.Description})
	}
	if p.IncidentDate != nil {
		sets = append(sets, assignment{"Incident_date", p.IncidentDate.Arg()})
	}
	if p.Resolved != nil {
		sets = append(sets, assignment{"resolved", bool(*p.Resolved)})
	}
	if p.ResolvedBy != nil {
		sets = append(sets, assignment{"resolved_by", *p.ResolvedBy})
	}
	return s.update(ctx, "report", "report_id", sets, id)
}

// DeleteReport implements ReportStore.DeleteReport.
func (s *MySQLStore) DeleteReport(ctx context.Context, id int64) (n int64, err error) {
	defer s.track("delete_report", time.Now(), &err)

	n, err = affected(s.db.ExecContext(ctx, sqlReportDelete, id))
	if err == nil {
		metrics.RecordEntitiesDeleted("report", n)
	}
	return n, err
}
