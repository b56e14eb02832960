package model

// Create payloads. Validation tags are presence checks only.

// NewCadet is the body of POST /api/cadets.
type NewCadet struct {
	CapID       string `json:"cap_id" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	DateOfBirth Date   `json:"date_of_birth"`
}

// NewReport is the body of POST /api/reports.
type NewReport struct {
	CadetID      int64   `json:"cadet_cadet_id" validate:"required,gt=0"`
	ReportType   string  `json:"report_type" validate:"required"`
	Description  string  `json:"description"`
	IncidentDate Date    `json:"Incident_date"`
	Resolved     Flag    `json:"resolved"`
	ResolvedBy   *string `json:"resolved_by"`
}

// NewPosition is the body of POST /api/positions.
type NewPosition struct {
	Name  string `json:"position_name" validate:"required"`
	Line  int    `json:"line"`
	Level string `json:"level"`
}

// NewRequirement is the body of POST /api/requirements.
// A positive RankID links the requirement to that rank in the same transaction.
type NewRequirement struct {
	Name        string `json:"requirement_name" validate:"required"`
	Description string `json:"description"`
	RankID      int64  `json:"rank_id" validate:"gte=0"`
}

// NewInspection is the body of POST /api/inspections.
// A zero InspectionDate means today. A zero CadetID skips the cadet link.
type NewInspection struct {
	CadetID        int64   `json:"cadet_id" validate:"gte=0"`
	InspectionDate Date    `json:"inspection_date"`
	InspectorCapID string  `json:"inspector_cap_id"`
	TotalScore     float64 `json:"total_score" validate:"gte=0"`
	Rating         string  `json:"rating"`
	Comments       string  `json:"comments"`
}

// Assignment is the body of POST /api/positions/{id}/cadets.
type Assignment struct {
	CadetID int64 `json:"cadet_id" validate:"required,gt=0"`
}

// RankAward is the body of POST /api/cadets/{id}/ranks.
// A zero DateReceived means today.
type RankAward struct {
	RankID       int64 `json:"rank_id" validate:"required,gt=0"`
	DateReceived Date  `json:"date_received"`
}

// Partial updates. A nil field is left unchanged.

// CadetPatch is the body of PUT /api/cadets/{id}.
type CadetPatch struct {
	CapID       *string `json:"cap_id"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *Date   `json:"date_of_birth"`
}

// ReportPatch is the body of PUT /api/reports/{id}.
type ReportPatch struct {
	ReportType   *string `json:"report_type"`
	Description  *string `json:"description"`
	IncidentDate *Date   `json:"Incident_date"`
	Resolved     *Flag   `json:"resolved"`
	ResolvedBy   *string `json:"resolved_by"`
}

// PositionPatch is the body of PUT /api/positions/{id}.
type PositionPatch struct {
	Name  *string `json:"position_name"`
	Line  *int    `json:"line"`
	Level *string `json:"level"`
}

// RequirementPatch is the body of PUT /api/requirements/{id}.
type RequirementPatch struct {
	Name        *string `json:"requirement_name"`
	Description *string `json:"description"`
}
