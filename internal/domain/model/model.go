// Package model contains domain models passed between layers.
// JSON names follow the column names of the cadet_tracker schema.
package model

// Cadet is the primary tracked member.
type Cadet struct {
	ID          int64  `json:"cadet_id"`
	CapID       string `json:"cap_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth Date   `json:"date_of_birth"`
}

// Report is a disciplinary or incident record tied to one cadet.
type Report struct {
	ID           int64   `json:"report_id"`
	CadetID      int64   `json:"cadet_cadet_id"`
	ReportType   string  `json:"report_type"`
	Description  string  `json:"description"`
	IncidentDate Date    `json:"Incident_date"`
	Resolved     bool    `json:"resolved"`
	ResolvedBy   *string `json:"resolved_by"`
}

// Position is an organizational role assignable to zero or more cadets.
type Position struct {
	ID    int64  `json:"position_id"`
	Name  string `json:"position_name"`
	Line  int    `json:"line"`
	Level string `json:"level"`
}

// Rank is a progression level. Order defines promotion sequence.
type Rank struct {
	ID    int64  `json:"rank_id"`
	Name  string `json:"rank_name"`
	Order int    `json:"rank_order"`
}

// CadetRank is a rank held by a cadet.
type CadetRank struct {
	Rank
	DateReceived Date `json:"date_received"`
}

// Requirement is a criterion a cadet can complete.
type Requirement struct {
	ID          int64  `json:"requirement_id"`
	Name        string `json:"requirement_name"`
	Description string `json:"description"`
}

// Completion records that a cadet completed a requirement.
type Completion struct {
	RequirementID int64 `json:"requirement_id"`
	DateCompleted Date  `json:"date_completed"`
}

// Inspection is a uniform inspection with its aggregate score.
type Inspection struct {
	ID             int64   `json:"inspection_id"`
	CadetID        int64   `json:"cadet_id,omitempty"`
	InspectionDate Date    `json:"inspection_date"`
	InspectorCapID string  `json:"inspector_cap_id"`
	TotalScore     float64 `json:"total_score"`
	Rating         string  `json:"rating"`
	Comments       string  `json:"comments"`
	ScoreID        int64   `json:"inspection_score_id"`
}

// CadetSummary is a cadet row with its report count.
type CadetSummary struct {
	Cadet
	ReportCount int `json:"report_count"`
}

// Profile combines a cadet with its reports and positions.
type Profile struct {
	Profile   CadetSummary `json:"profile"`
	Reports   []Report     `json:"reports"`
	Positions []Position   `json:"positions"`
}

// RequirementProgress is a requirement of the next rank and whether the cadet has it.
type RequirementProgress struct {
	Requirement
	Completed     bool  `json:"completed"`
	DateCompleted *Date `json:"date_completed,omitempty"`
}

// PromotionStatus describes how far a cadet is from the next rank.
// NextRank is nil when the cadet already holds the highest rank.
type PromotionStatus struct {
	CadetID         int64                 `json:"cadet_id"`
	CurrentRank     *Rank                 `json:"current_rank"`
	NextRank        *Rank                 `json:"next_rank"`
	Requirements    []RequirementProgress `json:"requirements"`
	Completed       int                   `json:"completed"`
	Total           int                   `json:"total"`
	PercentComplete float64               `json:"percent_complete"`
	Eligible        bool                  `json:"eligible"`
}

// Diagnostics is the result of the database connectivity probe.
type Diagnostics struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Version  string `json:"version"`
}
