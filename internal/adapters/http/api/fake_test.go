package api

import (
	"context"
	"sync"
	"time"

	repository "github.com/okian/cadettracker/internal/adapters/repository"
	"github.com/okian/cadettracker/internal/domain/model"
)

// fakeDeps keeps cadets in memory and answers every other call with canned
// values. Setting err makes every call fail with it.
type fakeDeps struct {
	mu      sync.Mutex
	err     error
	pingErr error
	nextID  int64
	cadets  map[int64]model.Cadet

	// last arguments seen by the link, award and completion calls
	lastRankID int64
	lastReqID  int64
	lastOn     time.Time

	// block makes ListReports wait for the request context to end
	block bool

	// last report bodies seen by create and update
	lastReport      model.NewReport
	lastReportPatch model.ReportPatch
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{cadets: map[int64]model.Cadet{}}
}

var _ Dependencies = (*fakeDeps)(nil)

func (f *fakeDeps) Ping(context.Context) error { return f.pingErr }

func (f *fakeDeps) Diagnose(context.Context) (model.Diagnostics, error) {
	if f.pingErr != nil {
		return model.Diagnostics{}, f.pingErr
	}
	return model.Diagnostics{OK: true, Database: "cadet_tracker", Version: "test"}, nil
}

func (f *fakeDeps) ListCadets(context.Context) ([]model.Cadet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Cadet, 0, len(f.cadets))
	for _, c := range f.cadets {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeDeps) SearchCadets(ctx context.Context, q string) ([]model.Cadet, error) {
	all, err := f.ListCadets(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Cadet{}
	for _, c := range all {
		if c.CapID == q || c.FirstName == q || c.LastName == q {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDeps) GetCadet(_ context.Context, id int64) (model.Cadet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Cadet{}, f.err
	}
	c, ok := f.cadets[id]
	if !ok {
		return model.Cadet{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeDeps) CreateCadet(_ context.Context, in model.NewCadet) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	f.cadets[f.nextID] = model.Cadet{
		ID:          f.nextID,
		CapID:       in.CapID,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
	}
	return f.nextID, nil
}

func (f *fakeDeps) UpdateCadet(_ context.Context, id int64, p model.CadetPatch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if p.CapID == nil && p.FirstName == nil && p.LastName == nil && p.DateOfBirth == nil {
		return 0, repository.ErrNoFields
	}
	c, ok := f.cadets[id]
	if !ok {
		return 0, nil
	}
	if p.CapID != nil {
		c.CapID = *p.CapID
	}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		c.DateOfBirth = *p.DateOfBirth
	}
	f.cadets[id] = c
	return 1, nil
}

func (f *fakeDeps) DeleteCadet(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	if _, ok := f.cadets[id]; !ok {
		return 0, nil
	}
	delete(f.cadets, id)
	return 1, nil
}

func (f *fakeDeps) CadetSummary(ctx context.Context, id int64) (model.CadetSummary, error) {
	c, err := f.GetCadet(ctx, id)
	return model.CadetSummary{Cadet: c}, err
}

func (f *fakeDeps) CadetReports(context.Context, int64) ([]model.Report, error) {
	return []model.Report{}, f.err
}

func (f *fakeDeps) CadetPositions(context.Context, int64) ([]model.Position, error) {
	return []model.Position{{ID: 3, Name: "Flight Sergeant", Line: 1, Level: "flight"}}, f.err
}

func (f *fakeDeps) Profile(ctx context.Context, id int64) (model.Profile, error) {
	sum, err := f.CadetSummary(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{Profile: sum, Reports: []model.Report{}, Positions: []model.Position{}}, nil
}

func (f *fakeDeps) Promotion(ctx context.Context, id int64) (model.PromotionStatus, error) {
	if _, err := f.GetCadet(ctx, id); err != nil {
		return model.PromotionStatus{}, err
	}
	return model.PromotionStatus{CadetID: id, Requirements: []model.RequirementProgress{}, PercentComplete: 100, Eligible: true}, nil
}

func (f *fakeDeps) ListReports(ctx context.Context) ([]model.Report, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []model.Report{}, f.err
}

func (f *fakeDeps) GetReport(_ context.Context, id int64) (model.Report, error) {
	if f.err != nil {
		return model.Report{}, f.err
	}
	return model.Report{ID: id, CadetID: 1, ReportType: "uniform"}, nil
}

func (f *fakeDeps) CreateReport(_ context.Context, in model.NewReport) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReport = in
	return 7, f.err
}

func (f *fakeDeps) UpdateReport(_ context.Context, _ int64, p model.ReportPatch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReportPatch = p
	return 1, f.err
}

func (f *fakeDeps) DeleteReport(context.Context, int64) (int64, error) { return 1, f.err }

func (f *fakeDeps) ListPositions(context.Context) ([]model.Position, error) {
	return []model.Position{}, f.err
}

func (f *fakeDeps) GetPosition(_ context.Context, id int64) (model.Position, error) {
	return model.Position{ID: id, Name: "Element Leader"}, f.err
}

func (f *fakeDeps) CreatePosition(context.Context, model.NewPosition) (int64, error) { return 3, f.err }

func (f *fakeDeps) UpdatePosition(context.Context, int64, model.PositionPatch) (int64, error) {
	return 1, f.err
}

func (f *fakeDeps) DeletePosition(context.Context, int64) (int64, error) { return 1, f.err }

func (f *fakeDeps) AssignCadet(context.Context, int64, int64) (int64, error) { return 1, f.err }

func (f *fakeDeps) UnassignCadet(context.Context, int64, int64) (int64, error) { return 1, f.err }

func (f *fakeDeps) ListRanks(context.Context) ([]model.Rank, error) {
	return []model.Rank{{ID: 1, Name: "Cadet Airman Basic", Order: 1}}, f.err
}

func (f *fakeDeps) CadetRanks(context.Context, int64) ([]model.CadetRank, error) {
	return []model.CadetRank{}, f.err
}

func (f *fakeDeps) AwardRank(_ context.Context, _, rankID int64, received time.Time) (int64, error) {
	f.lastRankID, f.lastOn = rankID, received
	return 1, f.err
}

func (f *fakeDeps) RequirementsForRank(_ context.Context, rankID int64) ([]model.Requirement, error) {
	f.lastRankID = rankID
	return []model.Requirement{{ID: 4, Name: "Drill test"}}, f.err
}

func (f *fakeDeps) CreateRequirement(_ context.Context, in model.NewRequirement) (int64, error) {
	f.lastRankID = in.RankID
	return 4, f.err
}

func (f *fakeDeps) UpdateRequirement(context.Context, int64, model.RequirementPatch) (int64, error) {
	return 1, f.err
}

func (f *fakeDeps) DeleteRequirement(context.Context, int64) (int64, error) { return 1, f.err }

func (f *fakeDeps) LinkRequirement(_ context.Context, rankID, reqID int64) (int64, error) {
	f.lastRankID, f.lastReqID = rankID, reqID
	return 1, f.err
}

func (f *fakeDeps) UnlinkRequirement(_ context.Context, rankID, reqID int64) (int64, error) {
	f.lastRankID, f.lastReqID = rankID, reqID
	return 1, f.err
}

func (f *fakeDeps) Completions(context.Context, int64) ([]model.Completion, error) {
	return []model.Completion{}, f.err
}

func (f *fakeDeps) CompleteRequirement(_ context.Context, _, reqID int64, on time.Time) (int64, error) {
	f.lastReqID, f.lastOn = reqID, on
	return 1, f.err
}

func (f *fakeDeps) UncompleteRequirement(_ context.Context, _, reqID int64) (int64, error) {
	f.lastReqID = reqID
	return 1, f.err
}

func (f *fakeDeps) CreateInspection(context.Context, model.NewInspection) (int64, error) {
	return 9, f.err
}

func (f *fakeDeps) GetInspection(_ context.Context, id int64) (model.Inspection, error) {
	if f.err != nil {
		return model.Inspection{}, f.err
	}
	return model.Inspection{ID: id, Rating: "excellent", TotalScore: 97.5}, nil
}

func (f *fakeDeps) CadetInspections(context.Context, int64) ([]model.Inspection, error) {
	return []model.Inspection{}, f.err
}

func (f *fakeDeps) DeleteInspection(context.Context, int64) (int64, error) { return 1, f.err }

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "openConnections": 2}
}
