package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/cadettracker/internal/domain/model"
)

// Scenario is one end-to-end check. Scenarios clean up the rows they create.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, c *Client) error
}

// errMismatch marks a response that does not match what was written.
var errMismatch = errors.New("mismatch")

// DefaultScenarios returns every built-in scenario.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "cadet_round_trip", Run: cadetRoundTrip},
		{Name: "cadet_partial_update", Run: cadetPartialUpdate},
		{Name: "cadet_missing_is_404", Run: cadetMissing},
		{Name: "position_delete_cascades", Run: positionDeleteCascades},
		{Name: "requirement_with_rank", Run: requirementWithRank},
		{Name: "requirement_without_rank", Run: requirementWithoutRank},
		{Name: "requirements_need_rank_id", Run: requirementsNeedRankID},
	}
}

type idResponse map[string]int64

type countResponse struct {
	AffectedRows int64 `json:"affected_rows"`
}

// uniqueCapID returns a CAP id no other run will use.
func uniqueCapID() string {
	return "smoke-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func createCadet(ctx context.Context, c *Client) (model.NewCadet, int64, error) {
	in := model.NewCadet{
		CapID:       uniqueCapID(),
		FirstName:   "Smoke",
		LastName:    "Test",
		DateOfBirth: mustDate("2010-04-01"),
	}
	var out idResponse
	if err := c.Do(ctx, http.MethodPost, "/api/cadets", in, &out); err != nil {
		return in, 0, err
	}
	id := out["cadet_id"]
	if id <= 0 {
		return in, 0, fmt.Errorf("%w: create cadet returned id %d", errMismatch, id)
	}
	return in, id, nil
}

func deleteCadet(ctx context.Context, c *Client, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/cadets/%d", id), nil, nil)
}

func cadetRoundTrip(ctx context.Context, c *Client) error {
	in, id, err := createCadet(ctx, c)
	if err != nil {
		return err
	}

	var got model.Cadet
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/cadets/%d", id), nil, &got); err != nil {
		return err
	}
	if got.ID != id || got.CapID != in.CapID || got.FirstName != in.FirstName ||
		got.LastName != in.LastName || got.DateOfBirth.String() != in.DateOfBirth.String() {
		return fmt.Errorf("%w: got %+v, wrote %+v", errMismatch, got, in)
	}

	var del countResponse
	if err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/cadets/%d", id), nil, &del); err != nil {
		return err
	}
	if del.AffectedRows != 1 {
		return fmt.Errorf("%w: delete affected %d rows", errMismatch, del.AffectedRows)
	}
	return nil
}

func cadetPartialUpdate(ctx context.Context, c *Client) (err error) {
	in, id, err := createCadet(ctx, c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deleteCadet(ctx, c, id)) }()

	first := "Updated"
	if err := c.Do(ctx, http.MethodPut, fmt.Sprintf("/api/cadets/%d", id), model.CadetPatch{FirstName: &first}, nil); err != nil {
		return err
	}

	var got model.Cadet
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/cadets/%d", id), nil, &got); err != nil {
		return err
	}
	if got.FirstName != first || got.LastName != in.LastName || got.CapID != in.CapID {
		return fmt.Errorf("%w: partial update changed unnamed fields: %+v", errMismatch, got)
	}
	return nil
}

func cadetMissing(ctx context.Context, c *Client) error {
	err := c.Do(ctx, http.MethodGet, "/api/cadets/2147483647", nil, nil)
	if statusOf(err) != http.StatusNotFound {
		return fmt.Errorf("%w: want 404, got %v", errMismatch, err)
	}
	return nil
}

func positionDeleteCascades(ctx context.Context, c *Client) (err error) {
	_, cadetID, err := createCadet(ctx, c)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deleteCadet(ctx, c, cadetID)) }()

	var out idResponse
	pos := model.NewPosition{Name: "Smoke " + uniqueCapID(), Line: 1, Level: "flight"}
	if err := c.Do(ctx, http.MethodPost, "/api/positions", pos, &out); err != nil {
		return err
	}
	posID := out["position_id"]

	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/api/positions/%d/cadets", posID), model.Assignment{CadetID: cadetID}, nil); err != nil {
		return err
	}

	var del countResponse
	if err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/positions/%d", posID), nil, &del); err != nil {
		return err
	}
	if del.AffectedRows != 1 {
		return fmt.Errorf("%w: position delete affected %d rows", errMismatch, del.AffectedRows)
	}

	var held []model.Position
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/cadets/%d/positions", cadetID), nil, &held); err != nil {
		return err
	}
	for _, p := range held {
		if p.ID == posID {
			return fmt.Errorf("%w: assignment survived position delete", errMismatch)
		}
	}
	return nil
}

// firstRank returns the lowest rank, or ok false on an empty rank table.
func firstRank(ctx context.Context, c *Client) (model.Rank, bool, error) {
	var ranks []model.Rank
	if err := c.Do(ctx, http.MethodGet, "/api/ranks", nil, &ranks); err != nil {
		return model.Rank{}, false, err
	}
	if len(ranks) == 0 {
		return model.Rank{}, false, nil
	}
	return ranks[0], true, nil
}

func listedUnder(ctx context.Context, c *Client, rankID, reqID int64) (bool, error) {
	var reqs []model.Requirement
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/requirements?rank_id=%d", rankID), nil, &reqs); err != nil {
		return false, err
	}
	for _, r := range reqs {
		if r.ID == reqID {
			return true, nil
		}
	}
	return false, nil
}

func createRequirement(ctx context.Context, c *Client, rankID int64) (int64, error) {
	var out idResponse
	in := model.NewRequirement{Name: "Smoke " + uniqueCapID(), Description: "smoke", RankID: rankID}
	if err := c.Do(ctx, http.MethodPost, "/api/requirements", in, &out); err != nil {
		return 0, err
	}
	return out["requirement_id"], nil
}

func deleteRequirement(ctx context.Context, c *Client, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/requirements/%d", id), nil, nil)
}

func requirementWithRank(ctx context.Context, c *Client) (err error) {
	rank, ok, err := firstRank(ctx, c)
	if err != nil || !ok {
		return err
	}
	reqID, err := createRequirement(ctx, c, rank.ID)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deleteRequirement(ctx, c, reqID)) }()

	listed, err := listedUnder(ctx, c, rank.ID, reqID)
	if err != nil {
		return err
	}
	if !listed {
		return fmt.Errorf("%w: requirement %d not linked to rank %d", errMismatch, reqID, rank.ID)
	}

	var unlink countResponse
	path := fmt.Sprintf("/api/requirements/unlink?rank_id=%d&req_id=%d", rank.ID, reqID)
	if err := c.Do(ctx, http.MethodDelete, path, nil, &unlink); err != nil {
		return err
	}
	if unlink.AffectedRows != 1 {
		return fmt.Errorf("%w: unlink affected %d rows", errMismatch, unlink.AffectedRows)
	}
	return nil
}

func requirementWithoutRank(ctx context.Context, c *Client) (err error) {
	rank, ok, err := firstRank(ctx, c)
	if err != nil {
		return err
	}
	reqID, err := createRequirement(ctx, c, 0)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, deleteRequirement(ctx, c, reqID)) }()

	if !ok {
		return nil
	}
	listed, err := listedUnder(ctx, c, rank.ID, reqID)
	if err != nil {
		return err
	}
	if listed {
		return fmt.Errorf("%w: unlinked requirement %d listed under rank %d", errMismatch, reqID, rank.ID)
	}
	return nil
}

func requirementsNeedRankID(ctx context.Context, c *Client) error {
	for _, path := range []string{"/api/requirements", "/api/requirements?rank_id=0", "/api/requirements?rank_id=abc"} {
		if err := c.Do(ctx, http.MethodGet, path, nil, nil); statusOf(err) != http.StatusBadRequest {
			return fmt.Errorf("%w: %s want 400, got %v", errMismatch, path, err)
		}
	}
	return nil
}

func mustDate(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
