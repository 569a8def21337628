/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates employees, holidays,
	and leave requests in various lifecycle states.

AVAILABLE SCENARIOS:

	small-team:     One team with a mix of pending, approved and rejected
	                requests plus upcoming holidays
	approval-queue: Five pending requests waiting on one manager, for
	                exercising bulk approval
	low-balance:    Employee who has consumed most of their annual
	                allocation, for exercising balance rejections

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Re-seed the leave-type catalog
 3. Create employees and holidays
 4. Submit requests through the real lifecycle, then approve or reject
    some of them

	Requests go through Service.SubmitLeaveRequest, so every seeded request
	satisfies the validation rules and the balance ledger stays consistent.
	All seeded requests are future-dated relative to load time.

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - server.go: Scenario routes
  - factory/catalog.go: The default leave types scenarios run against
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "small-team",
		Name:        "Small Team",
		Description: "One engineering team with pending, approved and rejected requests",
	},
	{
		ID:          "approval-queue",
		Name:        "Approval Queue",
		Description: "Five pending requests waiting on one manager (bulk approval demo)",
	},
	{
		ID:          "low-balance",
		Name:        "Low Balance",
		Description: "Employee with most of their annual allocation already committed",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	ctx := r.Context()
	if err := h.resetAndReseed(ctx); err != nil {
		writeEngineError(w, err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "small-team":
		err = h.loadSmallTeamScenario(ctx)
	case "approval-queue":
		err = h.loadApprovalQueueScenario(ctx)
	case "low-balance":
		err = h.loadLowBalanceScenario(ctx)
	default:
		writeBadRequest(w, fmt.Errorf("unknown scenario %q", req.ScenarioID))
		return
	}
	if err != nil {
		writeEngineError(w, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// ResetDatabase clears all data and re-seeds the catalog.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.resetAndReseed(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// resetAndReseed wipes the store and persists the in-memory catalog back,
// so the running service and the database agree on the policy set.
func (h *Handler) resetAndReseed(ctx context.Context) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""

	now := time.Now()
	for _, lt := range h.Service.ListLeaveTypes() {
		cfg, err := factory.MarshalLeaveType(lt)
		if err != nil {
			return err
		}
		rec := leave.LeaveTypeRecord{
			Code:       string(lt.Code),
			Name:       lt.Name,
			ConfigJSON: cfg,
			CreatedAt:  now,
		}
		if err := h.Store.SaveLeaveType(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadSmallTeamScenario(ctx context.Context) error {
	today := leave.Today()
	team := leave.TeamID("team-eng")

	mia := h.demoEmployee("emp-mia", "Mia Torres", team, "")
	employees := []leave.Employee{
		mia,
		h.demoEmployee("emp-amy", "Amy Chen", team, mia.ID),
		h.demoEmployee("emp-raj", "Raj Patel", team, mia.ID),
		h.demoEmployee("emp-leo", "Leo Novak", team, mia.ID),
	}
	for _, emp := range employees {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}

	holidays := []leave.Holiday{
		{ID: "hol-founders-day", Date: today.AddDays(12), Name: "Founders Day"},
		{ID: "hol-harvest-festival", Date: today.AddDays(25), Name: "Harvest Festival", IsOptional: true},
	}
	for _, hol := range holidays {
		if err := h.Store.SaveHoliday(ctx, hol); err != nil {
			return err
		}
	}

	// Approved week of annual leave.
	amyReq, err := h.Service.SubmitLeaveRequest(ctx, "emp-amy", leave.Draft{
		TypeCode:  "ANNUAL",
		StartDate: today.AddDays(14),
		EndDate:   today.AddDays(18),
		Reason:    "Family trip",
	}, today)
	if err != nil {
		return err
	}
	if _, err := h.Service.ApproveLeaveRequest(ctx, amyReq.Code, mia.ID, "Enjoy!"); err != nil {
		return err
	}

	// Pending single casual day.
	if _, err := h.Service.SubmitLeaveRequest(ctx, "emp-raj", leave.Draft{
		TypeCode:  "CASUAL",
		StartDate: today.AddDays(3),
		EndDate:   today.AddDays(3),
		Reason:    "Apartment move",
	}, today); err != nil {
		return err
	}

	// Pending half-day sick leave.
	slot := leave.FirstHalf
	if _, err := h.Service.SubmitLeaveRequest(ctx, "emp-leo", leave.Draft{
		TypeCode:    "SICK",
		StartDate:   today.AddDays(1),
		EndDate:     today.AddDays(1),
		IsHalfDay:   true,
		HalfDaySlot: &slot,
		Reason:      "Dentist appointment",
	}, today); err != nil {
		return err
	}

	// Rejected annual request.
	leoReq, err := h.Service.SubmitLeaveRequest(ctx, "emp-leo", leave.Draft{
		TypeCode:  "ANNUAL",
		StartDate: today.AddDays(14),
		EndDate:   today.AddDays(16),
		Reason:    "Long weekend",
	}, today)
	if err != nil {
		return err
	}
	if _, err := h.Service.RejectLeaveRequest(ctx, leoReq.Code, mia.ID, "Overlaps the release window"); err != nil {
		return err
	}

	return nil
}

func (h *Handler) loadApprovalQueueScenario(ctx context.Context) error {
	today := leave.Today()
	team := leave.TeamID("team-ops")

	manager := h.demoEmployee("emp-dana", "Dana Okafor", team, "")
	if err := h.Store.SaveEmployee(ctx, manager); err != nil {
		return err
	}

	reports := []struct {
		id   leave.UserID
		name string
	}{
		{"emp-ines", "Ines Duarte"},
		{"emp-karl", "Karl Berg"},
		{"emp-yuki", "Yuki Tanaka"},
		{"emp-omar", "Omar Haddad"},
		{"emp-lena", "Lena Fischer"},
	}
	for i, rep := range reports {
		emp := h.demoEmployee(rep.id, rep.name, team, manager.ID)
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
		// Staggered pending annual requests, one per report.
		start := today.AddDays(10 + i*7)
		if _, err := h.Service.SubmitLeaveRequest(ctx, rep.id, leave.Draft{
			TypeCode:  "ANNUAL",
			StartDate: start,
			EndDate:   start.AddDays(2),
			Reason:    "Planned break",
		}, today); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) loadLowBalanceScenario(ctx context.Context) error {
	today := leave.Today()
	team := leave.TeamID("team-fin")

	manager := h.demoEmployee("emp-ruth", "Ruth Alvarez", team, "")
	worker := h.demoEmployee("emp-theo", "Theo Lindqvist", team, manager.ID)
	for _, emp := range []leave.Employee{manager, worker} {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}

	// Approved 15-day block commits most of the 20-day annual allocation.
	long, err := h.Service.SubmitLeaveRequest(ctx, worker.ID, leave.Draft{
		TypeCode:  "ANNUAL",
		StartDate: today.AddDays(30),
		EndDate:   today.AddDays(44),
		Reason:    "Sabbatical month",
	}, today)
	if err != nil {
		return err
	}
	if _, err := h.Service.ApproveLeaveRequest(ctx, long.Code, manager.ID, ""); err != nil {
		return err
	}

	// Pending 4-day request holds most of what remains; the next annual
	// request of any real length will bounce off the balance check.
	if _, err := h.Service.SubmitLeaveRequest(ctx, worker.ID, leave.Draft{
		TypeCode:  "ANNUAL",
		StartDate: today.AddDays(60),
		EndDate:   today.AddDays(63),
		Reason:    "Wedding",
	}, today); err != nil {
		return err
	}

	return nil
}

func (h *Handler) demoEmployee(id leave.UserID, name string, team leave.TeamID, manager leave.UserID) leave.Employee {
	return leave.Employee{
		ID:        id,
		Name:      name,
		Email:     string(id) + "@example.com",
		TeamID:    team,
		ManagerID: manager,
		HireDate:  leave.Today().AddDays(-400),
		CreatedAt: time.Now(),
	}
}
