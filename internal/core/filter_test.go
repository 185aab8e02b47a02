package core_test

import (
	"testing"
	"time"

	"safetycore/internal/core"
	"safetycore/pkg/domain"
)

func incidentFixture(now time.Time) []domain.Incident {
	return []domain.Incident{
		{
			Base:        domain.Base{ID: "i-recent"},
			OccurredAt:  now.Add(-time.Hour),
			Area:        "press-shop",
			Plant:       "north",
			Department:  domain.DepartmentProduction,
			Severity:    domain.SeverityHigh,
			Status:      domain.IncidentStatusOpen,
			Description: "hydraulic oil spill",
		},
		{
			Base:        domain.Base{ID: "i-lastweek"},
			OccurredAt:  now.AddDate(0, 0, -10),
			Area:        "warehouse",
			Plant:       "north",
			Department:  domain.DepartmentLogistics,
			Severity:    domain.SeverityMedium,
			Status:      domain.IncidentStatusResolved,
			Description: "forklift near miss",
		},
		{
			Base:        domain.Base{ID: "i-old"},
			OccurredAt:  now.AddDate(0, 0, -40),
			Area:        "press-shop",
			Plant:       "south",
			Department:  domain.DepartmentMaintenance,
			Severity:    domain.SeverityLow,
			Status:      domain.IncidentStatusClosed,
			Description: "loose handrail",
		},
	}
}

func incidentIDs(in []domain.Incident) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = v.ID
	}
	return out
}

func TestEmptyFilterImposesNoRestriction(t *testing.T) {
	now := time.Now()
	got := core.FilterIncidents(incidentFixture(now), domain.FilterState{}, now)
	if len(got) != 3 {
		t.Fatalf("empty filter should pass everything, got %v", incidentIDs(got))
	}
}

func TestTimeRangeClauses(t *testing.T) {
	now := time.Date(2026, 6, 15, 15, 0, 0, 0, time.UTC)
	fixture := incidentFixture(now)

	cases := []struct {
		name  string
		state domain.FilterState
		want  int
	}{
		{"today", domain.FilterState{Range: domain.RangeToday}, 1},
		{"weekly", domain.FilterState{Range: domain.RangeWeekly}, 1},
		{"monthly", domain.FilterState{Range: domain.RangeMonthly}, 2},
		{"all", domain.FilterState{Range: domain.RangeAll}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := core.FilterIncidents(fixture, tc.state, now)
			if len(got) != tc.want {
				t.Fatalf("range %s: expected %d incidents, got %v", tc.state.Range, tc.want, incidentIDs(got))
			}
		})
	}
}

func TestCustomRangeInclusiveBounds(t *testing.T) {
	now := time.Date(2026, 6, 15, 15, 0, 0, 0, time.UTC)
	fixture := incidentFixture(now)

	start := now.AddDate(0, 0, -10)
	end := now.Add(-time.Hour)
	got := core.FilterIncidents(fixture, domain.FilterState{
		Range:       domain.RangeCustom,
		CustomStart: &start,
		CustomEnd:   &end,
	}, now)
	if len(got) != 2 {
		t.Fatalf("inclusive custom range should keep both boundary incidents, got %v", incidentIDs(got))
	}

	// A missing bound disables the clause entirely.
	got = core.FilterIncidents(fixture, domain.FilterState{Range: domain.RangeCustom, CustomStart: &start}, now)
	if len(got) != 3 {
		t.Fatalf("custom range without both bounds should not restrict, got %v", incidentIDs(got))
	}
}

func TestClausesANDAcrossDimensionsORWithin(t *testing.T) {
	now := time.Now()
	fixture := incidentFixture(now)

	got := core.FilterIncidents(fixture, domain.FilterState{
		Areas:      []string{"press-shop", "warehouse"},
		Severities: []domain.Severity{domain.SeverityHigh, domain.SeverityMedium},
	}, now)
	if len(got) != 2 {
		t.Fatalf("expected the two matching incidents, got %v", incidentIDs(got))
	}

	got = core.FilterIncidents(fixture, domain.FilterState{
		Areas:      []string{"press-shop"},
		Severities: []domain.Severity{domain.SeverityMedium},
	}, now)
	if len(got) != 0 {
		t.Fatalf("AND across dimensions should exclude everything here, got %v", incidentIDs(got))
	}
}

func TestUnknownFilterValueFailsClosed(t *testing.T) {
	now := time.Now()
	got := core.FilterIncidents(incidentFixture(now), domain.FilterState{
		Severities: []domain.Severity{"catastrophic"},
	}, now)
	if len(got) != 0 {
		t.Fatalf("unknown severity should match nothing, got %v", incidentIDs(got))
	}
}

func TestFreeTextSearchIsCaseInsensitiveSubstring(t *testing.T) {
	now := time.Now()
	fixture := incidentFixture(now)

	got := core.FilterIncidents(fixture, domain.FilterState{Query: "FORKLIFT"}, now)
	if len(got) != 1 || got[0].ID != "i-lastweek" {
		t.Fatalf("query should match description case-insensitively, got %v", incidentIDs(got))
	}

	got = core.FilterIncidents(fixture, domain.FilterState{Query: "south"}, now)
	if len(got) != 1 || got[0].ID != "i-old" {
		t.Fatalf("query should cover plant names, got %v", incidentIDs(got))
	}
}

func TestTaskFilterAndAssigneeSearch(t *testing.T) {
	tasks := []domain.Task{
		{Base: domain.Base{ID: "t1"}, Description: "replace valve", Area: "press-shop", Priority: domain.TaskPriorityHigh, Status: domain.TaskStatusOpen, AssigneeName: "Maria Lopez"},
		{Base: domain.Base{ID: "t2"}, Description: "audit exits", Area: "warehouse", Priority: domain.TaskPriorityLow, Status: domain.TaskStatusCompleted, AssigneeName: "Jon Day"},
	}

	got := core.FilterTasks(tasks, domain.FilterState{Priorities: []domain.TaskPriority{domain.TaskPriorityHigh}})
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("priority clause failed: %+v", got)
	}

	got = core.FilterTasks(tasks, domain.FilterState{Query: "lopez"})
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("assignee search failed: %+v", got)
	}

	got = core.FilterTasks(tasks, domain.FilterState{Statuses: []string{"completed"}, Areas: []string{"press-shop"}})
	if len(got) != 0 {
		t.Fatalf("AND across task dimensions failed: %+v", got)
	}
}

func TestSortTasksByPriorityWithDueDateTieBreak(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 7, d, 0, 0, 0, 0, time.UTC) }
	tasks := []domain.Task{
		{Base: domain.Base{ID: "low"}, Priority: domain.TaskPriorityLow, DueDate: day(1)},
		{Base: domain.Base{ID: "high-late"}, Priority: domain.TaskPriorityHigh, DueDate: day(9)},
		{Base: domain.Base{ID: "high-soon"}, Priority: domain.TaskPriorityHigh, DueDate: day(2)},
		{Base: domain.Base{ID: "medium"}, Priority: domain.TaskPriorityMedium, DueDate: day(1)},
	}

	sorted := core.SortTasksByPriority(tasks)
	want := []string{"high-soon", "high-late", "medium", "low"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, sorted[i].ID)
		}
	}
}
