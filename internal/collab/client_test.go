package collab_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"safetycore/internal/collab"
	"safetycore/internal/collab/httpapi"
	"safetycore/internal/core"
	"safetycore/pkg/domain"
)

func newCollabFixture(t *testing.T) (*core.Service, *collab.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	server := httptest.NewServer(httpapi.NewServer(svc).Handler())
	t.Cleanup(server.Close)
	return svc, collab.NewClient(server.URL)
}

func TestClientTaskLifecycleAgainstServer(t *testing.T) {
	_, client := newCollabFixture(t)
	ctx := context.Background()

	created, err := client.CreateTask(ctx, domain.Task{
		Description: "replace emergency light",
		DueDate:     time.Now().Add(48 * time.Hour),
		AssigneeID:  "e1",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("server should assign an identifier")
	}

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	delayed, err := client.UpdateTaskStatus(ctx, created.ID, collab.StatusUpdate{
		Status: domain.TaskStatusDelayed,
		Reason: "electrician unavailable",
		Date:   &date,
	})
	if err != nil {
		t.Fatalf("delay: %v", err)
	}
	if delayed.Status != domain.TaskStatusDelayed || len(delayed.DelayHistory) != 1 {
		t.Fatalf("unexpected delayed task: %+v", delayed)
	}

	commented, err := client.AppendComment(ctx, created.ID, domain.Comment{
		AuthorID: "e1", AuthorName: "Pat", AuthorRole: domain.RoleEmployee, Content: "parts ordered",
	})
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if len(commented.Comments) != 1 || commented.Comments[0].Content != "parts ordered" {
		t.Fatalf("comment not appended: %+v", commented.Comments)
	}

	completed, err := client.UpdateTaskStatus(ctx, created.ID, collab.StatusUpdate{Status: domain.TaskStatusCompleted})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.TaskStatusCompleted {
		t.Fatalf("unexpected status %s", completed.Status)
	}
}

func TestClientBulkFetch(t *testing.T) {
	svc, client := newCollabFixture(t)
	ctx := context.Background()

	if _, err := svc.LoadSnapshot(ctx, core.SnapshotPayload{
		Incidents: []domain.Incident{{Base: domain.Base{ID: "i1"}, Description: "gas leak drill"}},
		Tasks:     []domain.Task{{Base: domain.Base{ID: "t1"}, Description: "verify alarms", DueDate: time.Now()}},
		Locations: []domain.Location{{Base: domain.Base{ID: "l1"}, Area: "lab", Plant: "west"}},
		Users:     []domain.User{{Base: domain.Base{ID: "u1"}, Name: "Noa", Role: domain.RoleSupervisor}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	payload, err := client.BulkFetch(ctx)
	if err != nil {
		t.Fatalf("bulk fetch: %v", err)
	}
	if len(payload.Incidents) != 1 || len(payload.Tasks) != 1 || len(payload.Locations) != 1 || len(payload.Users) != 1 {
		t.Fatalf("unexpected payload sizes: %d/%d/%d/%d",
			len(payload.Incidents), len(payload.Tasks), len(payload.Locations), len(payload.Users))
	}
	if payload.Incidents[0].ID != "i1" {
		t.Fatalf("unexpected incident: %+v", payload.Incidents[0])
	}
}

func TestClientSurfacesServerErrors(t *testing.T) {
	_, client := newCollabFixture(t)
	ctx := context.Background()

	_, err := client.UpdateTaskStatus(ctx, "missing", collab.StatusUpdate{Status: domain.TaskStatusInProgress})
	if err == nil {
		t.Fatalf("expected error for unknown task")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status in error, got %v", err)
	}

	_, err = client.CreateTask(ctx, domain.Task{Description: "no due date"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected validation status, got %v", err)
	}
}
