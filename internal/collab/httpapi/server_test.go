package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"safetycore/internal/collab"
	"safetycore/internal/collab/httpapi"
	"safetycore/internal/core"
	"safetycore/pkg/domain"
)

func newServerFixture(t *testing.T) (*core.Service, *httpapi.Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	srv := httpapi.NewServer(svc)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return svc, srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestStatusEndpointErrorMapping(t *testing.T) {
	svc, _, ts := newServerFixture(t)
	ctx := context.Background()

	// Unknown task -> 404.
	resp := postJSON(t, ts.URL+"/api/v1/tasks/missing/status", collab.StatusUpdate{Status: domain.TaskStatusInProgress})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	task, _, err := svc.CreateTask(ctx, domain.Task{Description: "test fixture", DueDate: time.Now()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Delayed without a date -> 400.
	resp = postJSON(t, ts.URL+"/api/v1/tasks/"+task.ID+"/status", collab.StatusUpdate{Status: domain.TaskStatusDelayed})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	// Leaving the terminal state -> 409 with violations.
	if _, _, err := svc.MarkTaskCompleted(ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	resp = postJSON(t, ts.URL+"/api/v1/tasks/"+task.ID+"/status", collab.StatusUpdate{Status: domain.TaskStatusOpen})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var payload struct {
		Violations []domain.Violation `json:"violations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	_ = resp.Body.Close()
	if len(payload.Violations) == 0 || payload.Violations[0].Rule != "lifecycle_transition" {
		t.Fatalf("expected lifecycle violation in body: %+v", payload.Violations)
	}
}

func TestIncidentStatusEndpointRequiresSupervisor(t *testing.T) {
	svc, _, ts := newServerFixture(t)

	incident, _, err := svc.CreateIncident(context.Background(), domain.Incident{Description: "trip hazard"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/v1/incidents/"+incident.ID+"/status", map[string]any{
		"status":   "resolved",
		"identity": domain.Identity{UserID: "e1", Role: domain.RoleEmployee},
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/v1/incidents/"+incident.ID+"/status", map[string]any{
		"status":   "resolved",
		"identity": domain.Identity{UserID: "s1", Role: domain.RoleSupervisor},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for supervisor, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	_, _, ts := newServerFixture(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %v status=%v", err, resp)
	}
	_ = resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %v status=%v", err, resp)
	}
	_ = resp.Body.Close()
}

func TestHubBroadcastsCommittedChanges(t *testing.T) {
	svc, srv, ts := newServerFixture(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// Wait for registration before mutating.
	deadline := time.Now().Add(5 * time.Second)
	for srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	created, _, err := svc.CreateIncident(context.Background(), domain.Incident{Description: "broadcast me"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev collab.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Kind != collab.EventIncidentCreated || ev.Incident == nil || ev.Incident.ID != created.ID {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
