package core_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"safetycore/internal/blob"
	"safetycore/internal/core"
	"safetycore/pkg/domain"
)

func TestAttachIncidentEvidence(t *testing.T) {
	store := blob.NewMemory()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithAttachments(store))
	ctx := context.Background()

	incident, _, err := svc.CreateIncident(ctx, domain.Incident{Description: "ladder fall"})
	if err != nil {
		t.Fatalf("create incident: %v", err)
	}

	info, err := svc.AttachIncidentEvidence(ctx, incident.ID, strings.NewReader("photo-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if info.Key == "" || info.ContentType != "image/jpeg" {
		t.Fatalf("unexpected info: %+v", info)
	}

	stored, _ := svc.Incident(incident.ID)
	if len(stored.AttachmentKeys) != 1 || stored.AttachmentKeys[0] != info.Key {
		t.Fatalf("attachment key not recorded: %+v", stored.AttachmentKeys)
	}

	got, rc, err := svc.OpenIncidentEvidence(ctx, info.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "photo-bytes" || got.Key != info.Key {
		t.Fatalf("round trip failed: %q %+v", data, got)
	}
}

func TestAttachIncidentEvidenceUnknownIncident(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(), core.WithAttachments(blob.NewMemory()))
	if _, err := svc.AttachIncidentEvidence(context.Background(), "missing", strings.NewReader("x"), ""); !core.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestAttachIncidentEvidenceWithoutStore(t *testing.T) {
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	if _, err := svc.AttachIncidentEvidence(context.Background(), "i1", strings.NewReader("x"), ""); err == nil {
		t.Fatalf("expected configuration error")
	}
}
