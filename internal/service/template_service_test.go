package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func newTemplateFixture() (*fakeTemplateRepo, TemplateService) {
	templateRepo := newFakeTemplateRepo()
	svc := NewTemplateService(templateRepo, &fakeAuditRepo{}, &fakeTxManager{}, &fakePublisher{})
	return templateRepo, svc
}

func boolPtr(b bool) *bool { return &b }
func strPtr(s string) *string { return &s }

func TestCreateDefaultDemotesPrevious(t *testing.T) {
	templateRepo, svc := newTemplateFixture()
	userID := uuid.NewString()

	first, err := svc.CreateTemplate(context.Background(), userID, CreateTemplateRequest{Name: "A", Body: "<html/>", IsDefault: true})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	second, err := svc.CreateTemplate(context.Background(), userID, CreateTemplateRequest{Name: "B", Body: "<html/>", IsDefault: true})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}

	if n := templateRepo.defaultCount(); n != 1 {
		t.Fatalf("default count = %d, want 1", n)
	}
	current, err := svc.GetDefaultTemplate(context.Background())
	if err != nil {
		t.Fatalf("GetDefaultTemplate: %v", err)
	}
	if current.ID != second.ID {
		t.Errorf("default = %s, want %s", current.ID, second.ID)
	}
	demoted, err := svc.GetTemplate(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if demoted.IsDefault {
		t.Error("first template must be demoted")
	}
}

func TestUpdateToDefaultDemotesPrevious(t *testing.T) {
	templateRepo, svc := newTemplateFixture()
	userID := uuid.NewString()

	a, _ := svc.CreateTemplate(context.Background(), userID, CreateTemplateRequest{Name: "A", Body: "x", IsDefault: true})
	b, _ := svc.CreateTemplate(context.Background(), userID, CreateTemplateRequest{Name: "B", Body: "x"})

	updated, err := svc.UpdateTemplate(context.Background(), b.ID, userID, UpdateTemplateRequest{IsDefault: boolPtr(true)})
	if err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	if !updated.IsDefault {
		t.Error("updated template must be default")
	}

	if n := templateRepo.defaultCount(); n != 1 {
		t.Fatalf("default count = %d, want 1", n)
	}
	demoted, err := svc.GetTemplate(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if demoted.IsDefault {
		t.Error("previous default must be demoted")
	}
}

func TestClearingDefaultLeavesNone(t *testing.T) {
	templateRepo, svc := newTemplateFixture()
	userID := uuid.NewString()

	a, _ := svc.CreateTemplate(context.Background(), userID, CreateTemplateRequest{Name: "A", Body: "x", IsDefault: true})

	if _, err := svc.UpdateTemplate(context.Background(), a.ID, userID, UpdateTemplateRequest{IsDefault: boolPtr(false)}); err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}

	if n := templateRepo.defaultCount(); n != 0 {
		t.Fatalf("default count = %d, want 0", n)
	}
	if _, err := svc.GetDefaultTemplate(context.Background()); err == nil {
		t.Error("expected error when no default is set")
	}
}

func TestDefaultSurvivesUnrelatedUpdate(t *testing.T) {
	templateRepo, svc := newTemplateFixture()
	userID := uuid.NewString()

	a, _ := svc.CreateTemplate(context.Background(), userID, CreateTemplateRequest{Name: "A", Body: "x", IsDefault: true})

	updated, err := svc.UpdateTemplate(context.Background(), a.ID, userID, UpdateTemplateRequest{Name: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	if !updated.IsDefault {
		t.Error("rename must not clear default flag")
	}
	if n := templateRepo.defaultCount(); n != 1 {
		t.Fatalf("default count = %d, want 1", n)
	}
}

func TestDeleteMissingTemplate(t *testing.T) {
	_, svc := newTemplateFixture()

	if err := svc.DeleteTemplate(context.Background(), uuid.NewString()); err == nil {
		t.Fatal("expected error deleting missing template")
	}
}
