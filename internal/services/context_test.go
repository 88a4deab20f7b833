package services_test

import (
	"context"
	"testing"

	"foldersort/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "organize")
	ctx = services.WithFolder(ctx, "/srv/sorted")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "organize" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if folder, ok := services.FolderFromContext(ctx); !ok || folder != "/srv/sorted" {
		t.Fatalf("unexpected folder: %v %v", folder, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithStage(ctx, "")
	if id, _ := services.RunIDFromContext(ctx); id != "run-1" {
		t.Fatalf("blank run id should not overwrite, got %q", id)
	}
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.FolderFromContext(context.TODO()); ok {
		t.Fatal("expected no folder value")
	}
}
