package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`server:
  ip: "127.0.0.1"
  port: 18080
log:
  log_level: debug
  log_dir: ""
database:
  dsn: ":memory:"
vision:
  model_name: gpt-4o
  api_key: sk-test
artifact:
  root: %q
  public_url: "http://127.0.0.1:18080/artifacts"
auth:
  jwt_secret: test-secret
`, filepath.Join(dir, "artifacts"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init-provider",
		"observability:setup-hooks",
		"storage:init-database",
		"eventbus:init",
		"auth:init-service",
		"pipeline:init",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestExecuteInitGraph(t *testing.T) {
	state := &appState{configPath: writeTestConfig(t)}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	if state.config == nil {
		t.Fatal("config is nil after init")
	}
	if state.logger == nil {
		t.Fatal("logger is nil after init")
	}
	if state.db == nil {
		t.Fatal("database is nil after init")
	}
	if state.bus == nil {
		t.Fatal("event bus is nil after init")
	}
	if state.authService == nil {
		t.Fatal("auth service is nil after init")
	}
	if state.analysisService == nil {
		t.Fatal("analysis service is nil after init")
	}
	if state.observabilityShutdown == nil {
		t.Fatal("observability shutdown hook not set")
	}
	defer state.logger.Close()
	defer state.authService.Close()
	defer state.observabilityShutdown(context.Background())
}

func TestExecuteInitGraph_RejectsUnsatisfiedDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "b",
			DependsOn: []string{"a"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected dependency error")
	}
}
