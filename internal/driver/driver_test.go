package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// stubBuilder returns canned reports and counts invocations.
type stubBuilder struct {
	reports func(round int) *Report
	builds  int
}

func (b *stubBuilder) Build(ctx context.Context, recipePath string, round int) (*Report, error) {
	b.builds++
	return b.reports(round), nil
}

func noopSynth(round int) (string, error) {
	return "%prep\n%setup -q\n", nil
}

func TestRunConvergesFirstRound(t *testing.T) {
	b := &stubBuilder{reports: func(int) *Report {
		return &Report{Success: true}
	}}
	d := New(b, t.TempDir(), noopSynth)

	outcome, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Success {
		t.Fatal("outcome not successful")
	}
	if outcome.Round != 1 {
		t.Fatalf("round = %d, want 1", outcome.Round)
	}
	if b.builds != 1 {
		t.Fatalf("builds = %d, want 1", b.builds)
	}
}

func TestRunRoundBudget(t *testing.T) {
	b := &stubBuilder{reports: func(int) *Report {
		return &Report{Success: false, OutOfTree: []string{"/usr/share/stray"}}
	}}
	d := New(b, t.TempDir(), noopSynth)

	outcome, err := d.Run(context.Background())
	if !errors.Is(err, ErrRoundBudget) {
		t.Fatalf("err = %v, want ErrRoundBudget", err)
	}
	if outcome == nil || outcome.Success {
		t.Fatal("budget exhaustion must report failure")
	}
	if outcome.Round != 21 {
		t.Fatalf("round = %d, want 21", outcome.Round)
	}
	if b.builds != 21 {
		t.Fatalf("builds = %d, want exactly 21 (round 22 must never run)", b.builds)
	}
}

func TestRunConvergesAfterRestarts(t *testing.T) {
	b := &stubBuilder{reports: func(round int) *Report {
		if round < 3 {
			return &Report{Success: false, OutOfTree: []string{"/opt/stray"}}
		}
		return &Report{Success: true}
	}}
	d := New(b, t.TempDir(), noopSynth)

	var seen [][]string
	d.OnOutOfTree(func(files []string) error {
		seen = append(seen, files)
		return nil
	})

	outcome, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !outcome.Success || outcome.Round != 3 {
		t.Fatalf("outcome = %+v, want success on round 3", outcome)
	}
	if len(seen) != 2 {
		t.Fatalf("reclassify calls = %d, want 2", len(seen))
	}
}

func TestRunStableFailure(t *testing.T) {
	// A clean round with a failed build converges with Success=false.
	b := &stubBuilder{reports: func(int) *Report {
		return &Report{Success: false}
	}}
	d := New(b, t.TempDir(), noopSynth)

	outcome, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Success {
		t.Fatal("failed build reported as success")
	}
	if outcome.Round != 1 {
		t.Fatalf("round = %d, want 1", outcome.Round)
	}
}

func TestRunPersistsRecipe(t *testing.T) {
	dir := t.TempDir()
	b := &stubBuilder{reports: func(int) *Report {
		return &Report{Success: true}
	}}
	d := New(b, dir, func(round int) (string, error) {
		return fmt.Sprintf("%%prep\n# round %d\n", round), nil
	})

	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, recipeFilename))
	if err != nil {
		t.Fatalf("recipe not persisted: %v", err)
	}
	if string(raw) != "%prep\n# round 1\n" {
		t.Fatalf("recipe = %q", raw)
	}
}

func TestRunSynthesisErrorAborts(t *testing.T) {
	wantErr := errors.New("bad layout")
	b := &stubBuilder{reports: func(int) *Report {
		return &Report{Success: true}
	}}
	d := New(b, t.TempDir(), func(round int) (string, error) {
		return "", wantErr
	})

	_, err := d.Run(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want synthesis error", err)
	}
	if b.builds != 0 {
		t.Fatal("builder invoked despite synthesis failure")
	}
}

func TestArchiveRoundLogs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range sandboxLogs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("log"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	archiveRoundLogs(dir, 3)

	for _, name := range sandboxLogs {
		archived := filepath.Join(dir, fmt.Sprintf("round3-%s", name))
		if _, err := os.Stat(archived); err != nil {
			t.Fatalf("log %s not archived: %v", name, err)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("original log %s still present", name)
		}
	}
}

func TestArchiveRoundLogsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "build.log"), []byte("log"), 0644); err != nil {
		t.Fatal(err)
	}

	// Must not fail when most logs are absent.
	archiveRoundLogs(dir, 1)

	if _, err := os.Stat(filepath.Join(dir, "round1-build.log")); err != nil {
		t.Fatalf("build.log not archived: %v", err)
	}
}
