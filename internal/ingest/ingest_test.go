package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/async"
	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	files []string
	fail  map[string]bool
}

func (f *fakeProcessor) ProcessUpload(_ context.Context, filename string, _ []byte) (pipeline.ExtractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, filename)
	if f.fail[filename] {
		return nil, errors.New("gateway down")
	}
	return &pipeline.PagedResult{Type: constants.PaySlip, Pages: []pipeline.PageResult{{Page: 1, Data: "{}"}}}, nil
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(root, "jan.pdf"), "slip-jan")
	writeFile(t, filepath.Join(root, "nested", "feb.PNG"), "slip-feb")
	writeFile(t, filepath.Join(root, "copy-of-jan.jpg"), "slip-jan")
	writeFile(t, filepath.Join(root, "broken.jpeg"), "broken")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(root, ".hidden", "secret.pdf"), "hidden")

	proc := &fakeProcessor{fail: map[string]bool{"broken.jpeg": true}}
	ing := NewIngestor(proc, out, nil)

	results, stats, err := ing.IngestDirectory(context.Background(), root, nil, true)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stats.Matched != 4 || stats.Succeeded != 3 || stats.Failed != 1 || stats.Deduplicated != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(results) != 4 {
		t.Fatalf("results = %+v", results)
	}
	if proc.count() != 3 {
		t.Errorf("expected duplicate content to skip the pipeline, processed %v", proc.files)
	}

	b, err := os.ReadFile(filepath.Join(out, "copy-of-jan.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if doc["documentType"] != "Pay Slip" || doc["sha256"] == "" {
		t.Errorf("doc = %v", doc)
	}
	if _, err := os.Stat(filepath.Join(out, "feb.json")); err != nil {
		t.Errorf("nested file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "secret.json")); !os.IsNotExist(err) {
		t.Errorf("hidden file should be skipped")
	}
}

func TestIngestDirectory_IncludeExts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "a")
	writeFile(t, filepath.Join(root, "b.png"), "b")

	ing := NewIngestor(&fakeProcessor{}, t.TempDir(), nil)
	_, stats, err := ing.IngestDirectory(context.Background(), root, []string{".PDF"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestIngestDirectory_EmptyRoot(t *testing.T) {
	ing := NewIngestor(&fakeProcessor{}, t.TempDir(), nil)
	if _, _, err := ing.IngestDirectory(context.Background(), " ", nil, true); err == nil {
		t.Fatal("expected error")
	}
}

func TestIngestPath_Unsupported(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	writeFile(t, p, "x")
	ing := NewIngestor(&fakeProcessor{}, t.TempDir(), nil)
	if _, err := ing.IngestPath(context.Background(), p); err == nil {
		t.Fatal("expected an unsupported extension error")
	}
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "existing")

	proc := &fakeProcessor{}
	ing := NewIngestor(proc, out, nil)
	q := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		_, err := ing.IngestPath(ctx, job.Path)
		return err
	}, nil, async.WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, q, nil)
	}()

	waitFor(t, func() bool { return exists(filepath.Join(out, "existing.json")) })
	writeFile(t, filepath.Join(root, "new.png"), "new")
	waitFor(t, func() bool { return exists(filepath.Join(out, "new.json")) })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
	q.Shutdown(context.Background())
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, nil); err == nil {
		t.Fatal("expected error")
	}
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
