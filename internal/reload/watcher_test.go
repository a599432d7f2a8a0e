package reload

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/timzifer/stepgen/config"
)

func TestUniquePathsFiltersDuplicatesAndEmptyValues(t *testing.T) {
	paths := []string{"", "/tmp/a.xml", "/tmp/b.yaml", "/tmp/a.xml", "/tmp/c.cue", "/tmp/b.yaml"}
	got := uniquePaths(paths)
	want := []string{"/tmp/a.xml", "/tmp/b.yaml", "/tmp/c.cue"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("uniquePaths() = %v, want %v", got, want)
	}
}

func TestWatcherTracksInputAndConfig(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pi.xml")
	cfgFile := filepath.Join(dir, "stepgen.yaml")
	writeFile(t, input, "<System/>")
	writeFile(t, cfgFile, "output: {}")

	watcher, err := NewWatcher(input, &config.Config{Source: cfgFile})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	want := []string{input, cfgFile}
	if input > cfgFile {
		want = []string{cfgFile, input}
	}
	if got := watcher.Files(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Files() = %v, want %v", got, want)
	}
}

func TestWatcherUpdateSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.yaml")

	var watcher Watcher
	if err := watcher.Update(filepath.Join(dir, "absent.xml"), &config.Config{Source: missing}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(watcher.files) != 0 {
		t.Fatalf("expected 0 tracked files, got %d", len(watcher.files))
	}
}

func TestWatcherCheckDetectsChangesAndRemovals(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pi.xml")
	cfgFile := filepath.Join(dir, "stepgen.cue")
	writeFile(t, input, "<System/>")
	writeFile(t, cfgFile, "output: {}")

	watcher, err := NewWatcher(input, &config.Config{Source: cfgFile})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if changed, err := watcher.Check(); err != nil {
		t.Fatalf("Check() error = %v", err)
	} else if len(changed) != 0 {
		t.Fatalf("expected no changes on first check, got %v", changed)
	}

	time.Sleep(10 * time.Millisecond)
	writeFile(t, input, "<System><Block/></System>")
	if err := os.Remove(cfgFile); err != nil {
		t.Fatalf("Remove(%s) error = %v", cfgFile, err)
	}

	changed, err := watcher.Check()
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	want := []string{input, cfgFile}
	if input > cfgFile {
		want = []string{cfgFile, input}
	}
	if !reflect.DeepEqual(changed, want) {
		t.Fatalf("Check() = %v, want %v", changed, want)
	}

	if err := watcher.Update(input, nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if changed, _ := watcher.Check(); len(changed) != 0 {
		t.Fatalf("expected clean snapshot after Update, got %v", changed)
	}
}

func TestWatcherHandlesNilReceiver(t *testing.T) {
	var watcher *Watcher
	if err := watcher.Update("", &config.Config{}); err != nil {
		t.Fatalf("nil watcher Update() error = %v", err)
	}
	if changed, err := watcher.Check(); err != nil {
		t.Fatalf("nil watcher Check() error = %v", err)
	} else if changed != nil {
		t.Fatalf("expected nil slice from nil watcher, got %v", changed)
	}
	if files := watcher.Files(); files != nil {
		t.Fatalf("expected nil files from nil watcher, got %v", files)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}
