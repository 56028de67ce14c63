package printer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// memorySink records printed documents and can simulate failures.
type memorySink struct {
	names   []string
	failOn  map[string]error
	blocked bool
}

func (s *memorySink) Print(name, html string) error {
	if s.blocked {
		return ErrBlocked
	}
	if err := s.failOn[name]; err != nil {
		return err
	}
	s.names = append(s.names, name)
	return nil
}

func testDispatcher(sink Sink) (*Dispatcher, *int) {
	d := NewDispatcher(sink, 800*time.Millisecond)
	sleeps := 0
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		sleeps++
		return ctx.Err()
	}
	return d, &sleeps
}

func TestDispatchSequential(t *testing.T) {
	sink := &memorySink{}
	d, sleeps := testDispatcher(sink)

	sent := d.Dispatch(context.Background(), []Job{
		{Name: "kot-1", HTML: "<html>1</html>"},
		{Name: "kot-2", HTML: "<html>2</html>"},
		{Name: "kot-3", HTML: "<html>3</html>"},
	})

	if sent != 3 {
		t.Errorf("sent: got %d, want 3", sent)
	}
	if len(sink.names) != 3 || sink.names[0] != "kot-1" || sink.names[2] != "kot-3" {
		t.Errorf("dispatch order: %v", sink.names)
	}
	// A pause between every pair of consecutive jobs, none before the first.
	if *sleeps != 2 {
		t.Errorf("sleeps: got %d, want 2", *sleeps)
	}
}

func TestDispatchBlockedSinkStopsSilently(t *testing.T) {
	sink := &memorySink{blocked: true}
	d, _ := testDispatcher(sink)

	sent := d.Dispatch(context.Background(), []Job{{Name: "kot-1", HTML: "x"}})
	if sent != 0 {
		t.Errorf("sent: got %d, want 0", sent)
	}
}

func TestDispatchSkipsFailedJob(t *testing.T) {
	sink := &memorySink{failOn: map[string]error{"kot-2": errors.New("jam")}}
	d, _ := testDispatcher(sink)

	sent := d.Dispatch(context.Background(), []Job{
		{Name: "kot-1", HTML: "1"},
		{Name: "kot-2", HTML: "2"},
		{Name: "kot-3", HTML: "3"},
	})

	if sent != 2 {
		t.Errorf("sent: got %d, want 2", sent)
	}
	if len(sink.names) != 2 {
		t.Errorf("accepted jobs: %v", sink.names)
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	sink := &memorySink{}
	d, _ := testDispatcher(sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sent := d.Dispatch(ctx, []Job{
		{Name: "kot-1", HTML: "1"},
		{Name: "kot-2", HTML: "2"},
	})

	// First job goes out before any pause; the cancelled sleep stops the rest.
	if sent != 1 {
		t.Errorf("sent: got %d, want 1", sent)
	}
}

func TestSpoolSinkWritesFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewSpoolSink(dir)

	if err := sink.Print("KOT-1/copy 2", "<html>doc</html>"); err != nil {
		t.Fatalf("print: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 spool file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "KOT-1-copy-2-") || !strings.HasSuffix(name, ".html") {
		t.Errorf("spool file name: %s", name)
	}

	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(content) != "<html>doc</html>" {
		t.Errorf("content: %s", content)
	}
}

func TestSpoolSinkMissingDirIsBlocked(t *testing.T) {
	sink := NewSpoolSink(filepath.Join(t.TempDir(), "missing"))
	if err := sink.Print("KOT-1", "x"); !errors.Is(err, ErrBlocked) {
		t.Errorf("expected ErrBlocked, got %v", err)
	}
}
