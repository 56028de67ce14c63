// Package printer dispatches rendered documents to a print sink. Documents go
// out one at a time with a pause between them; firing several at once makes
// thermal printers drop jobs.
package printer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBlocked is returned by a Sink that cannot accept documents right now,
// for example when the spool directory is missing. Dispatch treats it as a
// silent stop rather than a failure.
var ErrBlocked = errors.New("print sink blocked")

// Sink receives one rendered document.
// Satisfied by *SpoolSink; narrow interface for testability.
type Sink interface {
	Print(name, html string) error
}

// Job is one document queued for printing.
type Job struct {
	Name string
	HTML string
}

// Dispatcher feeds jobs to a sink sequentially with a fixed delay between
// them. Safe for concurrent use; each Dispatch call runs its own sequence.
type Dispatcher struct {
	sink  Sink
	delay time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(sink Sink, delay time.Duration) *Dispatcher {
	if delay <= 0 {
		delay = 800 * time.Millisecond
	}
	return &Dispatcher{sink: sink, delay: delay, sleep: sleepCtx}
}

// Dispatch sends the jobs in order, pausing between consecutive jobs. It
// returns the number of jobs the sink accepted. A blocked sink stops the
// sequence without error; any other sink error is logged and skipped so one
// bad document does not hold up the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []Job) int {
	sent := 0
	for i, job := range jobs {
		if i > 0 {
			if err := d.sleep(ctx, d.delay); err != nil {
				return sent
			}
		}
		err := d.sink.Print(job.Name, job.HTML)
		if errors.Is(err, ErrBlocked) {
			return sent
		}
		if err != nil {
			log.Printf("ERROR: print %q: %v", job.Name, err)
			continue
		}
		sent++
	}
	return sent
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SpoolSink writes documents as HTML files into a spool directory, where a
// print agent on the terminal host picks them up.
type SpoolSink struct {
	dir string
	now func() time.Time
}

func NewSpoolSink(dir string) *SpoolSink {
	return &SpoolSink{dir: dir, now: time.Now}
}

// Print writes the document to <dir>/<name>-<timestamp>.html. A missing spool
// directory maps to ErrBlocked.
func (s *SpoolSink) Print(name, html string) error {
	if _, err := os.Stat(s.dir); err != nil {
		return ErrBlocked
	}
	file := fmt.Sprintf("%s-%d.html", sanitize(name), s.now().UnixNano())
	path := filepath.Join(s.dir, file)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write spool file: %w", err)
	}
	return nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
