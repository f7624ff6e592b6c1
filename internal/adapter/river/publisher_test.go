package river_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/river"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func startClient(t *testing.T, db *sql.DB) (*riveradapter.Client, <-chan *goriver.Event) {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := riveradapter.Setup(ctx, db, logger)
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	t.Cleanup(subscribeCancel)

	if err := client.Start(ctx); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})

	return client, subscribeChan
}

func TestPublisher_Publish_EnqueuesJob(t *testing.T) {
	client, completed := startClient(t, setupTestDB(t))

	pub := riveradapter.NewPublisher(client)
	event := domain.DomainEvent{
		Name:       domain.EventBookingCreated,
		EntityID:   "bk-1",
		PremisesID: "p-1",
		BedspaceID: "bs-1",
		Status:     string(domain.BookingProvisional),
		OccurredAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-completed:
		if got.Job.Kind != "event.published" {
			t.Errorf("job kind = %q, want %q", got.Job.Kind, "event.published")
		}
		if got.Job.Queue != riveradapter.QueueEvents {
			t.Errorf("job queue = %q, want %q", got.Job.Queue, riveradapter.QueueEvents)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestPublisher_Publish_PreservesEventData(t *testing.T) {
	client, completed := startClient(t, setupTestDB(t))

	pub := riveradapter.NewPublisher(client)
	event := domain.DomainEvent{
		Name:        domain.EventBedspaceArchived,
		EntityID:    "bs-42",
		PremisesID:  "p-7",
		BedspaceID:  "bs-42",
		Status:      string(domain.StatusOnline),
		EffectiveOn: "2024-07-01",
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-completed:
		args := got.Job.EncodedArgs
		if args == nil {
			t.Fatal("expected encoded args, got nil")
		}
		argsStr := string(args)
		for _, want := range []string{
			`"event":"bedspace.archived"`,
			`"entity_id":"bs-42"`,
			`"premises_id":"p-7"`,
			`"effective_on":"2024-07-01"`,
		} {
			if !strings.Contains(argsStr, want) {
				t.Errorf("encoded args missing %s, got: %s", want, argsStr)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestEventJobArgs_InsertOpts(t *testing.T) {
	opts := riveradapter.EventJobArgs{}.InsertOpts()
	if opts.Queue != riveradapter.QueueEvents {
		t.Errorf("queue = %q, want %q", opts.Queue, riveradapter.QueueEvents)
	}
	if opts.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", opts.MaxAttempts)
	}
}
