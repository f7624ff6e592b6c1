package river_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	goriver "github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	riveradapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/river"
)

func TestEventWorker_LogsEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	worker := riveradapter.NewEventWorker(logger)

	job := &goriver.Job[riveradapter.EventJobArgs]{
		JobRow: &rivertype.JobRow{ID: 12, Attempt: 1},
		Args: riveradapter.EventJobArgs{
			Event:      "void.cancelled",
			EntityID:   "v-1",
			BedspaceID: "bs-1",
		},
	}
	if err := worker.Work(context.Background(), job); err != nil {
		t.Fatalf("Work: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"event=void.cancelled", "entity_id=v-1", "bedspace_id=bs-1", "job_id=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s, got: %s", want, out)
		}
	}
	if strings.Contains(out, "premises_id") {
		t.Errorf("log has empty premises_id: %s", out)
	}
}
