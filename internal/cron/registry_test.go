package cron

import (
	"context"
	"testing"
)

type fakeJob struct {
	name string
}

func (f *fakeJob) Name() string              { return f.name }
func (f *fakeJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	sweep := &fakeJob{name: "payout_reconcile"}
	cleanup := &fakeJob{name: "notification_cleanup"}
	registry.Register(sweep)
	registry.Register(nil)
	registry.Register(cleanup)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != sweep || jobs[1] != cleanup {
		t.Fatalf("jobs returned out of registration order")
	}

	// Jobs must hand back a copy, not the internal slice.
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked to caller")
	}
}

func TestNewRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &fakeJob{name: "outbox_retention"}, nil)
	jobs := registry.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Name() != "outbox_retention" {
		t.Fatalf("unexpected job %q", jobs[0].Name())
	}
}
