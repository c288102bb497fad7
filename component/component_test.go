package component

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/mediagraph/logger"
)

// fakeComponent records its lifecycle calls into a shared journal.
type fakeComponent struct {
	name     string
	startErr error
	stopErr  error
	status   HealthStatus
	journal  *[]string
	desc     *Description
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) Start(context.Context) error {
	*f.journal = append(*f.journal, "start "+f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		*f.journal = append(*f.journal, "stop without deadline "+f.name)
	}
	*f.journal = append(*f.journal, "stop "+f.name)
	return f.stopErr
}

func (f *fakeComponent) Health(context.Context) Health {
	return Health{Name: f.name, Status: f.status}
}

type describedComponent struct{ *fakeComponent }

func (d describedComponent) Describe() Description { return *d.desc }

func newRegistry(t *testing.T, comps ...*fakeComponent) *Registry {
	t.Helper()
	r := NewRegistry(logger.NewNop())
	for _, c := range comps {
		if err := r.Register(c); err != nil {
			t.Fatalf("Register(%s): %v", c.name, err)
		}
	}
	return r
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistry_Lifecycle(t *testing.T) {
	var journal []string
	r := newRegistry(t,
		&fakeComponent{name: "telemetry", journal: &journal},
		&fakeComponent{name: "server", journal: &journal},
		&fakeComponent{name: "events", journal: &journal},
	)

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	want := []string{
		"start telemetry", "start server", "start events",
		"stop events", "stop server", "stop telemetry",
	}
	if !equal(journal, want) {
		t.Errorf("journal = %v, want %v", journal, want)
	}

	journal = nil
	if err := r.StopAll(context.Background()); err != nil || len(journal) != 0 {
		t.Errorf("second StopAll must be a no-op, got %v %v", journal, err)
	}
}

func TestRegistry_RegisterRejects(t *testing.T) {
	var journal []string
	r := newRegistry(t, &fakeComponent{name: "server", journal: &journal})

	if err := r.Register(&fakeComponent{name: "server", journal: &journal}); err == nil {
		t.Error("duplicate name must be rejected")
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakeComponent{name: "late", journal: &journal}); err == nil {
		t.Error("registering after start must be rejected")
	}
}

func TestRegistry_StartFailureRollsBack(t *testing.T) {
	var journal []string
	boom := errors.New("address in use")
	r := newRegistry(t,
		&fakeComponent{name: "telemetry", journal: &journal},
		&fakeComponent{name: "server", journal: &journal, startErr: boom},
		&fakeComponent{name: "events", journal: &journal},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.StartAll(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("StartAll error = %v", err)
	}
	want := []string{"start telemetry", "start server", "stop telemetry"}
	if !equal(journal, want) {
		t.Errorf("journal = %v, want %v", journal, want)
	}
}

func TestRegistry_StopAllJoinsErrors(t *testing.T) {
	var journal []string
	errA, errB := errors.New("a"), errors.New("b")
	r := newRegistry(t,
		&fakeComponent{name: "a", journal: &journal, stopErr: errA},
		&fakeComponent{name: "b", journal: &journal, stopErr: errB},
		&fakeComponent{name: "c", journal: &journal},
	)
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("StopAll error = %v", err)
	}
	if journal[len(journal)-1] != "stop a" {
		t.Errorf("every component must be stopped, journal = %v", journal)
	}
}

func TestRegistry_HealthAll(t *testing.T) {
	var journal []string
	r := newRegistry(t,
		&fakeComponent{name: "server", journal: &journal, status: StatusHealthy},
		&fakeComponent{name: "telemetry", journal: &journal, status: StatusDegraded},
	)

	got := r.HealthAll(context.Background())
	if len(got) != 2 || got[0].Name != "server" || got[1].Status != StatusDegraded {
		t.Errorf("HealthAll = %+v", got)
	}
}

func TestRegistry_DescribableLogsSummary(t *testing.T) {
	var journal []string
	var buf bytes.Buffer
	c := describedComponent{&fakeComponent{
		name:    "status-server",
		journal: &journal,
		desc:    &Description{Type: "server", Details: "127.0.0.1:8089", Port: 8089},
	}}
	r := NewRegistry(logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "mediaplay", &buf))
	if err := r.Register(c); err != nil {
		t.Fatal(err)
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{`"name":"status-server"`, `"details":"127.0.0.1:8089"`, `"port":8089`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q lacks %s", out, want)
		}
	}
}
