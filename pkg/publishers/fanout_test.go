package publishers

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type stubPublisher struct {
	id     string
	err    error
	calls  int32
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return "stub" }
func (s *stubPublisher) Publish(context.Context, SearchEvent) error {
	atomic.AddInt32(&s.calls, 1)
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutAggregatesErrors(t *testing.T) {
	ok := &stubPublisher{id: "ok"}
	bad := &stubPublisher{id: "bad", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{ok, nil, bad}, nil)

	if fanout.Size() != 2 {
		t.Fatalf("expected nil publishers to be dropped, size=%d", fanout.Size())
	}

	delivered, err := fanout.Publish(context.Background(), testEvent())
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	if err == nil || !strings.Contains(err.Error(), "stub publisher[bad]") {
		t.Fatalf("expected aggregated error naming the failing publisher, got %v", err)
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("every publisher should be called once: ok=%d bad=%d", ok.calls, bad.calls)
	}
}

func TestNilFanoutIsNoop(t *testing.T) {
	var f *Fanout
	if n, err := f.Publish(context.Background(), testEvent()); n != 0 || err != nil {
		t.Fatalf("nil fanout: n=%d err=%v", n, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("nil fanout close: %v", err)
	}
}

func TestFanoutCloseReachesClosers(t *testing.T) {
	p := &stubPublisher{id: "c"}
	if err := NewFanout([]Publisher{p}, nil).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !p.closed {
		t.Fatal("publisher was not closed")
	}
}

func TestDefaultRegistryBuildsHTTP(t *testing.T) {
	pubs, err := DefaultRegistry().BuildAll(context.Background(), []PublisherConfig{
		{ID: "hook", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com", Method: "POST", TimeoutSeconds: 1}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("unexpected publishers %#v", pubs)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	_, err := NewRegistry(nil).BuildAll(context.Background(), []PublisherConfig{{ID: "x", Type: "kafka"}}, nil)
	if err == nil {
		t.Fatal("expected error for unregistered type")
	}
}
