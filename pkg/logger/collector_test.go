package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	digests []Digest
}

func (p *capturePublisher) PublishDigest(_ context.Context, d Digest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.digests = append(p.digests, d)
	return nil
}

func TestCollectorDedupesEntries(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{Service: "walletpnl", FlushInterval: time.Hour, CountThreshold: 10, Publisher: pub})
	defer c.Close()

	fields := map[string]interface{}{"provider": "helius"}
	c.AddLog("error", "fetch page", fields, "usecase/fetcher.go:10")
	c.AddLog("error", "fetch page", fields, "usecase/fetcher.go:10")
	c.AddLog("error", "fetch page", map[string]interface{}{"provider": "cielo"}, "usecase/fetcher.go:10")

	if got := c.Pending(); got != 2 {
		t.Fatalf("expected 2 unique entries, got %d", got)
	}

	c.Flush()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(pub.digests))
	}
	d := pub.digests[0]
	if d.Service != "walletpnl" || len(d.Entries) != 2 {
		t.Fatalf("unexpected digest: %+v", d)
	}
	total := 0
	for _, e := range d.Entries {
		total += e.Count
	}
	if total != 3 {
		t.Fatalf("expected counts to sum to 3, got %d", total)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{FlushInterval: time.Hour, CountThreshold: 2, Publisher: pub})

	c.AddLog("error", "a", nil, "x")
	c.AddLog("error", "b", nil, "x")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.digests) != 1 || len(pub.digests[0].Entries) != 2 {
		t.Fatalf("expected one digest with 2 entries, got %+v", pub.digests)
	}
}

func TestLoggerWithKeepsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{FlushInterval: time.Hour, CountThreshold: 100, Publisher: pub})
	defer l.RemoveCollector()

	child := l.With(String("wallet", "abc"))
	child.Error("boom", Int("page", 2))

	if l.collector.Pending() != 1 {
		t.Fatalf("expected child error to reach the shared collector")
	}
}
