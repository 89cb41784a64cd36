package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) observe(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *outcomeRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

// statusSequence answers with codes in order, repeating the last one.
func statusSequence(t *testing.T, hits *atomic.Int32, codes ...int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}
		w.WriteHeader(codes[n])
		if codes[n] == http.StatusOK {
			_, _ = w.Write([]byte(`{"menu": []}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string, attempts int) Config {
	return Config{
		URL:             url,
		Timeout:         2 * time.Second,
		MaxAttempts:     attempts,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		BreakerFailures: 100,
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name       string
		codes      []int
		attempts   int
		wantHits   int32
		wantErr    bool
		wantStatus bool
	}{
		{name: "ok", codes: []int{200}, attempts: 3, wantHits: 1},
		{name: "retries 5xx until success", codes: []int{500, 503, 200}, attempts: 3, wantHits: 3},
		{name: "gives up after max attempts", codes: []int{503}, attempts: 3, wantHits: 3, wantErr: true, wantStatus: true},
		{name: "does not retry 4xx", codes: []int{404}, attempts: 3, wantHits: 1, wantErr: true, wantStatus: true},
		{name: "single attempt", codes: []int{500, 200}, attempts: 1, wantHits: 1, wantErr: true, wantStatus: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := statusSequence(t, &hits, tt.codes...)
			src := New(testConfig(srv.URL, tt.attempts))

			body, err := src.Fetch(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantStatus && !errors.Is(err, ErrUnexpectedStatus) {
				t.Errorf("err = %v, want ErrUnexpectedStatus", err)
			}
			if !tt.wantErr && string(body) != `{"menu": []}` {
				t.Errorf("body = %q", body)
			}
			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &outcomeRecorder{}
	src := New(testConfig(url, 2), WithAttemptObserver(rec.observe))
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch succeeded against a closed server")
	}
	got := rec.list()
	if len(got) != 2 || got[0] != OutcomeTransportError || got[1] != OutcomeTransportError {
		t.Errorf("outcomes = %v, want two transport errors", got)
	}
}

func TestFetchBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := statusSequence(t, &hits, 500)

	cfg := testConfig(srv.URL, 1)
	cfg.BreakerFailures = 2
	cfg.BreakerCooldown = time.Hour
	rec := &outcomeRecorder{}
	src := New(cfg, WithAttemptObserver(rec.observe))

	for i := 0; i < 3; i++ {
		if _, err := src.Fetch(context.Background()); err == nil {
			t.Fatalf("fetch %d succeeded", i)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2 before the breaker opened", got)
	}
	got := rec.list()
	if len(got) != 3 || got[2] != OutcomeCircuitOpen {
		t.Errorf("outcomes = %v, want circuit_open last", got)
	}
}

func TestFetchCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := statusSequence(t, &hits, 200)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := New(testConfig(srv.URL, 3))
	if _, err := src.Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
