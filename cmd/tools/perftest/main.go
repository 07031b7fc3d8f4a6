// main.go - load generator for the tracking endpoint
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"folio/internal/events"
)

type perfConfig struct {
	BaseURL     string
	Origin      string
	Concurrency int
	Duration    time.Duration
	Rate        int
	Visitors    int
	Timeout     time.Duration
	Output      string
}

type result struct {
	Latency    time.Duration
	StatusCode int
	Err        error
}

type stats struct {
	mu        sync.Mutex
	latencies []time.Duration
	codes     map[int]int
	errors    int
	started   time.Time
	finished  time.Time
}

func main() {
	cfg := perfConfig{}
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:3000", "server base URL")
	flag.StringVar(&cfg.Origin, "origin", "https://example.com", "Origin header sent with each call")
	flag.IntVar(&cfg.Concurrency, "c", 10, "concurrent clients")
	flag.DurationVar(&cfg.Duration, "d", 30*time.Second, "test duration")
	flag.IntVar(&cfg.Rate, "rate", 0, "target requests per second (0 = unlimited)")
	flag.IntVar(&cfg.Visitors, "visitors", 500, "distinct fingerprints to rotate through")
	flag.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "request timeout")
	flag.StringVar(&cfg.Output, "o", "perf_results.json", "file for the JSON summary (empty to skip)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	logger.Info("Starting load test",
		slog.String("target", cfg.BaseURL+"/api/analytics/track"),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Duration("duration", cfg.Duration),
		slog.Int("rate", cfg.Rate))

	s := &stats{codes: make(map[int]int), started: time.Now()}
	for r := range run(ctx, cfg) {
		s.record(r)
	}
	s.finished = time.Now()

	s.print(os.Stdout)
	if cfg.Output != "" {
		if err := s.export(cfg.Output); err != nil {
			logger.Error("Failed to write results", slog.String("file", cfg.Output), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Results written", slog.String("file", cfg.Output))
	}
}

func run(ctx context.Context, cfg perfConfig) <-chan result {
	out := make(chan result, cfg.Concurrency*10)
	var wg sync.WaitGroup

	var interval time.Duration
	if cfg.Rate > 0 {
		interval = time.Duration(float64(time.Second) * float64(cfg.Concurrency) / float64(cfg.Rate))
	}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			client := &http.Client{Timeout: cfg.Timeout}
			rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(worker)))

			var tick <-chan time.Time
			if interval > 0 {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				tick = ticker.C
			}

			for {
				if tick != nil {
					select {
					case <-tick:
					case <-ctx.Done():
						return
					}
				} else if ctx.Err() != nil {
					return
				}

				r := send(ctx, client, cfg, randomRequest(rng, cfg.Visitors))
				if ctx.Err() != nil && r.Err != nil {
					return
				}
				out <- r
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

var (
	paths     = []string{"/", "/projects", "/projects/folio", "/about", "/resume", "/contact", "/blog"}
	referrers = []string{"", "", "https://www.google.com/", "https://github.com/", "https://www.linkedin.com/", "https://news.ycombinator.com/"}
	agents    = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	}
)

type outgoing struct {
	body      events.TrackRequest
	userAgent string
}

func randomRequest(rng *rand.Rand, visitors int) outgoing {
	duration := rng.IntN(240)
	depth := rng.IntN(101)
	req := events.TrackRequest{
		Type:        events.TypePageView,
		Fingerprint: fmt.Sprintf("perf-%d", rng.IntN(max(visitors, 1))),
		Path:        paths[rng.IntN(len(paths))],
		Title:       "Load test",
		Referrer:    referrers[rng.IntN(len(referrers))],
		Duration:    &duration,
		ScrollDepth: &depth,
	}
	if rng.IntN(10) == 0 {
		req = events.TrackRequest{
			Type:          events.TypeEvent,
			Fingerprint:   req.Fingerprint,
			EventName:     "resume_download",
			EventCategory: "engagement",
		}
	}
	return outgoing{body: req, userAgent: agents[rng.IntN(len(agents))]}
}

func send(ctx context.Context, client *http.Client, cfg perfConfig, o outgoing) result {
	payload, err := json.Marshal(o.body)
	if err != nil {
		return result{Err: fmt.Errorf("marshal: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/analytics/track", bytes.NewReader(payload))
	if err != nil {
		return result{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Origin", cfg.Origin)

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return result{Latency: latency, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return result{Latency: latency, StatusCode: resp.StatusCode}
}

func (s *stats) record(r result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Err != nil {
		s.errors++
		return
	}
	s.codes[r.StatusCode]++
	s.latencies = append(s.latencies, r.Latency)
}

func (s *stats) total() int {
	return len(s.latencies) + s.errors
}

func (s *stats) succeeded() int {
	return s.codes[http.StatusOK]
}

// percentile expects sorted latencies.
func (s *stats) percentile(p float64) time.Duration {
	if len(s.latencies) == 0 {
		return 0
	}
	idx := int(float64(len(s.latencies)-1) * p)
	return s.latencies[idx]
}

func (s *stats) print(w io.Writer) {
	slices.Sort(s.latencies)
	elapsed := s.finished.Sub(s.started)
	rps := float64(s.total()) / elapsed.Seconds()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nMETRIC\tVALUE\n")
	fmt.Fprintf(tw, "------\t-----\n")
	fmt.Fprintf(tw, "Duration\t%v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(tw, "Requests\t%d\n", s.total())
	fmt.Fprintf(tw, "Requests/sec\t%.1f\n", rps)
	fmt.Fprintf(tw, "Succeeded\t%d\n", s.succeeded())
	fmt.Fprintf(tw, "Transport errors\t%d\n", s.errors)
	fmt.Fprintf(tw, "p50\t%v\n", s.percentile(0.50))
	fmt.Fprintf(tw, "p90\t%v\n", s.percentile(0.90))
	fmt.Fprintf(tw, "p99\t%v\n", s.percentile(0.99))
	if n := len(s.latencies); n > 0 {
		fmt.Fprintf(tw, "max\t%v\n", s.latencies[n-1])
	}
	tw.Flush()

	if len(s.codes) == 0 {
		return
	}
	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	fmt.Fprintln(w, "\nStatus codes:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, code := range codes {
		n := s.codes[code]
		bar := strings.Repeat("█", n*40/max(len(s.latencies), 1))
		fmt.Fprintf(tw, "%d\t%d\t%s\n", code, n, bar)
	}
	tw.Flush()
}

func (s *stats) export(path string) error {
	elapsed := s.finished.Sub(s.started)
	summary := map[string]any{
		"requests":       s.total(),
		"succeeded":      s.succeeded(),
		"errors":         s.errors,
		"durationMs":     elapsed.Milliseconds(),
		"requestsPerSec": float64(s.total()) / elapsed.Seconds(),
		"p50Ms":          s.percentile(0.50).Milliseconds(),
		"p90Ms":          s.percentile(0.90).Milliseconds(),
		"p99Ms":          s.percentile(0.99).Milliseconds(),
		"statusCodes":    s.codes,
		"startTime":      s.started.Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
