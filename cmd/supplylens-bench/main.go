// Benchmark tool for the supplylens read API.
//
// Usage:
//
//	go run cmd/supplylens-bench/main.go -url http://localhost:8000 -requests 5000
//
// This tool:
//  1. Builds a request mix over the reporting and listing endpoints
//  2. Replays it from concurrent workers, optionally rate limited
//  3. Reports per-endpoint latency percentiles and error counts
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// endpoints is the replayed request mix. Weights roughly follow how a
// dashboard session spreads its reads.
var endpoints = []struct {
	path   string
	weight int
}{
	{"/api/categories", 1},
	{"/api/companies?limit=50", 2},
	{"/api/companies/with-locations", 2},
	{"/api/locations", 1},
	{"/api/transactions?limit=100", 4},
	{"/api/transactions/stats", 3},
	{"/api/country-trade-stats?limit=200", 4},
	{"/api/country-trade-stats/summary", 3},
	{"/api/country-trade-stats/trends", 3},
	{"/api/country-trade-stats/top-countries?limit=10", 2},
	{"/api/shipments?limit=100", 2},
	{"/api/monthly-company-flows?limit=100", 2},
}

type endpointStats struct {
	requests  int64
	errors    int64
	latencies []time.Duration
	mu        sync.Mutex
}

func (s *endpointStats) record(d time.Duration, ok bool) {
	atomic.AddInt64(&s.requests, 1)
	if !ok {
		atomic.AddInt64(&s.errors, 1)
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

func (s *endpointStats) percentile(p float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(s.latencies))
	copy(sorted, s.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "supplylens base URL")
	requests := flag.Int("requests", 1000, "total number of requests to send")
	workers := flag.Int("workers", 10, "number of concurrent workers")
	rps := flag.Float64("rate", 0, "request rate limit per second (0 = unlimited)")
	seed := flag.Int64("seed", 1, "seed for the request mix shuffle")
	verbose := flag.Bool("verbose", false, "print each failed request")
	flag.Parse()

	fmt.Println("supplylens-bench - read API load benchmark")
	fmt.Printf("\nTarget:    %s\n", *baseURL)
	fmt.Printf("Requests:  %d\n", *requests)
	fmt.Printf("Workers:   %d\n", *workers)
	if *rps > 0 {
		fmt.Printf("Rate:      %.1f req/s\n", *rps)
	} else {
		fmt.Printf("Rate:      unlimited\n")
	}
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: supplylens not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure the server is running:")
		fmt.Println("  go run cmd/supplylens/main.go")
		os.Exit(1)
	}
	fmt.Println("server is healthy, starting")

	stats := make(map[string]*endpointStats, len(endpoints))
	var order []string
	for _, e := range endpoints {
		stats[e.path] = &endpointStats{}
		order = append(order, e.path)
	}

	// Expand the weighted mix into a shuffled request plan.
	rng := rand.New(rand.NewSource(*seed))
	var plan []string
	for len(plan) < *requests {
		for _, e := range endpoints {
			for i := 0; i < e.weight && len(plan) < *requests; i++ {
				plan = append(plan, e.path)
			}
		}
	}
	rng.Shuffle(len(plan), func(i, j int) { plan[i], plan[j] = plan[j], plan[i] })

	var limiter *rate.Limiter
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), *workers)
	}

	work := make(chan string, 100)
	var wg sync.WaitGroup
	var totalErrors int64

	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 30 * time.Second}

			for path := range work {
				if limiter != nil {
					if err := limiter.Wait(context.Background()); err != nil {
						return
					}
				}

				reqStart := time.Now()
				ok, err := doRequest(client, *baseURL+path)
				elapsed := time.Since(reqStart)

				stats[path].record(elapsed, ok)
				if !ok {
					atomic.AddInt64(&totalErrors, 1)
					if *verbose {
						fmt.Printf("FAIL %s: %v\n", path, err)
					}
				}
			}
		}()
	}

	for _, path := range plan {
		work <- path
	}
	close(work)
	wg.Wait()
	duration := time.Since(start)

	printResults(order, stats, totalErrors, int64(len(plan)), duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func doRequest(client *http.Client, url string) (bool, error) {
	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("status %d", resp.StatusCode)
	}
	return true, nil
}

func printResults(order []string, stats map[string]*endpointStats, errors, total int64, duration time.Duration) {
	fmt.Println("\nRESULTS")
	fmt.Printf("  Total Requests:  %d\n", total)
	fmt.Printf("  Errors:          %d\n", errors)
	fmt.Printf("  Duration:        %v\n", duration.Round(time.Millisecond))
	if duration > 0 {
		fmt.Printf("  Throughput:      %.1f req/s\n", float64(total)/duration.Seconds())
	}

	fmt.Println("\nPER ENDPOINT (p50 / p95 / p99)")
	for _, path := range order {
		s := stats[path]
		label := path
		if i := strings.Index(label, "?"); i >= 0 {
			label = label[:i]
		}
		fmt.Printf("  %-40s %6d req  %6d err  %8v  %8v  %8v\n",
			label,
			atomic.LoadInt64(&s.requests),
			atomic.LoadInt64(&s.errors),
			s.percentile(0.50).Round(time.Microsecond),
			s.percentile(0.95).Round(time.Microsecond),
			s.percentile(0.99).Round(time.Microsecond),
		)
	}
	fmt.Println()
}
