package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// sample is one timed request, tagged by route.
type sample struct {
	track bool
	d     time.Duration
}

func main() {
	concurrency := flag.Int("c", 20, "number of concurrent workers")
	duration := flag.Duration("d", 10*time.Second, "benchmark duration")
	linkCount := flag.Int("links", 100, "links to create before the run")
	storeDriver := flag.String("store", "sqlite", "store backend: json or sqlite")
	trackRatio := flag.Float64("track", 0.3, "fraction of redirects followed by a location report")
	flag.Parse()

	fmt.Println("geolink Benchmark")
	fmt.Println("=================")

	fmt.Printf("Building server...     ")
	tmpDir, err := os.MkdirTemp("", "geolink-bench-*")
	if err != nil {
		fatal("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	binPath := filepath.Join(tmpDir, "geolink-server")
	build := exec.Command("go", "build", "-o", binPath, "./cmd/server")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fatal("build server: %v", err)
	}
	fmt.Println("done")

	fmt.Printf("Starting server...     ")
	port, err := freePort()
	if err != nil {
		fatal("find free port: %v", err)
	}
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	srv := exec.Command(binPath)
	srvLog, err := os.Create(filepath.Join(tmpDir, "server.log"))
	if err != nil {
		fatal("create server log: %v", err)
	}
	defer srvLog.Close()
	srv.Stdout = srvLog
	srv.Stderr = srvLog
	srv.Dir = tmpDir
	srv.Env = append(os.Environ(),
		fmt.Sprintf("GEOLINK_PORT=%d", port),
		"GEOLINK_BASE_URL="+baseURL,
		"GEOLINK_STORE="+*storeDriver,
		"GEOLINK_DATA_PATH="+filepath.Join(tmpDir, "data", "bench."+*storeDriver),
		"GEOLINK_LOG_LEVEL=warn",
		"GEOLINK_LOG_FORMAT=json",
	)
	if err := srv.Start(); err != nil {
		fatal("start server: %v", err)
	}
	defer func() {
		srv.Process.Signal(syscall.SIGINT)
		srv.Wait()
	}()

	if err := waitReady(baseURL+"/client.html", 5*time.Second); err != nil {
		fatal("server not ready: %v", err)
	}
	fmt.Printf("ready (port %d, %s store)\n", port, *storeDriver)

	fmt.Printf("Creating links...      ")
	ids := make([]string, *linkCount)
	for i := range ids {
		id, err := createLink(baseURL, fmt.Sprintf("https://example.com/%d", i+1))
		if err != nil {
			fatal("create link %d: %v", i+1, err)
		}
		ids[i] = id
	}
	fmt.Printf("done (%d links)\n", len(ids))

	fmt.Printf("Benchmarking...        %s, %d workers\n", *duration, *concurrency)

	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConnsPerHost: *concurrency,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	rng := rand.New(rand.NewSource(42))
	seeds := make([]int64, *concurrency)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	var (
		mu       sync.Mutex
		samples  []sample
		failures int64
		reqCount atomic.Int64
	)

	benchStart := time.Now()
	deadline := benchStart.Add(*duration)
	var wg sync.WaitGroup

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		totalSec := duration.Seconds()
		for {
			select {
			case <-done:
				printProgress(totalSec, totalSec, reqCount.Load())
				fmt.Println()
				return
			case <-ticker.C:
				printProgress(min(time.Since(benchStart).Seconds(), totalSec), totalSec, reqCount.Load())
			}
		}
	}()

	for i := range *concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			localRng := rand.New(rand.NewSource(seeds[i]))
			var local []sample
			var localFails int64

			for time.Now().Before(deadline) {
				id := ids[localRng.Intn(len(ids))]

				d, err := timed(client, http.MethodGet, baseURL+"/r/"+id, nil, http.StatusFound)
				reqCount.Add(1)
				if err != nil {
					localFails++
					continue
				}
				local = append(local, sample{d: d})

				if localRng.Float64() >= *trackRatio {
					continue
				}
				body, _ := json.Marshal(map[string]any{
					"id": id,
					"location": map[string]float64{
						"lat":      localRng.Float64()*180 - 90,
						"lng":      localRng.Float64()*360 - 180,
						"accuracy": 5 + localRng.Float64()*50,
					},
				})
				d, err = timed(client, http.MethodPost, baseURL+"/api/track", body, http.StatusOK)
				reqCount.Add(1)
				if err != nil {
					localFails++
					continue
				}
				local = append(local, sample{track: true, d: d})
			}

			mu.Lock()
			samples = append(samples, local...)
			failures += localFails
			mu.Unlock()
		}()
	}

	wg.Wait()
	close(done)
	time.Sleep(10 * time.Millisecond) // let progress goroutine print final line

	var redirects, tracks []time.Duration
	for _, s := range samples {
		if s.track {
			tracks = append(tracks, s.d)
		} else {
			redirects = append(redirects, s.d)
		}
	}
	slices.Sort(redirects)
	slices.Sort(tracks)

	total := int64(len(samples)) + failures
	fmt.Println("")
	fmt.Println("Results")
	fmt.Println("-------")
	fmt.Printf("Requests:    %s\n", commaFmt(total))
	fmt.Printf("Errors:      %d\n", failures)
	fmt.Printf("RPS:         %.1f\n", float64(total)/duration.Seconds())
	report("Redirect", redirects)
	report("Track", tracks)
}

func createLink(baseURL, dest string) (string, error) {
	body, _ := json.Marshal(map[string]string{"originalUrl": dest})
	resp, err := http.Post(baseURL+"/api/links", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	var out struct {
		TrackingID string `json:"trackingId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.TrackingID, nil
}

func timed(client *http.Client, method, url string, body []byte, want int) (time.Duration, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != want {
		return 0, fmt.Errorf("%s %s: status %d", method, url, resp.StatusCode)
	}
	return elapsed, nil
}

func report(name string, sorted []time.Duration) {
	if len(sorted) == 0 {
		return
	}
	fmt.Printf("%-9s n=%s  p50 %s  p95 %s  p99 %s\n", name+":", commaFmt(int64(len(sorted))),
		fmtDur(percentile(sorted, 50)), fmtDur(percentile(sorted, 95)), fmtDur(percentile(sorted, 99)))
}

func freePort() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

func waitReady(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	for time.Now().Before(deadline) {
		if resp, err := client.Get(url); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout after %s", timeout)
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[min(len(sorted)*p/100, len(sorted)-1)]
}

func printProgress(elapsed, total float64, reqs int64) {
	const barWidth = 30
	filled := int(min(elapsed/total, 1) * barWidth)
	bar := bytes.Repeat([]byte{'-'}, barWidth)
	for i := range filled {
		bar[i] = '#'
	}
	rps := float64(0)
	if elapsed > 0 {
		rps = float64(reqs) / elapsed
	}
	fmt.Printf("\r  [%s] %.0fs/%.0fs  %s reqs  %.0f rps",
		string(bar), elapsed, total, commaFmt(reqs), rps)
}

func fmtDur(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
}

// commaFmt formats n with thousands separators.
func commaFmt(n int64) string {
	s := fmt.Sprint(n)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", args...)
	os.Exit(1)
}
