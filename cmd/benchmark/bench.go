package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nulzo/cost-report/internal/cli"
	"github.com/nulzo/cost-report/pkg/api"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"gopkg.in/yaml.v3"
)

const (
	mockPort = 9091
	appPort  = 8081
)

const mockReport = `## Provider: Vercel

| Input | Value | Original Price (USD) | Estimated Cost (USD) | Cost Calculation | Pricing Source URL |
|---|---|---|---|---|---|
| Bandwidth_GB | 100 | $0.15/GB/month | 15.00 | $0.15/GB/month × 100 GB | https://vercel.com/pricing |
| **Total** | | | $15.00 | | |
`

var vercel = api.SelectedProviderRef{
	Name: "Vercel",
	Inputs: []api.InputField{
		{Name: "Bandwidth_GB", Label: "Bandwidth (GB)", Type: "number", DefaultValue: "100"},
	},
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	mode := flag.String("mode", "cached", "Workload: list, cached (repeat one report) or miss (unique inputs, hits the mock model)")
	upstreamDelay := flag.Duration("upstream-delay", 200*time.Millisecond, "Latency of the mock model")
	flag.Parse()

	targeter, err := buildTargeter(*mode)
	if err != nil {
		log.Fatal(err)
	}

	// start mock server
	go startMockServer(*upstreamDelay)

	// build and start application
	fmt.Println("Building application...")
	bin, err := filepath.Abs("bin/server")
	if err != nil {
		log.Fatal(err)
	}
	buildCmd := exec.Command("go", "build", "-o", bin, "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	// the server reads config.yaml from its working directory
	workDir, err := os.MkdirTemp("", "cost-report-bench")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(workDir)

	if err := writeBenchConfig(filepath.Join(workDir, "config.yaml")); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}

	fmt.Println("Starting application...")
	cmd := exec.Command(bin)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "LOG_LEVEL=error", "LLM_API_KEY=mock-key")

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))
	seedProvider()

	done := make(chan struct{})
	go monitorResources(cmd.Process.Pid, done)

	fmt.Printf("%s Running %s benchmark: %s duration, %d req/s\n", cli.Arrow(), *mode, *duration, *rate)

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true), vegeta.Timeout(30*time.Second))
	var metrics vegeta.Metrics

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
	}
	metrics.Close()

	close(done)

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("Status codes:    ", cli.PrettyFormat(metrics.StatusCodes))
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")

		uniqueErrors := make(map[string]bool)
		count := 0
		for _, msg := range metrics.Errors {
			if !uniqueErrors[msg] && count < 5 {
				fmt.Println(cli.CrossMark(), msg)

				uniqueErrors[msg] = true
				count++
			}
		}
	}

	printUsage()
}

func buildTargeter(mode string) (vegeta.Targeter, error) {
	base := fmt.Sprintf("http://localhost:%d/api", appPort)
	header := http.Header{"Content-Type": []string{"application/json"}}

	switch mode {
	case "list":
		return vegeta.NewStaticTargeter(vegeta.Target{Method: http.MethodGet, URL: base + "/providers", Header: header}), nil
	case "cached":
		body, err := reportBody("100")
		if err != nil {
			return nil, err
		}
		return vegeta.NewStaticTargeter(vegeta.Target{Method: http.MethodPost, URL: base + "/report", Body: body, Header: header}), nil
	case "miss":
		var seq atomic.Int64
		return func(t *vegeta.Target) error {
			body, err := reportBody(strconv.FormatInt(1000+seq.Add(1), 10))
			if err != nil {
				return err
			}
			t.Method = http.MethodPost
			t.URL = base + "/report"
			t.Body = body
			t.Header = header
			return nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want list, cached or miss)", mode)
	}
}

func reportBody(bandwidth string) ([]byte, error) {
	return json.Marshal(api.ReportRequest{Providers: []api.SelectedProvider{{
		Provider: vercel,
		Inputs:   map[string]string{"Bandwidth_GB": bandwidth},
	}}})
}

func writeBenchConfig(path string) error {
	cfg := map[string]interface{}{
		"server": map[string]interface{}{
			"port": strconv.Itoa(appPort),
			"env":  "benchmark",
		},
		"database": map[string]interface{}{
			"driver": "sqlite",
			"uri":    "bench.db",
		},
		"llm": map[string]interface{}{
			"provider": "openai",
			"base_url": fmt.Sprintf("http://localhost:%d/v1", mockPort),
			"model":    "mock-model",
		},
		"cache": map[string]interface{}{
			"driver": "lru",
			"size":   100000,
		},
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func seedProvider() {
	body, _ := json.Marshal(api.CreateProviderRequest{Name: vercel.Name, Inputs: vercel.Inputs})
	resp, err := http.Post(fmt.Sprintf("http://localhost:%d/api/providers", appPort), "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Failed to seed provider: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		log.Fatalf("Failed to seed provider: status %d", resp.StatusCode)
	}
}

func startMockServer(delay time.Duration) {
	mux := http.NewServeMux()

	completion, _ := json.Marshal(map[string]interface{}{
		"id": "bench-123",
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": mockReport}},
		},
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		// jitter keeps concurrent misses from completing in lockstep
		time.Sleep(delay + time.Duration(rand.Intn(20))*time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write(completion)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func monitorResources(pid int, done chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	fmt.Println("\n--- Resource Usage (ps) ---")
	fmt.Printf("% -10s % -10s % -10s\n", "Time", "RSS(MB)", "CPU(%)")

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "rss=,%cpu=").Output()
			if err != nil {
				continue
			}
			fields := strings.Fields(string(out))
			if len(fields) < 2 {
				continue
			}
			rss, _ := strconv.ParseFloat(fields[0], 64)
			cpu, _ := strconv.ParseFloat(fields[1], 64)

			fmt.Printf("% -10s % -10.2f % -10.2f\n", time.Now().Format("15:04:05"), rss/1024, cpu)
		}
	}
}

func printUsage() {
	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/analytics/usage?days=1", appPort))
	if err != nil {
		return
	}
	defer resp.Body.Close()

	var usage interface{}
	if err := json.NewDecoder(resp.Body).Decode(&usage); err != nil {
		return
	}
	// runs are flushed in batches, so the last few may be missing
	fmt.Println("Report usage:")
	fmt.Println(cli.PrettyFormat(usage))
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}
