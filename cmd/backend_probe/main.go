package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/stridesec/threatflow/internal/platform/logger"
	"github.com/stridesec/threatflow/internal/probe"
)

func main() {
	_ = godotenv.Load()
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := probe.ConfigFromEnv()
	p := probe.New(log, cfg)

	// The api_key check issues two sequential requests, so the overall
	// deadline is looser than the per-request client timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 3*cfg.Timeout)
	defer cancel()

	failures := 0
	for _, res := range p.RunAll(ctx) {
		mark := "ok"
		if !res.OK {
			mark = "FAIL"
			failures++
		}
		line := fmt.Sprintf("[%s] %-8s status=%d", mark, res.Name, res.StatusCode)
		if res.Detail != "" {
			line += " " + res.Detail
		}
		if res.Err != nil {
			line += fmt.Sprintf(" (%v)", res.Err)
		}
		fmt.Println(line)
	}

	if failures > 0 {
		fmt.Printf("%d check(s) failed against %s\n", failures, cfg.BaseURL)
		os.Exit(1)
	}
	fmt.Printf("backend at %s looks healthy\n", cfg.BaseURL)
}
