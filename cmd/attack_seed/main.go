package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/stridesec/threatflow/internal/attack"
	"github.com/stridesec/threatflow/internal/platform/logger"
	"github.com/stridesec/threatflow/internal/platform/qdrant"
)

func main() {
	var file string
	var batch int
	var dryRun bool
	flag.StringVar(&file, "file", "", "path to ATT&CK technique export with precomputed vectors (required)")
	flag.IntVar(&batch, "batch", 100, "points per upsert request")
	flag.BoolVar(&dryRun, "dry-run", false, "load and validate the export without upserting")
	flag.Parse()

	if file == "" {
		fmt.Println("usage: attack_seed -file techniques.json [-batch N] [-dry-run]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	techniques, err := attack.LoadTechniques(file)
	if err != nil {
		fmt.Printf("load techniques: %v\n", err)
		os.Exit(1)
	}
	dim := len(techniques[0].Vector)
	fmt.Printf("loaded %d techniques (vector_dim=%d) from %s\n", len(techniques), dim, file)

	cfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		fmt.Printf("qdrant config: %v\n", err)
		os.Exit(1)
	}
	if dim != cfg.VectorDim {
		fmt.Printf("export vector_dim=%d does not match QDRANT_VECTOR_DIM=%d\n", dim, cfg.VectorDim)
		os.Exit(1)
	}

	if dryRun {
		fmt.Printf("[dry-run] would upsert %d points into collection %q at %s\n",
			len(techniques), cfg.Collection, cfg.URL)
		return
	}

	client, err := qdrant.NewClient(log, cfg)
	if err != nil {
		fmt.Printf("qdrant client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := client.Ready(ctx); err != nil {
		fmt.Printf("qdrant not ready: %v\n", err)
		os.Exit(1)
	}

	upserted, err := client.UpsertTechniques(ctx, techniques, batch)
	if err != nil {
		fmt.Printf("upsert failed after %d points: %v\n", upserted, err)
		os.Exit(1)
	}
	fmt.Printf("done; upserted=%d collection=%s\n", upserted, cfg.Collection)
}
