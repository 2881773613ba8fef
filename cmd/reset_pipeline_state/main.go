package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/stridesec/threatflow/internal/platform/logger"
	"github.com/stridesec/threatflow/internal/state"
)

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "print planned removals without deleting")
	flag.Parse()

	_ = godotenv.Load()
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store := state.NewStore(state.FromEnv(), log)

	if dryRun {
		plan := store.Plan()
		for _, path := range plan {
			fmt.Printf("[dry-run] would remove %s\n", path)
		}
		fmt.Printf("dry-run complete; candidates=%d\n", len(plan))
		return
	}

	removed := store.Reset()
	fmt.Printf("pipeline state reset; removed=%d\n", removed)
}
