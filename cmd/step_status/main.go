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
	var step int
	flag.IntVar(&step, "step", 0, "restrict to one step (0 = all known steps)")
	flag.Parse()

	_ = godotenv.Load()
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store := state.NewStore(state.FromEnv(), log)

	steps := state.Steps()
	if step != 0 {
		steps = []int{step}
	}

	for _, n := range steps {
		printStep(store, n)
	}
}

func printStep(store *state.Store, step int) {
	kill := ""
	if store.IsKillRequested(step) {
		kill = " [kill requested]"
	}

	doc, err := store.ReadProgress(step)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("step %d (%s): idle%s\n", step, state.StepName(step), kill)
		} else {
			fmt.Printf("step %d (%s): progress unreadable: %v%s\n", step, state.StepName(step), err, kill)
		}
		return
	}

	fmt.Printf("step %d (%s): %.1f%% (%d/%d) %s%s\n",
		step, state.StepName(step), doc.Progress, doc.Current, doc.Total, doc.Message, kill)
	if doc.Details != "" {
		fmt.Printf("  details: %s\n", doc.Details)
	}
	fmt.Printf("  updated: %s\n", doc.Timestamp)
}
