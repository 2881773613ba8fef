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
	var clear bool
	flag.IntVar(&step, "step", 0, "pipeline step to cancel (required)")
	flag.BoolVar(&clear, "clear", false, "remove the kill flag instead of creating it")
	flag.Parse()

	if step == 0 {
		fmt.Println("usage: step_kill -step N [-clear]")
		os.Exit(2)
	}

	_ = godotenv.Load()
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store := state.NewStore(state.FromEnv(), log)

	if clear {
		if err := store.ClearKill(step); err != nil {
			fmt.Printf("clear kill flag for step %d: %v\n", step, err)
			os.Exit(1)
		}
		fmt.Printf("kill flag cleared for step %d (%s)\n", step, state.StepName(step))
		return
	}

	if err := store.RequestKill(step); err != nil {
		fmt.Printf("request kill for step %d: %v\n", step, err)
		os.Exit(1)
	}
	fmt.Printf("kill requested for step %d (%s); the step stops at its next checkpoint\n",
		step, state.StepName(step))
}
