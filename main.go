package main

import (
	"os"

	"github.com/quizpulse/quizpulse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
