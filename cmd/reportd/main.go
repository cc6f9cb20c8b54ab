package main

import (
	"os"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/cmd/reportd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
