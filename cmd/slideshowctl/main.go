package main

import (
	"os"

	"github.com/mamed-gasimov/event-slideshow/cmd/slideshowctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
