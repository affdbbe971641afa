package main

import (
	"os"

	"glow.fit/glowscan/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
