package main

import (
	"fmt"
	"os"

	"github.com/tech2news/technews/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
