// cmd/snow-search/main.go
package main

import (
	"fmt"
	"os"

	"snow-search/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
