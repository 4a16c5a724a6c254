package main

import (
	"context"
	"fmt"
	"os"

	"github.com/philly/arch-blog/reader/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
