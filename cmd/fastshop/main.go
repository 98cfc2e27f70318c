package main

import (
	"context"
	"errors"
	"os"

	"github.com/nrbrt02/fast-shopping/internal/cli"
)

func main() {
	err := cli.Execute()
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		os.Exit(130)
	default:
		os.Exit(1)
	}
}
