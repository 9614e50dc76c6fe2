package main

import (
	"context"
	"os"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
