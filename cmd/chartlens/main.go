package main

import (
	"github.com/quantlens/chartlens/internal/cli"
)

func main() {
	cli.Run()
}
