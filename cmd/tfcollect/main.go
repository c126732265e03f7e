package main

import (
	"github.com/NVIDIA/textfile-collector/pkg/cli"
)

func main() {
	cli.Execute()
}
