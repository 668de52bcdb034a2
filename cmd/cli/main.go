package main

import (
	"github.com/mchmarny/safegrade/pkg/cli"
)

func main() {
	cli.Execute()
}
