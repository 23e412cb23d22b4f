// Package main is the entry point for the playsync application.
package main

import (
	"github.com/playsync/playsync/cmd"
	"github.com/playsync/playsync/config"
	"github.com/playsync/playsync/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
