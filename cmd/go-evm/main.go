package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// bootLogger is a separate logger from the interpreter's own op/go-logging
// instances (logger.NewLogger), used only for the CLI's own
// process-lifecycle messages (start/exit), following
// 0xPolygon-polygon-edge's command/server split between its
// hclog-based process logger and the node's internal component
// loggers.
var bootLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "go-evm",
	Level: hclog.Warn,
})

func main() {
	bootLogger.Debug("starting", "args", os.Args[1:])
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
