package main

import (
	"fmt"
	"os"

	"github.com/danmuck/pagectl/internal/logging"
)

const usage = `usage: pagectl <command> [flags]

commands:
  run     start a worker instance
  ls      list live instances
  info    show one instance's metadata and events
  events  list one instance's callable events
  send    execute one or more events on an instance
`

func main() {
	logging.ConfigureRuntime("pagectl")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runWorker(os.Args[2:])
	case "ls":
		err = runList(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "events":
		err = runEvents(os.Args[2:])
	case "send":
		err = runSend(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "pagectl: unknown command %q\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagectl: %v\n", err)
		os.Exit(1)
	}
}
