package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/config"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", config.FormatError(err, a.opts.logLevel == "debug"))
		stop()
		os.Exit(1)
	}
}
