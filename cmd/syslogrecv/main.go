package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alikahawa/syslog-receiver/internal/caps"
	"github.com/alikahawa/syslog-receiver/internal/config"
	"github.com/alikahawa/syslog-receiver/internal/gwlog"
	"github.com/alikahawa/syslog-receiver/internal/supervisor"
	"github.com/alikahawa/syslog-receiver/internal/version"
)

var (
	verbose  = flag.Bool("v", false, "Display verbose status updates to stdout")
	ver      = flag.Bool("version", false, "Print the version information and exit")
	logLevel = flag.String("log-level", "INFO", "Minimum log level: OFF, DEBUG, INFO, WARN, ERROR, CRITICAL")
)

func main() {
	debug.SetTraceback("all")
	flag.Parse()
	if *ver {
		version.PrintVersion(os.Stdout)
		os.Exit(0)
	}

	lg := gwlog.New(os.Stderr) // do not close: we want it alive through any panic unwind
	lg.SetAppname("syslogrecv")
	if err := lg.SetLevelString(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}

	if !caps.HasNetBindService() {
		lg.Warn("missing capability", gwlog.KV("capability", "NET_BIND_SERVICE"),
			gwlog.KV("warning", "may not be able to bind to privileged ports"))
	}

	cfg := config.FromEnv()
	if *verbose {
		fmt.Printf("udp=%v(%d) tls=%v(%d) logdir=%s\n", cfg.EnableUDP, cfg.UDPPort, cfg.EnableTLS, cfg.TLSPort, cfg.LogDir)
	}

	sup, err := supervisor.New(cfg, lg)
	if err != nil {
		lg.Fatal("failed to initialize", gwlog.KVErr(err))
	}

	lg.Info("syslog receiver running", gwlog.KV("version", version.GetVersion()))
	if err := sup.Run(context.Background()); err != nil {
		lg.Error("supervisor exited with error", gwlog.KVErr(err))
		os.Exit(1)
	}
	lg.Info("syslog receiver exiting")
}
