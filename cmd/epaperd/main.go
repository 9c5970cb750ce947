package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"github.com/juju/errors"

	"epaperd/cmd/epaperd/run"
	"epaperd/cmd/epaperd/subcmd"
	"epaperd/internal/state"
	"epaperd/log2"
)

// set at build time with -ldflags "-X main.BuildVersion=..."
var BuildVersion string = "unknown"

var modules = []subcmd.Mod{
	run.DaemonMod,
	run.OnceMod,
}

func main() {
	flags := parseFlags()

	if flags.version {
		fmt.Printf("epaperd %s\n", BuildVersion)
		return
	}

	mod, err := subcmd.Parse(flags.command, modules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "command line error: %v\n", err)
		os.Exit(64) // EX_USAGE
	}

	const logFlagsService = stdlog.Lshortfile
	const logFlagsInteractive = stdlog.Lshortfile | stdlog.Ltime | stdlog.Lmicroseconds
	level := log2.LInfo
	if flags.logDebug {
		level = log2.LDebug
	}
	log := log2.NewStderr(level)
	if subcmd.SdNotify("start") {
		// under systemd, journal adds timestamps
		log.SetFlags(logFlagsService)
	} else {
		log.SetFlags(logFlagsInteractive)
	}

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion
	log.Debugf("epaperd %s starting command=%s config=%s", BuildVersion, flags.command, flags.config)

	config := state.MustReadConfig(log, state.NewOsFullReader(), flags.config)
	if config.Debug.LogLevel == "debug" {
		log.SetLevel(log2.LDebug)
	}

	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

type cmdFlags struct {
	config   string
	command  string
	logDebug bool
	version  bool
}

func parseFlags() cmdFlags {
	f := cmdFlags{}
	cmdline := flag.NewFlagSet("epaperd", flag.ExitOnError)
	cmdline.StringVar(&f.config, "config", "epaperd.hcl", "path to HCL config")
	cmdline.BoolVar(&f.logDebug, "log-debug", false, "debug logging regardless of config")
	cmdline.BoolVar(&f.version, "version", false, "print version and exit")
	_ = cmdline.Parse(os.Args[1:])
	f.command = cmdline.Arg(0)
	if f.command == "" {
		f.command = "daemon"
	}
	return f
}
