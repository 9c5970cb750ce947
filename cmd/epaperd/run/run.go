// Main, user facing modes of operation.
package run

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdnotify "github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"

	"epaperd/cmd/epaperd/subcmd"
	"epaperd/internal/daemon"
	"epaperd/internal/state"
)

var DaemonMod = subcmd.Mod{Name: "daemon", Main: DaemonMain}
var OnceMod = subcmd.Mod{Name: "once", Main: OnceMain}

// DaemonMain is the long running service mode.
func DaemonMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	if err := g.Init(ctx, config); err != nil {
		return errors.Annotate(err, "global init")
	}
	defer g.Tele.Close()

	d, err := daemon.New(ctx)
	if err != nil {
		return errors.Annotate(err, "daemon init")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		g.Log.Infof("signal %v, stopping", sig)
		g.Stop()
	}()

	subcmd.SdNotify(sdnotify.SdNotifyReady)
	g.Log.Debugf("epaperd init complete, entering update loop")

	d.Run(ctx)
	g.Alive.Wait()
	return nil
}

// OnceMain renders a single frame and exits, for cron style setups
// and layout debugging.
func OnceMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	if err := g.Init(ctx, config); err != nil {
		return errors.Annotate(err, "global init")
	}
	defer g.Tele.Close()

	d, err := daemon.New(ctx)
	if err != nil {
		return errors.Annotate(err, "daemon init")
	}
	defer d.Cleanup()

	dec, err := d.Iterate(ctx, time.Now())
	if err != nil {
		return errors.Trace(err)
	}
	g.Log.Infof("once: redraw=%t reason=%q", dec.Redraw, dec.Reason)
	return nil
}
