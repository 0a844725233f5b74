package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/killzone/client"
	"github.com/wfunc/killzone/codec"
	"github.com/wfunc/killzone/config"
	"github.com/wfunc/killzone/logger"
	"github.com/wfunc/killzone/models"
	"github.com/wfunc/killzone/monitor"
	"github.com/wfunc/killzone/network"
	"github.com/wfunc/killzone/persistence"
	"github.com/wfunc/killzone/render"
	"github.com/wfunc/killzone/state"
	"github.com/wfunc/killzone/terminal"
)

const clientVersion = "1.2.0"

// errorLinger is how long the error screen stays up without a key press.
const errorLinger = 10 * time.Second

// historyLimit bounds the session summary logged on exit.
const historyLimit = 20

func newCodec(cfg *config.Config, observer codec.Observer) codec.Codec {
	var c codec.Codec
	switch cfg.Server.Protocol {
	case config.ProtocolBinary:
		addr := cfg.Server.StreamAddress()
		dial := network.TCPDialer(addr)
		if cfg.Server.Transport == config.TransportWebSocket {
			dial = network.WebSocketDialer(addr, cfg.Server.WSPath)
		}
		c = codec.NewBinaryCodec(dial, cfg.Client.RequestTimeout)
	default:
		c = codec.NewTextCodec(cfg.Server.BaseURL(), nil, cfg.Client.RequestTimeout)
	}
	return codec.NewInstrumented(c, observer)
}

func serverAddress(cfg *config.Config) string {
	if cfg.Server.Protocol == config.ProtocolBinary {
		return cfg.Server.StreamAddress()
	}
	return cfg.Server.BaseURL()
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "killzone: config: %v\n", err)
		return
	}

	// Initialize logger
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "killzone: logger: %v\n", err)
		return
	}
	defer logger.Sync()

	journal, err := persistence.Open(cfg.Journal)
	if err != nil {
		logger.Log.Warnf("journal %q unavailable, continuing without: %v", cfg.Journal.Driver, err)
		journal = persistence.NopJournal{}
	}
	defer journal.Close()

	var (
		observer codec.Observer
		metrics  client.Metrics
		mon      *monitor.Monitor
	)
	if cfg.Monitor.Enabled {
		mon = monitor.NewMonitor("killzone")
		mon.StartServer(cfg.Monitor.Address)
		observer, metrics = mon, mon
		logger.Log.Infof("metrics on %s", cfg.Monitor.Address)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	term, err := terminal.New(cancel)
	if err != nil {
		logger.Log.Errorf("terminal: %v", err)
		fmt.Fprintf(os.Stderr, "killzone: terminal: %v\n", err)
		return
	}
	defer term.Close()

	c := newCodec(cfg, observer)
	defer c.Close()

	cl := client.New(c, term, term, journal, metrics, client.Options{
		Settings: state.Settings{
			ConnectAttempts: cfg.Client.ConnectAttempts,
			WorldEvery:      cfg.Client.WorldEvery,
			StatusEvery:     cfg.Client.StatusEvery,
			DefaultName:     cfg.Client.DefaultName,
			ClientVersion:   clientVersion,
			ServerAddress:   serverAddress(cfg),
		},
		Render: render.Options{
			WallGlyphs:          cfg.Display.WallGlyphs,
			RedrawOnCountChange: cfg.Display.RedrawOnCountChange,
		},
		TickInterval: cfg.Client.TickInterval,
		MaxTicks:     cfg.Client.MaxTicks,
		Width:        cfg.Display.Width,
		Height:       cfg.Display.Height,
		StatusRows:   cfg.Display.StatusRows,
		MessageTTL:   cfg.Client.MessageTTL,
	})

	logger.Log.Infof("killzone %s starting, %s protocol against %s", clientVersion, cfg.Server.Protocol, serverAddress(cfg))
	err = cl.Run(ctx)
	switch {
	case err == nil && cl.Phase() == models.PhaseError:
		// leave the error on screen until a key or the linger timeout
		waitCtx, stop := context.WithTimeout(ctx, errorLinger)
		_, _ = term.WaitKey(waitCtx)
		stop()
	case errors.Is(err, context.Canceled):
		logger.Log.Info("interrupted")
	case err != nil:
		logger.Log.Warnf("loop ended: %v", err)
	}

	if local, ok := cl.World().LocalPlayer(); ok && cl.Session().Connected() {
		leaveCtx, stop := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout)
		c.Leave(leaveCtx, local.ID)
		stop()
	}

	histCtx, stopHist := context.WithTimeout(context.Background(), time.Second)
	if events, err := cl.History(histCtx, historyLimit); err != nil {
		logger.Log.Warnf("journal history: %v", err)
	} else {
		for i := len(events) - 1; i >= 0; i-- {
			ev := events[i]
			logger.Log.Infof("session %s: %s %s(%s) %s", ev.SessionID, ev.Kind, ev.PlayerName, ev.PlayerID, ev.Detail)
		}
	}
	stopHist()

	if mon != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
		_ = mon.Shutdown(shutdownCtx)
		stop()
	}
	logger.Log.Infof("killzone exiting after %d ticks", cl.Ticks())
}
