// Command walletlink-listen waits for the set of attached hardware wallets to
// change and prints the settled device list as JSON.
//
// The command polls sysfs until the device list differs from the previous
// poll, or until the iteration limit is reached, then prints the final list.
//
// Usage:
//
//	walletlink-listen [flags]
//
// Flags:
//
//	-config string          Configuration file path
//	-max-iterations int     Iteration limit (overrides config)
//	-delay duration         Delay between polls (overrides config)
//	-all                    Report every USB device, not only wallets
//	-protocol-log string    Write protocol events to this CBOR file
//	-loop                   Keep listening and print every settled result
//
// In loop mode enumeration failures are retried with exponential backoff.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/walletlink/walletlink-go/internal/backoff"
	"github.com/walletlink/walletlink-go/internal/logging"
	"github.com/walletlink/walletlink-go/pkg/config"
	"github.com/walletlink/walletlink-go/pkg/usb"
	"github.com/walletlink/walletlink-go/pkg/watch"
)

// output is the JSON document printed for each settled result.
type output struct {
	Devices     []usb.Device `json:"devices"`
	Reason      string       `json:"reason"`
	Iteration   int          `json:"iteration"`
	Fingerprint string       `json:"fingerprint"`
}

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	maxIterations := flag.Int("max-iterations", -1, "Iteration limit (overrides config)")
	delay := flag.Duration("delay", 0, "Delay between polls (overrides config)")
	all := flag.Bool("all", false, "Report every USB device, not only wallets")
	protocolLog := flag.String("protocol-log", "", "Write protocol events to this CBOR file")
	loop := flag.Bool("loop", false, "Keep listening and print every settled result")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *maxIterations >= 0 {
		cfg.Listen.MaxIterations = *maxIterations
	}
	if *delay > 0 {
		cfg.Listen.Delay = *delay
	}
	if *all {
		cfg.USB.MatchAll = true
	}
	if *protocolLog != "" {
		cfg.ProtocolLog.Path = *protocolLog
	}

	logger := logging.New(cfg.Logging, "listen")

	plog, closeLog, err := logging.ProtocolLogger(cfg.ProtocolLog, logger)
	if err != nil {
		logger.Error("failed to open protocol log", "path", cfg.ProtocolLog.Path, "error", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	enum := usb.NewSysfsEnumerator(cfg.SysfsConfig(logger))
	w := watch.New[usb.Device](enum, cfg.WatchConfig(plog))

	logger.Info("listening",
		"root", cfg.USB.SysfsRoot,
		"max_iterations", cfg.Listen.MaxIterations,
		"delay", cfg.Listen.Delay.String())

	retry := backoff.New(backoff.Config{
		Initial:     max(cfg.Listen.Delay, 100*time.Millisecond),
		Jitter:      0.25,
		MaxAttempts: 10,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for {
		start := time.Now()
		res, err := w.Listen(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logger.Info("cancelled")
				return
			}
			if *loop && errors.Is(err, watch.ErrEnumeration) {
				logger.Warn("enumeration failed, retrying", "error", err, "attempt", retry.Attempts()+1)
				ok, werr := retry.Wait(ctx)
				if werr != nil {
					logger.Info("cancelled")
					return
				}
				if ok {
					continue
				}
			}
			logger.Error("listen failed", "error", err)
			closeLog()
			os.Exit(1)
		}

		retry.Reset()
		logger.Debug("settled", "reason", res.Reason.String(), "elapsed", time.Since(start).String())
		if err := enc.Encode(output{
			Devices:     res.Devices,
			Reason:      res.Reason.String(),
			Iteration:   res.Iteration,
			Fingerprint: res.Fingerprint,
		}); err != nil {
			logger.Error("failed to write result", "error", err)
			closeLog()
			os.Exit(1)
		}

		if !*loop {
			return
		}
	}
}
