// Command hrmon streams readings from a Bluetooth heart rate sensor.
//
// Usage:
//
//	hrmon monitor [--config hrmon.yaml] [--name "Polar H10"] [--address AA:BB:CC:DD:EE:FF]
//	hrmon decode 0048 10483c01
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"tinygo.org/x/bluetooth"

	"github.com/siiimooon/go-hrm/internal/config"
	"github.com/siiimooon/go-hrm/internal/logging"
	"github.com/siiimooon/go-hrm/pkg/heartrate"
	"github.com/siiimooon/go-hrm/pkg/monitor"
	"github.com/siiimooon/go-hrm/pkg/sensor"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "hrmon: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "hrmon"
	app.Usage = "Bluetooth heart rate monitor client"
	app.Version = "0.1.0"
	app.Action = cli.ShowAppHelp

	app.Commands = []cli.Command{
		{
			Name:    "monitor",
			Aliases: []string{"m"},
			Usage:   "Connect to a heart rate sensor and print readings",
			Action:  monitorCmd,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config, c", Usage: "configuration file"},
				cli.StringFlag{Name: "name, n", Usage: "connect to the sensor whose name contains this"},
				cli.StringFlag{Name: "address, a", Usage: "connect to the sensor with this address"},
				cli.DurationFlag{Name: "reconnect-delay", Usage: "wait between connection attempts"},
				cli.DurationFlag{Name: "scan-timeout", Usage: "bound of a single scan"},
				cli.DurationFlag{Name: "idle-timeout", Usage: "treat a sensor silent for this long as disconnected, negative disables"},
				cli.StringFlag{Name: "log-level", Usage: "debug, info, warn, error"},
				cli.StringFlag{Name: "log-format", Usage: "text or json"},
			},
		},
		{
			Name:      "decode",
			Aliases:   []string{"d"},
			Usage:     "Decode hex encoded Heart Rate Measurement payloads",
			ArgsUsage: "<hex payload>...",
			Action:    decodeCmd,
		},
	}

	return app
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if c.IsSet("name") {
		cfg.Sensor.Name = c.String("name")
	}
	if c.IsSet("address") {
		cfg.Sensor.Address = c.String("address")
	}
	if c.IsSet("reconnect-delay") {
		cfg.Monitor.ReconnectDelay = c.Duration("reconnect-delay")
	}
	if c.IsSet("scan-timeout") {
		cfg.Sensor.ScanTimeout = c.Duration("scan-timeout")
	}
	if c.IsSet("idle-timeout") {
		cfg.Sensor.IdleTimeout = c.Duration("idle-timeout")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	return cfg, errors.Wrap(cfg.Validate(), "invalid flags")
}

func monitorCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return errors.Wrap(err, "can't set up logging")
	}

	gateway := sensor.New(bluetooth.DefaultAdapter, sensor.Options{
		Name:        cfg.Sensor.Name,
		Address:     cfg.Sensor.Address,
		ScanTimeout: cfg.Sensor.ScanTimeout,
		IdleTimeout: cfg.Sensor.IdleTimeout,
		Logger:      logger.WithField("component", "sensor"),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	controller := monitor.New(gateway,
		monitor.WithReconnectDelay(cfg.Monitor.ReconnectDelay),
		monitor.WithQueueSize(cfg.Monitor.QueueSize),
		monitor.WithLogger(logger.WithField("component", "monitor")),
		monitor.OnReading(printReading(c.App.Writer)),
		monitor.OnStatusChange(func(state monitor.State) {
			logger.WithField("state", state).Info("status")
		}),
		monitor.OnConnectFailed(func(err error) {
			logger.WithError(err).Debug("connecting failed")
		}),
	)

	logger.WithFields(logrus.Fields{
		"name":    cfg.Sensor.Name,
		"address": cfg.Sensor.Address,
	}).Info("starting heart rate monitor")

	if err := controller.Run(ctx); err != nil {
		return errors.Wrap(err, "monitor stopped")
	}

	stats := controller.Stats()
	logger.WithFields(logrus.Fields{
		"readings":      stats.Readings,
		"decode_errors": stats.DecodeErrors,
		"disconnects":   stats.Disconnects,
	}).Info("stopped")
	return nil
}

func printReading(w io.Writer) func(heartrate.Reading) {
	return func(reading heartrate.Reading) {
		fmt.Fprintf(w, "%s\t%d\n", time.Now().Format(time.RFC3339), reading.GetHeartRate())
	}
}

func decodeCmd(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowCommandHelp(c, "decode")
	}

	for _, arg := range c.Args() {
		payload, err := hex.DecodeString(arg)
		if err != nil {
			return errors.Wrapf(err, "can't parse payload %q", arg)
		}
		reading, err := heartrate.Decode(payload)
		if err != nil {
			return errors.Wrapf(err, "can't decode payload %q", arg)
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", arg, reading)
	}
	return nil
}
