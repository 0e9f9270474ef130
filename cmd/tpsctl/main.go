// Command tpsctl talks to a TPS6699x USB Power Delivery controller attached
// to a Linux host.
//
// Usage:
//
//	tpsctl <command> [flags] [args]
//
// Commands:
//
//	info                        Show firmware mode, version and customer use word
//	status   [port]             Show the status register of a port
//	contract [port]             Show the active power contract of a port
//	exec     <port> <cmd> [hex] Execute a 4 character command with optional hex input
//	watch                       Print interrupt events as they happen
//
// The controller is described by a YAML file passed with -config:
//
//	bus: "1"
//	addresses: [0x20, 0x24]
//	interrupt_pin: GPIO17
//	command_timeout: 1s
//	log_level: info
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/controller"
	"github.com/oxplot/go-tps6699x/hal"
	"github.com/oxplot/go-tps6699x/pdo"
)

const usage = `tpsctl - TPS6699x USB PD controller tool

Usage:
  tpsctl <command> [flags] [args]

Commands:
  info                        Show firmware mode, version and customer use word
  status   [port]             Show the status register of a port
  contract [port]             Show the active power contract of a port
  exec     <port> <cmd> [hex] Execute a 4 character command
  watch                       Print interrupt events as they happen

Use "tpsctl <command> -help" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var run action
	outLen := 0
	switch cmd {
	case "info":
		run = runInfo
	case "status":
		run = runStatus
	case "contract":
		run = runContract
	case "exec":
		run = func(ctx context.Context, cm *controller.Commander, cfg Config, args []string) error {
			return runExec(ctx, cm, cfg, args, outLen)
		}
	case "watch":
		run = runWatch
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML config file")
	bus := fs.String("bus", "", "override the I2C bus name")
	pin := fs.String("pin", "", "override the interrupt pin name")
	if cmd == "exec" {
		fs.IntVar(&outLen, "out", 0, "number of output bytes to read back")
	}
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *bus != "" {
		cfg.Bus = *bus
	}
	if *pin != "" {
		cfg.InterruptPin = *pin
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if err := session(cfg, fs.Args(), run); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "tpsctl: %s\n", err)
	os.Exit(1)
}

// action is a subcommand run against the command side of the controller.
type action func(ctx context.Context, cm *controller.Commander, cfg Config, args []string) error

// session opens the hardware, services interrupts in the background and
// runs fn.
func session(cfg Config, args []string, fn action) error {
	level, _ := cfg.level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if _, err := host.Init(); err != nil {
		return err
	}
	b, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer b.Close()

	p := gpioreg.ByName(cfg.InterruptPin)
	if p == nil {
		return fmt.Errorf("no such pin %q", cfg.InterruptPin)
	}
	line, err := hal.ActiveLow(p)
	if err != nil {
		return err
	}

	c, err := controller.New(b, cfg.portAddresses(), len(cfg.Addresses),
		controller.WithLogger(logger),
		controller.WithPollInterval(cfg.PollInterval),
	)
	if err != nil {
		return err
	}
	cm, it, err := c.MakeParts()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("session started", "bus", b.String(), "pin", line.String(), "ports", c.NumPorts())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := it.Run(gctx, line); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return fn(gctx, cm, cfg, args)
	})
	return g.Wait()
}

func parsePort(cm *controller.Commander, args []string, i int) (tps6699x.PortID, error) {
	if len(args) <= i {
		return 0, nil
	}
	n, err := strconv.ParseUint(args[i], 0, 8)
	if err != nil || int(n) >= cm.NumPorts() {
		return 0, fmt.Errorf("%w: %s", tps6699x.ErrInvalidPort, args[i])
	}
	return tps6699x.PortID(n), nil
}

func runInfo(ctx context.Context, cm *controller.Commander, _ Config, _ []string) error {
	m, err := cm.Mode(ctx)
	if err != nil {
		return err
	}
	v, err := cm.FirmwareVersion(ctx)
	if err != nil {
		return err
	}
	cu, err := cm.CustomerUse(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Mode:         %s\n", m)
	fmt.Printf("Firmware:     %08x\n", v)
	fmt.Printf("Customer use: %016x\n", cu)
	fmt.Printf("Ports:        %d\n", cm.NumPorts())
	return nil
}

func runStatus(ctx context.Context, cm *controller.Commander, _ Config, args []string) error {
	port, err := parsePort(cm, args, 0)
	if err != nil {
		return err
	}
	s, err := cm.PortStatus(ctx, port)
	if err != nil {
		return err
	}
	role, data := "sink", "UFP"
	if s.IsSource() {
		role = "source"
	}
	if s.IsDFP() {
		data = "DFP"
	}
	fmt.Printf("Port %d: plug present %t, connection state %d, %s, %s, flipped %t, vbus %d\n",
		port, s.PlugPresent(), s.ConnectionState(), role, data, s.PlugOrientationFlipped(), s.VBusStatus())
	return nil
}

func runContract(ctx context.Context, cm *controller.Commander, _ Config, args []string) error {
	port, err := parsePort(cm, args, 0)
	if err != nil {
		return err
	}
	p, err := cm.ActivePDOContract(ctx, port)
	if err != nil {
		return err
	}
	r, err := cm.ActiveRDOContract(ctx, port)
	if err != nil {
		return err
	}
	fmt.Printf("Port %d: %s\n", port, pdo.DescribeContract(p, r))
	return nil
}

func runExec(ctx context.Context, cm *controller.Commander, cfg Config, args []string, outLen int) error {
	if len(args) < 2 {
		return errors.New("exec needs a port and a command")
	}
	port, err := parsePort(cm, args, 0)
	if err != nil {
		return err
	}
	cmd := tps6699x.NewCommand(args[1])
	var in []byte
	if len(args) > 2 {
		if in, err = hex.DecodeString(args[2]); err != nil {
			return err
		}
	}
	var out []byte
	if outLen > 0 {
		out = make([]byte, outLen)
	}

	rv, err := cm.ExecuteCommand(ctx, port, cmd, cfg.CommandTimeout, in, out)
	if err != nil {
		return err
	}
	fmt.Printf("%s on port %d: %s\n", cmd, port, rv)
	if len(out) > 0 {
		fmt.Printf("Output: %s\n", hex.EncodeToString(out))
	}
	return nil
}

func runWatch(ctx context.Context, cm *controller.Commander, _ Config, _ []string) error {
	for {
		flags, err := cm.WaitInterrupt(ctx, false, func(_ tps6699x.PortID, e tps6699x.IntEvent) bool {
			return !e.IsZero()
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for port := 0; port < cm.NumPorts(); port++ {
			if !flags[port].IsZero() {
				fmt.Printf("Port %d: %s\n", port, flags[port])
			}
		}
	}
}
