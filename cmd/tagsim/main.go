// Command tagsim drives a tagframe store through a simulated render loop on
// the noop HAL device and reports store and clone pool statistics.
//
// Usage:
//
//	tagsim [--scenario file.yaml] [--frames n] [--history n] [--log-level level]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/tagframe"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	flag "github.com/spf13/pflag"
)

// options holds parsed command line options.
type options struct {
	scenario string
	frames   int
	history  int
	budgetMB int
	logLevel slog.Level
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	opts, code := parseFlags(errOut, args)
	if code >= 0 {
		return code
	}

	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: opts.logLevel}))
	tagframe.SetLogger(logger)
	defer tagframe.SetLogger(nil)

	sc, err := loadScenario(opts.scenario)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if opts.frames > 0 {
		sc.Frames = opts.frames
	}
	if opts.history > 0 {
		sc.History = opts.history
	}
	if opts.budgetMB > 0 {
		sc.BudgetMB = opts.budgetMB
	}

	host, cleanup, err := openNoopHost()
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer cleanup()

	res, err := simulate(ctx, sc, host)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	res.Print(out)
	return 0
}

// parseFlags returns the options and -1, or an exit code if the program
// should stop.
func parseFlags(errOut io.Writer, args []string) (options, int) {
	flagSet := flag.NewFlagSet("tagsim", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	var opts options
	flagSet.StringVarP(&opts.scenario, "scenario", "s", "", "scenario YAML file (built-in scenario if empty)")
	flagSet.IntVarP(&opts.frames, "frames", "n", 0, "override the number of frames")
	flagSet.IntVar(&opts.history, "history", 0, "override the frame history depth")
	flagSet.IntVar(&opts.budgetMB, "budget-mb", 0, "override the idle clone budget in MB")
	logLevel := flagSet.String("log-level", "warn", "log level (debug, info, warn, error)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, 0
		}
		return opts, 2
	}
	if flagSet.NArg() > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument %q\n", flagSet.Arg(0))
		return opts, 2
	}
	if err := opts.logLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return opts, 2
	}
	return opts, -1
}

// noopHost plays the host application: it owns the device and shares it
// with the tagging backend through a gpucontext.DeviceProvider.
type noopHost struct {
	device hal.Device
	queue  hal.Queue
}

func (*noopHost) Device() gpucontext.Device   { return nil }
func (*noopHost) Queue() gpucontext.Queue     { return nil }
func (*noopHost) Adapter() gpucontext.Adapter { return nil }

func (*noopHost) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

// HalDevice returns the hal.Device for backends that record into it.
func (h *noopHost) HalDevice() any { return h.device }

// HalQueue returns the hal.Queue.
func (h *noopHost) HalQueue() any { return h.queue }

var _ gpucontext.DeviceProvider = (*noopHost)(nil)

// openNoopHost opens the first adapter of the noop HAL backend.
func openNoopHost() (*noopHost, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, errors.New("no noop adapter")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open device: %w", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return &noopHost{device: openDev.Device, queue: openDev.Queue}, cleanup, nil
}
