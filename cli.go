package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"axiloop/log"
)

type mode byte

const (
	loopbackMode   mode = iota // Run a loopback transfer
	streamMode                 // Stream a hex file through the loopback
	viewMode                   // Show frames one by one
	mosaicMode                 // Show frames as a mosaic
	filterMode                 // Control the neural filter
	initConfigMode             // Write default configuration
	versionMode                // Show axiloop version
)

type (
	CLI struct {
		Loopback   Loopback   `cmd:"" help:"Run a loopback transfer and check the received data."`
		Stream     Stream     `cmd:"" help:"Stream a hex file through the DMA loopback."`
		View       View       `cmd:"" help:"Show the frames of a buffer, one at a time."`
		Mosaic     Mosaic     `cmd:"" help:"Show the first frames of a buffer as a mosaic, refreshed on SIGUSR1."`
		Filter     Filter     `cmd:"" help:"Adjust the neural filter limits from the keyboard."`
		InitConfig InitConfig `cmd:"" help:"Write the default configuration file." name:"init-config"`
		Version    Version    `cmd:"" help:"Show axiloop version."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `name:"config" help:"${config_help}" type:"path" placeholder:"FILE"`

		mode mode
	}

	Loopback struct {
		Count  int      `name:"count" help:"Number of 32-bit values to transfer." default:"512" xor:"size"`
		Bytes  int      `name:"bytes" help:"Transfer this many bytes of an 8-bit counter pattern instead." xor:"size"`
		Report *outfile `name:"report" help:"${report_help}" placeholder:"FILE|stdout|stderr"`
	}

	Stream struct {
		Path   string   `arg:"" name:"/path/to/payload" help:"${payload_help}" type:"existingfile"`
		Chunk  uint32   `name:"chunk" help:"Bytes per DMA transfer." default:"4096"`
		Report *outfile `name:"report" help:"${report_help}" placeholder:"FILE|stdout|stderr"`
	}

	View struct {
		Device   string `arg:"" optional:"" name:"device" help:"${device_help}"`
		BitOrder string `name:"bitorder" help:"${bitorder_help}" placeholder:"big|little"`
		Scale    int    `name:"scale" help:"Frame scale factor (default from configuration)."`
	}

	Mosaic struct {
		Device   string `arg:"" optional:"" name:"device" help:"${device_help}"`
		BitOrder string `name:"bitorder" help:"${bitorder_help}" placeholder:"big|little"`
	}

	Filter struct {
		Device string `arg:"" optional:"" name:"device" help:"Filter register device (default from configuration)."`
	}

	InitConfig struct {
		Force bool `name:"force" help:"Overwrite an existing configuration file."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":      "Enable logging for specified modules.",
	"config_help":   "Configuration file (default: axiloop/config.toml in the user config directory).",
	"report_help":   "Write a JSON report of the run.",
	"payload_help":  "Payload file: lines of 16 hex digits, '#' starts a comment.",
	"device_help":   "Frame buffer device (default: the destination buffer).",
	"bitorder_help": "Bit order of the frame bytes (default from configuration).",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("axiloop"),
		kong.Description("AXI DMA loopback and frame visualization tools."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "loopback":
		cfg.mode = loopbackMode
	case "stream":
		cfg.mode = streamMode
	case "view":
		cfg.mode = viewMode
	case "mosaic":
		cfg.mode = mosaicMode
	case "filter":
		cfg.mode = filterMode
	case "init-config":
		cfg.mode = initConfigMode
	case "version":
		cfg.mode = versionMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() != "" {
		return nil
	}

	const extraHelp = `
Log modules:
  --log accepts a comma-separated list of modules to debug: %s.
  'all' enables every module, 'no' disables logging, warnings included.

Configuration:
  Devices, DMA timings and viewer settings are read from the configuration
  file, %s by default. Run 'axiloop init-config' to write the defaults.
`
	fmt.Fprintf(os.Stderr, extraHelp, strings.Join(log.ModuleNames(), ", "), "$XDG_CONFIG_HOME/axiloop/config.toml")
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
