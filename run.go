package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"axiloop/config"
	"axiloop/frame"
	"axiloop/hexfile"
	"axiloop/hw/axidma"
	"axiloop/hw/filter"
	"axiloop/hw/hwio"
	"axiloop/hw/udmabuf"
	"axiloop/log"
	"axiloop/view"
)

// loopback holds the devices used by the loopback and stream commands.
type loopback struct {
	src, dst *udmabuf.Buffer
	win      *hwio.Window
	eng      *axidma.Engine
}

func openLoopback(cfg config.Config) (*loopback, error) {
	opts := []udmabuf.Option{
		udmabuf.WithSysfsRoot(cfg.Devices.SysfsRoot),
		udmabuf.WithDevRoot(cfg.Devices.DevRoot),
	}

	lb := &loopback{}
	var err error
	if lb.src, err = udmabuf.Acquire(cfg.Devices.Src, opts...); err != nil {
		return nil, fmt.Errorf("source buffer: %w", err)
	}
	if lb.dst, err = udmabuf.Acquire(cfg.Devices.Dst, opts...); err != nil {
		lb.close()
		return nil, fmt.Errorf("destination buffer: %w", err)
	}
	if lb.win, err = hwio.OpenWindow(cfg.Devices.DMA, hwio.DefaultWindowSize); err != nil {
		lb.close()
		return nil, fmt.Errorf("DMA registers: %w", err)
	}
	if lb.eng, err = axidma.New(lb.win, cfg.DMA); err != nil {
		lb.close()
		return nil, err
	}

	fmt.Printf("Physical addresses are:\nSource: 0x%016x, Destination: 0x%016x\n", lb.src.PhysAddr, lb.dst.PhysAddr)
	return lb, nil
}

func (lb *loopback) close() {
	if lb.win != nil {
		lb.win.Close()
	}
	for _, b := range []*udmabuf.Buffer{lb.src, lb.dst} {
		if b == nil {
			continue
		}
		if err := b.Release(); err != nil {
			log.ModMem.Warnf("release %s: %v", b.Name, err)
		}
	}
}

// finishReport writes rep to the report file if one was requested.
func finishReport(f *outfile, rep *runReport) error {
	if f == nil || rep == nil {
		return nil
	}
	defer f.Close()
	return writeReport(f, rep)
}

func loopbackMain(args Loopback, cfg config.Config) {
	checkf(doLoopback(args, cfg), "loopback failed")
	fmt.Println("Loopback OK")
}

func doLoopback(args Loopback, cfg config.Config) error {
	p, err := patternOf(args)
	if err != nil {
		return err
	}

	lb, err := openLoopback(cfg)
	if err != nil {
		return err
	}
	defer lb.close()

	rep, err := runLoopback(lb.eng, lb.src, lb.dst, p, os.Stdout)
	return errors.Join(err, finishReport(args.Report, rep))
}

func streamMain(args Stream, cfg config.Config) {
	checkf(doStream(args, cfg), "stream failed")
}

func doStream(args Stream, cfg config.Config) error {
	f, err := os.Open(args.Path)
	if err != nil {
		return err
	}
	payload, err := hexfile.ReadAll(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", args.Path, err)
	}

	lb, err := openLoopback(cfg)
	if err != nil {
		return err
	}
	defer lb.close()

	rep, err := runStream(lb.eng, lb.src, lb.dst, payload, args.Chunk, os.Stdout)
	return errors.Join(err, finishReport(args.Report, rep))
}

// openFrames maps the frame buffer read-only. device is either empty, for
// the configured destination buffer, or a device path such as
// /dev/udmabuf1.
func openFrames(device string, cfg config.Config) (*udmabuf.Buffer, error) {
	name, devroot := cfg.Devices.Dst, cfg.Devices.DevRoot
	if device != "" {
		name, devroot = filepath.Base(device), filepath.Dir(device)
	}
	return udmabuf.Acquire(name,
		udmabuf.WithSysfsRoot(cfg.Devices.SysfsRoot),
		udmabuf.WithDevRoot(devroot),
		udmabuf.ReadOnly(),
		udmabuf.Sync(),
	)
}

func bitOrder(flag string, def frame.BitOrder) (frame.BitOrder, error) {
	if flag == "" {
		return def, nil
	}
	return frame.ParseBitOrder(flag)
}

// runOnMain runs fn inside the SDL main loop and exits with its status.
func runOnMain(fn func() error) {
	var exitcode int
	sdl.Main(func() {
		if err := fn(); err != nil {
			fmt.Fprintf(os.Stderr, "fatal error:\n\t%s\n", err)
			exitcode = 1
		}
	})
	os.Exit(exitcode)
}

func viewMain(args View, cfg config.Config) {
	runOnMain(func() error { return doView(args, cfg) })
}

func doView(args View, cfg config.Config) error {
	order, err := bitOrder(args.BitOrder, cfg.Frame.BitOrder)
	if err != nil {
		return err
	}
	scale := cfg.Frame.Scale
	if args.Scale != 0 {
		scale = args.Scale
	}

	codec, err := frame.NewCodec(cfg.Frame.Geometry)
	if err != nil {
		return err
	}

	buf, err := openFrames(args.Device, cfg)
	if err != nil {
		return err
	}
	defer buf.Release()

	viewer, err := view.NewSingleViewer(buf, buf.Size, codec, view.SingleConfig{
		Order: order,
		Scale: scale,
		Tick:  cfg.Frame.Tick,
		Out:   os.Stdout,
	})
	if err != nil {
		return err
	}

	w, h := cfg.Frame.W*scale, cfg.Frame.H*scale
	win, err := view.NewWindow("axiloop - "+buf.Name, w, h, w, h)
	if err != nil {
		return err
	}
	defer win.Close()

	fmt.Print("Display the frames in the destination buffer.\n" +
		"You can move backwards (n) or forward (m).\n" +
		"Use (b) and (l) to switch the bit order, (t) to toggle it.\n" +
		"Use (q) to quit.\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return viewer.Run(ctx, win)
}

func mosaicMain(args Mosaic, cfg config.Config) {
	runOnMain(func() error { return doMosaic(args, cfg) })
}

func doMosaic(args Mosaic, cfg config.Config) error {
	order, err := bitOrder(args.BitOrder, cfg.Mosaic.BitOrder)
	if err != nil {
		return err
	}

	vcfg := cfg.Mosaic.View(cfg.Frame.Geometry)
	vcfg.Order = order

	codec, err := frame.NewCodec(cfg.Frame.Geometry)
	if err != nil {
		return err
	}

	buf, err := openFrames(args.Device, cfg)
	if err != nil {
		return err
	}
	defer buf.Release()

	if n, cells := cfg.Frame.Frames(buf.Size), vcfg.Layout.Cells(); n < cells {
		return fmt.Errorf("%s holds %d frames, the mosaic needs %d", buf.Name, n, cells)
	}

	refresh := view.NewRefresh(true)
	viewer, err := view.NewMosaicViewer(buf, codec, refresh, vcfg)
	if err != nil {
		return err
	}

	win, err := view.NewWindow("axiloop mosaic - "+buf.Name, vcfg.Target.X, vcfg.Target.Y, vcfg.Target.X, vcfg.Target.Y)
	if err != nil {
		return err
	}
	defer win.Close()

	fmt.Printf("Send SIGUSR1 to %d to refresh the mosaic.\n"+
		"Use (b) and (l) to switch the bit order, (t) to toggle it, (q) to quit.\n", os.Getpid())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)

	var g errgroup.Group
	g.Go(func() error { return view.WatchSignals(ctx, refresh, syscall.SIGUSR1) })
	g.Go(func() error {
		defer cancel()
		return viewer.Run(ctx, win)
	})
	return g.Wait()
}

const filterHelp = "Press the following keys to adjust the filter limits:\r\n" +
	"  +/-: spike counter limit +/- 100\r\n" +
	"  p/l: decay counter limit +/- 10000\r\n" +
	"  q:   quit\r\n"

func filterMain(args Filter, cfg config.Config) {
	checkf(doFilter(args, cfg, os.Stdin, os.Stdout), "filter control failed")
}

func doFilter(args Filter, cfg config.Config, in *os.File, out io.Writer) error {
	dev := cfg.Devices.Filter
	if args.Device != "" {
		dev = args.Device
	}

	win, err := hwio.OpenWindow(dev, hwio.DefaultWindowSize)
	if err != nil {
		return err
	}
	defer win.Close()

	f, err := filter.New(win, cfg.Filter.Offsets)
	if err != nil {
		return err
	}

	width := 80
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
		old, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, old)
	}

	divider := strings.Repeat("-", width) + "\r\n"
	fmt.Fprint(out, divider+filterHelp+divider)
	return f.Control(in, out)
}
