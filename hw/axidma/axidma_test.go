package axidma_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"axiloop/hw/axidma"
	"axiloop/hw/axidma/axidmatest"
	"axiloop/hw/hwio"
	"axiloop/hw/udmabuf"
)

func testConfig() axidma.Config {
	return axidma.Config{
		Settle:       0,
		PollInterval: 10 * time.Microsecond,
		Timeout:      100 * time.Millisecond,
	}
}

func newEngine(t *testing.T, cfg axidma.Config, bufs ...*udmabuf.Buffer) (*axidma.Engine, *axidmatest.Engine) {
	t.Helper()

	sim := axidmatest.New(bufs...)
	eng, err := axidma.New(sim.Window, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return eng, sim
}

func TestProgramAddressRoundTrip(t *testing.T) {
	eng, sim := newEngine(t, testConfig())

	addrs := []uint64{0, 1, 0x3F000000, 0xFFFFFFFF, 0x1_0000_0000, 0x8_0000_1000, ^uint64(0)}
	rng := rand.New(rand.NewPCG(1, 2))
	for range 100 {
		addrs = append(addrs, rng.Uint64())
	}

	for _, ch := range []axidma.Channel{axidma.Send, axidma.Receive} {
		lo, hi := uint32(0x18), uint32(0x1C)
		if ch == axidma.Receive {
			lo, hi = 0x48, 0x4C
		}

		for _, addr := range addrs {
			if err := eng.ProgramAddress(ch, addr); err != nil {
				t.Fatal(err)
			}
			got, err := eng.Address(ch)
			if err != nil {
				t.Fatal(err)
			}
			if got != addr {
				t.Errorf("%s: Address() = %#x, want %#x", ch, got, addr)
			}
			if rlo, rhi := sim.Reg(lo), sim.Reg(hi); hwio.Join64(rlo, rhi) != addr {
				t.Errorf("%s: registers hold %#x:%#x, want %#x", ch, rhi, rlo, addr)
			}
		}
	}
}

func TestProgramAddressOrder(t *testing.T) {
	eng, sim := newEngine(t, testConfig())

	if err := eng.ProgramAddress(axidma.Receive, 0x12345678_9ABCDEF0); err != nil {
		t.Fatal(err)
	}
	want := []axidmatest.Write{
		{Off: 0x48, Val: 0x9ABCDEF0},
		{Off: 0x4C, Val: 0x12345678},
	}
	if diff := cmp.Diff(want, sim.Writes); diff != "" {
		t.Errorf("register writes mismatch (-want +got):\n%s", diff)
	}
}

func TestResetSettle(t *testing.T) {
	cfg := testConfig()
	cfg.Settle = 5 * time.Millisecond
	eng, sim := newEngine(t, cfg)

	start := time.Now()
	if err := eng.Reset(); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < cfg.Settle {
		t.Errorf("Reset() returned after %v, want at least %v", elapsed, cfg.Settle)
	}

	want := []axidmatest.Write{
		{Off: 0x00, Val: axidma.CtrlReset},
		{Off: 0x30, Val: axidma.CtrlReset},
	}
	if diff := cmp.Diff(want, sim.Writes); diff != "" {
		t.Errorf("register writes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunWaitsForSettle(t *testing.T) {
	src, dst := newBuffers(4096)
	cfg := testConfig()
	cfg.Settle = 5 * time.Millisecond
	eng, sim := newEngine(t, cfg, src, dst)

	if err := eng.Loopback(src, dst, 64); err != nil {
		t.Fatal(err)
	}

	// Both channels are reset, then nothing is written until the delay is
	// over.
	if len(sim.Writes) < 3 {
		t.Fatalf("only %d register writes: %v", len(sim.Writes), sim.Writes)
	}
	for i, w := range sim.Writes[:2] {
		if w.Val != axidma.CtrlReset {
			t.Errorf("write %d is %v, want a reset", i, w)
		}
	}
	if gap := sim.WriteTimes[2].Sub(sim.WriteTimes[1]); gap < cfg.Settle {
		t.Errorf("first command %v issued %v after reset, want at least %v", sim.Writes[2], gap, cfg.Settle)
	}
}

func TestPollIdleImmediate(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = time.Hour
	eng, sim := newEngine(t, cfg)

	sim.SetStatus(axidma.Send, axidma.StatusIdle)
	sr, err := eng.PollIdle(axidma.Send)
	if err != nil {
		t.Fatal(err)
	}
	if !sr.Idle() {
		t.Errorf("status %s not idle", sr)
	}
	if sim.StatusReads[axidma.Send] != 1 {
		t.Errorf("status read %d times, want 1", sim.StatusReads[axidma.Send])
	}
}

func TestPollIdleTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.PollInterval = 50 * time.Microsecond
	cfg.Timeout = 5 * time.Millisecond
	eng, sim := newEngine(t, cfg)

	// Running, never idle.
	sim.SetStatus(axidma.Receive, 0)

	start := time.Now()
	_, err := eng.PollIdle(axidma.Receive)
	elapsed := time.Since(start)

	if !errors.Is(err, axidma.ErrTimeout) {
		t.Fatalf("PollIdle() err = %v, want ErrTimeout", err)
	}
	var serr *axidma.StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("PollIdle() err = %T, want *StatusError", err)
	}
	if serr.Channel != axidma.Receive || serr.Reg != 0x34 {
		t.Errorf("StatusError = %+v, want S2MM channel, status register 0x34", serr)
	}

	const slack = 100 * time.Millisecond
	if elapsed < cfg.Timeout || elapsed > cfg.Timeout+slack {
		t.Errorf("PollIdle() returned after %v, want %v (+%v)", elapsed, cfg.Timeout, slack)
	}
	if sim.StatusReads[axidma.Receive] < 2 {
		t.Errorf("status read %d times, want several", sim.StatusReads[axidma.Receive])
	}
}

func TestPollIdleError(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = time.Hour
	eng, sim := newEngine(t, cfg)

	// Error bit wins, even with idle set.
	sim.SetStatus(axidma.Receive, axidma.StatusErrIRQ|axidma.StatusIdle|axidma.StatusHalted)

	sr, err := eng.PollIdle(axidma.Receive)
	if !errors.Is(err, axidma.ErrTransfer) {
		t.Fatalf("PollIdle() err = %v, want ErrTransfer", err)
	}
	if sr.State() != axidma.StateError {
		t.Errorf("state = %s, want error", sr.State())
	}
	if sim.StatusReads[axidma.Receive] != 1 {
		t.Errorf("status read %d times, want 1", sim.StatusReads[axidma.Receive])
	}

	const want = "S2MM channel: DMA error: status @ 0x00000034 = 0x00004003 [err,idle,halted]"
	if err.Error() != want {
		t.Errorf("error message:\n got %q\nwant %q", err.Error(), want)
	}
}

func TestPollIdleBusy(t *testing.T) {
	eng, sim := newEngine(t, testConfig())
	sim.BusyReads = 3

	sim.SetStatus(axidma.Send, axidma.StatusIdle)
	if _, err := eng.PollIdle(axidma.Send); err != nil {
		t.Fatal(err)
	}
	if sim.StatusReads[axidma.Send] != 4 {
		t.Errorf("status read %d times, want 4", sim.StatusReads[axidma.Send])
	}
}

func newBuffers(size int) (src, dst *udmabuf.Buffer) {
	src = udmabuf.New("udmabuf0", 0x3F000000, make([]byte, size))
	dst = udmabuf.New("udmabuf1", 0x1_3F100000, make([]byte, size))
	return src, dst
}

func TestLoopback(t *testing.T) {
	src, dst := newBuffers(4096)
	eng, _ := newEngine(t, testConfig(), src, dst)

	const nvalues = 512
	tx := make([]uint32, nvalues)
	for i := range tx {
		tx[i] = uint32(i)
		if err := src.Write32(int64(4*i), tx[i]); err != nil {
			t.Fatal(err)
		}
	}

	if err := eng.Loopback(src, dst, 4*nvalues); err != nil {
		t.Fatal(err)
	}

	rx := make([]uint32, nvalues)
	raw, err := dst.Bytes(0, 4*nvalues)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rx {
		rx[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	if diff := cmp.Diff(tx, rx); diff != "" {
		t.Errorf("loopback mismatch (-tx +rx):\n%s", diff)
	}

	// Nothing past the transfer length.
	if rest, _ := dst.Bytes(4*nvalues, 4); !bytes.Equal(rest, make([]byte, 4)) {
		t.Errorf("destination written past transfer length: % x", rest)
	}
}

func TestLoopbackSequence(t *testing.T) {
	src, dst := newBuffers(4096)
	eng, sim := newEngine(t, testConfig(), src, dst)

	if err := eng.Loopback(src, dst, 2048); err != nil {
		t.Fatal(err)
	}

	want := []axidmatest.Write{
		{Off: 0x00, Val: axidma.CtrlReset},
		{Off: 0x30, Val: axidma.CtrlReset},
		{Off: 0x30, Val: axidma.CtrlRunStop},
		{Off: 0x48, Val: 0x3F100000},
		{Off: 0x4C, Val: 0x1},
		{Off: 0x00, Val: axidma.CtrlRunStop},
		{Off: 0x18, Val: 0x3F000000},
		{Off: 0x1C, Val: 0x0},
		{Off: 0x58, Val: 2048},
		{Off: 0x28, Val: 2048},
	}
	if diff := cmp.Diff(want, sim.Writes); diff != "" {
		t.Errorf("register writes mismatch (-want +got):\n%s", diff)
	}
}

func TestStartIRQEnable(t *testing.T) {
	cfg := testConfig()
	cfg.IRQEnable = true
	eng, sim := newEngine(t, cfg)

	if err := eng.Start(axidma.Send); err != nil {
		t.Fatal(err)
	}
	if got := sim.Reg(0x00); got != axidma.CtrlRunStop|axidma.CtrlIRQMask {
		t.Errorf("DMACR = %#x, want %#x", got, axidma.CtrlRunStop|axidma.CtrlIRQMask)
	}
}

func TestSendBeforeReceiveLosesData(t *testing.T) {
	src, dst := newBuffers(64)
	cfg := testConfig()
	cfg.Timeout = 2 * time.Millisecond
	eng, _ := newEngine(t, cfg, src, dst)

	src.WriteAt(bytes.Repeat([]byte{0xAA}, 64), 0)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	// Wrong order: send pushes data before the receive side is armed.
	must(eng.Reset())
	must(eng.Start(axidma.Send))
	must(eng.ProgramAddress(axidma.Send, src.PhysAddr))
	must(eng.Trigger(axidma.Send, 64))
	must(eng.Start(axidma.Receive))
	must(eng.ProgramAddress(axidma.Receive, dst.PhysAddr))
	must(eng.Trigger(axidma.Receive, 64))

	if _, err := eng.PollIdle(axidma.Send); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.PollIdle(axidma.Receive); !errors.Is(err, axidma.ErrTimeout) {
		t.Errorf("receive PollIdle() err = %v, want ErrTimeout", err)
	}
	if got, _ := dst.Bytes(0, 64); !bytes.Equal(got, make([]byte, 64)) {
		t.Errorf("destination should be untouched, got % x", got)
	}
}

func TestLoopbackTransferError(t *testing.T) {
	src, dst := newBuffers(64)
	eng, sim := newEngine(t, testConfig(), src, dst)
	sim.FailSend = true

	err := eng.Loopback(src, dst, 64)
	if !errors.Is(err, axidma.ErrTransfer) {
		t.Fatalf("Loopback() err = %v, want ErrTransfer", err)
	}
	var serr *axidma.StatusError
	if errors.As(err, &serr) && serr.Channel != axidma.Send {
		t.Errorf("failing channel = %s, want MM2S", serr.Channel)
	}
	if sim.StatusReads[axidma.Receive] != 0 {
		t.Errorf("receive channel polled after send failure")
	}
}

func TestLoopbackUnmappedAddress(t *testing.T) {
	src, dst := newBuffers(64)
	// dst is not attached: the engine can't decode its address.
	eng, _ := newEngine(t, testConfig(), src)

	err := eng.Loopback(src, dst, 64)
	var serr *axidma.StatusError
	if !errors.As(err, &serr) || !errors.Is(err, axidma.ErrTransfer) {
		t.Fatalf("Loopback() err = %v, want *StatusError wrapping ErrTransfer", err)
	}
	if serr.Channel != axidma.Receive {
		t.Errorf("failing channel = %s, want S2MM", serr.Channel)
	}
}

func TestLoopbackTimeout(t *testing.T) {
	src, dst := newBuffers(64)
	cfg := testConfig()
	cfg.Timeout = time.Millisecond
	eng, sim := newEngine(t, cfg, src, dst)
	sim.NeverIdle = true

	err := eng.Loopback(src, dst, 64)
	if !errors.Is(err, axidma.ErrTimeout) {
		t.Fatalf("Loopback() err = %v, want ErrTimeout", err)
	}
}

func TestTransferValidate(t *testing.T) {
	tests := []struct {
		len                uint32
		srcAvail, dstAvail int64
		ok                 bool
	}{
		{len: 2048, srcAvail: 4096, dstAvail: 4096, ok: true},
		{len: 4096, srcAvail: 4096, dstAvail: 4096, ok: true},
		{len: 0, srcAvail: 4096, dstAvail: 4096},
		{len: 4097, srcAvail: 4096, dstAvail: 8192},
		{len: 4097, srcAvail: 8192, dstAvail: 4096},
		{len: 1, srcAvail: -4, dstAvail: 4096},
	}
	for _, tt := range tests {
		err := axidma.Transfer{Len: tt.len}.Validate(tt.srcAvail, tt.dstAvail)
		if tt.ok && err != nil {
			t.Errorf("Validate(%d, %d, %d) err = %v", tt.len, tt.srcAvail, tt.dstAvail, err)
		}
		if !tt.ok && !errors.Is(err, axidma.ErrInvalidLength) {
			t.Errorf("Validate(%d, %d, %d) err = %v, want ErrInvalidLength", tt.len, tt.srcAvail, tt.dstAvail, err)
		}
	}
}

func TestLoopbackTooLarge(t *testing.T) {
	src, dst := newBuffers(64)
	eng, sim := newEngine(t, testConfig(), src, dst)

	if err := eng.LoopbackAt(src, 32, dst, 0, 64); !errors.Is(err, axidma.ErrInvalidLength) {
		t.Fatalf("LoopbackAt() err = %v, want ErrInvalidLength", err)
	}
	if len(sim.Writes) != 0 {
		t.Errorf("registers written despite invalid transfer: %v", sim.Writes)
	}
}

func TestStream(t *testing.T) {
	src, dst := newBuffers(16384)
	eng, _ := newEngine(t, testConfig(), src, dst)

	const total = 10000
	payload := make([]byte, total)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	src.WriteAt(payload, 0)

	var offsets []int64
	err := eng.Stream(src, dst, total, 4096, func(i int, off int64) error {
		offsets = append(offsets, off)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{0, 4096, 8192}, offsets); diff != "" {
		t.Errorf("chunk offsets mismatch (-want +got):\n%s", diff)
	}
	got, _ := dst.Bytes(0, total)
	if !bytes.Equal(payload, got) {
		t.Errorf("streamed data mismatch")
	}
}

func TestStreamStop(t *testing.T) {
	src, dst := newBuffers(16384)
	eng, _ := newEngine(t, testConfig(), src, dst)

	stop := errors.New("stop")
	n := 0
	err := eng.Stream(src, dst, 16384, 4096, func(i int, off int64) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("Stream() = %v after %d chunks, want stop after 1", err, n)
	}
}

func TestStatusState(t *testing.T) {
	tests := []struct {
		status axidma.Status
		state  axidma.State
		str    string
	}{
		{axidma.StatusHalted, axidma.StateReset, "[halted]"},
		{0, axidma.StateRunning, "[]"},
		{axidma.StatusIdle, axidma.StateIdle, "[idle]"},
		{axidma.StatusErrIRQ | axidma.StatusHalted, axidma.StateError, "[err,halted]"},
	}
	for _, tt := range tests {
		if got := tt.status.State(); got != tt.state {
			t.Errorf("Status(%#x).State() = %s, want %s", uint32(tt.status), got, tt.state)
		}
		if got := tt.status.String(); got != tt.str {
			t.Errorf("Status(%#x).String() = %q, want %q", uint32(tt.status), got, tt.str)
		}
	}
}

func TestInvalidChannel(t *testing.T) {
	eng, _ := newEngine(t, testConfig())
	if err := eng.Start(axidma.Channel(2)); err == nil {
		t.Errorf("Start(Channel(2)) should fail")
	}
	if _, err := eng.PollIdle(axidma.Channel(7)); err == nil {
		t.Errorf("PollIdle(Channel(7)) should fail")
	}
	if err := eng.Trigger(axidma.Send, 0); !errors.Is(err, axidma.ErrInvalidLength) {
		t.Errorf("Trigger(0) err = %v, want ErrInvalidLength", err)
	}
}

func TestNewSmallWindow(t *testing.T) {
	win := hwio.NewWindow("small", 0x40, hwio.NewMem32(make([]byte, 0x40)))
	if _, err := axidma.New(win, testConfig()); !errors.Is(err, hwio.ErrOutOfRange) {
		t.Errorf("New() err = %v, want ErrOutOfRange", err)
	}

	cfg := testConfig()
	cfg.PollInterval = 0
	win = hwio.NewWindow("ok", 0x100, hwio.NewMem32(make([]byte, 0x100)))
	if _, err := axidma.New(win, cfg); err == nil {
		t.Errorf("New() with zero poll interval should fail")
	}
}
