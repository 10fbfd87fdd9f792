package eve

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrTimeout is returned when the controller does not reach an expected
	// state within the retry budget.
	ErrTimeout = errors.New("eve: timeout")
	// ErrFault is returned when the co-processor reported a fault. The
	// co-processor has been reset by the time the caller sees it.
	ErrFault = errors.New("eve: co-processor fault")
	// ErrChipID is returned by Init when REG_ID never reads 0x7C.
	ErrChipID = errors.New("eve: unexpected chip id")
)

// Conn is a full-duplex SPI transaction. periph.io's spi.Conn satisfies it,
// as does *Sim.
type Conn interface {
	Tx(w, r []byte) error
}

// maxChunk bounds a single SPI write so the header plus payload stays
// within the usual 4096 byte spidev transfer limit.
const maxChunk = 4096 - 4

// Timing is the display timing programmed by Init.
type Timing struct {
	HSize   uint16 `yaml:"hsize" json:"hsize"`
	VSize   uint16 `yaml:"vsize" json:"vsize"`
	HCycle  uint16 `yaml:"hcycle" json:"hcycle"`
	HOffset uint16 `yaml:"hoffset" json:"hoffset"`
	HSync0  uint16 `yaml:"hsync0" json:"hsync0"`
	HSync1  uint16 `yaml:"hsync1" json:"hsync1"`
	VCycle  uint16 `yaml:"vcycle" json:"vcycle"`
	VOffset uint16 `yaml:"voffset" json:"voffset"`
	VSync0  uint16 `yaml:"vsync0" json:"vsync0"`
	VSync1  uint16 `yaml:"vsync1" json:"vsync1"`
	PCLK    uint8  `yaml:"pclk" json:"pclk"`
	PCLKPol uint8  `yaml:"pclk_pol" json:"pclk_pol"`
	Swizzle uint8  `yaml:"swizzle" json:"swizzle"`
	CSpread uint8  `yaml:"cspread" json:"cspread"`
	// Crystal selects the external clock source before ACTIVE.
	Crystal bool `yaml:"crystal" json:"crystal"`
}

// Dev is an EVE controller reachable through conn. An optional PD pin is
// used to power-cycle the chip in Init.
type Dev struct {
	conn Conn
	pd   gpio.PinOut

	// PollInterval is the pause between busy checks in WaitIdle and while
	// waiting for FIFO space.
	PollInterval time.Duration

	sleep func(time.Duration)
}

// NewDev wraps conn. pd may be nil when the power-down line is not wired.
func NewDev(conn Conn, pd gpio.PinOut) *Dev {
	return &Dev{
		conn:         conn,
		pd:           pd,
		PollInterval: 100 * time.Microsecond,
		sleep:        time.Sleep,
	}
}

// --- memory access ---

func writeHeader(addr uint32) []byte {
	return []byte{byte(addr>>16)&0x3F | 0x80, byte(addr >> 8), byte(addr)}
}

func (d *Dev) read(addr uint32, n int) ([]byte, error) {
	// Three address bytes, one dummy byte, then n bytes of data.
	w := make([]byte, 4+n)
	w[0] = byte(addr>>16) & 0x3F
	w[1] = byte(addr >> 8)
	w[2] = byte(addr)
	r := make([]byte, len(w))
	if err := d.conn.Tx(w, r); err != nil {
		return nil, fmt.Errorf("eve: read 0x%06x: %w", addr, err)
	}
	return r[4:], nil
}

// WriteMem writes data starting at addr, split into bus-sized chunks.
func (d *Dev) WriteMem(addr uint32, data []byte) error {
	for len(data) > 0 {
		n := min(len(data), maxChunk)
		w := append(writeHeader(addr), data[:n]...)
		if err := d.conn.Tx(w, nil); err != nil {
			return fmt.Errorf("eve: write 0x%06x: %w", addr, err)
		}
		addr += uint32(n)
		data = data[n:]
	}
	return nil
}

// ReadMem reads n consecutive bytes starting at addr in one transfer.
func (d *Dev) ReadMem(addr uint32, n int) ([]byte, error) {
	return d.read(addr, n)
}

// writeFIFO sends data to REG_CMDB_WRITE. Unlike WriteMem every chunk goes
// to the same address, since the register consumes whatever is written.
func (d *Dev) writeFIFO(data []byte) error {
	for len(data) > 0 {
		n := min(len(data), maxChunk)
		w := append(writeHeader(RegCmdBWrite), data[:n]...)
		if err := d.conn.Tx(w, nil); err != nil {
			return fmt.Errorf("eve: write cmd fifo: %w", err)
		}
		data = data[n:]
	}
	return nil
}

func (d *Dev) Read8(addr uint32) (uint8, error) {
	b, err := d.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) Read16(addr uint32) (uint16, error) {
	b, err := d.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Dev) Read32(addr uint32) (uint32, error) {
	b, err := d.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Dev) Write8(addr uint32, v uint8) error {
	return d.WriteMem(addr, []byte{v})
}

func (d *Dev) Write16(addr uint32, v uint16) error {
	return d.WriteMem(addr, binary.LittleEndian.AppendUint16(nil, v))
}

func (d *Dev) Write32(addr uint32, v uint32) error {
	return d.WriteMem(addr, binary.LittleEndian.AppendUint32(nil, v))
}

// HostCommand sends one of the Host* commands.
func (d *Dev) HostCommand(cmd uint8) error {
	if err := d.conn.Tx([]byte{cmd, 0, 0}, nil); err != nil {
		return fmt.Errorf("eve: host command 0x%02x: %w", cmd, err)
	}
	return nil
}

// --- co-processor ---

// Busy reports whether the co-processor still has commands queued. A fault
// is cleared by resetting the co-processor and reported as ErrFault.
func (d *Dev) Busy() (bool, error) {
	space, err := d.Read16(RegCmdBSpace)
	if err != nil {
		return false, err
	}
	if space&0x3 != 0 {
		if err := d.resetCoprocessor(); err != nil {
			return false, err
		}
		return false, ErrFault
	}
	return space != CmdBSpaceIdle, nil
}

// resetCoprocessor resets the co-processor after a fault and leaves the FIFO empty.
func (d *Dev) resetCoprocessor() error {
	steps := []struct {
		addr uint32
		v    uint32
	}{
		{RegCPUReset, 1},
		{RegCmdRead, 0},
		{RegCmdWrite, 0},
		{RegCmdDL, 0},
		{RegCPUReset, 0},
	}
	for _, s := range steps {
		if err := d.Write32(s.addr, s.v); err != nil {
			return err
		}
	}
	return nil
}

// WaitIdle polls Busy until the FIFO has drained or ctx is done.
func (d *Dev) WaitIdle(ctx context.Context) error {
	for {
		busy, err := d.Busy()
		if err != nil {
			return err
		}
		if !busy {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("eve: wait idle: %w", err)
		}
		d.sleep(d.PollInterval)
	}
}

// Submit streams l into the command FIFO through REG_CMDB_WRITE. It only
// blocks when l is larger than the free space, in which case it waits for
// the co-processor to make room.
func (d *Dev) Submit(ctx context.Context, l *CommandList) error {
	data := l.Bytes()
	for len(data) > 0 {
		space, err := d.Read16(RegCmdBSpace)
		if err != nil {
			return err
		}
		if space&0x3 != 0 {
			if err := d.resetCoprocessor(); err != nil {
				return err
			}
			return ErrFault
		}
		if space == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("eve: submit: %w", err)
			}
			d.sleep(d.PollInterval)
			continue
		}
		n := min(int(space), len(data))
		if err := d.writeFIFO(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// Execute submits l and waits until the co-processor has processed it.
func (d *Dev) Execute(ctx context.Context, l *CommandList) error {
	if err := d.Submit(ctx, l); err != nil {
		return err
	}
	return d.WaitIdle(ctx)
}

// --- convenience registers ---

// TouchTag returns the tag under the first touch point, 0 for none.
func (d *Dev) TouchTag() (uint8, error) {
	return d.Read8(RegTouchTag)
}

// DisplayListSize returns the byte offset the co-processor reached in
// RAM_DL while building the last list.
func (d *Dev) DisplayListSize() (uint16, error) {
	return d.Read16(RegCmdDL)
}

// SetBacklight writes the PWM duty, 0 (off) to BacklightMax.
func (d *Dev) SetBacklight(duty uint8) error {
	return d.Write8(RegPWMDuty, min(duty, BacklightMax))
}

// TouchTransform reads REG_TOUCH_TRANSFORM_A..F, which are contiguous.
func (d *Dev) TouchTransform() ([6]uint32, error) {
	var out [6]uint32
	b, err := d.ReadMem(RegTouchTransformA, 4*len(out))
	if err != nil {
		return out, err
	}
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out, nil
}

func (d *Dev) SetTouchTransform(m [6]uint32) error {
	for i, reg := range TouchTransformRegs {
		if err := d.Write32(reg, m[i]); err != nil {
			return err
		}
	}
	return nil
}

// CmdWriteOffset returns REG_CMD_WRITE, the FIFO offset the next
// submitted byte will land at.
func (d *Dev) CmdWriteOffset() (uint32, error) {
	wr, err := d.Read32(RegCmdWrite)
	if err != nil {
		return 0, err
	}
	return wr & (CmdFIFOSize - 1), nil
}

// CalibrationResult reads the CMD_CALIBRATE result word at FIFO offset at,
// i.e. CmdWriteOffset before the submit plus the offset returned by
// CommandList.Calibrate. Zero means calibration failed.
func (d *Dev) CalibrationResult(at uint32) (uint32, error) {
	return d.Read32(RAMCmd + at&(CmdFIFOSize-1))
}

// --- start-up ---

// Init power-cycles the controller, waits for it to come up and programs
// the display timing. The backlight is left off.
func (d *Dev) Init(ctx context.Context, t Timing) error {
	if d.pd != nil {
		if err := d.pd.Out(gpio.Low); err != nil {
			return fmt.Errorf("eve: pd low: %w", err)
		}
		d.sleep(6 * time.Millisecond)
		if err := d.pd.Out(gpio.High); err != nil {
			return fmt.Errorf("eve: pd high: %w", err)
		}
		d.sleep(21 * time.Millisecond)
	}

	if t.Crystal {
		if err := d.HostCommand(HostClkExt); err != nil {
			return err
		}
	}
	if err := d.HostCommand(HostActive); err != nil {
		return err
	}
	d.sleep(40 * time.Millisecond)

	if err := d.waitFor(ctx, RegID, 0xFF, IDValue, 400); err != nil {
		if errors.Is(err, ErrTimeout) {
			return ErrChipID
		}
		return err
	}
	if err := d.waitFor(ctx, RegCPUReset, 0x07, 0, 50); err != nil {
		return fmt.Errorf("eve: engines did not leave reset: %w", err)
	}

	regs16 := []struct {
		addr uint32
		v    uint16
	}{
		{RegHSize, t.HSize},
		{RegHCycle, t.HCycle},
		{RegHOffset, t.HOffset},
		{RegHSync0, t.HSync0},
		{RegHSync1, t.HSync1},
		{RegVSize, t.VSize},
		{RegVCycle, t.VCycle},
		{RegVOffset, t.VOffset},
		{RegVSync0, t.VSync0},
		{RegVSync1, t.VSync1},
	}
	for _, r := range regs16 {
		if err := d.Write16(r.addr, r.v); err != nil {
			return err
		}
	}
	regs8 := []struct {
		addr uint32
		v    uint8
	}{
		{RegSwizzle, t.Swizzle},
		{RegPCLKPol, t.PCLKPol},
		{RegCSpread, t.CSpread},
		{RegPWMDuty, 0},
	}
	for _, r := range regs8 {
		if err := d.Write8(r.addr, r.v); err != nil {
			return err
		}
	}
	// Resistive touch sensitivity; ignored by capacitive controllers.
	if err := d.Write16(RegTouchRZThresh, 1200); err != nil {
		return err
	}

	// Empty first list so the panel shows black instead of noise.
	var dl []byte
	for _, w := range []uint32{ClearColorRGB(0), Clear(ClearAll), Display()} {
		dl = binary.LittleEndian.AppendUint32(dl, w)
	}
	if err := d.WriteMem(RAMDL, dl); err != nil {
		return err
	}
	if err := d.Write8(RegDLSwap, DLSwapFrame); err != nil {
		return err
	}

	// Enable the DISP line.
	for _, reg := range []uint32{RegGPIODir, RegGPIO} {
		v, err := d.Read8(reg)
		if err != nil {
			return err
		}
		if err := d.Write8(reg, v|gpioDisplayBit); err != nil {
			return err
		}
	}

	// Starting PCLK last avoids showing a half-programmed frame.
	return d.Write8(RegPCLK, t.PCLK)
}

// waitFor polls addr until value&mask == want, up to tries times 1ms.
func (d *Dev) waitFor(ctx context.Context, addr uint32, mask, want uint8, tries int) error {
	for i := 0; i < tries; i++ {
		v, err := d.Read8(addr)
		if err != nil {
			return err
		}
		if v&mask == want {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		d.sleep(time.Millisecond)
	}
	return ErrTimeout
}
