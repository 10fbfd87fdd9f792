// Package scene builds the demo's display lists: the static background that
// is captured once into RAM_G, and the per-frame overlay with the toggle
// button and the rotating picture.
package scene

import (
	"context"
	"fmt"

	"evedemo/internal/assets"
	"evedemo/internal/eve"
)

// Colours.
const (
	colorBlue1 = 0x5dade2
	colorWhite = 0xffffff
	colorBlack = 0x000000
	colorGrey  = 0xc0c0c0
)

// RAM_G layout.
const (
	MemLogo     = 0x000f8000 // 56x56 ARGB1555, 6272 bytes
	MemPic1     = 0x000fa000 // 100x100 RGB565, 20000 bytes
	MemDLStatic = eve.RAMGSize - 4096
	staticMax   = 4096
)

// layoutY1 is the bottom of the header band.
const layoutY1 = 66

// Controller is the part of eve.Dev the frame loop needs.
type Controller interface {
	Busy() (bool, error)
	TouchTag() (uint8, error)
	DisplayListSize() (uint16, error)
	Submit(ctx context.Context, l *eve.CommandList) error
	Execute(ctx context.Context, l *eve.CommandList) error
}

// Layout is the active panel size.
type Layout struct {
	Width  int16
	Height int16
}

// Snapshot locates the static display list copied into RAM_G.
type Snapshot struct {
	Addr uint32
	Size uint32
}

// Counters are the diagnostic numbers drawn in the bottom-left corner.
type Counters struct {
	// FIFOBytes is the size of the previous frame's command burst.
	FIFOBytes int32
	// DLSize is REG_CMD_DL as sampled by the last touch step.
	DLSize int32
	// TouchMicros and FrameMicros are the durations of the last touch and
	// frame steps.
	TouchMicros int32
	FrameMicros int32
}

// PictureSource selects how the rotating picture reaches RAM_G.
type PictureSource int

const (
	// PictureJPEG lets CMD_LOADIMAGE decode a JPEG into RGB565.
	PictureJPEG PictureSource = iota
	// PictureRGB565 inflates pre-packed RGB565 pixels.
	PictureRGB565
)

// ParsePictureSource maps the config value to a PictureSource. Anything but
// "rgb565" selects PictureJPEG.
func ParsePictureSource(s string) PictureSource {
	if s == "rgb565" {
		return PictureRGB565
	}
	return PictureJPEG
}

// LoadAssets decompresses the logo and loads the picture into RAM_G.
func LoadAssets(ctx context.Context, ctl Controller, src PictureSource) error {
	logo, err := assets.Logo()
	if err != nil {
		return err
	}
	var l eve.CommandList
	l.Inflate(MemLogo, logo)
	switch src {
	case PictureRGB565:
		pic, err := assets.PictureRGB565()
		if err != nil {
			return err
		}
		l.Inflate(MemPic1, pic)
	default:
		pic, err := assets.Picture()
		if err != nil {
			return err
		}
		l.LoadImage(MemPic1, eve.OptNoDL, pic)
	}
	if err := ctl.Execute(ctx, &l); err != nil {
		return fmt.Errorf("scene: load assets: %w", err)
	}
	return nil
}

// BuildStatic renders the background once, waits for the co-processor to
// finish and copies the resulting display list to MemDLStatic.
func BuildStatic(ctx context.Context, ctl Controller, lay Layout) (Snapshot, error) {
	w, h := lay.Width, lay.Height
	var l eve.CommandList

	l.DLStart()
	l.DL(eve.Tag(0))
	l.BgColor(colorGrey)
	l.DL(eve.VertexFormat(0))

	// Header band.
	l.DL(eve.Begin(eve.PrimRects))
	l.DL(eve.LineWidth(1 * 16))
	l.DL(eve.ColorRGB(colorBlue1))
	l.DL(eve.Vertex2F(0, 0))
	l.DL(eve.Vertex2F(w, layoutY1-2))
	l.DL(eve.End())

	// Logo.
	l.DL(eve.ColorRGB(colorWhite))
	l.DL(eve.Begin(eve.PrimBitmaps))
	l.SetBitmap(MemLogo, eve.FormatARGB1555, assets.LogoSize, assets.LogoSize)
	l.DL(eve.Vertex2F(w-assets.LogoSize-2, 5))
	l.DL(eve.End())

	// Separator.
	l.DL(eve.ColorRGB(colorBlack))
	l.DL(eve.Begin(eve.PrimLines))
	l.DL(eve.Vertex2F(0, layoutY1-2))
	l.DL(eve.Vertex2F(w, layoutY1-2))
	l.DL(eve.End())

	l.Text(w/2, 15, 29, eve.OptCenterX, "EVE Demo")

	l.Text(10, h-65, 26, 0, "Bytes:")
	l.Text(10, h-50, 26, 0, "DL-size:")
	l.Text(10, h-35, 26, 0, "Time1:")
	l.Text(10, h-20, 26, 0, "Time2:")
	l.Text(125, h-35, 26, 0, "us")
	l.Text(125, h-20, 26, 0, "us")

	if err := ctl.Execute(ctx, &l); err != nil {
		return Snapshot{}, fmt.Errorf("scene: build static: %w", err)
	}

	size, err := ctl.DisplayListSize()
	if err != nil {
		return Snapshot{}, err
	}
	if size > staticMax {
		return Snapshot{}, fmt.Errorf("scene: static list is %d bytes, only %d reserved", size, staticMax)
	}

	l.Reset()
	l.Memcpy(MemDLStatic, eve.RAMDL, uint32(size))
	if err := ctl.Execute(ctx, &l); err != nil {
		return Snapshot{}, fmt.Errorf("scene: copy static: %w", err)
	}
	return Snapshot{Addr: MemDLStatic, Size: uint32(size)}, nil
}

// Scene runs the two per-cycle steps against a controller. It is not safe
// for concurrent use; Touch and Frame are meant to be called from a single
// loop.
type Scene struct {
	State    State
	Counters Counters

	ctl    Controller
	layout Layout
	static Snapshot
	list   eve.CommandList
}

func New(ctl Controller, lay Layout, static Snapshot) *Scene {
	return &Scene{ctl: ctl, layout: lay, static: static}
}

// Touch samples the touch tag and updates the toggle. It does nothing and
// returns false while the previous list is still being processed.
func (s *Scene) Touch(ctx context.Context) (bool, error) {
	busy, err := s.ctl.Busy()
	if err != nil || busy {
		return false, err
	}

	size, err := s.ctl.DisplayListSize()
	if err != nil {
		return false, err
	}
	s.Counters.DLSize = int32(size)

	tag, err := s.ctl.TouchTag()
	if err != nil {
		return false, err
	}
	s.State.Poll(tag)
	return true, nil
}

// Frame sends one complete frame: static background, button, rotated
// picture, counters, swap. While the controller is busy it returns false
// without touching any state.
func (s *Scene) Frame(ctx context.Context) (bool, error) {
	busy, err := s.ctl.Busy()
	if err != nil || busy {
		return false, err
	}

	w, h := s.layout.Width, s.layout.Height
	s.Counters.FIFOBytes = int32(s.list.Len())
	l := &s.list
	l.Reset()

	l.DLStart()
	l.DL(eve.ClearColorRGB(colorWhite))
	l.DL(eve.Clear(eve.ClearAll))
	l.DL(eve.Tag(0))

	l.Append(s.static.Addr, s.static.Size)

	l.DL(eve.ColorRGB(colorWhite))
	l.FgColor(colorGrey)
	l.DL(eve.Tag(ButtonTag))
	l.Button(20, 20, 80, 30, 28, s.State.ButtonOptions(), "Touch!")
	l.DL(eve.Tag(0))

	// Rotate the picture about its centre.
	const c = 65536 * assets.PictureSize / 2
	l.SetBitmap(MemPic1, eve.FormatRGB565, assets.PictureSize, assets.PictureSize)
	l.LoadIdentity()
	l.Translate(c, c)
	l.Rotate(s.State.Angle)
	l.Translate(-c, -c)
	l.SetMatrix()

	l.DL(eve.Begin(eve.PrimBitmaps))
	l.DL(eve.Vertex2F(w-assets.PictureSize, layoutY1))
	l.DL(eve.End())
	l.DL(eve.RestoreContext())

	l.DL(eve.ColorRGB(colorBlack))
	l.Number(120, h-65, 26, eve.OptRightX, s.Counters.FIFOBytes)
	l.Number(120, h-50, 26, eve.OptRightX, s.Counters.DLSize)
	l.Number(120, h-35, 26, eve.OptRightX|5, s.Counters.TouchMicros)
	l.Number(120, h-20, 26, eve.OptRightX|5, s.Counters.FrameMicros)

	l.DL(eve.Display())
	l.Swap()

	if err := s.ctl.Submit(ctx, l); err != nil {
		return true, fmt.Errorf("scene: submit frame: %w", err)
	}
	s.State.Advance()
	return true, nil
}
