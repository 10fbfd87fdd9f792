package scene

import (
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"

	"evedemo/internal/assets"
	"evedemo/internal/eve"
)

var testLayout = Layout{Width: 480, Height: 272}

func words(b []byte) []uint32 {
	out := make([]uint32, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, binary.LittleEndian.Uint32(b[i:]))
	}
	return out
}

func indexOf(ws []uint32, w uint32) int {
	for i, v := range ws {
		if v == w {
			return i
		}
	}
	return -1
}

func newTestScene() (*Scene, *eve.Sim) {
	sim := eve.NewSim()
	dev := eve.NewDev(sim, nil)
	return New(dev, testLayout, Snapshot{Addr: MemDLStatic, Size: 400}), sim
}

func TestPollScenario(t *testing.T) {
	c := qt.New(t)
	var s State
	tags := []uint8{0, 0, 10, 10, 10, 0, 0, 10, 0}
	wantFlip := []bool{false, false, true, false, false, false, false, true, false}
	wantToggle := []bool{false, false, true, true, true, true, true, false, false}
	for i, tag := range tags {
		c.Assert(s.Poll(tag), qt.Equals, wantFlip[i], qt.Commentf("index %d", i))
		c.Assert(s.Toggle, qt.Equals, wantToggle[i], qt.Commentf("index %d", i))
	}
}

func TestHoldFlipsOnce(t *testing.T) {
	for _, n := range []int{1, 2, 7, 100} {
		var s State
		flips := 0
		for i := 0; i < n; i++ {
			if s.Poll(ButtonTag) {
				flips++
			}
		}
		qt.Assert(t, flips, qt.Equals, 1, qt.Commentf("held for %d polls", n))
		qt.Assert(t, s.Toggle, qt.IsTrue)
	}
}

func TestForeignTagKeepsLock(t *testing.T) {
	c := qt.New(t)
	var s State
	c.Assert(s.Poll(ButtonTag), qt.IsTrue)
	c.Assert(s.Poll(5), qt.IsFalse)
	c.Assert(s.Locked(), qt.IsTrue)
	c.Assert(s.Poll(ButtonTag), qt.IsFalse)
	c.Assert(s.Poll(0), qt.IsFalse)
	c.Assert(s.Locked(), qt.IsFalse)
	c.Assert(s.Poll(ButtonTag), qt.IsTrue)
	c.Assert(s.Toggle, qt.IsFalse)
}

// expectedFlips counts button readings whose most recent 0-or-button
// predecessor is a 0 (or absent).
func expectedFlips(tags []uint8) int {
	flips := 0
	released := true
	for _, tag := range tags {
		switch tag {
		case 0:
			released = true
		case ButtonTag:
			if released {
				flips++
			}
			released = false
		}
	}
	return flips
}

func TestPollRandomSequences(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	choices := []uint8{0, ButtonTag, 5}
	for run := 0; run < 200; run++ {
		tags := make([]uint8, 1+rnd.Intn(60))
		for i := range tags {
			tags[i] = choices[rnd.Intn(len(choices))]
		}
		var s State
		flips := 0
		for _, tag := range tags {
			if s.Poll(tag) {
				flips++
			}
		}
		qt.Assert(t, flips, qt.Equals, expectedFlips(tags), qt.Commentf("tags %v", tags))
		qt.Assert(t, s.Toggle, qt.Equals, flips%2 == 1)
	}
}

func TestAdvance(t *testing.T) {
	c := qt.New(t)
	s := State{Toggle: true}
	for i := 0; i < 3; i++ {
		s.Advance()
	}
	c.Assert(s.Angle, qt.Equals, int32(768))

	s.Toggle = false
	s.Advance()
	c.Assert(s.Angle, qt.Equals, int32(768))
}

func TestAdvanceWraps(t *testing.T) {
	s := State{Toggle: true, Angle: 1<<31 - RotateStep/2}
	s.Advance()
	qt.Assert(t, s.Angle < 0, qt.IsTrue)
	qt.Assert(t, uint16(s.Angle), qt.Equals, uint16(RotateStep/2))
}

func TestFrameRotatesWhileOn(t *testing.T) {
	c := qt.New(t)
	sc, sim := newTestScene()
	sc.State.Toggle = true

	var rotations []uint32
	for i := 0; i < 3; i++ {
		sim.ResetCommands()
		ran, err := sc.Frame(context.Background())
		c.Assert(err, qt.IsNil)
		c.Assert(ran, qt.IsTrue)
		ws := words(sim.Commands())
		i := indexOf(ws, eve.CmdRotate)
		c.Assert(i >= 0, qt.IsTrue)
		rotations = append(rotations, ws[i+1])
	}
	c.Assert(rotations, qt.DeepEquals, []uint32{0, 256, 512})
	c.Assert(sc.State.Angle, qt.Equals, int32(768))
}

func TestFrameHoldsAngleWhileOff(t *testing.T) {
	c := qt.New(t)
	sc, _ := newTestScene()
	sc.State.Angle = 4096
	for i := 0; i < 5; i++ {
		_, err := sc.Frame(context.Background())
		c.Assert(err, qt.IsNil)
	}
	c.Assert(sc.State.Angle, qt.Equals, int32(4096))
}

func TestFrameSkippedWhileBusy(t *testing.T) {
	c := qt.New(t)
	sc, sim := newTestScene()
	sc.State.Toggle = true
	sim.SetBusy(true)

	ran, err := sc.Frame(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(ran, qt.IsFalse)
	c.Assert(sim.Commands(), qt.HasLen, 0)
	c.Assert(sc.State.Angle, qt.Equals, int32(0))
	c.Assert(sc.Counters, qt.Equals, Counters{})
}

func TestFrameLayout(t *testing.T) {
	c := qt.New(t)
	sc, sim := newTestScene()

	_, err := sc.Frame(context.Background())
	c.Assert(err, qt.IsNil)
	ws := words(sim.Commands())

	c.Assert(ws[:7], qt.DeepEquals, []uint32{
		eve.CmdDLStart,
		eve.ClearColorRGB(0xffffff),
		eve.Clear(eve.ClearAll),
		eve.Tag(0),
		eve.CmdAppend, MemDLStatic, 400,
	})
	c.Assert(ws[len(ws)-2:], qt.DeepEquals, []uint32{eve.Display(), eve.CmdSwap})

	b := indexOf(ws, eve.CmdButton)
	c.Assert(ws[b-1], qt.Equals, eve.Tag(ButtonTag))
	c.Assert(ws[b+3]>>16, qt.Equals, uint32(eve.Opt3D))

	// The picture is rotated about its centre.
	tr := indexOf(ws, eve.CmdTranslate)
	c.Assert(ws[tr+1:tr+3], qt.DeepEquals, []uint32{65536 * 50, 65536 * 50})
	c.Assert(indexOf(ws, eve.Vertex2F(380, 66)) > 0, qt.IsTrue)

	// Pressed look once toggled.
	sim.ResetCommands()
	sc.State.Toggle = true
	_, err = sc.Frame(context.Background())
	c.Assert(err, qt.IsNil)
	ws = words(sim.Commands())
	b = indexOf(ws, eve.CmdButton)
	c.Assert(ws[b+3]>>16, qt.Equals, uint32(eve.OptFlat))
}

func TestFrameReportsPreviousBurst(t *testing.T) {
	c := qt.New(t)
	sc, sim := newTestScene()
	_, err := sc.Frame(context.Background())
	c.Assert(err, qt.IsNil)
	first := len(sim.Commands())
	c.Assert(sc.Counters.FIFOBytes, qt.Equals, int32(0))

	_, err = sc.Frame(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(sc.Counters.FIFOBytes, qt.Equals, int32(first))
}

func TestTouchStep(t *testing.T) {
	c := qt.New(t)
	sc, sim := newTestScene()
	ctx := context.Background()

	sim.Poke16(eve.RegCmdDL, 1500)
	sim.SetTouchTag(ButtonTag)
	ran, err := sc.Touch(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(ran, qt.IsTrue)
	c.Assert(sc.State.Toggle, qt.IsTrue)
	c.Assert(sc.Counters.DLSize, qt.Equals, int32(1500))

	// Still held: no second flip.
	_, err = sc.Touch(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(sc.State.Toggle, qt.IsTrue)

	// Busy: the tag is not sampled at all, so the release is missed.
	sim.SetBusy(true)
	sim.SetTouchTag(0)
	ran, err = sc.Touch(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(ran, qt.IsFalse)
	c.Assert(sc.State.Locked(), qt.IsTrue)

	sim.SetBusy(false)
	_, err = sc.Touch(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(sc.State.Locked(), qt.IsFalse)
}

func TestBuildStatic(t *testing.T) {
	c := qt.New(t)
	sim := eve.NewSim()
	dev := eve.NewDev(sim, nil)
	sim.Poke16(eve.RegCmdDL, 420)

	snap, err := BuildStatic(context.Background(), dev, testLayout)
	c.Assert(err, qt.IsNil)
	c.Assert(snap, qt.Equals, Snapshot{Addr: MemDLStatic, Size: 420})

	ws := words(sim.Commands())
	c.Assert(ws[0], qt.Equals, uint32(eve.CmdDLStart))
	c.Assert(indexOf(ws, eve.CmdSwap), qt.Equals, -1)
	c.Assert(ws[len(ws)-4:], qt.DeepEquals, []uint32{eve.CmdMemcpy, MemDLStatic, eve.RAMDL, 420})
}

func TestBuildStaticTooLarge(t *testing.T) {
	sim := eve.NewSim()
	sim.Poke16(eve.RegCmdDL, 5000)
	_, err := BuildStatic(context.Background(), eve.NewDev(sim, nil), testLayout)
	qt.Assert(t, err, qt.ErrorMatches, `scene: static list is 5000 bytes.*`)
}

func TestLoadAssets(t *testing.T) {
	c := qt.New(t)
	sim := eve.NewSim()
	c.Assert(LoadAssets(context.Background(), eve.NewDev(sim, nil), PictureJPEG), qt.IsNil)
	ws := words(sim.Commands())
	c.Assert(ws[:2], qt.DeepEquals, []uint32{eve.CmdInflate, MemLogo})
	i := indexOf(ws, eve.CmdLoadImage)
	c.Assert(i > 0, qt.IsTrue)
	c.Assert(ws[i+1:i+3], qt.DeepEquals, []uint32{MemPic1, eve.OptNoDL})
}

func TestLoadAssetsRGB565(t *testing.T) {
	c := qt.New(t)
	sim := eve.NewSim()
	c.Assert(LoadAssets(context.Background(), eve.NewDev(sim, nil), PictureRGB565), qt.IsNil)
	ws := words(sim.Commands())
	c.Assert(ws[:2], qt.DeepEquals, []uint32{eve.CmdInflate, MemLogo})

	// The picture's CMD_INFLATE follows the padded logo payload.
	logo, err := assets.Logo()
	c.Assert(err, qt.IsNil)
	next := (8 + (len(logo)+3)&^3) / 4
	c.Assert(ws[next:next+2], qt.DeepEquals, []uint32{eve.CmdInflate, MemPic1})
	c.Assert(len(ws) > next+2, qt.IsTrue)
}

func TestParsePictureSource(t *testing.T) {
	qt.Assert(t, ParsePictureSource("rgb565"), qt.Equals, PictureRGB565)
	qt.Assert(t, ParsePictureSource("jpeg"), qt.Equals, PictureJPEG)
	qt.Assert(t, ParsePictureSource(""), qt.Equals, PictureJPEG)
}

// calibratingDev stands in for the co-processor finishing CMD_CALIBRATE:
// after each Execute it writes result over the placeholder that follows the
// command in the FIFO.
type calibratingDev struct {
	*eve.Dev
	sim    *eve.Sim
	result uint32
}

func (d *calibratingDev) Execute(ctx context.Context, l *eve.CommandList) error {
	start := d.sim.Peek32(eve.RegCmdWrite)
	if err := d.Dev.Execute(ctx, l); err != nil {
		return err
	}
	if i := indexOf(words(l.Bytes()), eve.CmdCalibrate); i >= 0 {
		at := (start + uint32(4*i+4)) & (eve.CmdFIFOSize - 1)
		d.sim.Poke32(eve.RAMCmd+at, d.result)
	}
	return nil
}

func TestCalibrate(t *testing.T) {
	want := [6]uint32{0x000062cd, 0xfffffe45, 0xfff45e0a, 0x000001a3, 0x00005b33, 0xfffbb870}
	tests := []struct {
		name   string
		start  uint32
		result uint32
		wantOK bool
	}{
		{"success", 0, 1, true},
		{"failure", 0, 0, false},
		{"success across fifo wrap", eve.CmdFIFOSize - 24, 1, true},
		{"failure across fifo wrap", eve.CmdFIFOSize - 24, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := qt.New(t)
			sim := eve.NewSim()
			dev := &calibratingDev{Dev: eve.NewDev(sim, nil), sim: sim, result: tc.result}
			for i, reg := range eve.TouchTransformRegs {
				sim.Poke32(reg, want[i])
			}
			sim.Poke32(eve.RegCmdWrite, tc.start)

			m, ok, err := Calibrate(context.Background(), dev, testLayout, 0)
			c.Assert(err, qt.IsNil)
			c.Assert(ok, qt.Equals, tc.wantOK)
			c.Assert(m, qt.Equals, want)
		})
	}
}

func TestCalibrateWithoutCoprocessorFails(t *testing.T) {
	// The simulator never executes CMD_CALIBRATE, so the placeholder stays 0.
	sim := eve.NewSim()
	_, ok, err := Calibrate(context.Background(), eve.NewDev(sim, nil), testLayout, 0)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, ok, qt.IsFalse)
}

func TestCalibrateScreens(t *testing.T) {
	c := qt.New(t)
	sim := eve.NewSim()
	dev := &calibratingDev{Dev: eve.NewDev(sim, nil), sim: sim, result: 1}

	_, _, err := Calibrate(context.Background(), dev, testLayout, 0)
	c.Assert(err, qt.IsNil)

	ws := words(sim.Commands())
	cal := indexOf(ws, eve.CmdCalibrate)
	c.Assert(cal > 0, qt.IsTrue)
	c.Assert(ws[cal+1:cal+4], qt.DeepEquals, []uint32{0, eve.Display(), eve.CmdSwap})
	base := indexOf(ws, eve.CmdSetBase)
	c.Assert(ws[base+1], qt.Equals, uint32(16))
	last := len(ws) - 4
	c.Assert(ws[last:], qt.DeepEquals, []uint32{eve.CmdSetBase, 10, eve.Display(), eve.CmdSwap})
}

// rejectingDev accepts busy checks but fails every submit.
type rejectingDev struct {
	*eve.Dev
}

func (rejectingDev) Submit(context.Context, *eve.CommandList) error {
	return errors.New("bus gone")
}

func TestFrameKeepsAngleWhenSubmitFails(t *testing.T) {
	c := qt.New(t)
	sc := New(rejectingDev{eve.NewDev(eve.NewSim(), nil)}, testLayout, Snapshot{Addr: MemDLStatic, Size: 400})
	sc.State.Toggle = true
	sc.State.Angle = 512

	ran, err := sc.Frame(context.Background())
	c.Assert(err, qt.ErrorMatches, "scene: submit frame: bus gone")
	c.Assert(ran, qt.IsTrue)
	c.Assert(sc.State.Angle, qt.Equals, int32(512))
}
