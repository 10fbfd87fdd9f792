// Package board holds the display presets the demo knows how to drive:
// panel timing plus the touch calibration recorded on a real unit.
package board

import (
	"fmt"
	"sort"
	"strings"

	"evedemo/internal/eve"
)

// Board is one EVE module/panel combination.
type Board struct {
	Name   string     `json:"name"`
	Timing eve.Timing `json:"timing"`
	// Touch holds REG_TOUCH_TRANSFORM_A..F as recorded by CMD_CALIBRATE.
	Touch [6]uint32 `json:"touch"`
}

// Width and Height are the active panel size in pixels.
func (b Board) Width() int  { return int(b.Timing.HSize) }
func (b Board) Height() int { return int(b.Timing.VSize) }

// Shared panel timings.
var (
	wvga800x480 = eve.Timing{
		HSize: 800, VSize: 480,
		HCycle: 928, HOffset: 88, HSync0: 0, HSync1: 48,
		VCycle: 525, VOffset: 32, VSync0: 0, VSync1: 3,
		PCLK: 2, PCLKPol: 1, Swizzle: 0, CSpread: 0,
		Crystal: true,
	}
	wqvga480x272 = eve.Timing{
		HSize: 480, VSize: 272,
		HCycle: 548, HOffset: 43, HSync0: 0, HSync1: 41,
		VCycle: 292, VOffset: 12, VSync0: 0, VSync1: 10,
		PCLK: 5, PCLKPol: 1, Swizzle: 0, CSpread: 1,
		Crystal: true,
	}
	qvga320x240 = eve.Timing{
		HSize: 320, VSize: 240,
		HCycle: 408, HOffset: 70, HSync0: 0, HSync1: 10,
		VCycle: 263, VOffset: 13, VSync0: 0, VSync1: 2,
		PCLK: 8, PCLKPol: 0, Swizzle: 2, CSpread: 1,
		Crystal: true,
	}
)

func with(t eve.Timing, edit func(*eve.Timing)) eve.Timing {
	edit(&t)
	return t
}

var boards = map[string]Board{
	"CFAF240400C1_030SC": {
		Timing: eve.Timing{
			HSize: 240, VSize: 400,
			HCycle: 300, HOffset: 40, HSync0: 0, HSync1: 20,
			VCycle: 421, VOffset: 12, VSync0: 0, VSync1: 4,
			PCLK: 5, PCLKPol: 1, Swizzle: 0, CSpread: 1,
			Crystal: true,
		},
		Touch: [6]uint32{0x0000ed11, 0x00001139, 0xfff76809, 0x00000000, 0x00010690, 0xfffadf2e},
	},
	"CFAF320240F_035T": {
		Timing: with(qvga320x240, func(t *eve.Timing) { t.Swizzle = 0; t.PCLKPol = 1 }),
		Touch:  [6]uint32{0x00005614, 0x0000009e, 0xfff43422, 0x0000001d, 0xffffbda4, 0x00f8f2ef},
	},
	"CFAF480128A0_039TC": {
		Timing: eve.Timing{
			HSize: 480, VSize: 128,
			HCycle: 1042, HOffset: 511, HSync0: 0, HSync1: 10,
			VCycle: 137, VOffset: 7, VSync0: 0, VSync1: 2,
			PCLK: 7, PCLKPol: 1, Swizzle: 0, CSpread: 0,
			Crystal: true,
		},
		Touch: [6]uint32{0x00010485, 0x0000017f, 0xfffb0bd3, 0x00000073, 0x0000e293, 0x00069904},
	},
	"CFAF800480E0_050SC": {
		Timing: wvga800x480,
		Touch:  [6]uint32{0x000107f9, 0xffffff8c, 0xfff451ae, 0x000000d2, 0x0000feac, 0xfffcfaaf},
	},
	"PAF90": {
		Timing: with(wvga800x480, func(t *eve.Timing) { t.Crystal = false }),
		Touch:  [6]uint32{0x00000159, 0x0001019c, 0xfff93625, 0x00010157, 0x00000000, 0x0000c101},
	},
	"RiTFT43": {
		Timing: with(wqvga480x272, func(t *eve.Timing) { t.PCLK = 6 }),
		Touch:  [6]uint32{0x000062cd, 0xfffffe45, 0xfff45e0a, 0x000001a3, 0x00005b33, 0xfffbb870},
	},
	"EVE2_38": {
		// 480x272 timing, only a 116 line window of the panel is visible.
		Timing: with(wqvga480x272, func(t *eve.Timing) { t.VSize = 116; t.VOffset = 12 + 152 }),
		Touch:  [6]uint32{0x00007bed, 0x000001b0, 0xfff60aa5, 0x00000095, 0xffffdcda, 0x00829c08},
	},
	"EVE2_35G": {
		Timing: qvga320x240,
		Touch:  [6]uint32{0x000109e4, 0x000007a6, 0xffec1eba, 0x0000072c, 0x0001096a, 0xfff469cf},
	},
	"EVE2_43G": {
		Timing: wqvga480x272,
		Touch:  [6]uint32{0x0000a1ff, 0x00000680, 0xffe54cc2, 0xffffff53, 0x0000912c, 0xfffe628d},
	},
	"EVE2_50G": {
		Timing: wvga800x480,
		Touch:  [6]uint32{0x000109e4, 0x000007a6, 0xffec1eba, 0x0000072c, 0x0001096a, 0xfff469cf},
	},
	"EVE2_70G": {
		Timing: wvga800x480,
		Touch:  [6]uint32{0x000105bc, 0xfffffa8a, 0x00004670, 0xffffff75, 0x00010074, 0xffff14c8},
	},
	"NHD_35": {
		Timing: qvga320x240,
		Touch:  [6]uint32{0x0000f78b, 0x00000427, 0xfffcedf8, 0xfffffba4, 0x0000f756, 0x0009279e},
	},
	"RVT70": {
		Timing: wvga800x480,
		Touch:  [6]uint32{0x000074df, 0x000000e6, 0xfffd5474, 0x000001af, 0x00007e79, 0xffe9a63c},
	},
	"FT811CB_HY50HD": {
		Timing: with(wvga800x480, func(t *eve.Timing) { t.Crystal = false }),
		Touch:  [6]uint32{66353, 712, 4293876677, 4294966157, 67516, 418276},
	},
	"ADAM101": {
		Timing: eve.Timing{
			HSize: 1024, VSize: 600,
			HCycle: 1344, HOffset: 160, HSync0: 0, HSync1: 100,
			VCycle: 635, VOffset: 23, VSync0: 0, VSync1: 10,
			PCLK: 1, PCLKPol: 1, Swizzle: 0, CSpread: 0,
			Crystal: true,
		},
		Touch: [6]uint32{0x000101e3, 0x00000114, 0xfff5eeba, 0xffffff5e, 0x00010226, 0x0000c783},
	},
}

// EVE3 modules share panels and calibration with their EVE2 siblings.
func init() {
	for _, size := range []string{"35G", "43G", "50G"} {
		b := boards["EVE2_"+size]
		boards["EVE3_"+size] = b
	}
	for name, b := range boards {
		b.Name = name
		boards[name] = b
	}
}

// Lookup returns the preset called name, ignoring case.
func Lookup(name string) (Board, error) {
	for n, b := range boards {
		if strings.EqualFold(n, name) {
			return b, nil
		}
	}
	return Board{}, fmt.Errorf("board: unknown board %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Names lists all presets in sorted order.
func Names() []string {
	out := make([]string, 0, len(boards))
	for n := range boards {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
