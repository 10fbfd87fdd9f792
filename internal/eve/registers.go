// Package eve drives FTDI/Bridgetek EVE graphics controllers (FT81x and
// BT81x) over SPI. It covers memory and register access, the co-processor
// command FIFO and display-list encoding; scene logic lives elsewhere.
package eve

// Memory map (FT81x / BT81x).
const (
	RAMG     = 0x000000
	RAMGSize = 1024 * 1024
	ChipID   = 0x0C0000
	RAMDL    = 0x300000
	RAMDLLen = 8192
	RAMCmd   = 0x308000
)

// Registers.
const (
	RegID              = 0x302000
	RegFrames          = 0x302004
	RegClock           = 0x302008
	RegFrequency       = 0x30200C
	RegCPUReset        = 0x302020
	RegHCycle          = 0x30202C
	RegHOffset         = 0x302030
	RegHSize           = 0x302034
	RegHSync0          = 0x302038
	RegHSync1          = 0x30203C
	RegVCycle          = 0x302040
	RegVOffset         = 0x302044
	RegVSize           = 0x302048
	RegVSync0          = 0x30204C
	RegVSync1          = 0x302050
	RegDLSwap          = 0x302054
	RegRotate          = 0x302058
	RegDither          = 0x302060
	RegSwizzle         = 0x302064
	RegCSpread         = 0x302068
	RegPCLKPol         = 0x30206C
	RegPCLK            = 0x302070
	RegGPIODir         = 0x302090
	RegGPIO            = 0x302094
	RegGPIOXDir        = 0x302098
	RegGPIOX           = 0x30209C
	RegPWMHz           = 0x3020D0
	RegPWMDuty         = 0x3020D4
	RegCmdRead         = 0x3020F8
	RegCmdWrite        = 0x3020FC
	RegCmdDL           = 0x302100
	RegTouchMode       = 0x302104
	RegTouchRZThresh   = 0x302118
	RegTouchTag        = 0x30212C
	RegTouchTransformA = 0x302150
	RegTouchTransformB = 0x302154
	RegTouchTransformC = 0x302158
	RegTouchTransformD = 0x30215C
	RegTouchTransformE = 0x302160
	RegTouchTransformF = 0x302164
	RegCmdBSpace       = 0x302574
	RegCmdBWrite       = 0x302578
)

// TouchTransformRegs lists REG_TOUCH_TRANSFORM_A..F in order.
var TouchTransformRegs = [6]uint32{
	RegTouchTransformA,
	RegTouchTransformB,
	RegTouchTransformC,
	RegTouchTransformD,
	RegTouchTransformE,
	RegTouchTransformF,
}

// Host commands, sent as three bytes outside the memory map.
const (
	HostActive  = 0x00
	HostStandby = 0x41
	HostSleep   = 0x42
	HostPwrDown = 0x43
	HostClkExt  = 0x44
	HostClkInt  = 0x48
	HostCoreRst = 0x68
)

// Values read back from or written to specific registers.
const (
	IDValue        = 0x7C
	DLSwapFrame    = 2
	CmdFIFOSize    = 4096
	CmdBSpaceIdle  = CmdFIFOSize - 4
	BacklightMax   = 0x80
	gpioDisplayBit = 0x80
)

// Co-processor commands.
const (
	CmdDLStart      = 0xFFFFFF00
	CmdSwap         = 0xFFFFFF01
	CmdBgColor      = 0xFFFFFF09
	CmdFgColor      = 0xFFFFFF0A
	CmdText         = 0xFFFFFF0C
	CmdButton       = 0xFFFFFF0D
	CmdCalibrate    = 0xFFFFFF15
	CmdMemcpy       = 0xFFFFFF1D
	CmdAppend       = 0xFFFFFF1E
	CmdInflate      = 0xFFFFFF22
	CmdGetPtr       = 0xFFFFFF23
	CmdLoadImage    = 0xFFFFFF24
	CmdLoadIdentity = 0xFFFFFF26
	CmdTranslate    = 0xFFFFFF27
	CmdScale        = 0xFFFFFF28
	CmdRotate       = 0xFFFFFF29
	CmdSetMatrix    = 0xFFFFFF2A
	CmdNumber       = 0xFFFFFF2E
	CmdColdStart    = 0xFFFFFF32
	CmdSetBase      = 0xFFFFFF38
	CmdSetBitmap    = 0xFFFFFF43
)

// Widget options.
const (
	Opt3D      = 0
	OptNoDL    = 2
	OptFlat    = 256
	OptSigned  = 256
	OptCenterX = 512
	OptCenterY = 1024
	OptCenter  = OptCenterX | OptCenterY
	OptRightX  = 2048
)

// Bitmap formats.
const (
	FormatARGB1555 = 0
	FormatL1       = 1
	FormatL4       = 2
	FormatL8       = 3
	FormatRGB332   = 4
	FormatARGB2    = 5
	FormatARGB4    = 6
	FormatRGB565   = 7
)

// Primitives for Begin.
const (
	PrimBitmaps   = 1
	PrimPoints    = 2
	PrimLines     = 3
	PrimLineStrip = 4
	PrimRects     = 9
)
