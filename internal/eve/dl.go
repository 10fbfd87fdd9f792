package eve

// Display-list words. Each function returns one 32-bit instruction that can
// be written to RAM_DL directly or passed through the co-processor with
// CommandList.DL.

// Clear buffer selectors for Clear.
const (
	ClearColor   = 4
	ClearStencil = 2
	ClearTag     = 1
	ClearAll     = ClearColor | ClearStencil | ClearTag
)

func Display() uint32 { return 0x00000000 }

func ClearColorRGB(rgb uint32) uint32 { return 0x02000000 | rgb&0xFFFFFF }

func Tag(s uint8) uint32 { return 0x03000000 | uint32(s) }

func ColorRGB(rgb uint32) uint32 { return 0x04000000 | rgb&0xFFFFFF }

// LineWidth takes the width in 1/16 pixel.
func LineWidth(w uint16) uint32 { return 0x0E000000 | uint32(w)&0xFFF }

func Begin(prim uint8) uint32 { return 0x1F000000 | uint32(prim)&0x0F }

func End() uint32 { return 0x21000000 }

func SaveContext() uint32 { return 0x22000000 }

func RestoreContext() uint32 { return 0x23000000 }

func Clear(buffers uint8) uint32 { return 0x26000000 | uint32(buffers)&0x07 }

// VertexFormat sets the fractional bits used by Vertex2F; 0 means whole
// pixels, 4 (the reset value) means 1/16 pixel.
func VertexFormat(frac uint8) uint32 { return 0x27000000 | uint32(frac)&0x07 }

// Vertex2F encodes a signed 15-bit x/y pair in the current vertex format.
func Vertex2F(x, y int16) uint32 {
	return 0x40000000 | (uint32(x)&0x7FFF)<<15 | uint32(y)&0x7FFF
}
