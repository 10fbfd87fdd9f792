package eve

import "encoding/binary"

// CommandList accumulates co-processor commands in the byte layout the
// command FIFO expects: little-endian 32-bit words, strings and payloads
// padded to a 4-byte boundary. The zero value is ready to use.
//
// A list is built completely in host memory and streamed to the controller
// in one burst by Dev.Submit, so the address is only sent once per chunk.
type CommandList struct {
	buf []byte
}

// Len returns the number of bytes queued.
func (l *CommandList) Len() int { return len(l.buf) }

// Bytes returns the queued bytes. The slice aliases the list.
func (l *CommandList) Bytes() []byte { return l.buf }

// Reset empties the list but keeps its capacity.
func (l *CommandList) Reset() { l.buf = l.buf[:0] }

func (l *CommandList) word(v uint32) {
	l.buf = binary.LittleEndian.AppendUint32(l.buf, v)
}

func (l *CommandList) pair(lo, hi int16) {
	l.word(uint32(uint16(lo)) | uint32(uint16(hi))<<16)
}

func (l *CommandList) str(s string) {
	l.buf = append(l.buf, s...)
	l.buf = append(l.buf, 0)
	l.pad()
}

func (l *CommandList) pad() {
	for len(l.buf)%4 != 0 {
		l.buf = append(l.buf, 0)
	}
}

// DL queues a raw display-list word.
func (l *CommandList) DL(word uint32) { l.word(word) }

func (l *CommandList) DLStart() { l.word(CmdDLStart) }

func (l *CommandList) Swap() { l.word(CmdSwap) }

func (l *CommandList) BgColor(rgb uint32) {
	l.word(CmdBgColor)
	l.word(rgb & 0xFFFFFF)
}

func (l *CommandList) FgColor(rgb uint32) {
	l.word(CmdFgColor)
	l.word(rgb & 0xFFFFFF)
}

func (l *CommandList) Text(x, y, font int16, opts uint16, s string) {
	l.word(CmdText)
	l.pair(x, y)
	l.pair(font, int16(opts))
	l.str(s)
}

func (l *CommandList) Button(x, y, w, h, font int16, opts uint16, s string) {
	l.word(CmdButton)
	l.pair(x, y)
	l.pair(w, h)
	l.pair(font, int16(opts))
	l.str(s)
}

// Number draws n in the base set by SetBase. The low byte of opts may carry
// a minimum digit count.
func (l *CommandList) Number(x, y, font int16, opts uint16, n int32) {
	l.word(CmdNumber)
	l.pair(x, y)
	l.pair(font, int16(opts))
	l.word(uint32(n))
}

func (l *CommandList) SetBase(base uint32) {
	l.word(CmdSetBase)
	l.word(base)
}

// SetBitmap emits the bitmap source, layout and size for addr in one
// command (FT81x/BT81x co-processors only).
func (l *CommandList) SetBitmap(addr uint32, format, width, height uint16) {
	l.word(CmdSetBitmap)
	l.word(addr)
	l.word(uint32(format) | uint32(width)<<16)
	l.word(uint32(height))
}

func (l *CommandList) LoadIdentity() { l.word(CmdLoadIdentity) }

// Translate takes 16.16 fixed point offsets.
func (l *CommandList) Translate(tx, ty int32) {
	l.word(CmdTranslate)
	l.word(uint32(tx))
	l.word(uint32(ty))
}

// Rotate takes the angle in units of 1/65536 of a full turn; the controller
// only uses the low 16 bits, so wider values wrap naturally.
func (l *CommandList) Rotate(a int32) {
	l.word(CmdRotate)
	l.word(uint32(a))
}

func (l *CommandList) SetMatrix() { l.word(CmdSetMatrix) }

// Append inserts num bytes of display list stored at ptr in RAM_G.
func (l *CommandList) Append(ptr, num uint32) {
	l.word(CmdAppend)
	l.word(ptr)
	l.word(num)
}

func (l *CommandList) Memcpy(dest, src, num uint32) {
	l.word(CmdMemcpy)
	l.word(dest)
	l.word(src)
	l.word(num)
}

// Inflate decompresses zlib data into RAM_G at ptr.
func (l *CommandList) Inflate(ptr uint32, data []byte) {
	l.word(CmdInflate)
	l.word(ptr)
	l.buf = append(l.buf, data...)
	l.pad()
}

// LoadImage decodes a JPEG or PNG into RAM_G at ptr.
func (l *CommandList) LoadImage(ptr, opts uint32, data []byte) {
	l.word(CmdLoadImage)
	l.word(ptr)
	l.word(opts)
	l.buf = append(l.buf, data...)
	l.pad()
}

// Calibrate starts the interactive touch calibration. The co-processor
// writes its result over the trailing placeholder word, whose byte offset
// within the list is returned.
func (l *CommandList) Calibrate() int {
	l.word(CmdCalibrate)
	off := l.Len()
	l.word(0)
	return off
}
