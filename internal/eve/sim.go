package eve

import (
	"encoding/binary"
	"errors"
	"sync"
)

// Sim is an in-memory stand-in for an EVE controller. It speaks the same
// SPI framing as the real chip, so a Dev built on it exercises the full
// host side without hardware. It does not execute co-processor commands.
// Bytes streamed to REG_CMDB_WRITE are copied into RAM_CMD at REG_CMD_WRITE
// as the chip does, REG_CMD_WRITE and REG_CMD_READ move past them, and the
// stream is recorded for inspection. The FIFO reports idle unless a test
// pokes REG_CMDB_SPACE.
type Sim struct {
	mu     sync.Mutex
	mem    map[uint32]byte
	active bool
	host   []byte
	cmd    []byte
}

func NewSim() *Sim {
	s := &Sim{mem: make(map[uint32]byte)}
	s.poke(RegCmdBSpace, binary.LittleEndian.AppendUint16(nil, CmdBSpaceIdle))
	return s
}

// Tx implements Conn.
func (s *Sim) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(w) == 3 {
		s.host = append(s.host, w[0])
		if w[0] == HostActive {
			s.active = true
		}
		return nil
	}
	if len(w) < 3 {
		return errors.New("eve sim: short transfer")
	}

	addr := uint32(w[0]&0x3F)<<16 | uint32(w[1])<<8 | uint32(w[2])
	if w[0]&0xC0 == 0x80 {
		data := w[3:]
		if addr == RegCmdBWrite {
			s.pushCmd(data)
			return nil
		}
		s.poke(addr, data)
		return nil
	}
	if w[0]&0xC0 != 0 {
		return errors.New("eve sim: bad frame")
	}
	if len(w) < 4 || len(r) != len(w) {
		return errors.New("eve sim: bad read frame")
	}
	for i := range r[:4] {
		r[i] = 0
	}
	for i := range r[4:] {
		r[4+i] = s.peek(addr + uint32(i))
	}
	return nil
}

func (s *Sim) pushCmd(data []byte) {
	s.cmd = append(s.cmd, data...)
	wr := s.peek32(RegCmdWrite) & (CmdFIFOSize - 1)
	for _, b := range data {
		s.mem[RAMCmd+wr] = b
		wr = (wr + 1) & (CmdFIFOSize - 1)
	}
	end := binary.LittleEndian.AppendUint32(nil, wr)
	s.poke(RegCmdWrite, end)
	s.poke(RegCmdRead, end)
}

func (s *Sim) peek32(addr uint32) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = s.peek(addr + uint32(i))
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (s *Sim) poke(addr uint32, data []byte) {
	for i, b := range data {
		s.mem[addr+uint32(i)] = b
	}
}

func (s *Sim) peek(addr uint32) byte {
	if addr == RegID {
		if s.active {
			return IDValue
		}
		return 0
	}
	return s.mem[addr]
}

// Poke8/16/32 preset memory as the controller would have it.
func (s *Sim) Poke8(addr uint32, v uint8) {
	s.mu.Lock()
	s.poke(addr, []byte{v})
	s.mu.Unlock()
}

func (s *Sim) Poke16(addr uint32, v uint16) {
	s.mu.Lock()
	s.poke(addr, binary.LittleEndian.AppendUint16(nil, v))
	s.mu.Unlock()
}

func (s *Sim) Poke32(addr uint32, v uint32) {
	s.mu.Lock()
	s.poke(addr, binary.LittleEndian.AppendUint32(nil, v))
	s.mu.Unlock()
}

func (s *Sim) Peek8(addr uint32) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peek(addr)
}

func (s *Sim) Peek16(addr uint32) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint16(s.peek(addr)) | uint16(s.peek(addr+1))<<8
}

func (s *Sim) Peek32(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peek32(addr)
}

// SetTouchTag makes the next REG_TOUCH_TAG read return tag.
func (s *Sim) SetTouchTag(tag uint8) { s.Poke8(RegTouchTag, tag) }

// SetBusy fakes a co-processor that has not drained its FIFO yet.
func (s *Sim) SetBusy(busy bool) {
	if busy {
		s.Poke16(RegCmdBSpace, CmdBSpaceIdle-64)
		return
	}
	s.Poke16(RegCmdBSpace, CmdBSpaceIdle)
}

// Commands returns a copy of every byte streamed into the command FIFO.
func (s *Sim) Commands() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.cmd...)
}

// ResetCommands forgets the recorded command stream.
func (s *Sim) ResetCommands() {
	s.mu.Lock()
	s.cmd = nil
	s.mu.Unlock()
}

// HostCommands returns the host command bytes received so far.
func (s *Sim) HostCommands() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.host...)
}
