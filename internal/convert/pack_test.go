package convert

import (
	"bytes"
	"compress/zlib"
	"image"
	"image/color"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0x00, G: 0xFF, B: 0xFF, A: 0x10})
	return img
}

func TestPackARGB1555(t *testing.T) {
	got := PackARGB1555(testImage())
	// red opaque: 1 11111 00000 00000 = 0xFC00
	// cyan transparent: 0 00000 11111 11111 = 0x03FF
	qt.Assert(t, got, qt.DeepEquals, []byte{0x00, 0xFC, 0xFF, 0x03})
}

func TestPackRGB565(t *testing.T) {
	got := PackRGB565(testImage())
	// red: 11111 000000 00000 = 0xF800, cyan: 00000 111111 11111 = 0x07FF
	qt.Assert(t, got, qt.DeepEquals, []byte{0x00, 0xF8, 0xFF, 0x07})
}

func TestPackSubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 2, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.NRGBA)
	got := PackRGB565(sub)
	qt.Assert(t, got, qt.HasLen, 8)
	qt.Assert(t, got[:2], qt.DeepEquals, []byte{0xFF, 0xFF})
}

func TestDeflate(t *testing.T) {
	c := qt.New(t)
	data := bytes.Repeat([]byte("EVE"), 500)
	z, err := Deflate(data)
	c.Assert(err, qt.IsNil)
	c.Assert(len(z) < len(data), qt.IsTrue)

	zr, err := zlib.NewReader(bytes.NewReader(z))
	c.Assert(err, qt.IsNil)
	back, err := io.ReadAll(zr)
	c.Assert(err, qt.IsNil)
	c.Assert(back, qt.DeepEquals, data)
}
