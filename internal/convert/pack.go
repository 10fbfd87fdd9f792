package convert

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"image"
)

// PackARGB1555 converts img into the 16bpp ARGB1555 layout EVE reads from
// RAM_G: row-major, little-endian, bit 15 is alpha.
//
// Pixels with alpha < 128 are transparent; colour channels are truncated to
// their top five bits.
func PackARGB1555(img *image.NRGBA) []byte {
	return pack16(img, func(r, g, b, a uint8) uint16 {
		v := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
		if a >= 128 {
			v |= 0x8000
		}
		return v
	})
}

// PackRGB565 converts img into 16bpp RGB565. Alpha is ignored, so
// transparent areas take whatever colour the pixel carries.
func PackRGB565(img *image.NRGBA) []byte {
	return pack16(img, func(r, g, b, _ uint8) uint16 {
		return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
	})
}

func pack16(img *image.NRGBA, px func(r, g, b, a uint8) uint16) []byte {
	bnd := img.Bounds()
	w, h := bnd.Dx(), bnd.Dy()
	out := make([]byte, 0, w*h*2)

	// Walk Pix directly via Stride instead of calling At().
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			out = binary.LittleEndian.AppendUint16(out, px(row[i], row[i+1], row[i+2], row[i+3]))
		}
	}
	return out
}

// Deflate zlib-compresses data for CMD_INFLATE.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("convert: deflate: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("convert: deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("convert: deflate: %w", err)
	}
	return buf.Bytes(), nil
}
