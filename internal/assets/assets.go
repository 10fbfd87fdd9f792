// Package assets renders the demo's two images at start-up: the header logo
// and the picture that rotates while the button is on.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/fogleman/gg"

	"evedemo/internal/convert"
)

const (
	LogoSize    = 56
	PictureSize = 100
)

// Logo returns the ARGB1555 logo, zlib-compressed for CMD_INFLATE.
// Uncompressed it occupies LogoSize*LogoSize*2 bytes of RAM_G.
func Logo() ([]byte, error) {
	dc := gg.NewContext(LogoSize, LogoSize)

	// Rounded badge with a ring and a centred "EVE" mark.
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
	dc.DrawRoundedRectangle(2, 2, LogoSize-4, LogoSize-4, 10)
	dc.SetRGB255(0x1f, 0x4e, 0x79)
	dc.Fill()
	dc.DrawCircle(LogoSize/2, LogoSize/2, LogoSize/2-10)
	dc.SetLineWidth(3)
	dc.SetRGB255(0xff, 0xa5, 0x00)
	dc.Stroke()
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("EVE", LogoSize/2, LogoSize/2, 0.5, 0.35)

	packed := convert.PackARGB1555(toNRGBA(dc.Image()))
	z, err := convert.Deflate(packed)
	if err != nil {
		return nil, fmt.Errorf("assets: logo: %w", err)
	}
	return z, nil
}

// Picture returns a JPEG for CMD_LOADIMAGE, which decodes to RGB565.
func Picture() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, drawPicture(), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("assets: picture: %w", err)
	}
	return buf.Bytes(), nil
}

// PictureRGB565 returns the same picture already packed as RGB565 and
// zlib-compressed for CMD_INFLATE. It avoids JPEG artefacts at the cost of
// a larger upload.
func PictureRGB565() ([]byte, error) {
	z, err := convert.Deflate(convert.PackRGB565(toNRGBA(drawPicture())))
	if err != nil {
		return nil, fmt.Errorf("assets: picture: %w", err)
	}
	return z, nil
}

// drawPicture renders the rotating motif. It is asymmetric so that rotation
// is visible on screen.
func drawPicture() image.Image {
	dc := gg.NewContext(PictureSize, PictureSize)

	grad := gg.NewLinearGradient(0, 0, PictureSize, PictureSize)
	grad.AddColorStop(0, color.RGBA{R: 0x5d, G: 0xad, B: 0xe2, A: 0xff})
	grad.AddColorStop(1, color.RGBA{R: 0x80, B: 0x80, A: 0xff})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, PictureSize, PictureSize)
	dc.Fill()

	// Arrow pointing up from the centre.
	cx, cy := float64(PictureSize)/2, float64(PictureSize)/2
	dc.SetRGB(1, 1, 1)
	dc.MoveTo(cx, 12)
	dc.LineTo(cx+18, 40)
	dc.LineTo(cx+7, 40)
	dc.LineTo(cx+7, cy+30)
	dc.LineTo(cx-7, cy+30)
	dc.LineTo(cx-7, 40)
	dc.LineTo(cx-18, 40)
	dc.ClosePath()
	dc.Fill()

	dc.SetRGB255(0xff, 0xff, 0x00)
	dc.DrawRegularPolygon(5, 78, 78, 12, -math.Pi/2)
	dc.Fill()

	return dc.Image()
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
