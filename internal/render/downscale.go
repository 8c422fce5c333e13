package render

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

// box averages every source pixel under a destination pixel with equal
// weight. The support is widened by the scale factor when shrinking.
var box = &draw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}

// 8-bit sRGB to 16-bit linear
var toLinear [256]uint16

func init() {
	for i := range toLinear {
		l, _, _ := colorful.Color{R: float64(i) / 255}.LinearRgb()
		toLinear[i] = uint16(l*0xffff + 0.5)
	}
}

// Downscale shrinks src by an integer factor, averaging in linear light.
func Downscale(src *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()/factor, b.Dy()/factor))
	downscaleInto(dst, src)
	return dst
}

func downscaleInto(dst, src *image.RGBA) {
	sb := src.Bounds()
	lin := image.NewRGBA64(sb)
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			o := src.PixOffset(x, y)
			p := src.Pix[o : o+4 : o+4]
			lin.SetRGBA64(x, y, color.RGBA64{
				R: toLinear[p[0]],
				G: toLinear[p[1]],
				B: toLinear[p[2]],
				A: 0xffff,
			})
		}
	}

	db := dst.Bounds()
	small := image.NewRGBA64(db)
	box.Scale(small, db, lin, sb, draw.Src, nil)

	for y := db.Min.Y; y < db.Max.Y; y++ {
		for x := db.Min.X; x < db.Max.X; x++ {
			c := small.RGBA64At(x, y)
			r, g, b := colorful.LinearRgb(
				float64(c.R)/0xffff,
				float64(c.G)/0xffff,
				float64(c.B)/0xffff,
			).Clamped().RGB255()
			dst.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
}
