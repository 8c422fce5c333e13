package render

import "image"

// Scratch holds the buffers of one worker. It is not safe for concurrent
// use; give every worker its own.
type Scratch struct {
	field *Field
	img   *image.RGBA
	out   *image.RGBA
}

func NewScratch(s Settings) *Scratch {
	sc := &Scratch{}
	sc.fit(s)
	return sc
}

// fit reallocates whatever no longer matches s.
func (sc *Scratch) fit(s Settings) {
	w, h := s.Internal()
	if sc.field == nil || sc.field.W != w || sc.field.H != h {
		sc.field = NewField(w, h)
		sc.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	if s.Downscale > 1 {
		if sc.out == nil || sc.out.Rect.Dx() != s.Width || sc.out.Rect.Dy() != s.Height {
			sc.out = image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
		}
	}
}

// Field exposes the accumulation buffer of the last render.
func (sc *Scratch) Field() *Field { return sc.field }
