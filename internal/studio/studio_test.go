package studio_test

import (
	"context"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/attractor/internal/attractor"
	"github.com/san-kum/attractor/internal/kernel"
	"github.com/san-kum/attractor/internal/palette"
	"github.com/san-kum/attractor/internal/render"
	"github.com/san-kum/attractor/internal/storage"
	"github.com/san-kum/attractor/internal/studio"
)

const cutoff = 2000

func henon() attractor.Config {
	cfg := attractor.New(kernel.Poly)
	cfg.Coef[0][0], cfg.Coef[0][1] = 0.9, 0.1
	cfg.Coef[2][0] = -1.4
	cfg.Coef[5][0] = 1
	cfg.Coef[1][1] = 0.3
	return cfg
}

func classified(cfg attractor.Config) attractor.Config {
	Expect(attractor.Classify(&cfg, attractor.Params{Cutoff: cutoff}, rand.New(rand.NewSource(1)))).To(BeTrue())
	return cfg
}

func newStudio(dir string) *studio.Studio {
	st := storage.New(dir)
	Expect(st.Init()).To(Succeed())

	log := logrus.New()
	log.SetOutput(GinkgoWriter)
	log.SetLevel(logrus.DebugLevel)

	rs := render.DefaultSettings()
	rs.Width, rs.Height, rs.Quality, rs.Cutoff = 64, 48, 5, cutoff

	return &studio.Studio{
		Render:      rs,
		Search:      attractor.Params{Cutoff: cutoff},
		Family:      kernel.Poly,
		Colour:      palette.BW,
		Workers:     2,
		Seed:        1,
		MaxAttempts: 20000,
		ScanSteps:   500,
		Store:       st,
		Log:         log,
	}
}

func readLines(path string) []string {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

var _ = Describe("Layout", func() {
	DescribeTable("grid shape",
		func(n, cols, rows int) {
			c, r := studio.Layout(n)
			Expect(c).To(Equal(cols))
			Expect(r).To(Equal(rows))
		},
		Entry("one", 1, 1, 1),
		Entry("three", 3, 2, 2),
		Entry("four", 4, 2, 2),
		Entry("five", 5, 3, 2),
		Entry("ten", 10, 4, 3),
		Entry("none", 0, 0, 0),
	)
})

var _ = Describe("Studio", func() {
	var (
		ctx context.Context
		dir string
		s   *studio.Studio
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		s = newStudio(dir)
	})

	Describe("Image", func() {
		It("writes a png named after the coefficients", func() {
			params := attractor.Format(henon())
			res, err := s.Image(ctx, params)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Artifacts).To(HaveLen(1))
			Expect(filepath.Base(res.Artifacts[0])).To(Equal(studio.FileName(henon()) + ".png"))
			Expect(res.Artifacts[0]).To(BeARegularFile())

			meta, err := s.Store.Load(res.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Mode).To(Equal("image"))
			Expect(meta.Stats["lyapunov"]).To(BeNumerically(">", 10))
		})

		It("reports non-chaotic params distinctly from parse errors", func() {
			fixed := " 0.100  0.500  0.000  0.000  0.000  0.000  0.100  0.000  0.000  0.000  0.000  0.500 "
			_, err := s.Image(ctx, fixed)
			Expect(err).To(MatchError(attractor.ErrNotChaotic))

			_, err = s.Image(ctx, "1 2")
			Expect(err).To(MatchError(attractor.ErrMalformed))
		})
	})

	Describe("Samples", func() {
		It("renders a grid with a sidecar that reads back", func() {
			res, err := s.Samples(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Failed).To(BeZero())
			Expect(res.Artifacts).To(HaveLen(2))

			f, err := os.Open(res.Artifacts[0])
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			img, err := png.Decode(f)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(2 * 64))
			Expect(img.Bounds().Dy()).To(Equal(2 * 48))

			// the fourth cell has no tile
			r, g, b, _ := img.At(64+10, 48+10).RGBA()
			Expect([]uint32{r >> 8, g >> 8, b >> 8}).To(Equal([]uint32{0x7f, 0x7f, 0x7f}))

			lines := readLines(res.Artifacts[1])
			Expect(lines).To(HaveLen(3))
			Expect(lines[2]).To(HaveSuffix("# 3"))

			in, err := os.Open(res.Artifacts[1])
			Expect(err).NotTo(HaveOccurred())
			defer in.Close()
			coefs, err := attractor.ReadParams(in, kernel.Poly)
			Expect(err).NotTo(HaveOccurred())
			Expect(coefs).To(HaveLen(3))
		})

		It("is reproducible for a fixed seed", func() {
			a, err := s.Samples(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			first := readLines(a.Artifacts[1])

			s.Workers = 1
			b, err := s.Samples(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(readLines(b.Artifacts[1])).To(Equal(first))
		})
	})

	Describe("Batch", func() {
		It("leaves tiles that are not chaotic grey and keeps going", func() {
			fixed := attractor.New(kernel.Poly)
			fixed.Coef[0][0], fixed.Coef[1][0] = 0.1, 0.5
			fixed.Coef[0][1], fixed.Coef[5][1] = 0.1, 0.5

			res, err := s.Batch(ctx, []kernel.Coef{henon().Coef, fixed.Coef})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Failed).To(Equal(1))

			lines := readLines(res.Artifacts[1])
			Expect(lines).To(HaveLen(2))
			Expect(lines[1]).To(Equal("# 2 failed"))
		})

		It("refuses an empty batch", func() {
			_, err := s.Batch(ctx, nil)
			Expect(err).To(MatchError(studio.ErrEmpty))
		})
	})

	Describe("ColourPreview", func() {
		It("renders one tile per colour policy", func() {
			res, err := s.ColourPreview(ctx, attractor.Format(henon()))
			Expect(err).NotTo(HaveOccurred())

			lines := readLines(res.Artifacts[1])
			Expect(lines).To(HaveLen(len(palette.All())))
			for i, p := range palette.All() {
				Expect(lines[i]).To(HaveSuffix(p.String()))
			}
		})
	})

	Describe("Frames", func() {
		cell := attractor.Cell{Row: 2, Axis: 0}

		It("locks every frame to the union of the per-frame extents", func() {
			sw := studio.Sweep{Base: classified(henon()), Cell: cell, Interval: attractor.Interval{Start: -0.005, End: 0.005}}

			frames, invalid, err := s.Frames(ctx, sw, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(invalid).To(BeZero())
			Expect(frames).To(HaveLen(10))

			for i := range frames {
				own := sw.Base.With(cell, sw.Interval.At(i, 10))
				Expect(attractor.Classify(&own, s.Search, rand.New(rand.NewSource(s.Seed+int64(i))))).To(BeTrue())

				Expect(frames[i].XMin).To(Equal(frames[0].XMin))
				Expect(frames[i].XMax).To(Equal(frames[0].XMax))
				Expect(frames[i].VMax).To(Equal(frames[0].VMax))
				for a := 0; a < 2; a++ {
					Expect(frames[i].XMin[a]).To(BeNumerically("<=", own.XMin[a]))
					Expect(frames[i].XMax[a]).To(BeNumerically(">=", own.XMax[a]))
					Expect(frames[i].VMax[a]).To(BeNumerically(">=", own.VMax[a]))
				}
				Expect(frames[i].Coef[2][0]).To(BeNumerically("~", -1.4+sw.Interval.At(i, 10), 1e-12))
			}
		})

		It("keeps invalid frames with the shared extents", func() {
			sw := studio.Sweep{Base: classified(henon()), Cell: cell, Interval: attractor.Interval{Start: 0, End: 3}}

			frames, invalid, err := s.Frames(ctx, sw, 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(invalid).To(BeNumerically(">", 0))
			for i := range frames {
				Expect(frames[i].XMin).To(Equal(frames[0].XMin))
			}
		})

		It("fails when no frame is chaotic", func() {
			sw := studio.Sweep{Base: classified(henon()), Cell: cell, Interval: attractor.Interval{Start: 2, End: 3}}
			_, _, err := s.Frames(ctx, sw, 4)
			Expect(err).To(MatchError(studio.ErrNoValidFrames))
		})
	})

	Describe("Scan", func() {
		It("keeps caller bounds", func() {
			lo, hi := -0.1, 0.2
			iv, err := s.Scan(classified(henon()), attractor.Cell{Row: 2}, &lo, &hi)
			Expect(err).NotTo(HaveOccurred())
			Expect(iv).To(Equal(attractor.Interval{Start: -0.1, End: 0.2}))
		})

		It("discovers missing bounds around the base value", func() {
			hi := 0.001
			iv, err := s.Scan(classified(henon()), attractor.Cell{Row: 2}, nil, &hi)
			Expect(err).NotTo(HaveOccurred())
			Expect(iv.Start).To(BeNumerically("<", 0))
			Expect(iv.End).To(Equal(0.001))
		})

		It("rejects a coefficient outside the table", func() {
			_, err := s.Scan(classified(henon()), attractor.Cell{Row: 6}, nil, nil)
			Expect(err).To(MatchError(attractor.ErrBadCell))
		})

		It("does not scan a side the caller gave", func() {
			flat := attractor.New(kernel.Poly)
			lo, hi := -0.1, 0.1
			iv, err := s.Scan(flat, attractor.Cell{Row: 0}, &lo, &hi)
			Expect(err).NotTo(HaveOccurred())
			Expect(iv).To(Equal(attractor.Interval{Start: -0.1, End: 0.1}))

			_, err = s.Scan(flat, attractor.Cell{Row: 0}, &lo, nil)
			Expect(err).To(MatchError(attractor.ErrNoStableOffset))
		})

		It("never returns a bound at zero", func() {
			_, err := s.Scan(attractor.New(kernel.Poly), attractor.Cell{Row: 3, Axis: 1}, nil, nil)
			Expect(err).To(MatchError(attractor.ErrNoStableOffset))
		})
	})

	Describe("ScanAny", func() {
		It("finds an interval straddling the base value", func() {
			sw, err := s.ScanAny(classified(henon()), rand.New(rand.NewSource(4)), nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(sw.Cell.Check(kernel.Poly)).To(Succeed())
			Expect(sw.Interval.Start).To(BeNumerically("<", 0))
			Expect(sw.Interval.End).To(BeNumerically(">", 0))
		})

		It("gives up when no coefficient can move", func() {
			_, err := s.ScanAny(attractor.New(kernel.Poly), rand.New(rand.NewSource(4)), nil, nil)
			Expect(err).To(MatchError(attractor.ErrNoStableOffset))
		})
	})

	Describe("Video", func() {
		var sw studio.Sweep

		BeforeEach(func() {
			if runtime.GOOS == "windows" {
				Skip("needs a POSIX shell")
			}
			sw = studio.Sweep{Base: classified(henon()), Cell: attractor.Cell{Row: 2}, Interval: attractor.Interval{Start: -0.01, End: 0.01}}
		})

		It("streams every frame in order to the encoder", func() {
			script := filepath.Join(dir, "encoder.sh")
			Expect(os.WriteFile(script, []byte("#!/bin/sh\nfor last; do :; done\ncat > \"$last\"\n"), 0755)).To(Succeed())
			s.Encoder = script

			res, err := s.Video(ctx, sw, 5, 24, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Artifacts).To(HaveLen(2))

			info, err := os.Stat(res.Artifacts[1])
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(Equal(int64(5 * 64 * 48 * 3)))

			meta, err := s.Store.Load(res.RunID)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Frames).To(Equal(5))
			Expect(meta.Coefficient).To(Equal("x2"))
		})

		It("removes the partial video when the encoder fails", func() {
			script := filepath.Join(dir, "broken.sh")
			Expect(os.WriteFile(script, []byte("#!/bin/sh\nfor last; do :; done\necho junk > \"$last\"\nexit 3\n"), 0755)).To(Succeed())
			s.Encoder = script

			_, err := s.Video(ctx, sw, 5, 24, false)
			Expect(err).To(HaveOccurred())
			Expect(s.Store.Path(studio.FileName(sw.Base) + ".mp4")).NotTo(BeAnExistingFile())
		})
	})

	Describe("VideoPreview", func() {
		It("renders the sweep as a grid", func() {
			sw := studio.Sweep{Base: classified(henon()), Cell: attractor.Cell{Row: 2}, Interval: attractor.Interval{Start: -0.01, End: 0.01}}
			res, err := s.VideoPreview(ctx, sw, 4)
			Expect(err).NotTo(HaveOccurred())

			lines := readLines(res.Artifacts[1])
			Expect(lines).To(HaveLen(4))
			Expect(lines[0]).To(ContainSubstring("x2-0.0100"))
		})
	})

	It("records every run", func() {
		_, err := s.Image(ctx, attractor.Format(henon()))
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Samples(ctx, 1)
		Expect(err).NotTo(HaveOccurred())

		runs, err := s.Store.List()
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
	})
})
