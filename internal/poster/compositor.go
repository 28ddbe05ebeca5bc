// Package poster composes Word-of-the-Day posters. Every poster is built
// twice from the same text: a self-contained SVG overlay for clients that
// want vectors, and a flattened PNG rendered on a fixed 1024x1024 canvas.
package poster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	_ "image/gif"
	_ "image/jpeg"
)

// CompositionError reports a failure while producing the raster poster.
// Missing fonts, logos, and illustrations never cause one; only the render
// itself can.
type CompositionError struct {
	Stage string
	Err   error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("poster: compose %s: %v", e.Stage, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// Options configures a Compositor. All fields are optional; with none set
// the posters render with a built-in bitmap face and no logo.
type Options struct {
	FontsDir string
	LogoPath string
	Logger   *zerolog.Logger
}

type Compositor struct {
	logger  zerolog.Logger
	fontCSS string
	face    *opentype.Font
	logo    image.Image
	titler  cases.Caser
}

func NewCompositor(opts Options) *Compositor {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	c := &Compositor{
		logger: logger,
		titler: cases.Title(language.English),
	}
	if path, ok := FindFont(opts.FontsDir); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("poster: font unreadable, using built-in face")
		} else {
			c.fontCSS = fontFaceCSS(path, data)
			if strings.HasSuffix(strings.ToLower(path), ".woff2") {
				logger.Debug().Str("path", path).Msg("poster: woff2 embedded in overlay only, raster uses built-in face")
			} else if parsed, err := opentype.Parse(data); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("poster: font unparseable, using built-in face")
			} else {
				c.face = parsed
			}
		}
	}
	c.logo = loadLogo(opts.LogoPath, logger)
	return c
}

// Overlay returns the SVG text layer for spec with the compositor's font
// embedded.
func (c *Compositor) Overlay(spec TextSpec) string {
	return BuildOverlay(spec, c.fontCSS)
}

// Render flattens the poster into a PNG. The illustration is optional and
// dropped with a warning when it cannot be decoded.
func (c *Compositor) Render(ctx context.Context, spec TextSpec, illustration []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetHexColor("#f8fafc")
	dc.Clear()

	headerHeight := canvasHeight * headerBandRatio
	footerHeight := canvasHeight * footerBandRatio
	dc.SetHexColor("#0B3D91")
	dc.DrawRectangle(0, 0, canvasWidth, headerHeight)
	dc.Fill()
	dc.DrawRectangle(0, canvasHeight-footerHeight, canvasWidth, footerHeight)
	dc.Fill()

	if len(illustration) > 0 {
		if img, _, err := image.Decode(bytes.NewReader(illustration)); err != nil {
			c.logger.Warn().Err(err).Msg("poster: dropping undecodable illustration")
		} else {
			scaled := fitInside(img, canvasWidth*60/100, canvasHeight*40/100)
			left := (canvasWidth - scaled.Bounds().Dx()) / 2
			dc.DrawImage(scaled, left, int(headerHeight)+24)
		}
	}

	if c.logo != nil {
		dc.DrawImage(c.logo, 32, 32)
	}

	dc.SetFontFace(c.fontFace(40))
	dc.SetHexColor("#ffffff")
	dc.DrawStringAnchored(strings.ToUpper("Word of the Day"), canvasWidth/2, headerHeight*0.6, 0.5, 0.5)

	dc.SetFontFace(c.fontFace(88))
	dc.SetHexColor("#0B3D91")
	dc.DrawStringAnchored(c.titler.String(strings.TrimSpace(spec.Word)), canvasWidth/2, canvasHeight*0.24, 0.5, 0.5)

	c.drawBlock(dc, "Meaning", wrapText(spec.Meaning, meaningWrapChars, wrapMaxLines), canvasHeight*0.36, "#333333")
	c.drawBlock(dc, "Example", wrapText(spec.Example, exampleWrapChars, wrapMaxLines), canvasHeight*0.60, "#555555")

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, &CompositionError{Stage: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

func (c *Compositor) drawBlock(dc *gg.Context, label string, lines []string, y float64, fill string) {
	dc.SetFontFace(c.fontFace(36))
	dc.SetHexColor("#333333")
	dc.DrawStringAnchored(label, canvasWidth/2, y, 0.5, 0.5)

	dc.SetFontFace(c.fontFace(50))
	dc.SetHexColor(fill)
	for i, line := range lines {
		dc.DrawStringAnchored(line, canvasWidth/2, y+float64(i+1)*50*1.2, 0.5, 0.5)
	}
}

func (c *Compositor) fontFace(size float64) font.Face {
	if c.face != nil {
		face, err := opentype.NewFace(c.face, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face
		}
		c.logger.Warn().Err(err).Float64("size", size).Msg("poster: face creation failed, using built-in face")
	}
	return basicfont.Face7x13
}

func loadLogo(path string, logger zerolog.Logger) image.Image {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("poster: logo unreadable, skipping")
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("poster: logo undecodable, skipping")
		return nil
	}
	return fitInside(img, canvasWidth*14/100, canvasHeight)
}

// fitInside scales img down to fit within maxW x maxH preserving aspect
// ratio. Images already inside the box are returned untouched.
func fitInside(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return img
	}
	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
