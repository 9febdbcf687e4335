// Package render draws generated boards as raster images.
// Hexes are flat-topped, centered at x = q, y = (r - s)·sin(60°)·2/3, with a
// circumradius of 2/3 so neighbors touch along an edge.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/talgya/turbo-catan/internal/board"
)

const (
	hexRadius   = 2.0 / 3.0
	labelOffset = 0.2 // Roll labels sit this far above the hex center
)

// Options controls the output image.
type Options struct {
	Scale     float64 // Pixels per board unit
	Margin    int     // Blank border in pixels
	Alpha     float64 // Tile color opacity over the white background
	EdgeWidth float64 // Hex outline width in pixels
	Texture   float64 // Brightness variation from simplex grain; 0 disables
	Seed      int64   // Grain noise seed
}

// DefaultOptions returns a reasonable starting configuration.
func DefaultOptions() Options {
	return Options{
		Scale:     60,
		Margin:    20,
		Alpha:     0.55,
		EdgeWidth: 1.5,
		Texture:   0.06,
		Seed:      1,
	}
}

// Project maps a cube coordinate to board units, y pointing up.
func Project(c board.HexCoord) (x, y float64) {
	return float64(c.Q), float64(c.R-c.S) * math.Sin(math.Pi/3) * 2 / 3
}

// Renderer draws boards. It holds no per-board state and is safe to reuse
// sequentially.
type Renderer struct {
	opts  Options
	noise opensimplex.Noise
}

// NewRenderer creates a renderer with the given options.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	if opts.Texture > 0 {
		r.noise = opensimplex.NewNormalized(opts.Seed)
	}
	return r
}

// Draw renders tiles onto a new image sized to fit them.
func (r *Renderer) Draw(tiles []*board.Tile) (*image.RGBA, error) {
	if len(tiles) == 0 {
		return nil, errors.New("render: no tiles")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, t := range tiles {
		if t.Coord == nil {
			return nil, fmt.Errorf("render tile %s: not placed", t)
		}
		x, y := Project(*t.Coord)
		minX, maxX = math.Min(minX, x-hexRadius), math.Max(maxX, x+hexRadius)
		minY, maxY = math.Min(minY, y-hexRadius), math.Max(maxY, y+hexRadius)
	}

	scale := r.opts.Scale
	margin := float64(r.opts.Margin)
	w := int(math.Ceil((maxX-minX)*scale)) + 2*r.opts.Margin
	h := int(math.Ceil((maxY-minY)*scale)) + 2*r.opts.Margin

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	toPixel := func(c board.HexCoord) (float64, float64) {
		x, y := Project(c)
		return (x-minX)*scale + margin, (maxY-y)*scale + margin
	}

	z := vector.NewRasterizer(w, h)
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	for _, t := range tiles {
		cx, cy := toPixel(*t.Coord)
		fill := Blend(CategoryColor(t.Category), white, r.opts.Alpha)
		z.Reset(w, h)
		hexPath(z, cx, cy, hexRadius*scale, false)
		z.Draw(img, img.Bounds(), r.fillSource(fill), image.Point{})
	}

	// Outlines go on after every fill so shared edges are not painted over.
	half := r.opts.EdgeWidth / 2
	for _, t := range tiles {
		cx, cy := toPixel(*t.Coord)
		z.Reset(w, h)
		hexPath(z, cx, cy, hexRadius*scale+half, false)
		hexPath(z, cx, cy, hexRadius*scale-half, true)
		z.Draw(img, img.Bounds(), image.Black, image.Point{})
	}

	for _, t := range tiles {
		if !t.HasRoll() {
			continue
		}
		cx, cy := toPixel(*t.Coord)
		drawLabel(img, cx, cy-labelOffset*scale, string(t.Roll))
	}

	return img, nil
}

// EncodePNG renders tiles and writes them to w as PNG.
func (r *Renderer) EncodePNG(w io.Writer, tiles []*board.Tile) error {
	img, err := r.Draw(tiles)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (r *Renderer) fillSource(fill color.RGBA) image.Image {
	if r.noise == nil {
		return image.NewUniform(fill)
	}
	return &grain{base: fill, noise: r.noise, strength: r.opts.Texture, freq: 0.08}
}

// hexPath adds a flat-topped hexagon to the rasterizer. Reversed paths wind
// the other way and cut a hole out of an enclosing hexagon.
func hexPath(z *vector.Rasterizer, cx, cy, radius float64, reverse bool) {
	for i := 0; i < 6; i++ {
		k := i
		if reverse {
			k = 5 - i
		}
		angle := float64(k) * math.Pi / 3
		x := float32(cx + radius*math.Cos(angle))
		y := float32(cy - radius*math.Sin(angle))
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
}

func drawLabel(img *image.RGBA, cx, cy float64, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.Black, Face: face}
	width := d.MeasureString(text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(int(math.Round(cx))) - width/2,
		Y: fixed.I(int(math.Round(cy)) + face.Ascent/2),
	}
	d.DrawString(text)
}

// grain is an unbounded image that varies the brightness of base with
// simplex noise.
type grain struct {
	base     color.RGBA
	noise    opensimplex.Noise
	strength float64
	freq     float64
}

func (g *grain) ColorModel() color.Model { return color.RGBAModel }

func (g *grain) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g *grain) At(x, y int) color.Color {
	n := g.noise.Eval2(float64(x)*g.freq, float64(y)*g.freq)
	return Shade(g.base, 1+g.strength*(2*n-1))
}
