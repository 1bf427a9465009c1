package viz

import (
	"math"
	"strings"
)

const brailleBlank = 0x2800

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille pixel grid of Width x Height cells, which is
// 2·Width x 4·Height dots.
type Canvas struct {
	Width, Height int
	grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, grid: make([][]rune, h)}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y); out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for _, row := range c.grid {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Line draws with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Lanes draws one horizontal lane per value: a spring from the left wall to
// a marker at the value's position, scaled so that ±scale spans the lane.
func (c *Canvas) Lanes(positions []float64, scale float64) {
	if len(positions) == 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	dotsW, dotsH := c.Width*2, c.Height*4
	lane := dotsH / len(positions)
	mid := dotsW / 2

	for i, p := range positions {
		y := i*lane + lane/2
		x := mid + int(math.Round(p/scale*float64(mid-4)))
		x = max(2, min(x, dotsW-3))

		c.Line(0, y-2, 0, y+2)
		for sx := 1; sx < x-1; sx += 2 {
			c.Set(sx, y+(sx/2)%2)
		}
		for dy := -1; dy <= 1; dy++ {
			c.Line(x-1, y+dy, x+1, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
