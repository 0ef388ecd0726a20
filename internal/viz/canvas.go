package viz

import "strings"

// Each cell is a braille pattern of 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blankCell = 0x2800

// Canvas is a monochrome dot raster drawn with braille characters. Dot
// coordinates run from the top-left corner; Cols*2 by Rows*4 dots.
type Canvas struct {
	Cols, Rows int
	cells      [][]rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{Cols: cols, Rows: rows, cells: make([][]rune, rows)}
	for i := range c.cells {
		c.cells[i] = make([]rune, cols)
	}
	c.Clear()
	return c
}

// Size is the canvas size in dots.
func (c *Canvas) Size() (w, h int) { return c.Cols * 2, c.Rows * 4 }

func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 {
		return nil, 0, false
	}
	col, row := x/2, y/4
	if col >= c.Cols || row >= c.Rows {
		return nil, 0, false
	}
	return &c.cells[row][col], dotBits[y%4][x%2], true
}

// Plot lights one dot. Dots outside the canvas are ignored.
func (c *Canvas) Plot(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r |= bit
	}
}

func (c *Canvas) Lit(x, y int) bool {
	r, bit, ok := c.cell(x, y)
	return ok && *r&bit != 0
}

// Line draws from (x0, y0) to (x1, y1) inclusive.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.Plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Blob fills the square of half-width r around (x, y).
func (c *Canvas) Blob(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Plot(x+dx, y+dy)
		}
	}
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for i := range row {
			row[i] = blankCell
		}
	}
}

func (c *Canvas) String() string {
	lines := make([]string, len(c.cells))
	for i, row := range c.cells {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
