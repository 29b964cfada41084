package pageindex

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"
)

// LayoutOptions tunes how glyphs are grouped into lines.
type LayoutOptions struct {
	RowTolerance float64 // max baseline difference for glyphs on the same line
	ColumnGap    float64 // min horizontal gap treated as a column gutter
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	if o.RowTolerance <= 0 {
		o.RowTolerance = 2.0
	}
	if o.ColumnGap <= 0 {
		o.ColumnGap = 30.0
	}
	return o
}

type row struct {
	y      float64
	glyphs []pdflib.Text
}

const (
	gutterBucket     = 20.0
	gutterMinRowsPct = 40
	gutterMinRows    = 3
	// A gutter needs real text on its right side; right-aligned page numbers
	// on TOC pages must not split lines.
	gutterMinRightRunes = 8
)

// layoutLines groups positioned glyphs into lines in reading order and
// reports the detected column count.
func layoutLines(texts []pdflib.Text, opts LayoutOptions) ([]Line, int) {
	opts = opts.withDefaults()

	var rows []*row
	for _, t := range texts {
		if t.S == "" || t.S == "\n" || t.S == "\r" {
			continue
		}
		var target *row
		for _, r := range rows {
			if math.Abs(r.y-t.Y) <= opts.RowTolerance {
				target = r
				break
			}
		}
		if target == nil {
			target = &row{y: t.Y}
			rows = append(rows, target)
		}
		target.glyphs = append(target.glyphs, t)
	}
	if len(rows) == 0 {
		return nil, 1
	}

	for _, r := range rows {
		sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })
	}

	gutter, columns := detectGutter(rows, opts.ColumnGap)
	switch columns {
	case 2:
		var left, right []*row
		for _, r := range rows {
			l, rr := splitRow(r, gutter)
			if l != nil {
				left = append(left, l)
			}
			if rr != nil {
				right = append(right, rr)
			}
		}
		sortRows(left)
		sortRows(right)
		return append(rowsToLines(left), rowsToLines(right)...), 2
	case 0:
		// Ambiguous layout: keep the order rows first appeared in the stream.
		return rowsToLines(rows), 0
	default:
		sortRows(rows)
		return rowsToLines(rows), 1
	}
}

func sortRows(rows []*row) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
}

// detectGutter looks for a vertical gap shared by many rows. It returns the
// gutter position and 1 (none), 2 (one clear gutter) or 0 (several candidates).
func detectGutter(rows []*row, minGap float64) (float64, int) {
	counts := make(map[int]int)
	rightRunes := make(map[int][]int)
	for _, r := range rows {
		seen := make(map[int]bool)
		var prev *pdflib.Text
		for i := range r.glyphs {
			g := &r.glyphs[i]
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			if prev != nil {
				gapLeft := prev.X + prev.W
				if g.X-gapLeft >= minGap {
					bucket := int(((gapLeft + g.X) / 2) / gutterBucket)
					if !seen[bucket] {
						seen[bucket] = true
						counts[bucket]++
						rightRunes[bucket] = append(rightRunes[bucket], runesRightOf(r, g.X))
					}
				}
			}
			prev = g
		}
	}

	threshold := len(rows) * gutterMinRowsPct / 100
	if threshold < gutterMinRows {
		threshold = gutterMinRows
	}
	var candidates []int
	for bucket, n := range counts {
		if n < threshold {
			continue
		}
		if median(rightRunes[bucket]) < gutterMinRightRunes {
			continue
		}
		candidates = append(candidates, bucket)
	}
	switch len(candidates) {
	case 0:
		return 0, 1
	case 1:
		return float64(candidates[0])*gutterBucket + gutterBucket/2, 2
	default:
		return 0, 0
	}
}

func runesRightOf(r *row, x float64) int {
	n := 0
	for _, g := range r.glyphs {
		if g.X >= x {
			n += utf8.RuneCountInString(strings.TrimSpace(g.S))
		}
	}
	return n
}

func median(vals []int) int {
	if len(vals) == 0 {
		return 0
	}
	s := append([]int(nil), vals...)
	sort.Ints(s)
	return s[len(s)/2]
}

func splitRow(r *row, gutter float64) (*row, *row) {
	var left, right *row
	for _, g := range r.glyphs {
		if g.X < gutter {
			if left == nil {
				left = &row{y: r.y}
			}
			left.glyphs = append(left.glyphs, g)
		} else {
			if right == nil {
				right = &row{y: r.y}
			}
			right.glyphs = append(right.glyphs, g)
		}
	}
	return left, right
}

func rowsToLines(rows []*row) []Line {
	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		if l, ok := rowLine(r); ok {
			lines = append(lines, l)
		}
	}
	return lines
}

// rowLine joins the glyphs of a row, inserting a space wherever the gap
// between glyphs exceeds a fraction of the font size.
func rowLine(r *row) (Line, bool) {
	var b strings.Builder
	line := Line{Y: r.y, X: math.Inf(1)}
	var prev *pdflib.Text
	for i := range r.glyphs {
		g := &r.glyphs[i]
		if g.FontSize > line.FontSize {
			line.FontSize = g.FontSize
		}
		if strings.TrimSpace(g.S) != "" && g.X < line.X {
			line.X = g.X
		}
		if prev != nil {
			gap := g.X - (prev.X + prev.W)
			if gap > math.Max(prev.FontSize*0.2, 1.0) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		prev = g
	}
	line.Text = strings.Join(strings.Fields(b.String()), " ")
	if line.Text == "" {
		return Line{}, false
	}
	if math.IsInf(line.X, 1) {
		line.X = 0
	}
	return line, true
}
