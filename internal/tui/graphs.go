package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille patterns use a 2x4 dot matrix per character. Unicode braille starts
// at U+2800 and sets one bit per dot.
const brailleBase = '\u2800'

// brailleDots maps [row][col] within a character to its bit offset.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// series ownership of a character cell
const (
	ownPower   uint8 = 1
	ownCurrent uint8 = 2
)

// dualPlot is a braille grid with two overlaid line series.
type dualPlot struct {
	cells [][]rune
	owner [][]uint8
}

// plotDual draws power and current into a width x height braille grid. Each
// series is scaled to its own range so both stay readable. Points are drawn
// as a single dot per sample rather than filled bars.
func plotDual(power, current []float64, width, height int) dualPlot {
	p := dualPlot{
		cells: make([][]rune, height),
		owner: make([][]uint8, height),
	}
	for i := range p.cells {
		p.cells[i] = make([]rune, width)
		p.owner[i] = make([]uint8, width)
		for j := range p.cells[i] {
			p.cells[i][j] = brailleBase
		}
	}
	if width <= 0 || height <= 0 {
		return p
	}

	p.plot(power, ownPower, width, height)
	p.plot(current, ownCurrent, width, height)
	return p
}

func (p dualPlot) plot(data []float64, owner uint8, width, height int) {
	if len(data) == 0 {
		return
	}

	targetPoints := width * 2
	resampled := data
	if len(data) > targetPoints {
		resampled = resampleData(data, targetPoints)
	}

	minVal, maxVal := findRange(resampled)
	totalDots := height * 4

	// right-align short histories so the newest point is at the edge
	offset := targetPoints - len(resampled)

	for i, val := range resampled {
		level := clampInt(int(normalizeValue(val, minVal, maxVal)*float64(totalDots-1)), totalDots-1)

		x := i + offset
		charCol := x / 2
		subCol := x % 2

		row := height - 1 - level/4
		subRow := 3 - level%4

		p.cells[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		p.owner[row][charCol] |= owner
	}
}

// render colours each cell by the series drawn into it.
func (p dualPlot) render() []string {
	power := lipgloss.NewStyle().Foreground(ColorPower)
	current := lipgloss.NewStyle().Foreground(ColorCurrent)
	both := lipgloss.NewStyle().Foreground(ColorOverlap)

	lines := make([]string, len(p.cells))
	for r, row := range p.cells {
		var b strings.Builder
		for c, ch := range row {
			switch p.owner[r][c] {
			case ownPower:
				b.WriteString(power.Render(string(ch)))
			case ownCurrent:
				b.WriteString(current.Render(string(ch)))
			case ownPower | ownCurrent:
				b.WriteString(both.Render(string(ch)))
			default:
				b.WriteRune(ch)
			}
		}
		lines[r] = b.String()
	}
	return lines
}

// findRange returns the minimum and maximum of data.
func findRange(data []float64) (minVal, maxVal float64) {
	if len(data) == 0 {
		return 0, 0
	}
	minVal, maxVal = data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// normalizeValue converts a value to the 0-1 range given min/max bounds.
// A flat series sits in the middle.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		return (val - minVal) / (maxVal - minVal)
	}
	return 0.5
}

// clampInt clamps an integer to [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// resampleData shrinks data to targetSize points, averaging each bucket.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}
	if len(data) <= targetSize {
		return data
	}

	result := make([]float64, targetSize)
	bucketSize := float64(len(data)) / float64(targetSize)
	for i := 0; i < targetSize; i++ {
		start := int(float64(i) * bucketSize)
		end := int(float64(i+1) * bucketSize)
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			start = end - 1
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += data[j]
		}
		result[i] = sum / float64(end-start)
	}
	return result
}
