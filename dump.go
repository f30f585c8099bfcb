package tiler

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/tiler/tcm"
)

const (
	mapGlyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	mapFree   = "."

	// mapColumnSlots is the number of horizontally adjacent slots drawn as one character
	mapColumnSlots = 2
)

// DumpMap writes one character grid per container showing where every live block sits. Each character
// covers two horizontally adjacent slots, free space is drawn as '.', and blocks are drawn with a glyph
// that cycles through letters and digits in reservation order. The output is meant for people and is not
// a stable format.
func (t *Tiler) DumpMap(w io.Writer) error {
	blocks := t.blocks.Snapshot()

	t.containerMutex.RLock()
	defer t.containerMutex.RUnlock()

	for index, container := range t.containers {
		columns := container.Width() / mapColumnSlots
		grid := make([][]byte, container.Height())
		for y := range grid {
			grid[y] = []byte(strings.Repeat(mapFree, columns))
		}

		legend := make([]string, 0, len(blocks))
		glyphIndex := 0
		for _, block := range blocks {
			if block.container != container || !block.checkLive() {
				continue
			}

			glyph := mapGlyphs[glyphIndex%len(mapGlyphs)]
			glyphIndex++
			legend = append(legend, fmt.Sprintf("%c=%s %dx%d %s", glyph, block.format, block.width, block.height, block.area))

			err := container.ForEachSlice(block.area, func(slice tcm.Area) error {
				for y := slice.P0.Y; y <= slice.P1.Y; y++ {
					for x := slice.P0.X; x <= slice.P1.X; x++ {
						grid[y][x/mapColumnSlots] = glyph
					}
				}
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "drawing block %d", block.id)
			}
		}

		var builder strings.Builder
		target := container.Target()
		fmt.Fprintf(&builder, "CONTAINER %d (LUT %d, Y offset %d): %d blocks\n", index, target.LUT, target.YOffset, len(legend))
		for _, row := range grid {
			builder.Write(row)
			builder.WriteByte('\n')
		}
		for _, entry := range legend {
			builder.WriteString(entry)
			builder.WriteByte('\n')
		}

		_, err := io.WriteString(w, builder.String())
		if err != nil {
			return errors.Wrap(err, "writing tiler map")
		}
	}

	return nil
}
