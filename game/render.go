package game

import "strings"

// String renders the 9x9 grid as rows of sub-board rows, matching the
// terminal client's plain output.
func (b Board) String() string {
	var sb strings.Builder
	for majorRow := 0; majorRow < 3; majorRow++ {
		for minorRow := 0; minorRow < 3; minorRow++ {
			for majorCol := 0; majorCol < 3; majorCol++ {
				for minorCol := 0; minorCol < 3; minorCol++ {
					major := majorRow*3 + majorCol
					minor := minorRow*3 + minorCol

					if p := b.Cell(major, minor); p == nil {
						sb.WriteByte('_')
					} else if *p == PlayerX {
						sb.WriteByte('X')
					} else {
						sb.WriteByte('O')
					}
					sb.WriteByte(' ')
				}
				sb.WriteString("  ")
			}
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
