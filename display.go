package lagoon

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// DisplayConfig controls how frames and series render as text tables.
// Invalid slots always render as "null".
type DisplayConfig struct {
	// MaxRows caps the rows shown; larger frames show head and tail rows
	// around an ellipsis row.
	MaxRows int

	// MaxCols caps the columns shown, eliding the middle.
	MaxCols int

	// MaxColWidth truncates longer cell content with "...".
	MaxColWidth int

	// MinColWidth pads narrower columns for alignment.
	MinColWidth int

	// FloatPrecision is the decimal place count for floats.
	FloatPrecision int

	// ShowDTypes adds a dtype row under the column names.
	ShowDTypes bool

	// ShowShape prefixes the table with a "shape: (rows, cols)" line.
	ShowShape bool

	// TableStyle picks the border charset: "rounded", "sharp", "ascii" or
	// "minimal".
	TableStyle string
}

// DefaultDisplayConfig returns the rendering defaults.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		MaxRows:        10,
		MaxCols:        10,
		MaxColWidth:    25,
		MinColWidth:    8,
		FloatPrecision: 4,
		ShowDTypes:     true,
		ShowShape:      true,
		TableStyle:     "rounded",
	}
}

var (
	displayMu     sync.RWMutex
	displayConfig = DefaultDisplayConfig()
)

// SetDisplayConfig replaces the global display configuration.
func SetDisplayConfig(cfg DisplayConfig) {
	displayMu.Lock()
	displayConfig = cfg
	displayMu.Unlock()
}

// GetDisplayConfig returns the global display configuration.
func GetDisplayConfig() DisplayConfig {
	displayMu.RLock()
	defer displayMu.RUnlock()
	return displayConfig
}

// SetMaxDisplayRows caps the rows shown by the global configuration.
func SetMaxDisplayRows(n int) {
	displayMu.Lock()
	displayConfig.MaxRows = n
	displayMu.Unlock()
}

// SetMaxDisplayCols caps the columns shown by the global configuration.
func SetMaxDisplayCols(n int) {
	displayMu.Lock()
	displayConfig.MaxCols = n
	displayMu.Unlock()
}

// SetFloatPrecision sets the global decimal place count for floats.
func SetFloatPrecision(n int) {
	displayMu.Lock()
	displayConfig.FloatPrecision = n
	displayMu.Unlock()
}

// SetTableStyle sets the global border charset. Unknown names are ignored.
func SetTableStyle(style string) {
	if _, ok := borderSets[style]; !ok {
		return
	}
	displayMu.Lock()
	displayConfig.TableStyle = style
	displayMu.Unlock()
}

// ============================================================================
// Borders
// ============================================================================

// A rule is one horizontal border line: left cap, fill, column junction,
// right cap.
type rule struct {
	left, fill, junction, right string
}

// borderSet holds the three rules and the vertical separator of one style.
type borderSet struct {
	top      rule
	mid      rule
	bottom   rule
	vertical string
}

var borderSets = map[string]borderSet{
	"rounded": {
		top:      rule{"╭", "─", "┬", "╮"},
		mid:      rule{"├", "─", "┼", "┤"},
		bottom:   rule{"╰", "─", "┴", "╯"},
		vertical: "│",
	},
	"sharp": {
		top:      rule{"┌", "─", "┬", "┐"},
		mid:      rule{"├", "─", "┼", "┤"},
		bottom:   rule{"└", "─", "┴", "┘"},
		vertical: "│",
	},
	"ascii": {
		top:      rule{"+", "-", "+", "+"},
		mid:      rule{"+", "-", "+", "+"},
		bottom:   rule{"+", "-", "+", "+"},
		vertical: "|",
	},
	"minimal": {
		top:      rule{" ", "─", " ", " "},
		mid:      rule{" ", "─", " ", " "},
		bottom:   rule{" ", "─", " ", " "},
		vertical: " ",
	},
}

func bordersFor(style string) borderSet {
	if b, ok := borderSets[style]; ok {
		return b
	}
	return borderSets["rounded"]
}

func writeRule(sb *strings.Builder, r rule, widths []int) {
	sb.WriteString(r.left)
	for i, w := range widths {
		if i > 0 {
			sb.WriteString(r.junction)
		}
		sb.WriteString(strings.Repeat(r.fill, w+2))
	}
	sb.WriteString(r.right)
	sb.WriteByte('\n')
}

// writeCells writes one content row. leftAlign selects name-style alignment;
// data rows are right-aligned.
func writeCells(sb *strings.Builder, vertical string, cells []string, widths []int, leftAlign bool) {
	sb.WriteString(vertical)
	for i, cell := range cells {
		if leftAlign {
			fmt.Fprintf(sb, " %-*s ", widths[i], cell)
		} else {
			fmt.Fprintf(sb, " %*s ", widths[i], cell)
		}
		sb.WriteString(vertical)
	}
	sb.WriteByte('\n')
}

// ============================================================================
// Cell rendering
// ============================================================================

const ellipsisMark = -1

// renderCell formats one value. nil renders as "null"; floats honor the
// configured precision; anything over MaxColWidth is cut with "...".
func renderCell(val interface{}, cfg DisplayConfig) string {
	var s string
	switch v := val.(type) {
	case nil:
		s = "null"
	case float64:
		s = strconv.FormatFloat(v, 'f', cfg.FloatPrecision, 64)
	case float32:
		s = strconv.FormatFloat(float64(v), 'f', cfg.FloatPrecision, 32)
	case bool:
		s = strconv.FormatBool(v)
	case string:
		s = v
	default:
		s = fmt.Sprintf("%v", v)
	}
	return clipCell(s, cfg.MaxColWidth)
}

func clipCell(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// elide returns up to max of the indices [0, total), replacing the middle
// with a single ellipsisMark when total exceeds max.
func elide(total, max int) []int {
	if total <= max {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	head := max / 2
	tail := max - head
	out := make([]int, 0, max+1)
	for i := 0; i < head; i++ {
		out = append(out, i)
	}
	out = append(out, ellipsisMark)
	for i := total - tail; i < total; i++ {
		out = append(out, i)
	}
	return out
}

// ============================================================================
// DataFrame rendering
// ============================================================================

// String renders the frame with the global display configuration.
func (df *DataFrame) String() string {
	return df.StringWithConfig(GetDisplayConfig())
}

// StringWithConfig renders the frame with an explicit configuration.
func (df *DataFrame) StringWithConfig(cfg DisplayConfig) string {
	if df.Height() == 0 || df.Width() == 0 {
		return "DataFrame(empty)"
	}

	borders := bordersFor(cfg.TableStyle)
	colIdx := elide(df.Width(), cfg.MaxCols)
	rowIdx := elide(df.Height(), cfg.MaxRows)

	widths := df.displayWidths(cfg, colIdx, rowIdx)

	var sb strings.Builder
	if cfg.ShowShape {
		fmt.Fprintf(&sb, "shape: (%d, %d)\n", df.Height(), df.Width())
	}
	writeRule(&sb, borders.top, widths)

	names := make([]string, len(colIdx))
	for i, ci := range colIdx {
		if ci == ellipsisMark {
			names[i] = "…"
			continue
		}
		names[i] = clipCell(df.columns[ci].Name(), widths[i])
	}
	writeCells(&sb, borders.vertical, names, widths, true)

	if cfg.ShowDTypes {
		dtypes := make([]string, len(colIdx))
		for i, ci := range colIdx {
			if ci == ellipsisMark {
				dtypes[i] = "---"
				continue
			}
			dtypes[i] = clipCell(df.columns[ci].DType().String(), widths[i])
		}
		writeCells(&sb, borders.vertical, dtypes, widths, true)
	}
	writeRule(&sb, borders.mid, widths)

	for _, ri := range rowIdx {
		cells := make([]string, len(colIdx))
		for i, ci := range colIdx {
			if ri == ellipsisMark || ci == ellipsisMark {
				cells[i] = "…"
				continue
			}
			cells[i] = renderCell(df.columns[ci].Get(ri), cfg)
		}
		writeCells(&sb, borders.vertical, cells, widths, false)
	}
	writeRule(&sb, borders.bottom, widths)

	out := sb.String()
	return strings.TrimSuffix(out, "\n")
}

// displayWidths sizes each visible column: wide enough for its name, dtype
// and every visible value, clamped to the configured bounds.
func (df *DataFrame) displayWidths(cfg DisplayConfig, colIdx, rowIdx []int) []int {
	widths := make([]int, len(colIdx))
	for i, ci := range colIdx {
		if ci == ellipsisMark {
			widths[i] = 3
			continue
		}
		col := df.columns[ci]
		w := len(col.Name())
		if cfg.ShowDTypes && len(col.DType().String()) > w {
			w = len(col.DType().String())
		}
		for _, ri := range rowIdx {
			if ri == ellipsisMark {
				continue
			}
			if n := len(renderCell(col.Get(ri), cfg)); n > w {
				w = n
			}
		}
		if w < cfg.MinColWidth {
			w = cfg.MinColWidth
		}
		if w > cfg.MaxColWidth {
			w = cfg.MaxColWidth
		}
		widths[i] = w
	}
	return widths
}

// ============================================================================
// Series rendering
// ============================================================================

// String renders the series with the global display configuration.
func (s *Series) String() string {
	return SeriesStringWithConfig(s, GetDisplayConfig())
}

// SeriesStringWithConfig renders a series as a two-column (index, value)
// table.
func SeriesStringWithConfig(s *Series, cfg DisplayConfig) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Series: '%s' (%s)\n", s.Name(), s.DType())
	fmt.Fprintf(&sb, "length: %d", s.Len())
	if s.Len() == 0 {
		sb.WriteString("\n[]")
		return sb.String()
	}
	sb.WriteByte('\n')

	borders := bordersFor(cfg.TableStyle)
	rowIdx := elide(s.Len(), cfg.MaxRows)

	idxWidth := len(strconv.Itoa(s.Len() - 1))
	if idxWidth < 3 {
		idxWidth = 3
	}
	valWidth := cfg.MinColWidth
	for _, ri := range rowIdx {
		if ri == ellipsisMark {
			continue
		}
		if n := len(renderCell(s.Get(ri), cfg)); n > valWidth {
			valWidth = n
		}
	}
	if valWidth > cfg.MaxColWidth {
		valWidth = cfg.MaxColWidth
	}
	widths := []int{idxWidth, valWidth}

	writeRule(&sb, borders.top, widths)
	for _, ri := range rowIdx {
		if ri == ellipsisMark {
			writeCells(&sb, borders.vertical, []string{"…", "…"}, widths, false)
			continue
		}
		cells := []string{strconv.Itoa(ri), renderCell(s.Get(ri), cfg)}
		writeCells(&sb, borders.vertical, cells, widths, false)
	}
	writeRule(&sb, borders.bottom, widths)

	return strings.TrimSuffix(sb.String(), "\n")
}
