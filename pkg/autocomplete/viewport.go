package autocomplete

// Viewport describes a fixed-height list of equally tall rows.
type Viewport struct {
	RowHeight int
	MaxHeight int
	Overscan  int
}

// Window is the slice of rows to materialize. PadTop and PadBottom size the spacers
// standing in for the rows outside [Start, End), so the scrollable height is
// always total*RowHeight.
type Window struct {
	Start     int
	End       int
	PadTop    int
	PadBottom int
}

// Len returns the number of materialized rows.
func (w Window) Len() int {
	return w.End - w.Start
}

// Height is the rendered height of a list with total rows.
func (v Viewport) Height(total int) int {
	return min(total*v.RowHeight, v.MaxHeight)
}

// MaxScroll is the largest valid scroll offset for total rows.
func (v Viewport) MaxScroll(total int) int {
	return max(0, total*v.RowHeight-v.MaxHeight)
}

// Clamp bounds scrollTop to the valid range for total rows.
func (v Viewport) Clamp(total, scrollTop int) int {
	return min(max(scrollTop, 0), v.MaxScroll(total))
}

// Window returns the rows visible at scrollTop, widened by Overscan on both sides.
func (v Viewport) Window(total, scrollTop int) Window {
	if total <= 0 || v.RowHeight <= 0 {
		return Window{}
	}
	scrollTop = v.Clamp(total, scrollTop)

	first := scrollTop / v.RowHeight
	last := (scrollTop + v.MaxHeight + v.RowHeight - 1) / v.RowHeight // exclusive

	start := max(0, first-v.Overscan)
	end := min(total, last+v.Overscan)
	return Window{
		Start:     start,
		End:       end,
		PadTop:    start * v.RowHeight,
		PadBottom: (total - end) * v.RowHeight,
	}
}

// ScrollIntoView returns the scroll offset that shows row index, moving as little as
// possible. When the row is already fully visible scrollTop is returned unchanged.
func (v Viewport) ScrollIntoView(total, index, scrollTop int) int {
	if index < 0 || index >= total {
		return v.Clamp(total, scrollTop)
	}
	top := index * v.RowHeight
	bottom := top + v.RowHeight

	switch {
	case top < scrollTop:
		scrollTop = top
	case bottom > scrollTop+v.MaxHeight:
		scrollTop = bottom - v.MaxHeight
	}
	return v.Clamp(total, scrollTop)
}
