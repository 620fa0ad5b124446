package render

// Ellipsis marks a gap in a page range.
const Ellipsis = 0

// PageRange lists the page numbers to show: all of them up to seven pages,
// otherwise the first, the last and a window of one around current, with
// Ellipsis for the gaps.
func PageRange(current, total int) []int {
	if total <= 7 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	out := []int{1}
	if current > 3 {
		out = append(out, Ellipsis)
	}
	start, end := max(2, current-1), min(total-1, current+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	if current < total-2 {
		out = append(out, Ellipsis)
	}
	return append(out, total)
}
