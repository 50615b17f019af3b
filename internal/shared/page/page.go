package page

// Params is a resolved page-number pagination window.
type Params struct {
	Page   int
	Size   int
	Limit  int
	Offset int
}

// Resolve clamps a raw page/page_size pair into a usable window.
// Page numbers are 1-based; size falls back to def and never exceeds max.
func Resolve(pageNum, size, def, max int) Params {
	if pageNum < 1 {
		pageNum = 1
	}
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}
	return Params{
		Page:   pageNum,
		Size:   size,
		Limit:  size,
		Offset: (pageNum - 1) * size,
	}
}
