package domain

// Page size tiers. Requested sizes are quantized up to the nearest tier.
const (
	PageSizeSmall  = 3
	PageSizeMedium = 6
	PageSizeLarge  = 9
)

// Page is a slice of results plus what a caller needs to render page controls.
type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int64
}

// TotalPages returns the number of pages for the total item count.
func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// NormalizePageSize maps any requested size onto 3, 6 or 9.
func NormalizePageSize(requested int) int {
	switch {
	case requested <= PageSizeSmall:
		return PageSizeSmall
	case requested <= PageSizeMedium:
		return PageSizeMedium
	default:
		return PageSizeLarge
	}
}
