package store

import "bitwise74/blog/internal/model"

// PostsPerPage is the page size used by every post listing
const PostsPerPage = 5

// Page is one slice of an ordered post listing together with the
// metadata the pager needs
type Page struct {
	Items   []model.Post `json:"items"`
	Page    int          `json:"page"`
	PerPage int          `json:"per_page"`
	Total   int64        `json:"total"`
}

func (p *Page) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}

	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p *Page) HasPrev() bool { return p.Page > 1 }
func (p *Page) HasNext() bool { return p.Page < p.Pages() }
func (p *Page) PrevNum() int  { return p.Page - 1 }
func (p *Page) NextNum() int  { return p.Page + 1 }

// IterPages returns the page numbers to show in a pager. Numbers close to
// the edges and to the current page are kept, every skipped run is
// replaced by a single 0
func (p *Page) IterPages(leftEdge, leftCurrent, rightCurrent, rightEdge int) []int {
	pages := p.Pages()
	out := []int{}
	last := 0

	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Page-leftCurrent-1 && num < p.Page+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				out = append(out, 0)
			}

			out = append(out, num)
			last = num
		}
	}

	return out
}

// normalizePage turns any page number below 1 into the first page
func normalizePage(page int) int {
	if page < 1 {
		return 1
	}

	return page
}
