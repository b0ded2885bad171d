package httpapi

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// PageSize is the number of products per page.
const PageSize = 10

type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// maxPage keeps the row offset of any accepted page within int.
const maxPage = math.MaxInt/PageSize + 1

// pageNumber reads ?page=N (default 1). ok is false for anything that is not a
// positive integer or whose offset would not fit in an int.
func pageNumber(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxPage {
		return 0, false
	}
	return n, true
}

func lastPage(count int) int {
	if count == 0 {
		return 1
	}
	return (count + PageSize - 1) / PageSize
}

func newPage[T any](r *http.Request, number, count int, results []T) page[T] {
	p := page[T]{Count: count, Results: results}
	if number < lastPage(count) {
		next := pageURL(r, number+1)
		p.Next = &next
	}
	if number > 1 {
		prev := pageURL(r, number-1)
		p.Previous = &prev
	}
	return p
}

func pageURL(r *http.Request, number int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}
