package composables

import (
	"net/http"
	"strconv"

	"github.com/iota-uz/orgtree/pkg/configuration"
)

type PaginationParams struct {
	Limit  int
	Offset int
	Page   int
}

// UsePaginated reads ?page= and ?limit= from the query string. The limit is
// clamped to the configured maximum page size.
func UsePaginated(r *http.Request) PaginationParams {
	conf := configuration.Use()
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = conf.PageSize
	}
	if conf.MaxPageSize > 0 && limit > conf.MaxPageSize {
		limit = conf.MaxPageSize
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return PaginationParams{
		Limit:  limit,
		Offset: (page - 1) * limit,
		Page:   page,
	}
}
