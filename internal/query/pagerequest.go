package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// InvalidParamError reports a malformed paging or sorting parameter. It is
// surfaced to clients before any service logic runs.
type InvalidParamError struct {
	Param string
	Value string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("'%s' inválido: %q", e.Param, e.Value)
}

// SortSet whitelists the sortable fields of a resource, mapping the external
// field name to its SQL column. Unknown fields fail fast instead of being
// interpolated into a statement.
type SortSet map[string]string

// Column resolves an external sort field to its SQL column.
func (s SortSet) Column(field string) (string, error) {
	col, ok := s[field]
	if !ok {
		return "", &InvalidParamError{Param: "sort", Value: field}
	}
	return col, nil
}

// PageRequest carries zero-based paging and sorting for one listing call.
type PageRequest struct {
	Page    int
	PerPage int
	Sort    string
	Dir     Direction
}

// ParsePageRequest reads page, perPage, sort and dir from the request query,
// falling back to the given resource defaults. Page is zero-based; perPage
// is capped at 100.
func ParsePageRequest(values url.Values, defaultSort string, defaultDir Direction) (PageRequest, error) {
	req := PageRequest{
		Page:    0,
		PerPage: defaultPerPage,
		Sort:    defaultSort,
		Dir:     defaultDir,
	}

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return PageRequest{}, &InvalidParamError{Param: "page", Value: raw}
		}
		req.Page = n
	}

	if raw := values.Get("perPage"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return PageRequest{}, &InvalidParamError{Param: "perPage", Value: raw}
		}
		if n > maxPerPage {
			n = maxPerPage
		}
		req.PerPage = n
	}

	if raw := values.Get("sort"); raw != "" {
		req.Sort = raw
	}

	if raw := values.Get("dir"); raw != "" {
		switch strings.ToLower(raw) {
		case string(Asc):
			req.Dir = Asc
		case string(Desc):
			req.Dir = Desc
		default:
			return PageRequest{}, &InvalidParamError{Param: "dir", Value: raw}
		}
	}

	return req, nil
}

// Order resolves the request's sort field against the resource's SortSet and
// returns the ordering expression for the statement.
func (p PageRequest) Order(sorts SortSet) (exp.OrderedExpression, error) {
	col, err := sorts.Column(p.Sort)
	if err != nil {
		return nil, err
	}
	if p.Dir == Desc {
		return goqu.I(col).Desc(), nil
	}
	return goqu.I(col).Asc(), nil
}

// LimitOffset translates the zero-based page into LIMIT/OFFSET values.
func (p PageRequest) LimitOffset() (uint, uint) {
	return uint(p.PerPage), uint(p.Page * p.PerPage)
}
