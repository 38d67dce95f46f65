package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRequest_Defaults(t *testing.T) {
	req, err := ParsePageRequest(url.Values{}, "title", Asc)

	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 0, PerPage: 10, Sort: "title", Dir: Asc}, req)
}

func TestParsePageRequest_Values(t *testing.T) {
	values := url.Values{
		"page":    {"3"},
		"perPage": {"25"},
		"sort":    {"isbn"},
		"dir":     {"DESC"},
	}

	req, err := ParsePageRequest(values, "title", Asc)

	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 3, PerPage: 25, Sort: "isbn", Dir: Desc}, req)
}

func TestParsePageRequest_CapsPerPage(t *testing.T) {
	req, err := ParsePageRequest(url.Values{"perPage": {"5000"}}, "title", Asc)

	require.NoError(t, err)
	assert.Equal(t, 100, req.PerPage)
}

func TestParsePageRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		param  string
	}{
		{"negative page", url.Values{"page": {"-1"}}, "page"},
		{"non-numeric page", url.Values{"page": {"abc"}}, "page"},
		{"zero perPage", url.Values{"perPage": {"0"}}, "perPage"},
		{"bad direction", url.Values{"dir": {"sideways"}}, "dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePageRequest(tt.values, "title", Asc)

			var ipe *InvalidParamError
			require.ErrorAs(t, err, &ipe)
			assert.Equal(t, tt.param, ipe.Param)
		})
	}
}

func TestSortSet_Column(t *testing.T) {
	sorts := SortSet{"title": "title", "id": "loans.id"}

	col, err := sorts.Column("id")
	require.NoError(t, err)
	assert.Equal(t, "loans.id", col)

	_, err = sorts.Column("publisher; DROP TABLE books")
	var ipe *InvalidParamError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "sort", ipe.Param)
}

func TestPageRequest_Order(t *testing.T) {
	sorts := SortSet{"title": "title"}

	asc, err := PageRequest{Sort: "title", Dir: Asc}.Order(sorts)
	require.NoError(t, err)
	assert.True(t, asc.IsAsc())

	desc, err := PageRequest{Sort: "title", Dir: Desc}.Order(sorts)
	require.NoError(t, err)
	assert.False(t, desc.IsAsc())
}

func TestPageRequest_LimitOffset(t *testing.T) {
	limit, offset := PageRequest{Page: 2, PerPage: 10}.LimitOffset()

	assert.Equal(t, uint(10), limit)
	assert.Equal(t, uint(20), offset)
}
