package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageDefaults(t *testing.T) {
	p, err := ParsePage(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Offset())
}

func TestParsePageOffset(t *testing.T) {
	p, err := ParsePage(url.Values{"page": {"3"}, "limit": {"20"}})
	require.NoError(t, err)
	assert.Equal(t, 40, p.Offset())
}

func TestParsePageNonPositivePageCoercedToOne(t *testing.T) {
	for _, raw := range []string{"0", "-4"} {
		p, err := ParsePage(url.Values{"page": {raw}})
		require.NoError(t, err)
		assert.Equal(t, 1, p.Number, "page=%s", raw)
	}
}

func TestParsePageRejectsMalformedInput(t *testing.T) {
	_, err := ParsePage(url.Values{"page": {"first"}})
	var perr *MalformedParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "page", perr.Param)

	for _, raw := range []string{"ten", "0", "-1"} {
		_, err := ParsePage(url.Values{"limit": {raw}})
		require.Error(t, err, "limit=%s", raw)
	}
}

func TestParseLimit(t *testing.T) {
	n, err := ParseLimit(url.Values{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = ParseLimit(url.Values{"limit": {"25"}}, 5)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, err = ParseLimit(url.Values{"limit": {"many"}}, 5)
	require.Error(t, err)
	_, err = ParseLimit(url.Values{"limit": {"0"}}, 5)
	require.Error(t, err)
}

func TestBuildPagination(t *testing.T) {
	tests := []struct {
		page, limit, total  int
		totalPages          int
		hasNext, hasPrev    bool
	}{
		{1, 10, 0, 0, false, false},
		{1, 10, 10, 1, false, false},
		{1, 10, 11, 2, true, false},
		{2, 10, 15, 2, false, true},
		{2, 10, 25, 3, true, true},
		{5, 10, 15, 2, false, true},
	}
	for _, tt := range tests {
		got := BuildPagination(Page{Number: tt.page, Limit: tt.limit}, tt.total)
		assert.Equal(t, tt.page, got.CurrentPage)
		assert.Equal(t, tt.totalPages, got.TotalPages, "page=%d limit=%d total=%d", tt.page, tt.limit, tt.total)
		assert.Equal(t, tt.limit, got.Limit)
		assert.Equal(t, tt.hasNext, got.HasNextPage)
		assert.Equal(t, tt.hasPrev, got.HasPrevPage)
	}
}

func TestBuildPaginationCeiling(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for limit := 1; limit <= 12; limit++ {
			got := BuildPagination(Page{Number: 1, Limit: limit}, total)
			want := total / limit
			if total%limit != 0 {
				want++
			}
			require.Equal(t, want, got.TotalPages, "total=%d limit=%d", total, limit)
		}
	}
}
