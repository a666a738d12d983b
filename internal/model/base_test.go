package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationLimit(t *testing.T) {
	assert.Equal(t, defaultPageSize, Pagination{}.Limit())
	assert.Equal(t, defaultPageSize, Pagination{PageSize: -5}.Limit())
	assert.Equal(t, 25, Pagination{PageSize: 25}.Limit())
	assert.Equal(t, maxPageSize, Pagination{PageSize: 10000}.Limit())
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{}.Offset())
	assert.Equal(t, 0, Pagination{Page: 1, PageSize: 25}.Offset())
	assert.Equal(t, 25, Pagination{Page: 2, PageSize: 25}.Offset())
	assert.Equal(t, defaultPageSize*2, Pagination{Page: 3}.Offset())
}
