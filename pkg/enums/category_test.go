package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySchemasAreComplete(t *testing.T) {
	for _, category := range Categories() {
		assert.NotEmpty(t, category.Endpoint(), category)
		assert.NotEmpty(t, category.FileName(), category)
		assert.NotEmpty(t, category.Columns(), category)
	}
}

func TestCategoryColumnsAndExclusionsDisjoint(t *testing.T) {
	for _, category := range Categories() {
		columns := map[string]struct{}{}
		for _, col := range category.Columns() {
			_, dup := columns[col]
			assert.False(t, dup, "duplicate column %s in %s", col, category)
			columns[col] = struct{}{}
		}
		for _, excluded := range category.Excluded() {
			_, clash := columns[excluded]
			assert.False(t, clash, "excluded column %s is canonical in %s", excluded, category)
		}
	}
}

func TestCategoryColumnsReturnsCopy(t *testing.T) {
	cols := CategoryFeedback.Columns()
	cols[0] = "mutated"
	assert.Equal(t, "id", CategoryFeedback.Columns()[0])
}

func TestItemCategoryCarriesDerivedFields(t *testing.T) {
	cols := CategoryItem.Columns()
	assert.Contains(t, cols, FieldEPC)
	assert.Equal(t, []string{FieldPureURI, FieldTagURI}, cols[len(cols)-2:])
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("requests")
	require.NoError(t, err)
	assert.Equal(t, CategoryRequests, got)
	assert.Equal(t, "/v2/archive/request", got.Endpoint())

	_, err = ParseCategory("request")
	assert.Error(t, err)
	assert.False(t, Category("orders").IsValid())
}

func TestParseRegion(t *testing.T) {
	for _, token := range []string{"na", "eu", "china"} {
		region, err := ParseRegion(token)
		require.NoError(t, err)
		assert.True(t, region.IsValid())
	}
	_, err := ParseRegion("EU")
	assert.Error(t, err)
}
