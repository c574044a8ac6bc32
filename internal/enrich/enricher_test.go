package enrich

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/archive-export/pkg/enums"
	"github.com/angelmondragon/archive-export/pkg/logger"
	"github.com/angelmondragon/archive-export/pkg/types"
)

func TestEnrichWellFormedTag(t *testing.T) {
	e := NewTagEnricher(logger.Nop())
	rec := types.Record{"id": types.String("1"), "epc": types.String("3074257BF7194E4000001A85")}

	out := e.Enrich(context.Background(), enums.CategoryItem, rec)

	assert.Equal(t, "urn:epc:id:sgtin:0614141.812345.6789", out[enums.FieldPureURI].Text())
	assert.Equal(t, "urn:epc:tag:sgtin-96:1.0614141.812345.6789", out[enums.FieldTagURI].Text())
	assert.False(t, rec.Has(enums.FieldPureURI), "input record must not be mutated")
}

func TestEnrichMalformedTagLeavesRecordUnchanged(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})
	e := NewTagEnricher(logg)

	for _, raw := range []types.Value{types.String("garbage"), types.String(""), types.Null()} {
		rec := types.Record{"id": types.String("9"), "epc": raw}
		out := e.Enrich(context.Background(), enums.CategoryItem, rec)
		assert.True(t, out.Equal(rec))
		assert.False(t, out.Has(enums.FieldPureURI))
		assert.False(t, out.Has(enums.FieldTagURI))
	}
	assert.Contains(t, buf.String(), "epc decode failed")
}

func TestEnrichAlphanumericSerialSkipsTagURI(t *testing.T) {
	e := NewTagEnricher(nil)
	rec := types.Record{"epc": types.String("urn:epc:id:sgtin:0614141.112345.AB12")}

	out := e.Enrich(context.Background(), enums.CategoryItem, rec)
	assert.False(t, out.Has(enums.FieldPureURI))
	assert.False(t, out.Has(enums.FieldTagURI))
}

func TestEnrichIgnoresOtherCategories(t *testing.T) {
	e := NewTagEnricher(logger.Nop())
	rec := types.Record{"epc": types.String("3074257BF7194E4000001A85")}

	for _, category := range []enums.Category{enums.CategoryShopper, enums.CategoryRequests, enums.CategoryFeedback} {
		out := e.Enrich(context.Background(), category, rec)
		assert.False(t, out.Has(enums.FieldPureURI), category)
	}
}

func TestEnrichWithoutEPCField(t *testing.T) {
	e := NewTagEnricher(logger.Nop())
	rec := types.Record{"id": types.String("1")}
	assert.True(t, e.Enrich(context.Background(), enums.CategoryItem, rec).Equal(rec))
}
