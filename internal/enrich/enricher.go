package enrich

import (
	"context"

	"github.com/angelmondragon/archive-export/pkg/enums"
	"github.com/angelmondragon/archive-export/pkg/epc"
	"github.com/angelmondragon/archive-export/pkg/logger"
	"github.com/angelmondragon/archive-export/pkg/types"
)

// TagEnricher adds decoded EPC URIs to item records. Decode failures never
// drop the record; it is returned without the derived fields.
type TagEnricher struct {
	logg   *logger.Logger
	scheme epc.Scheme
	filter epc.Filter
}

// NewTagEnricher encodes tag URIs as SGTIN-96 with the point-of-sale filter.
func NewTagEnricher(logg *logger.Logger) *TagEnricher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &TagEnricher{
		logg:   logg,
		scheme: epc.SchemeSGTIN96,
		filter: epc.FilterPOSItem,
	}
}

// Enrich implements archive.Enricher.
func (e *TagEnricher) Enrich(ctx context.Context, category enums.Category, rec types.Record) types.Record {
	if category != enums.CategoryItem || rec == nil {
		return rec
	}
	raw, ok := rec.Get(enums.FieldEPC)
	if !ok {
		return rec
	}
	tag, ok := raw.Str()
	if !ok {
		e.skip(ctx, rec, "epc is not a string", nil)
		return rec
	}

	sgtin, err := epc.Parse(tag)
	if err != nil {
		e.skip(ctx, rec, "epc decode failed", err)
		return rec
	}
	tagURI, err := sgtin.TagURI(e.scheme, e.filter)
	if err != nil {
		e.skip(ctx, rec, "epc tag uri encode failed", err)
		return rec
	}

	out := rec.Clone()
	out[enums.FieldPureURI] = types.String(sgtin.PureURI())
	out[enums.FieldTagURI] = types.String(tagURI)
	return out
}

func (e *TagEnricher) skip(ctx context.Context, rec types.Record, msg string, err error) {
	fields := map[string]any{"epc": rec[enums.FieldEPC].Text()}
	if id, ok := rec.Get("id"); ok {
		fields["record_id"] = id.Text()
	}
	if err != nil {
		fields["reason"] = err.Error()
	}
	e.logg.Debug(e.logg.WithFields(ctx, fields), msg)
}
