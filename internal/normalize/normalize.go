package normalize

import (
	"github.com/angelmondragon/archive-export/pkg/enums"
	"github.com/angelmondragon/archive-export/pkg/types"
)

// Normalize reconciles records to the canonical column set of category.
// Missing canonical columns are filled with Null, excluded and unknown
// columns are dropped. Records with no fields are skipped. Running it twice
// yields the same result as running it once.
func Normalize(records []types.Record, category enums.Category) []types.Record {
	columns := category.Columns()
	excluded := category.Excluded()
	out := make([]types.Record, 0, len(records))
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		out = append(out, project(strip(rec, excluded), columns))
	}
	return out
}

// Strip returns a copy of rec without the fields category excludes from
// output. Other fields, canonical or not, are left alone.
func Strip(rec types.Record, category enums.Category) types.Record {
	return strip(rec, category.Excluded())
}

func strip(rec types.Record, excluded []string) types.Record {
	kept := make(types.Record, len(rec))
	for k, v := range rec {
		kept[k] = v
	}
	for _, field := range excluded {
		delete(kept, field)
	}
	return kept
}

// Row renders a normalized record as cell text in canonical order.
func Row(rec types.Record, category enums.Category) []string {
	columns := category.Columns()
	row := make([]string, len(columns))
	for i, column := range columns {
		row[i] = rec[column].Text()
	}
	return row
}

func project(rec types.Record, columns []string) types.Record {
	projected := make(types.Record, len(columns))
	for _, column := range columns {
		if v, ok := rec[column]; ok {
			projected[column] = v
			continue
		}
		projected[column] = types.Null()
	}
	return projected
}
