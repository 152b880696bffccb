package query

// Field identifies a sortable content column.
type Field int

const (
	FieldCreatedAt Field = iota
	FieldTitle
	FieldReleaseYear
	FieldRating
	FieldViews
	FieldLikes
)

// SortField is one comparator in a sort order.
type SortField struct {
	Field Field
	Desc  bool
}

// ResolveSort maps a sort key to its ordered comparator list. Unknown keys
// fall back to the default (newest first) silently; no caller distinguishes
// an unrecognized key from an absent one.
func ResolveSort(key string) []SortField {
	switch key {
	case "title":
		return []SortField{{Field: FieldTitle}}
	case "title_desc":
		return []SortField{{Field: FieldTitle, Desc: true}}
	case "year":
		return []SortField{{Field: FieldReleaseYear}}
	case "year_desc":
		return []SortField{{Field: FieldReleaseYear, Desc: true}}
	case "rating":
		return []SortField{{Field: FieldRating, Desc: true}}
	case "popularity":
		return []SortField{{Field: FieldViews, Desc: true}, {Field: FieldLikes, Desc: true}}
	default:
		return []SortField{{Field: FieldCreatedAt, Desc: true}}
	}
}
