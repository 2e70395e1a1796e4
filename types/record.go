package types

// ProductRecord is one fully assembled record from the metadata dump, i.e.
// every line between one "Id:" marker and the next. Nullable fields are
// pointers so that defaulting (which differs for discontinued products)
// can tell "absent" apart from a parsed zero.
type ProductRecord struct {
	ID           int
	ASIN         string
	Title        *string
	Group        *string
	Salesrank    *int
	Discontinued bool

	Similar    []string
	Categories []CategoryPath
	Reviews    []ReviewEntry

	ReviewTotal      *int
	ReviewDownloaded *int
	ReviewAvgRating  *float64
}

// CategoryPath is one root-to-leaf path as listed under "categories:".
type CategoryPath []CategorySegment

// CategorySegment is a single path element. HasID is false for segments
// that carried no bracketed id; those stay in the path for position but
// can neither be inserted nor linked.
type CategorySegment struct {
	Name  string
	ID    int
	HasID bool
}

// Leaf returns the last id-bearing segment of the path, which is the only
// segment linked to the product.
func (p CategoryPath) Leaf() (CategorySegment, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].HasID {
			return p[i], true
		}
	}
	return CategorySegment{}, false
}

// ReviewEntry is one parsed review line. Date keeps the raw yyyy-m-d text;
// calendar validation is left to the database.
type ReviewEntry struct {
	Date       string
	CustomerID string
	Rating     int
	Votes      int
	Helpful    int
}
