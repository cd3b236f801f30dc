package models

// Query is one search string belonging to a catalog category. Immutable
// once loaded; the crawler references queries, it never mutates them.
type Query struct {
	Category string
	Text     string
}

// ExtractedContact is a single email observation inside one query pass.
// The same address may appear many times; uniqueness is enforced by the
// aggregator, not at extraction time.
type ExtractedContact struct {
	Email    string // lowercased
	Category string
	Query    string
}

// AggregatedRecord is one row per distinct (email, category, query) triple
// within a query pass. Count is the number of observations of that triple.
type AggregatedRecord struct {
	Email    string
	Category string
	Query    string
	Count    int
}

// Recipient is the first-seen-wins collapse of contact rows sharing an
// email address. Email is the unique key; Category and Query come from the
// first row in file order.
type Recipient struct {
	Email    string
	Category string
	Query    string
	Date     string // optional, present when the source CSV carries a date column
}

// ContactRow is a raw row from the contact CSV, before resolution.
// Count is 1 when the column is absent (the simple date-tagged form).
type ContactRow struct {
	Email    string
	Category string
	Query    string
	Count    int
	Date     string
}
