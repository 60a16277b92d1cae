// Package query translates list-endpoint parameters (search, exact-match
// filters, sort, page) into a Mongo filter and find options.
package query

import (
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params captures everything a list endpoint accepts. Filters holds exact
// match conditions keyed by document field ("category", "location.province").
type Params struct {
	Search    string
	Filters   bson.M
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Parse extracts the common parameters from a request query string. Filter
// fields are endpoint-specific and added by the caller.
func Parse(values url.Values) Params {
	p := Params{
		Search:    values.Get("search"),
		SortBy:    values.Get("sortBy"),
		SortOrder: values.Get("sortOrder"),
		Filters:   bson.M{},
	}
	p.Page, _ = strconv.Atoi(values.Get("page"))
	p.Limit, _ = strconv.Atoi(values.Get("limit"))
	p.normalize()
	return p
}

// normalize applies the defaults: page numbers below 1 and non-positive limits
// fall back rather than producing a negative skip or a divide by zero.
func (p *Params) normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if p.SortOrder != "asc" {
		p.SortOrder = "desc"
	}
	if p.Filters == nil {
		p.Filters = bson.M{}
	}
}

// Equals adds an exact-match filter when value is non-empty.
func (p Params) Equals(field, value string) Params {
	if value != "" {
		p.Filters[field] = value
	}
	return p
}

// In adds a membership filter when values is non-empty.
func (p Params) In(field string, values []string) Params {
	if len(values) > 0 {
		p.Filters[field] = bson.M{"$in": values}
	}
	return p
}

// Filter builds the Mongo filter: the base conditions, the exact-match
// filters, and a case-insensitive substring match of Search against the given
// text fields (pattern match, not full-text ranking).
func (p Params) Filter(base bson.M, searchFields ...string) bson.M {
	out := bson.M{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range p.Filters {
		out[k] = v
	}
	if p.Search != "" && len(searchFields) > 0 {
		or := make([]bson.M, 0, len(searchFields))
		rx := primitive.Regex{Pattern: regexEscape(p.Search), Options: "i"}
		for _, f := range searchFields {
			or = append(or, bson.M{f: rx})
		}
		out["$or"] = or
	}
	return out
}

// Skip is the number of documents to skip for the requested page.
func (p Params) Skip() int64 { return int64(p.Page-1) * int64(p.Limit) }

// Pages computes the total page count for a result set size.
func (p Params) Pages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// FindOptions builds sort/skip/limit options for a paginated Find.
func (p Params) FindOptions() *options.FindOptions {
	dir := -1
	if p.SortOrder == "asc" {
		dir = 1
	}
	return options.Find().
		SetSort(bson.D{{Key: p.SortBy, Value: dir}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
}

// Pagination is the metadata block attached to every list response.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Paginate builds the response metadata for a total count.
func (p Params) Paginate(total int64) Pagination {
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: p.Pages(total)}
}

// regexEscape neutralizes regex metacharacters so the search string is always
// treated as a literal substring.
func regexEscape(s string) string {
	const meta = `\.+*?()|[]{}^$`
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		for j := 0; j < len(meta); j++ {
			if c == meta[j] {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, c)
	}
	return string(out)
}
