// Package filter implements the small query language callers use to narrow
// list reads of aggregated words.
//
// A filter is a JSON document over the fields of the merged record, for
// example:
//
//	{"$or": [{"userWord.difficulty": "difficult"}, {"userWord": null}]}
//	{"page": {"$gte": 2, "$lt": 5}, "userWord.optional.isDeleted": {"$ne": true}}
//
// Only the fields and operators listed in this package are accepted; anything
// else is rejected with an error wrapping ErrInvalidFilter before a query is
// built.
package filter
