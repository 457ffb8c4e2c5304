// Package aggregate compiles read requests for aggregated words into
// storage-neutral query plans.
//
// An aggregated word is a catalog word merged with at most one overlay of
// the acting user. Every plan starts from the same join (BuildJoin), then
// narrows the merged rows with an ordered list of matches and finally shapes
// the result according to its Mode. Plans are plain values built per request;
// nothing here is shared between calls.
package aggregate
