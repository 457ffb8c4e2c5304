// Package api serves the aggregated word endpoints. WordHandler parses the
// group, page, wordsPerPage and filter query parameters, calls
// service.AggregatedWordService and writes the JSON views. HandleAPIError
// maps validation, not-found and store-unavailable errors onto 400, 404
// and 503 without exposing the underlying error text.
package api
