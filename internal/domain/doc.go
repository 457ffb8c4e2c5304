// Package domain holds the word catalog types, the per-user overlay and the
// aggregated views returned by the read endpoints, together with the
// validation errors shared by every layer.
package domain
