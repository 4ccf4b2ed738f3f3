// Package storage persists the aggregated feed as a JSON document that the
// rendering/deployment pipeline consumes.
package storage
