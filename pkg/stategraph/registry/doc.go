// Package registry provides a small thread-safe generic key/value
// registry. The graph builder uses it for capability bookkeeping; Add
// reports duplicate keys so registration defects surface as
// configuration errors instead of silent overwrites.
package registry
