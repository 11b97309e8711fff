// Package client translates typed storage operations (get, find, count,
// create, update and the paged list) into requests against the single query
// endpoint of the storage backend, and decodes its responses.
package client
