// Package server runs exe-builder-server: the HTTP form and the gRPC render
// API on top of one in-memory session store.
package server
