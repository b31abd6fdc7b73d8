// Package httpserver holds the HTTP plumbing shared by the record API:
// request middleware, JSON responses, health endpoints and a server that
// stops cleanly when its context ends.
package httpserver
