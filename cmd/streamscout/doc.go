// Command streamscout runs the manifest resolution server and its admin CLI.
//
// `streamscout serve` starts the HTTP server. `streamscout resolve` runs one
// resolution in-process and prints the same JSON payload the server would.
// The cache, history and status commands talk to a running server over its
// admin endpoints using the configured bind address and API token.
package main
