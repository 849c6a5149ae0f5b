// Package app wires the tbsu components together and manages the HTTP
// server lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, file and environment
//  2. Initialize logging and OpenTelemetry
//  3. Resolve the alert registry paths and seed default alerters
//  4. Build the resolver, notifier and (when configured) warehouse loader
//  5. On Serve, mount the HTTP handlers and run until the context ends
//
// Command line front-ends build one Application and use its components
// directly; only the serve command starts the HTTP server.
package app
