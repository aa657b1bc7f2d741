// Package application provides application initialization and dependency wiring.
// It loads the parameter bundles, build configuration and cdk.json into the
// live store, builds the HTTP handlers and server, and keeps the store in sync
// with the input files while the preview server runs.
package application
