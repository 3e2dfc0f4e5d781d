// Package cli provides the command-line interface for userdesk.
//
// The cli package implements the userdesk commands:
//   - list: Show one page of users, newest first, optionally filtered or watched
//   - add: Create a user from flags or an interactive form
//   - edit: Update a user from flags or a prefilled interactive form
//   - delete: Remove a user by ID
//   - serve: Run a local in-memory users resource
//   - config: Display the resolved configuration and its sources
//   - version: Show userdesk version
//
// Every client command builds the same stack: a userclient for the resource,
// a store holding the collection, and the form and list view bound to it.
// Notifications from the store are printed to stdout, or logged to stderr
// when --json keeps stdout for command results.
package cli
