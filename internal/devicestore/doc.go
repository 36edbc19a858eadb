// Package devicestore persists control surface registrations in SQLite.
//
// Devices added with `tunnels devices add` are stored here and merged with
// the devices named in the configuration file when the control loop
// starts. See Merge for the precedence rules.
package devicestore
