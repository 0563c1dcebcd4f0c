// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordSource: A lazy sequence of raw match records
//   - LocalIndex: The local package search index (SQLite)
//   - RepositoryClient: Queries remote package repositories (HTTP)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - Clock: Wall-clock time for the pager. Defaults to time.Now.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
