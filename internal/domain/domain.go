// Package domain holds the core types and contracts shared between layers.
package domain

// KeyPrefix namespaces every Redis key owned by this service.
const KeyPrefix = "fieldops:"
