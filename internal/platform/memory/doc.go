// Package memory provides in-process implementations of the store interfaces.
//
// State is partitioned by owner. Each partition has its own lock, so two
// owners never contend, and every value crossing the package boundary is a
// deep copy. Ids come from store-wide sequences and are never reused.
package memory
