// Package store defines the persistence contracts of classplan.
//
// Every store is partitioned by owner: reads and writes take the owner key
// and never observe another owner's data. Implementations live under
// internal/platform (memory and postgres).
package store
