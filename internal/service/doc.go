// Package service contains the classplan engines: classroom plans (roster,
// tables, seats, CSV/XLSX exchange), group partitioning and annotations.
//
// Services receive their stores through constructor injection and never
// depend on a concrete storage technology. Every operation takes the owner
// key first; data belonging to another owner is reported as not found.
//
// Mutations of one classroom are serialized by a keyed mutex shared between
// ClassRoomService and GroupService, and annotation writes of one owner by a
// second one, so invariants hold under concurrent requests while different
// owners never wait on each other.
package service
