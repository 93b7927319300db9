// Package domain contains the classroom plan entities and the rules that keep
// them consistent: the ClassRoom aggregate with its roster and seating
// tables, student groups, and annotations. It has no knowledge of storage or
// transport; identities cross aggregate boundaries as plain ids.
package domain
