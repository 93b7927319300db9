// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the classroom, group and annotation services, translating HTTP
// concerns to business operations.
//
// Tables are addressed by their position in the classroom's table list.
// Students, groups and annotations are addressed by id.
package api
