package api

import (
	"github.com/go-chi/chi/v5"
)

// Handlers bundles the HTTP handlers of the protected API.
type Handlers struct {
	ClassRooms  *ClassRoomHandler
	Groups      *GroupHandler
	Annotations *AnnotationHandler
}

// RegisterRoutes mounts every protected endpoint on r. The caller is
// responsible for authentication middleware.
func RegisterRoutes(r chi.Router, h Handlers) {
	r.Route("/classrooms", func(r chi.Router) {
		r.Get("/", h.ClassRooms.ListClassRooms)
		r.Post("/", h.ClassRooms.CreateClassRoom)
		r.Post("/import/csv", h.ClassRooms.ImportCSV)
		r.Post("/import/xlsx", h.ClassRooms.ImportXLSX)

		r.Route("/{classroomID}", func(r chi.Router) {
			r.Get("/", h.ClassRooms.GetClassRoom)
			r.Put("/", h.ClassRooms.RenameClassRoom)
			r.Delete("/", h.ClassRooms.DeleteClassRoom)
			r.Get("/plan", h.ClassRooms.GetPlan)
			r.Get("/export/csv", h.ClassRooms.ExportCSV)
			r.Get("/export/xlsx", h.ClassRooms.ExportXLSX)

			r.Post("/students", h.ClassRooms.CreateStudent)
			r.Patch("/students/{studentID}", h.ClassRooms.UpdateStudent)
			r.Delete("/students/{studentID}", h.ClassRooms.DeleteStudent)
			r.Put("/students/{studentID}/seat", h.ClassRooms.AssignSeat)

			r.Post("/tables", h.ClassRooms.CreateTable)
			r.Delete("/tables/{tableIndex}", h.ClassRooms.DeleteTable)

			r.Get("/groups", h.Groups.ListGroups)
			r.Post("/groups/random", h.Groups.CreateRandomGroups)
			r.Post("/groups/manual", h.Groups.CreateManualGroups)
			r.Get("/groups/{groupID}", h.Groups.GetGroup)
			r.Patch("/groups/{groupID}", h.Groups.UpdateGroup)
			r.Delete("/groups/{groupID}", h.Groups.DeleteGroup)
		})
	})

	r.Route("/annotations", func(r chi.Router) {
		r.Get("/", h.Annotations.ListAnnotations)
		r.Post("/", h.Annotations.CreateAnnotation)
		r.Delete("/", h.Annotations.DeleteAnnotations)
		r.Get("/stats", h.Annotations.GetStats)
		r.Get("/{annotationID}", h.Annotations.GetAnnotation)
		r.Patch("/{annotationID}", h.Annotations.UpdateAnnotation)
		r.Delete("/{annotationID}", h.Annotations.DeleteAnnotation)
	})
}
