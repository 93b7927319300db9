package api

import (
	"time"

	"github.com/phrazzld/classplan/internal/domain"
)

// Request payloads

// ClassRoomRequest is the body of classroom create and rename requests.
type ClassRoomRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateStudentRequest is the body of POST /classrooms/{id}/students.
type CreateStudentRequest struct {
	FirstName  string `json:"first_name"            validate:"required"`
	LastName   string `json:"last_name"             validate:"required"`
	TableIndex *int   `json:"table_index,omitempty" validate:"omitempty,gte=0"`
}

// UpdateStudentRequest is the body of PATCH /classrooms/{id}/students/{studentID}.
// Absent or blank names are left unchanged.
type UpdateStudentRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// SeatRequest is the body of PUT /classrooms/{id}/students/{studentID}/seat.
// A null table index unseats the student.
type SeatRequest struct {
	TableIndex *int `json:"table_index" validate:"omitempty,gte=0"`
}

// CreateTableRequest is the body of POST /classrooms/{id}/tables.
type CreateTableRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RandomGroupsRequest is the body of POST /classrooms/{id}/groups/random.
type RandomGroupsRequest struct {
	Count int `json:"count"`
}

// ManualGroupRequest is one group of a manual partition request.
type ManualGroupRequest struct {
	Name      string  `json:"name,omitempty"`
	MemberIDs []int64 `json:"member_ids"`
}

// ManualGroupsRequest is the body of POST /classrooms/{id}/groups/manual.
type ManualGroupsRequest struct {
	Groups []ManualGroupRequest `json:"groups"`
}

// UpdateGroupRequest is the body of PATCH /classrooms/{id}/groups/{groupID}.
type UpdateGroupRequest struct {
	Add    []int64 `json:"add,omitempty"`
	Remove []int64 `json:"remove,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// CreateAnnotationRequest is the body of POST /annotations.
type CreateAnnotationRequest struct {
	Text        string `json:"text"                   validate:"required"`
	StudentID   *int64 `json:"student_id,omitempty"`
	ClassRoomID *int64 `json:"classroom_id,omitempty"`
	Type        string `json:"type,omitempty"         validate:"omitempty,oneof=general homework_missing talking"`
}

// UpdateAnnotationRequest is the body of PATCH /annotations/{annotationID}.
type UpdateAnnotationRequest struct {
	Text        *string `json:"text,omitempty"`
	StudentID   *int64  `json:"student_id,omitempty"`
	ClassRoomID *int64  `json:"classroom_id,omitempty"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=general homework_missing talking"`
}

// Responses

// TableResponse is a table with its positional index.
type TableResponse struct {
	Index int   `json:"index"`
	ID    int64 `json:"id"`
	X     int   `json:"x"`
	Y     int   `json:"y"`
}

// StudentResponse is a roster entry. The seat is reported both as the
// table's index and its id.
type StudentResponse struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	TableIndex *int   `json:"table_index,omitempty"`
	TableID    *int64 `json:"table_id,omitempty"`
}

// ClassRoomResponse is a full classroom aggregate.
type ClassRoomResponse struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name"`
	Students []StudentResponse `json:"students"`
	Tables   []TableResponse   `json:"tables"`
}

// ClassRoomSummary is a classroom without its roster.
type ClassRoomSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Students int    `json:"student_count"`
	Tables   int    `json:"table_count"`
}

// GroupResponse is a student group.
type GroupResponse struct {
	ID          int64   `json:"id"`
	ClassRoomID int64   `json:"classroom_id"`
	Name        string  `json:"name,omitempty"`
	MemberIDs   []int64 `json:"member_ids"`
}

// AnnotationResponse is an annotation.
type AnnotationResponse struct {
	ID          int64     `json:"id"`
	Text        string    `json:"text"`
	StudentID   *int64    `json:"student_id,omitempty"`
	ClassRoomID *int64    `json:"classroom_id,omitempty"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// PlanStudentResponse is a student of the seating plan with their
// annotations.
type PlanStudentResponse struct {
	StudentResponse
	Annotations []AnnotationResponse `json:"annotations"`
}

// PlanTableResponse is a table of the seating plan with its occupants.
type PlanTableResponse struct {
	TableResponse
	Students []PlanStudentResponse `json:"students"`
}

// PlanResponse is the seating plan of a classroom.
type PlanResponse struct {
	ID       int64                 `json:"id"`
	Name     string                `json:"name"`
	Tables   []PlanTableResponse   `json:"tables"`
	Unseated []PlanStudentResponse `json:"unseated"`
}

// DeletedResponse reports the outcome of a bulk delete.
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// tableIndexes maps table ids to their position in the classroom.
func tableIndexes(c *domain.ClassRoom) map[int64]int {
	out := make(map[int64]int, len(c.Tables))
	for i, t := range c.Tables {
		out[t.ID] = i
	}
	return out
}

func classRoomToResponse(c *domain.ClassRoom) ClassRoomResponse {
	tableIndex := tableIndexes(c)
	tables := make([]TableResponse, len(c.Tables))
	for i, t := range c.Tables {
		tables[i] = TableResponse{Index: i, ID: t.ID, X: t.X, Y: t.Y}
	}

	students := make([]StudentResponse, len(c.Students))
	for i, s := range c.Students {
		students[i] = studentToResponse(s, tableIndex)
	}

	return ClassRoomResponse{
		ID:       c.ID,
		Name:     c.Name,
		Students: students,
		Tables:   tables,
	}
}

func planToResponse(p *domain.Plan) PlanResponse {
	student := func(ps domain.PlanStudent, index *int) PlanStudentResponse {
		return PlanStudentResponse{
			StudentResponse: StudentResponse{
				ID:         ps.Student.ID,
				FirstName:  ps.Student.FirstName,
				LastName:   ps.Student.LastName,
				TableIndex: index,
				TableID:    ps.Student.TableID,
			},
			Annotations: annotationsToResponse(ps.Annotations),
		}
	}

	tables := make([]PlanTableResponse, len(p.Tables))
	for i, t := range p.Tables {
		index := t.Index
		students := make([]PlanStudentResponse, len(t.Students))
		for j, ps := range t.Students {
			students[j] = student(ps, &index)
		}
		tables[i] = PlanTableResponse{
			TableResponse: TableResponse{Index: t.Index, ID: t.Table.ID, X: t.Table.X, Y: t.Table.Y},
			Students:      students,
		}
	}

	unseated := make([]PlanStudentResponse, len(p.Unseated))
	for i, ps := range p.Unseated {
		unseated[i] = student(ps, nil)
	}

	return PlanResponse{
		ID:       p.ClassRoomID,
		Name:     p.Name,
		Tables:   tables,
		Unseated: unseated,
	}
}

func classRoomToSummary(c *domain.ClassRoom) ClassRoomSummary {
	return ClassRoomSummary{
		ID:       c.ID,
		Name:     c.Name,
		Students: len(c.Students),
		Tables:   len(c.Tables),
	}
}

func studentToResponse(s domain.Student, tableIndex map[int64]int) StudentResponse {
	out := StudentResponse{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		TableID:   s.TableID,
	}
	if s.TableID != nil {
		if i, ok := tableIndex[*s.TableID]; ok {
			out.TableIndex = &i
		}
	}
	return out
}

func groupToResponse(g *domain.Group) GroupResponse {
	members := g.MemberIDs
	if members == nil {
		members = []int64{}
	}
	return GroupResponse{
		ID:          g.ID,
		ClassRoomID: g.ClassRoomID,
		Name:        g.Name,
		MemberIDs:   members,
	}
}

func groupsToResponse(groups []*domain.Group) []GroupResponse {
	out := make([]GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupToResponse(g)
	}
	return out
}

func annotationToResponse(a *domain.Annotation) AnnotationResponse {
	return AnnotationResponse{
		ID:          a.ID,
		Text:        a.Text,
		StudentID:   a.StudentID,
		ClassRoomID: a.ClassRoomID,
		Type:        string(a.Type),
		CreatedAt:   a.CreatedAt,
	}
}

func annotationsToResponse(list []*domain.Annotation) []AnnotationResponse {
	out := make([]AnnotationResponse, len(list))
	for i, a := range list {
		out[i] = annotationToResponse(a)
	}
	return out
}
