package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnnotationType classifies a free-text annotation.
type AnnotationType string

// Possible annotation types
const (
	AnnotationGeneral         AnnotationType = "general"
	AnnotationHomeworkMissing AnnotationType = "homework_missing"
	AnnotationTalking         AnnotationType = "talking"
)

// ParseAnnotationType converts s into an AnnotationType. An empty string maps
// to AnnotationGeneral.
func ParseAnnotationType(s string) (AnnotationType, error) {
	if s == "" {
		return AnnotationGeneral, nil
	}
	t := AnnotationType(s)
	if !t.Valid() {
		return "", ErrInvalidAnnotationType
	}
	return t, nil
}

// Valid reports whether t is a known annotation type.
func (t AnnotationType) Valid() bool {
	switch t {
	case AnnotationGeneral, AnnotationHomeworkMissing, AnnotationTalking:
		return true
	default:
		return false
	}
}

// Annotation is a note about a student, a classroom, or both.
type Annotation struct {
	ID          int64          `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	Text        string         `json:"text"`
	StudentID   *int64         `json:"student_id,omitempty"`
	ClassRoomID *int64         `json:"classroom_id,omitempty"`
	Type        AnnotationType `json:"type"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewAnnotation creates an annotation stamped with the current time. The text
// is trimmed. An empty type defaults to AnnotationGeneral.
func NewAnnotation(
	ownerID uuid.UUID,
	text string,
	studentID, classRoomID *int64,
	annotationType AnnotationType,
) (*Annotation, error) {
	if annotationType == "" {
		annotationType = AnnotationGeneral
	}
	a := &Annotation{
		OwnerID:     ownerID,
		Text:        strings.TrimSpace(text),
		StudentID:   studentID,
		ClassRoomID: classRoomID,
		Type:        annotationType,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks that the annotation has text and a known type.
func (a *Annotation) Validate() error {
	if isBlank(a.Text) {
		return ErrBlankText
	}
	if !a.Type.Valid() {
		return ErrInvalidAnnotationType
	}
	return nil
}

// AnnotationPatch carries the fields of a partial annotation update.
// Nil fields are left unchanged.
type AnnotationPatch struct {
	Text        *string
	StudentID   *int64
	ClassRoomID *int64
	Type        *AnnotationType
}

// Apply validates the patched annotation and then replaces the supplied
// fields. New text is trimmed. ID, owner and creation time are never touched.
func (a *Annotation) Apply(p AnnotationPatch) error {
	next := *a
	if p.Text != nil {
		next.Text = strings.TrimSpace(*p.Text)
	}
	if p.StudentID != nil {
		id := *p.StudentID
		next.StudentID = &id
	}
	if p.ClassRoomID != nil {
		id := *p.ClassRoomID
		next.ClassRoomID = &id
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*a = next
	return nil
}

// AnnotationFilter selects annotations. Nil fields match everything.
type AnnotationFilter struct {
	StudentID   *int64
	ClassRoomID *int64
	Type        *AnnotationType
}

// Matches reports whether a satisfies every set field of f.
func (f AnnotationFilter) Matches(a *Annotation) bool {
	if f.StudentID != nil && (a.StudentID == nil || *a.StudentID != *f.StudentID) {
		return false
	}
	if f.ClassRoomID != nil && (a.ClassRoomID == nil || *a.ClassRoomID != *f.ClassRoomID) {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	return true
}

// AnnotationStats aggregates annotation counts for one owner.
type AnnotationStats struct {
	Total       int           `json:"total"`
	ByStudent   map[int64]int `json:"by_student"`
	ByClassRoom map[int64]int `json:"by_classroom"`
}

// ComputeAnnotationStats counts annotations overall, per student id and per
// classroom id. Annotations without a student (or classroom) id are counted
// only in the total (and the other map).
func ComputeAnnotationStats(annotations []*Annotation) AnnotationStats {
	stats := AnnotationStats{
		Total:       len(annotations),
		ByStudent:   make(map[int64]int),
		ByClassRoom: make(map[int64]int),
	}
	for _, a := range annotations {
		if a.StudentID != nil {
			stats.ByStudent[*a.StudentID]++
		}
		if a.ClassRoomID != nil {
			stats.ByClassRoom[*a.ClassRoomID]++
		}
	}
	return stats
}
