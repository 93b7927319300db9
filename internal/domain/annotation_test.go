package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnnotation(t *testing.T) {
	owner := uuid.New()

	a, err := NewAnnotation(owner, "forgot homework", ptr(int64(1)), nil, "")
	require.NoError(t, err)
	assert.Equal(t, AnnotationGeneral, a.Type)
	assert.WithinDuration(t, time.Now().UTC(), a.CreatedAt, time.Second)
	assert.Nil(t, a.ClassRoomID)

	_, err = NewAnnotation(owner, " ", nil, nil, AnnotationTalking)
	assert.ErrorIs(t, err, ErrBlankText)

	_, err = NewAnnotation(owner, "x", nil, nil, AnnotationType("shouting"))
	assert.ErrorIs(t, err, ErrInvalidAnnotationType)
}

func TestAnnotation_TextIsTrimmed(t *testing.T) {
	a, err := NewAnnotation(uuid.New(), "  talks a lot \n", nil, nil, AnnotationTalking)
	require.NoError(t, err)
	assert.Equal(t, "talks a lot", a.Text)

	require.NoError(t, a.Apply(AnnotationPatch{Text: ptr("\tquiet today  ")}))
	assert.Equal(t, "quiet today", a.Text)
}

func TestParseAnnotationType(t *testing.T) {
	got, err := ParseAnnotationType("")
	require.NoError(t, err)
	assert.Equal(t, AnnotationGeneral, got)

	got, err = ParseAnnotationType("homework_missing")
	require.NoError(t, err)
	assert.Equal(t, AnnotationHomeworkMissing, got)

	_, err = ParseAnnotationType("GENERAL")
	assert.ErrorIs(t, err, ErrInvalidAnnotationType)
}

func TestAnnotation_ApplyKeepsIdentity(t *testing.T) {
	created := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	a := &Annotation{ID: 7, Text: "old", Type: AnnotationGeneral, CreatedAt: created}

	err := a.Apply(AnnotationPatch{Text: ptr("new"), Type: ptr(AnnotationTalking)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, created, a.CreatedAt)
	assert.Equal(t, "new", a.Text)
	assert.Equal(t, AnnotationTalking, a.Type)
	assert.Nil(t, a.StudentID)

	err = a.Apply(AnnotationPatch{Text: ptr(""), ClassRoomID: ptr(int64(3))})
	assert.ErrorIs(t, err, ErrBlankText)
	assert.Equal(t, "new", a.Text)
	assert.Nil(t, a.ClassRoomID, "failed patch leaves every field alone")
}

func TestAnnotationFilter_Matches(t *testing.T) {
	a := &Annotation{StudentID: ptr(int64(1)), ClassRoomID: ptr(int64(10)), Type: AnnotationTalking}
	talking := AnnotationTalking
	general := AnnotationGeneral

	assert.True(t, AnnotationFilter{}.Matches(a))
	assert.True(t, AnnotationFilter{StudentID: ptr(int64(1)), Type: &talking}.Matches(a))
	assert.True(t, AnnotationFilter{ClassRoomID: ptr(int64(10)), Type: &talking}.Matches(a))
	assert.False(t, AnnotationFilter{StudentID: ptr(int64(2))}.Matches(a))
	assert.False(t, AnnotationFilter{Type: &general}.Matches(a))
	assert.False(t, AnnotationFilter{StudentID: ptr(int64(1))}.Matches(&Annotation{}))
}

func TestComputeAnnotationStats(t *testing.T) {
	annotations := []*Annotation{
		{StudentID: ptr(int64(1)), ClassRoomID: ptr(int64(10))},
		{StudentID: ptr(int64(1)), ClassRoomID: ptr(int64(10))},
		{StudentID: ptr(int64(2)), ClassRoomID: ptr(int64(11))},
	}

	stats := ComputeAnnotationStats(annotations)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[int64]int{1: 2, 2: 1}, stats.ByStudent)
	assert.Equal(t, map[int64]int{10: 2, 11: 1}, stats.ByClassRoom)

	stats = ComputeAnnotationStats(append(annotations, &Annotation{Text: "loose"}))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByStudent[1]+stats.ByStudent[2])
}
