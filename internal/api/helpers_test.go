package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/api/middleware"
	"github.com/phrazzld/classplan/internal/api/shared"
	"github.com/phrazzld/classplan/internal/domain/partition"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/platform/memory"
	"github.com/phrazzld/classplan/internal/service"
	"github.com/phrazzld/classplan/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// testAPI is the protected API mounted on fresh in-memory services.
type testAPI struct {
	t      *testing.T
	router http.Handler
	owner  uuid.UUID
	header string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	classRoomStore := memory.NewClassRoomStore(log)
	groupStore := memory.NewGroupStore(log)
	locks := service.NewKeyedMutex()

	annotations, err := service.NewAnnotationService(memory.NewAnnotationStore(log), service.NewKeyedMutex(), log)
	require.NoError(t, err)
	classRooms, err := service.NewClassRoomService(classRoomStore, groupStore, annotations, locks, log)
	require.NoError(t, err)
	groups, err := service.NewGroupService(classRoomStore, groupStore, partition.NewSeededService(7), locks, log)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware(log))
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(auth.NewTestJWTService(t)).Authenticate)
		RegisterRoutes(r, Handlers{
			ClassRooms:  NewClassRoomHandler(classRooms, log),
			Groups:      NewGroupHandler(groups, log),
			Annotations: NewAnnotationHandler(annotations, log),
		})
	})

	owner := uuid.New()
	return &testAPI{
		t:      t,
		router: r,
		owner:  owner,
		header: auth.GenerateAuthHeader(t, owner),
	}
}

// asOwner returns a view of the API authenticated as another owner.
func (a *testAPI) asOwner(owner uuid.UUID) *testAPI {
	return &testAPI{
		t:      a.t,
		router: a.router,
		owner:  owner,
		header: auth.GenerateAuthHeader(a.t, owner),
	}
}

// do sends a request. A []byte body is sent raw, anything else as JSON.
func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if a.header != "" {
		req.Header.Set("Authorization", a.header)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec).Error
}

// createClassRoom creates a classroom with the given students, each given
// as last and first name.
func (a *testAPI) createClassRoom(name string, students ...[2]string) ClassRoomResponse {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/classrooms", ClassRoomRequest{Name: name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[ClassRoomResponse](a.t, rec)

	for _, s := range students {
		rec := a.do(http.MethodPost, path("/classrooms/%d/students", c.ID), CreateStudentRequest{
			LastName:  s[0],
			FirstName: s[1],
		})
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodGet, path("/classrooms/%d", c.ID), nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	return decode[ClassRoomResponse](a.t, rec)
}

func ptr[T any](v T) *T {
	return &v
}

func path(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
