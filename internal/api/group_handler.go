package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/classplan/internal/api/shared"
	"github.com/phrazzld/classplan/internal/domain"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/service"
)

// GroupHandler handles student group requests.
type GroupHandler struct {
	groups service.GroupService
	logger *slog.Logger
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groups service.GroupService, logger *slog.Logger) *GroupHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GroupHandler")
	}
	return &GroupHandler{
		groups: groups,
		logger: logger.With(slog.String("component", "group_handler")),
	}
}

// ListGroups handles GET /classrooms/{classroomID}/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	groups, err := h.groups.List(r.Context(), ownerID, classRoomID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, groupsToResponse(groups))
}

// CreateRandomGroups handles POST /classrooms/{classroomID}/groups/random
func (h *GroupHandler) CreateRandomGroups(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	var req RandomGroupsRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	groups, err := h.groups.Random(r.Context(), ownerID, classRoomID, req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, groupsToResponse(groups))
}

// CreateManualGroups handles POST /classrooms/{classroomID}/groups/manual
func (h *GroupHandler) CreateManualGroups(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}

	var req ManualGroupsRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	requested := make([]service.ManualGroup, len(req.Groups))
	for i, g := range req.Groups {
		requested[i] = service.ManualGroup{Name: g.Name, MemberIDs: g.MemberIDs}
	}

	groups, err := h.groups.Manual(r.Context(), ownerID, classRoomID, requested)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, groupsToResponse(groups))
}

// GetGroup handles GET /classrooms/{classroomID}/groups/{groupID}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	groupID, ok := pathInt64(w, r, paramGroupID)
	if !ok {
		return
	}

	g, err := h.groups.Get(r.Context(), ownerID, classRoomID, groupID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, groupToResponse(g))
}

// UpdateGroup handles PATCH /classrooms/{classroomID}/groups/{groupID}.
// An update that empties the group deletes it and answers 204.
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	groupID, ok := pathInt64(w, r, paramGroupID)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := shared.DecodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	g, err := h.groups.Update(r.Context(), ownerID, classRoomID, groupID, domain.MembershipUpdate{
		Add:    req.Add,
		Remove: req.Remove,
		Name:   req.Name,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if len(g.MemberIDs) == 0 {
		log.Debug("group emptied by update", slog.Int64("group_id", groupID))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, groupToResponse(g))
}

// DeleteGroup handles DELETE /classrooms/{classroomID}/groups/{groupID}
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	ownerID, classRoomID, ok := ownerAndClassRoom(w, r, log)
	if !ok {
		return
	}
	groupID, ok := pathInt64(w, r, paramGroupID)
	if !ok {
		return
	}

	if err := h.groups.Delete(r.Context(), ownerID, classRoomID, groupID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
