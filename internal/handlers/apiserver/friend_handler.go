package apiserver

import (
	"context"
	"net/http"

	"locshare/internal/middleware"
	"locshare/internal/models"
	"locshare/internal/services"
)

// FriendHandler handles HTTP requests on the caller's friend list.
type FriendHandler struct {
	friendService services.FriendService
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(fs services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: fs}
}

// AddFriendPayload defines the expected JSON body for adding a friend.
type AddFriendPayload struct {
	FriendUID string `json:"friendUid"`
}

// AddFriendHandler handles POST /api/v1/friends
func (h *FriendHandler) AddFriendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	var payload AddFriendPayload
	if !decodeJSONBody(w, r, &payload) {
		return
	}
	if payload.FriendUID == "" {
		writeJSONError(w, "缺少好友ID (friendUid)", http.StatusUnprocessableEntity)
		return
	}

	relation, err := h.friendService.AddFriend(r.Context(), userID, payload.FriendUID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, relation)
}

// ListFriendsHandler handles GET /api/v1/friends
func (h *FriendHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if friends == nil {
		friends = []models.FriendWithUser{}
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// SearchUsersHandler handles GET /api/v1/friends/search?q=
func (h *FriendHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}

	users, err := h.friendService.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []models.UserSearchResult{}
	}
	writeJSONResponse(w, http.StatusOK, users)
}

// BlockFriendHandler handles POST /api/v1/friends/{id}/block
func (h *FriendHandler) BlockFriendHandler(w http.ResponseWriter, r *http.Request) {
	h.changeRelation(w, r, h.friendService.Block, "已屏蔽")
}

// UnblockFriendHandler handles POST /api/v1/friends/{id}/unblock
func (h *FriendHandler) UnblockFriendHandler(w http.ResponseWriter, r *http.Request) {
	h.changeRelation(w, r, h.friendService.Unblock, "已取消屏蔽")
}

// RemoveFriendHandler handles DELETE /api/v1/friends/{id}
func (h *FriendHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	h.changeRelation(w, r, h.friendService.Remove, "好友已删除")
}

func (h *FriendHandler) changeRelation(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, ownerID, relationID uint) error, message string) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusUnauthorized)
		return
	}
	relationID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := action(r.Context(), userID, relationID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONMessage(w, http.StatusOK, message)
}
