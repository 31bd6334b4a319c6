package feed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"microblog/internal/common"
)

// MaxMediaBytes caps uploads at 100 MB, matching the client-side limit.
const MaxMediaBytes = 100 << 20

type FeedHandlers struct {
	FeedSvc FeedUsecase
	log     *logrus.Logger
}

func NewFeedHandlers(svc FeedUsecase, log *logrus.Logger) *FeedHandlers {
	return &FeedHandlers{FeedSvc: svc, log: log}
}

// Register wires the feed routes. Reads accept anonymous viewers; writes
// require auth.
func (h *FeedHandlers) Register(r *mux.Router) {
	read := r.NewRoute().Subrouter()
	read.Use(common.OptionalAuth)
	read.HandleFunc("/timeline", h.HomeTimeline).Methods("GET")
	read.HandleFunc("/users/{id}/posts", h.UserTimeline).Methods("GET")
	read.HandleFunc("/posts/{id}", h.Thread).Methods("GET")
	read.HandleFunc("/posts/{id}/quote", h.ExpandQuote).Methods("GET")
	read.HandleFunc("/posts/{id}/engagement", h.EngagementState).Methods("GET")

	write := r.NewRoute().Subrouter()
	write.Use(common.RequireAuth)
	write.HandleFunc("/posts", h.CreatePost).Methods("POST")
	write.HandleFunc("/posts/{id}/replies", h.CreateReply).Methods("POST")
	write.HandleFunc("/posts/{id}/quote", h.CreateQuote).Methods("POST")
	write.HandleFunc("/posts/{id}", h.EditPost).Methods("PATCH")
	write.HandleFunc("/posts/{id}", h.DeletePost).Methods("DELETE")
	write.HandleFunc("/posts/{id}/like", h.ToggleLike).Methods("POST")
	write.HandleFunc("/posts/{id}/repost", h.ToggleRepost).Methods("POST")
	write.HandleFunc("/posts/{id}/repost", h.RemoveRepost).Methods("DELETE")
}

// --------- WRITES ---------

type postBody struct {
	content  string
	fileData []byte
	fileName string
	mimeType string
}

// readPostBody accepts either JSON {"content": ...} or multipart form data
// with a "content" field and an optional "media" file.
func readPostBody(r *http.Request) (*postBody, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, errors.New("invalid multipart body")
		}
		body := &postBody{content: r.FormValue("content")}

		file, header, err := r.FormFile("media")
		if err == nil {
			defer file.Close()
			if header.Size > MaxMediaBytes {
				return nil, errors.New("media file exceeds the 100MB limit")
			}
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, errors.New("failed to read media file")
			}
			body.fileData = data
			body.fileName = header.Filename
			body.mimeType = header.Header.Get("Content-Type")
		}
		return body, nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	return &postBody{content: req.Content}, nil
}

func (h *FeedHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	body, err := readPostBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.content) == "" && len(body.fileData) == 0 {
		http.Error(w, "post must have text or file data", http.StatusBadRequest)
		return
	}

	postID, err := h.FeedSvc.CreatePost(r.Context(), common.ViewerID(r.Context()), body.content, body.fileData, body.fileName, body.mimeType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"post_id": postID})
}

func (h *FeedHandlers) CreateReply(w http.ResponseWriter, r *http.Request) {
	parentID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}
	body, err := readPostBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.content) == "" && len(body.fileData) == 0 {
		http.Error(w, "reply must have text or file data", http.StatusBadRequest)
		return
	}

	postID, err := h.FeedSvc.CreateReply(r.Context(), common.ViewerID(r.Context()), parentID, body.content, body.fileData, body.fileName, body.mimeType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"post_id": postID})
}

func (h *FeedHandlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	quotedID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}
	body, err := readPostBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	postID, err := h.FeedSvc.CreateQuote(r.Context(), common.ViewerID(r.Context()), quotedID, body.content, body.fileData, body.fileName, body.mimeType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"post_id": postID})
}

func (h *FeedHandlers) EditPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		http.Error(w, "post content must not be empty", http.StatusBadRequest)
		return
	}

	if err := h.FeedSvc.EditPost(r.Context(), common.ViewerID(r.Context()), postID, req.Content); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "post updated"})
}

func (h *FeedHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.FeedSvc.DeletePost(r.Context(), common.ViewerID(r.Context()), postID); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// --------- READS ---------

func (h *FeedHandlers) HomeTimeline(w http.ResponseWriter, r *http.Request) {
	items, err := h.FeedSvc.HomeTimeline(r.Context(), limitFromQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *FeedHandlers) UserTimeline(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	if userID == "" {
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	items, err := h.FeedSvc.UserTimeline(r.Context(), userID, limitFromQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *FeedHandlers) Thread(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	thread, err := h.FeedSvc.Thread(r.Context(), postID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

func (h *FeedHandlers) ExpandQuote(w http.ResponseWriter, r *http.Request) {
	quotedID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	// visited is the comma-separated chain already on screen.
	var visited []int64
	if raw := r.URL.Query().Get("visited"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				http.Error(w, "invalid visited list", http.StatusBadRequest)
				return
			}
			visited = append(visited, id)
		}
	}

	node := h.FeedSvc.ExpandQuote(r.Context(), quotedID, visited)
	respondJSON(w, http.StatusOK, node)
}

func (h *FeedHandlers) EngagementState(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	state, err := h.FeedSvc.EngagementState(r.Context(), postID, common.ViewerID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// --------- ENGAGEMENT ---------

func (h *FeedHandlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	result, err := h.FeedSvc.ToggleLike(r.Context(), postID, common.ViewerID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *FeedHandlers) ToggleRepost(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	decision, err := h.FeedSvc.ToggleRepost(r.Context(), postID, common.ViewerID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

// RemoveRepost is the confirmed second step of the removal flow; issuing the
// DELETE is the confirmation.
func (h *FeedHandlers) RemoveRepost(w http.ResponseWriter, r *http.Request) {
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.FeedSvc.RemoveRepost(r.Context(), postID, common.ViewerID(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "repost removed"})
}

// --------- HELPERS ---------

func postIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid post ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func limitFromQuery(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 200 {
		return DefaultTimelineLimit
	}
	return limit
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *FeedHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "not allowed", http.StatusForbidden)
	case errors.Is(err, ErrBusy):
		http.Error(w, "operation already in flight", http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "timed out, please retry", http.StatusGatewayTimeout)
	default:
		h.log.WithError(err).Error("feed request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
