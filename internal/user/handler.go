package user

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"microblog/internal/common"
	"microblog/internal/dbmysql"
)

// MaxAvatarBytes caps avatar uploads; the client crops before uploading so
// anything near this size is a mistake.
const MaxAvatarBytes = 10 << 20

type Handler struct {
	svc UserService
	log *logrus.Logger
}

func NewHandler(svc UserService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/auth/register", h.RegisterUser).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")

	read := r.NewRoute().Subrouter()
	read.Use(common.OptionalAuth)
	read.HandleFunc("/users/{id}", h.GetProfile).Methods("GET")
	read.HandleFunc("/users/{id}/follows", h.GetFollowCounts).Methods("GET")

	write := r.NewRoute().Subrouter()
	write.Use(common.RequireAuth)
	write.HandleFunc("/me", h.Me).Methods("GET")
	write.HandleFunc("/me", h.UpdateProfile).Methods("PATCH")
	write.HandleFunc("/me/avatar", h.UpdateAvatar).Methods("PUT")
	write.HandleFunc("/users/{id}/follow", h.Follow).Methods("POST")
	write.HandleFunc("/users/{id}/follow", h.Unfollow).Methods("DELETE")
	write.HandleFunc("/follows/state", h.FollowState).Methods("GET")
}

type profileResponse struct {
	UserID      string  `json:"user_id"`
	Handle      string  `json:"handle"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Following   *bool   `json:"following,omitempty"`
}

func toProfileResponse(p *dbmysql.Profile) *profileResponse {
	return &profileResponse{
		UserID:      p.UserID,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
	}
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle   string `json:"handle"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.svc.Register(r.Context(), req.Handle, req.Email, req.Password)
	if err != nil {
		// Anything besides a taken handle is a validation failure here.
		if errors.Is(err, ErrHandleTaken) {
			http.Error(w, err.Error(), http.StatusConflict)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"profile": toProfileResponse(profile),
		"token":   token,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Handle   string `json:"handle"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, token, err := h.svc.Login(r.Context(), req.Handle, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile": toProfileResponse(profile),
		"token":   token,
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetProfile(r.Context(), common.ViewerID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	profile, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := toProfileResponse(profile)
	if viewerID := common.ViewerID(r.Context()); viewerID != "" && viewerID != userID {
		following, err := h.svc.IsFollowing(r.Context(), viewerID, userID)
		if err != nil {
			// The profile still renders without the follow flag.
			h.log.WithError(err).WithField("user_id", userID).Warn("follow probe failed")
		} else {
			resp.Following = &following
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// FollowState reports, for a batch of user ids, whether the viewer follows
// each one.
func (h *Handler) FollowState(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		http.Error(w, "ids query parameter is required", http.StatusBadRequest)
		return
	}

	state, err := h.svc.FollowState(r.Context(), common.ViewerID(r.Context()), strings.Split(raw, ","))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DisplayName == nil && req.Bio == nil {
		http.Error(w, "nothing to update", http.StatusBadRequest)
		return
	}

	profile, err := h.svc.UpdateProfile(r.Context(), common.ViewerID(r.Context()), req.DisplayName, req.Bio)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > MaxAvatarBytes {
		http.Error(w, "avatar file is too large", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read avatar file", http.StatusBadRequest)
		return
	}

	url, err := h.svc.UpdateAvatar(r.Context(), common.ViewerID(r.Context()), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"avatar_url": url})
}

func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]
	viewerID := common.ViewerID(r.Context())

	// Self-loops are rejected here, not by the data layer.
	if targetID == viewerID {
		http.Error(w, "cannot follow yourself", http.StatusBadRequest)
		return
	}

	if err := h.svc.Follow(r.Context(), viewerID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "followed"})
}

func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["id"]
	if err := h.svc.Unfollow(r.Context(), common.ViewerID(r.Context()), targetID); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "unfollowed"})
}

func (h *Handler) GetFollowCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.GetFollowCounts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, counts)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrHandleTaken),
		errors.Is(err, ErrAlreadyFollowing),
		errors.Is(err, ErrNotFollowing):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.log.WithError(err).Error("user request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
