package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dashetica/wealthsync/pkg/models"
	"github.com/dashetica/wealthsync/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		s.detailResponse(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.detailResponse(w, http.StatusBadRequest, "Malformed form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := s.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		s.detailResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		s.detailResponse(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	token, err := s.auth.Issue(user.Username)
	if err != nil {
		s.detailResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	slog.Info("User logged in", "username", user.Username, "role", user.Role)
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
		"role":         user.Role,
		"username":     user.Username,
	})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	summaries, err := s.repo.ListProfiles(r.Context(), user.ID, user.Role == store.RoleAdmin)
	if err != nil {
		s.detailResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if summaries == nil {
		summaries = []store.ProfileSummary{}
	}
	s.jsonResponse(w, http.StatusOK, summaries)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := s.loadOwnedProfile(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(profile.Data)
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req struct {
		Name string          `json:"name"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.detailResponse(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if req.Name == "" || len(req.Data) == 0 {
		s.detailResponse(w, http.StatusBadRequest, "Name and data are required")
		return
	}

	// Each save is a new record. Re-saving an augmented analysis keeps the
	// earlier snapshot in the listing.
	id, err := s.repo.CreateProfile(r.Context(), &store.Profile{
		Name:    req.Name,
		Data:    req.Data,
		OwnerID: user.ID,
	})
	if err != nil {
		s.detailResponse(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	slog.Info("Profile saved", "id", id, "name", req.Name, "owner", user.Username)
	s.jsonResponse(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.detailResponse(w, http.StatusBadRequest, "Malformed multipart body")
		return
	}

	var files []models.File
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				s.detailResponse(w, http.StatusBadRequest, "Unreadable upload: "+header.Filename)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				s.detailResponse(w, http.StatusBadRequest, "Unreadable upload: "+header.Filename)
				return
			}
			files = append(files, models.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	transcript := r.PostFormValue("transcript")

	if len(files) == 0 && transcript == "" {
		s.detailResponse(w, http.StatusBadRequest, "No files or transcript provided")
		return
	}

	var existing []byte
	if idParam := r.URL.Query().Get("profile_id"); idParam != "" {
		profile, ok := s.loadOwnedProfile(w, r, idParam)
		if !ok {
			return
		}
		existing = profile.Data
	}

	doc, err := s.provider.Analyze(r.Context(), models.AnalyzeRequest{
		Files:        files,
		Transcript:   transcript,
		ExistingData: existing,
	})
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		s.detailResponse(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID *int64          `json:"profile_id"`
		Context   json.RawMessage `json:"context"`
		Message   string          `json:"message"`
		Model     string          `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.detailResponse(w, http.StatusBadRequest, "Malformed request body")
		return
	}
	if req.Message == "" {
		s.detailResponse(w, http.StatusBadRequest, "Message is required")
		return
	}

	// A persisted profile id wins over inline context; the stored document is
	// the authoritative snapshot.
	profileData := []byte(req.Context)
	if req.ProfileID != nil {
		profile, ok := s.loadOwnedProfile(w, r, strconv.FormatInt(*req.ProfileID, 10))
		if !ok {
			return
		}
		profileData = profile.Data
	}
	if len(profileData) == 0 {
		s.detailResponse(w, http.StatusBadRequest, "No profile context provided")
		return
	}

	reply, err := s.provider.Chat(r.Context(), models.ChatRequest{
		ProfileData: profileData,
		Message:     req.Message,
		Model:       req.Model,
	})
	if err != nil {
		slog.Error("Chat failed", "error", err)
		s.detailResponse(w, http.StatusInternalServerError, "Chat failed")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"response": reply})
}

// loadOwnedProfile parses idParam, loads the profile, and enforces that the
// requester owns it unless they are an admin. On failure it writes the error
// response and returns ok=false.
func (s *Server) loadOwnedProfile(w http.ResponseWriter, r *http.Request, idParam string) (*store.Profile, bool) {
	user := currentUser(r)

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		s.detailResponse(w, http.StatusBadRequest, "Invalid profile id")
		return nil, false
	}

	profile, err := s.repo.GetProfile(r.Context(), id)
	if err != nil {
		s.detailResponse(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if profile == nil {
		s.detailResponse(w, http.StatusNotFound, "Profile not found")
		return nil, false
	}
	if user.Role != store.RoleAdmin && profile.OwnerID != user.ID {
		s.detailResponse(w, http.StatusForbidden, "Not authorized to access this profile")
		return nil, false
	}
	return profile, true
}
