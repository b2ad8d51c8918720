package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/model"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AdminHandler struct {
	adminService service.AdminService
	validate     *validator.Validate
	logger       zerolog.Logger
}

func NewAdminHandler(adminService service.AdminService, v *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, validate: v, logger: logger}
}

// RegisterRoutes mounts admin routes behind the admin middleware chain.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, adminMw func(http.Handler) http.Handler) {
	mux.Handle("/admin/users", adminMw(http.HandlerFunc(h.users)))
	mux.Handle("/admin/users/export", adminMw(http.HandlerFunc(h.exportUsers)))
	mux.Handle("/admin/users/import", adminMw(http.HandlerFunc(h.importUsers)))
	mux.Handle("/admin/users/", adminMw(http.HandlerFunc(h.handleUser)))
	mux.Handle("/admin/requests", adminMw(http.HandlerFunc(h.listRequests)))
	mux.Handle("/admin/requests/", adminMw(http.HandlerFunc(h.deleteRequest)))
	mux.Handle("/admin/stats", adminMw(http.HandlerFunc(h.stats)))
	mux.Handle("/admin/email-queue", adminMw(http.HandlerFunc(h.listQueue)))
	mux.Handle("/admin/email-queue/", adminMw(http.HandlerFunc(h.resolveQueue)))
}

func (h *AdminHandler) users(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listUsers(w, r)
	case http.MethodPost:
		h.createUser(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list users: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.UserResponseDTO, 0, len(users))
	for i := range users {
		resp = append(resp, userResponse(&users[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UserCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), service.UserCreate{
		Nom:              req.Nom,
		Email:            req.Email,
		Password:         req.Password,
		Role:             req.Role,
		ImagesUsedTotal:  req.ImagesUsedTotal,
		ImagesLimitTotal: req.ImagesLimitTotal,
		IsActive:         req.IsActive,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			http.Error(w, "Un compte existe déjà avec cet email", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(userResponse(user))
}

func (h *AdminHandler) handleUser(w http.ResponseWriter, r *http.Request) {
	idOrEmail := strings.TrimPrefix(r.URL.Path, "/admin/users/")
	if idOrEmail == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		h.updateUser(w, r, idOrEmail)
	case http.MethodDelete:
		h.deleteUser(w, r, idOrEmail)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request, idOrEmail string) {
	var req dto.UserUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), idOrEmail, service.UserUpdate{
		Nom:              req.Nom,
		Email:            req.Email,
		Password:         req.Password,
		Role:             req.Role,
		ImagesUsedTotal:  req.ImagesUsedTotal,
		ImagesLimitTotal: req.ImagesLimitTotal,
		IsActive:         req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "Utilisateur introuvable", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse(user))
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request, idOrEmail string) {
	if err := h.adminService.DeleteUser(r.Context(), idOrEmail); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Error(w, "Utilisateur introuvable", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) exportUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	data, contentType, err := h.adminService.ExportUsers(r.Context(), format)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			http.Error(w, "Format non supporté: "+format, http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to export users: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "users."+strings.ToLower(format)))
	w.Write(data)
}

func (h *AdminHandler) importUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Fichier manquant: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	format := r.URL.Query().Get("format")
	if format == "" {
		switch {
		case strings.HasSuffix(strings.ToLower(header.Filename), ".json"):
			format = "json"
		default:
			format = "csv"
		}
	}

	result, err := h.adminService.ImportUsers(r.Context(), format, file)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFormat) {
			http.Error(w, "Format non supporté: "+format, http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to import users: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp := dto.ImportResponseDTO{
		ImportedCount: result.ImportedCount,
		ImportedUsers: result.ImportedUsers,
		Errors:        result.Errors,
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) listRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	requests, err := h.adminService.ListRequests(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list requests: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.OutfitRequestResponseDTO, 0, len(requests))
	for i := range requests {
		resp = append(resp, outfitRequestResponse(&requests[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/admin/requests/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if err := h.adminService.DeleteRequest(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			http.Error(w, "Demande introuvable", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete request: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		http.Error(w, "Failed to compute stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.StatsResponseDTO{
		TotalRequests:        stats.TotalRequests,
		TodayRequests:        stats.TodayRequests,
		AtmosphereStats:      stats.AtmosphereStats,
		GeneratedImagesCount: stats.GeneratedImagesCount,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) listQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := h.adminService.ListQueuedEmails(r.Context())
	if err != nil {
		http.Error(w, "Failed to list email queue: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]dto.EmailQueueEntryDTO, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.EmailQueueEntryDTO{
			ID:            e.ID,
			Email:         e.Email,
			RequestID:     e.RequestID,
			OutfitDetails: e.OutfitDetails,
			Status:        e.Status,
			Timestamp:     e.Timestamp,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AdminHandler) resolveQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/admin/email-queue/")
	id, ok := strings.CutSuffix(rest, "/resolve")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}

	if err := h.adminService.ResolveQueuedEmail(r.Context(), id); err != nil {
		http.Error(w, "Failed to resolve queue entry: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "id": id})
}

func outfitRequestResponse(o *model.OutfitRequest) dto.OutfitRequestResponseDTO {
	return dto.OutfitRequestResponseDTO{
		ID:               o.ID,
		Atmosphere:       o.Atmosphere,
		SuitType:         o.SuitType,
		LapelType:        o.LapelType,
		PocketType:       o.PocketType,
		ShoeType:         o.ShoeType,
		AccessoryType:    o.AccessoryType,
		Gender:           o.Gender,
		FabricDesc:       o.FabricDesc,
		CustomShoeDesc:   o.CustomShoeDesc,
		CustomAccDesc:    o.CustomAccDesc,
		CreatorEmail:     o.CreatorEmail,
		RecipientEmail:   o.RecipientEmail,
		ModificationOf:   o.ModificationOf,
		ModificationDesc: o.ModificationDesc,
		Timestamp:        o.Timestamp,
	}
}
