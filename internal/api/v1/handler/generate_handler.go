package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/service"
	"app/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds the multipart form held in memory per request.
const maxUploadBytes = 32 << 20

// artifactFilenamePattern guards /download against path traversal. Only
// filenames the service itself produces are retrievable.
var artifactFilenamePattern = regexp.MustCompile(`^generated_[a-zA-Z0-9-]+\.png$`)

type GenerateHandler struct {
	generationService service.GenerationService
	deliveryService   service.DeliveryService
	store             storage.ArtifactStore
	validate          *validator.Validate
	logger            zerolog.Logger
}

func NewGenerateHandler(
	generationService service.GenerationService,
	deliveryService service.DeliveryService,
	store storage.ArtifactStore,
	v *validator.Validate,
	logger zerolog.Logger,
) *GenerateHandler {
	return &GenerateHandler{
		generationService: generationService,
		deliveryService:   deliveryService,
		store:             store,
		validate:          v,
		logger:            logger,
	}
}

// RegisterRoutes mounts generation routes. Only generation and modification
// spend credits and sit behind auth; batch sending, listing and download stay
// public so emailed links keep working without a session.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/generate", authMw(http.HandlerFunc(h.generate)))
	mux.Handle("/modify-image", authMw(http.HandlerFunc(h.modifyImage)))
	mux.HandleFunc("/send-multiple", h.sendMultiple)
	mux.HandleFunc("/requests", h.listRequests)
	mux.HandleFunc("/download/", h.download)
}

func (h *GenerateHandler) generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	form := dto.GenerateFormDTO{
		Atmosphere:     r.FormValue("atmosphere"),
		SuitType:       r.FormValue("suit_type"),
		LapelType:      r.FormValue("lapel_type"),
		PocketType:     r.FormValue("pocket_type"),
		ShoeType:       r.FormValue("shoe_type"),
		AccessoryType:  r.FormValue("accessory_type"),
		Gender:         r.FormValue("gender"),
		RecipientEmail: r.FormValue("recipient_email"),
	}
	if err := h.validate.Struct(&form); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	modelImage, err := readImagePart(r, "model_image", true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fabricImage, err := readImagePart(r, "fabric_image", false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	shoeImage, err := readImagePart(r, "shoe_image", false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	accessoryImage, err := readImagePart(r, "accessory_image", false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := service.GenerateParams{
		Atmosphere:                 form.Atmosphere,
		SuitType:                   form.SuitType,
		LapelType:                  form.LapelType,
		PocketType:                 form.PocketType,
		ShoeType:                   form.ShoeType,
		AccessoryType:              form.AccessoryType,
		Gender:                     form.Gender,
		FabricDescription:          r.FormValue("fabric_description"),
		CustomShoeDescription:      r.FormValue("custom_shoe_description"),
		CustomAccessoryDescription: r.FormValue("custom_accessory_description"),
		RecipientEmail:             form.RecipientEmail,
		ModelImage:                 *modelImage,
		FabricImage:                fabricImage,
		ShoeImage:                  shoeImage,
		AccessoryImage:             accessoryImage,
	}

	result, err := h.generationService.Generate(r.Context(), claims.Subject, params)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	h.writeGenerateResponse(w, result, "Image générée avec succès")
}

func (h *GenerateHandler) modifyImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dto.ModifyImageDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	result, err := h.generationService.Modify(r.Context(), claims.Subject, req.RequestID, req.ModificationDescription)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	h.writeGenerateResponse(w, result, "Image modifiée avec succès")
}

func (h *GenerateHandler) sendMultiple(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.SendMultipleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	sent, err := h.deliveryService.SendMultiple(r.Context(), req.Email, req.Subject, req.Body, req.ImageIDs)
	if err != nil {
		h.logger.Error().Err(err).Str("recipient", req.Email).Msg("Failed to send image batch")
		http.Error(w, "Échec de l'envoi des images: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := dto.SendMultipleResponseDTO{
		Success:   true,
		SentCount: sent,
		Message:   fmt.Sprintf("%d image(s) envoyée(s) à %s", sent, req.Email),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *GenerateHandler) listRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	requests, err := h.generationService.ListRequests(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list requests")
		http.Error(w, "Failed to list requests", http.StatusInternalServerError)
		return
	}

	resp := make([]dto.OutfitRequestResponseDTO, 0, len(requests))
	for i := range requests {
		resp = append(resp, outfitRequestResponse(&requests[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *GenerateHandler) download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/download/")
	if !artifactFilenamePattern.MatchString(filename) {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	data, err := h.store.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			http.Error(w, "Image non trouvée", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to retrieve image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

func (h *GenerateHandler) writeGenerateResponse(w http.ResponseWriter, result *service.GenerateResult, message string) {
	resp := dto.GenerateResponseDTO{
		Success:       true,
		RequestID:     result.RequestID,
		ImageFilename: result.ImageFilename,
		DownloadURL:   result.DownloadURL,
		EmailSent:     result.EmailSent,
		EmailMessage:  result.EmailMessage,
		Message:       message,
		UserCredits: dto.CreditsDTO{
			Used:      result.Credits.Used,
			Limit:     result.Credits.Limit,
			Remaining: result.Credits.Remaining,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *GenerateHandler) writeGenerationError(w http.ResponseWriter, err error) {
	var quotaErr *service.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		http.Error(w, fmt.Sprintf("Limite d'images atteinte (%d/%d). Contactez l'administrateur pour augmenter votre quota.", quotaErr.Used, quotaErr.Limit), http.StatusForbidden)
	case errors.Is(err, service.ErrRequestNotFound):
		http.Error(w, "Demande introuvable", http.StatusNotFound)
	case errors.Is(err, service.ErrUserNotFound):
		http.Error(w, "Utilisateur introuvable", http.StatusUnauthorized)
	case errors.Is(err, service.ErrNoImageGenerated):
		http.Error(w, "Le modèle n'a pas produit d'image. Veuillez réessayer.", http.StatusInternalServerError)
	default:
		h.logger.Error().Err(err).Msg("Generation failed")
		http.Error(w, "Échec de la génération: "+err.Error(), http.StatusInternalServerError)
	}
}

// readImagePart reads one uploaded file and checks that it actually is an
// image. A missing optional part returns nil without error.
func readImagePart(r *http.Request, field string, required bool) (*service.ReferenceImage, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if required {
				return nil, fmt.Errorf("le fichier %s est requis", field)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", field, err)
	}
	if len(data) == 0 {
		if required {
			return nil, fmt.Errorf("le fichier %s est vide", field)
		}
		return nil, nil
	}

	mimeType := imageMIMEType(header, data)
	if mimeType == "" {
		return nil, fmt.Errorf("le fichier %s doit être une image", field)
	}
	return &service.ReferenceImage{MIMEType: mimeType, Data: data}, nil
}

// imageMIMEType prefers the declared content type and falls back to
// sniffing. Non-image content yields "".
func imageMIMEType(header *multipart.FileHeader, data []byte) string {
	declared := header.Header.Get("Content-Type")
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}
