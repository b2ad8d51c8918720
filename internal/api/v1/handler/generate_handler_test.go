package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"
	"app/internal/storage"
	"app/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

type stubGenerationService struct {
	result   *service.GenerateResult
	err      error
	params   *service.GenerateParams
	requests []model.OutfitRequest
}

func (s *stubGenerationService) Generate(ctx context.Context, userID string, p service.GenerateParams) (*service.GenerateResult, error) {
	s.params = &p
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubGenerationService) Modify(ctx context.Context, userID, requestID, modification string) (*service.GenerateResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubGenerationService) ListRequests(ctx context.Context, limit int) ([]model.OutfitRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.requests) {
		return s.requests[:limit], nil
	}
	return s.requests, nil
}

type stubDelivery struct {
	recipient string
	ids       []string
}

func (s *stubDelivery) SendArtifact(ctx context.Context, recipient string, outfit *model.OutfitRequest, imageData []byte) (service.DeliveryStatus, string) {
	return service.DeliveryNotRequested, ""
}

func (s *stubDelivery) SendMultiple(ctx context.Context, recipient, subject, body string, requestIDs []string) (int, error) {
	s.recipient = recipient
	s.ids = requestIDs
	return len(requestIDs), nil
}

type stubStore struct {
	objects map[string][]byte
}

func (s *stubStore) Put(ctx context.Context, filename string, data []byte) error {
	s.objects[filename] = data
	return nil
}

func (s *stubStore) Get(ctx context.Context, filename string) ([]byte, error) {
	data, ok := s.objects[filename]
	if !ok {
		return nil, storage.ErrArtifactNotFound
	}
	return data, nil
}

func (s *stubStore) Delete(ctx context.Context, filename string) error { return nil }
func (s *stubStore) Count(ctx context.Context) (int, error)           { return len(s.objects), nil }

func withClaims(r *http.Request) *http.Request {
	claims := &util.Claims{
		Email:            "u@example.com",
		Role:             "client",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}
	ctx := context.WithValue(r.Context(), middleware.ClaimsContextKey, claims)
	return r.WithContext(ctx)
}

func passthroughAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, withClaims(r))
	})
}

func newTestGenerateMux(gen service.GenerationService, delivery service.DeliveryService, store storage.ArtifactStore) *http.ServeMux {
	v := validator.New(validator.WithRequiredStructEnabled())
	h := NewGenerateHandler(gen, delivery, store, v, zerolog.Nop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, passthroughAuth)
	return mux
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func multipartGenerateBody(t *testing.T, modelImage []byte, modelImageType string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := map[string]string{
		"atmosphere":     "champetre",
		"suit_type":      "Costume 2 pièces",
		"lapel_type":     "Revers cran droit standard",
		"pocket_type":    "Droites avec rabat",
		"shoe_type":      "Mocassins noirs",
		"accessory_type": "Cravate",
		"gender":         "homme",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}

	if modelImage != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="model_image"; filename="model.png"`)
		hdr.Set("Content-Type", modelImageType)
		part, err := w.CreatePart(hdr)
		if err != nil {
			t.Fatalf("creating file part: %v", err)
		}
		part.Write(modelImage)
	}

	w.Close()
	return &body, w.FormDataContentType()
}

func TestGenerateSuccessResponse(t *testing.T) {
	gen := &stubGenerationService{result: &service.GenerateResult{
		RequestID:     "req-1",
		ImageFilename: "generated_req-1.png",
		DownloadURL:   "/api/download/generated_req-1.png",
	}}
	mux := newTestGenerateMux(gen, nil, &stubStore{objects: map[string][]byte{}})

	body, contentType := multipartGenerateBody(t, pngUpload(t), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.GenerateResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.RequestID != "req-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gen.params == nil || gen.params.ModelImage.MIMEType != "image/png" {
		t.Fatal("expected the subject photo to reach the service")
	}
}

func TestGenerateMissingModelImage(t *testing.T) {
	mux := newTestGenerateMux(&stubGenerationService{}, nil, &stubStore{objects: map[string][]byte{}})

	body, contentType := multipartGenerateBody(t, nil, "")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateRejectsNonImageUpload(t *testing.T) {
	mux := newTestGenerateMux(&stubGenerationService{}, nil, &stubStore{objects: map[string][]byte{}})

	body, contentType := multipartGenerateBody(t, []byte("%PDF-1.4 not an image"), "application/pdf")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-image upload, got %d", rec.Code)
	}
}

func TestGenerateQuotaExceededMapsTo403(t *testing.T) {
	gen := &stubGenerationService{err: &service.QuotaError{Used: 5, Limit: 5}}
	mux := newTestGenerateMux(gen, nil, &stubStore{objects: map[string][]byte{}})

	body, contentType := multipartGenerateBody(t, pngUpload(t), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "5/5") {
		t.Fatalf("expected the credit counters in the message, got %q", rec.Body.String())
	}
}

func TestModifyUnknownRequestMapsTo404(t *testing.T) {
	gen := &stubGenerationService{err: service.ErrRequestNotFound}
	mux := newTestGenerateMux(gen, nil, &stubStore{objects: map[string][]byte{}})

	payload := `{"request_id":"ghost","modification_description":"plus clair"}`
	req := httptest.NewRequest(http.MethodPost, "/modify-image", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestModifyValidationFailure(t *testing.T) {
	mux := newTestGenerateMux(&stubGenerationService{}, nil, &stubStore{objects: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodPost, "/modify-image", strings.NewReader(`{"request_id":""}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestGenerateResponseKeepsEmptyEmailMessage(t *testing.T) {
	gen := &stubGenerationService{result: &service.GenerateResult{
		RequestID:     "req-1",
		ImageFilename: "generated_req-1.png",
	}}
	mux := newTestGenerateMux(gen, nil, &stubStore{objects: map[string][]byte{}})

	body, contentType := multipartGenerateBody(t, pngUpload(t), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// Clients check the key, not just its value: it must be present even
	// when no delivery was requested.
	msg, ok := raw["email_message"]
	if !ok {
		t.Fatal("expected the email_message key in the response")
	}
	if string(msg) != `""` {
		t.Fatalf("expected an empty email_message, got %s", msg)
	}
}

func TestGenerateModelFailureMapsTo500(t *testing.T) {
	gen := &stubGenerationService{err: service.ErrNoImageGenerated}
	mux := newTestGenerateMux(gen, nil, &stubStore{objects: map[string][]byte{}})

	body, contentType := multipartGenerateBody(t, pngUpload(t), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSendMultipleWithoutSession(t *testing.T) {
	delivery := &stubDelivery{}
	v := validator.New(validator.WithRequiredStructEnabled())
	h := NewGenerateHandler(&stubGenerationService{}, delivery, &stubStore{objects: map[string][]byte{}}, v, zerolog.Nop())
	mux := http.NewServeMux()
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		})
	}
	h.RegisterRoutes(mux, deny)

	payload := `{"email":"amis@example.com","imageIds":["req-1","req-2"],"subject":"Tenues","body":"Voici les images"}`
	req := httptest.NewRequest(http.MethodPost, "/send-multiple", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected batch sending to work without a session, got %d", rec.Code)
	}
	if delivery.recipient != "amis@example.com" || len(delivery.ids) != 2 {
		t.Fatalf("expected the batch to reach delivery, got %+v", delivery)
	}
}

func TestListRequests(t *testing.T) {
	gen := &stubGenerationService{requests: []model.OutfitRequest{
		{ID: "req-2", Atmosphere: "Plage", Gender: "homme", CreatorEmail: "a@b.fr"},
		{ID: "req-1", Atmosphere: "Jardin", Gender: "femme", CreatorEmail: "a@b.fr"},
	}}
	mux := newTestGenerateMux(gen, nil, &stubStore{objects: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp []dto.OutfitRequestResponseDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "req-2" || resp[1].Atmosphere != "Jardin" {
		t.Fatalf("unexpected listing: %+v", resp)
	}
}

func TestListRequestsRejectsBadLimit(t *testing.T) {
	mux := newTestGenerateMux(&stubGenerationService{}, nil, &stubStore{objects: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/requests?limit=abc", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDownloadServesStoredArtifact(t *testing.T) {
	store := &stubStore{objects: map[string][]byte{"generated_abc.png": []byte("png-bytes")}}
	mux := newTestGenerateMux(&stubGenerationService{}, nil, store)

	req := httptest.NewRequest(http.MethodGet, "/download/generated_abc.png", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("expected image/png, got %q", rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatal("expected the stored artifact bytes")
	}
}

func TestDownloadUnknownArtifact(t *testing.T) {
	mux := newTestGenerateMux(&stubGenerationService{}, nil, &stubStore{objects: map[string][]byte{}})

	req := httptest.NewRequest(http.MethodGet, "/download/generated_ghost.png", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDownloadRejectsForeignFilenames(t *testing.T) {
	mux := newTestGenerateMux(&stubGenerationService{}, nil, &stubStore{objects: map[string][]byte{}})

	for _, name := range []string{"../secrets.txt", "generated_a.png.exe", "passwd", "generated_..png"} {
		req := httptest.NewRequest(http.MethodGet, "/download/"+name, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest && rec.Code != http.StatusNotFound && rec.Code != http.StatusMovedPermanently {
			t.Fatalf("expected %q to be rejected, got %d", name, rec.Code)
		}
		if rec.Code == http.StatusOK {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}
