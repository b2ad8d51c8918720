package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/catalog"
	"app/internal/imaging"
	"app/internal/model"
	"app/internal/prompt"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrRequestNotFound is returned when a referenced outfit request does not exist.
var ErrRequestNotFound = errors.New("outfit request not found")

// QuotaError rejects a generation before any external call is made. It
// carries the counters so the client can render the credit state.
type QuotaError struct {
	Used  int
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("image generation quota exceeded (%d/%d)", e.Used, e.Limit)
}

// GenerateParams is one admitted generation request.
type GenerateParams struct {
	Atmosphere    string
	SuitType      string
	LapelType     string
	PocketType    string
	ShoeType      string
	AccessoryType string
	Gender        string

	FabricDescription          string
	CustomShoeDescription      string
	CustomAccessoryDescription string

	RecipientEmail string

	ModelImage     ReferenceImage
	FabricImage    *ReferenceImage
	ShoeImage      *ReferenceImage
	AccessoryImage *ReferenceImage
}

// GenerateResult mirrors the /generate response payload.
type GenerateResult struct {
	RequestID       string
	ImageFilename   string
	DownloadURL     string
	EmailSent       bool
	EmailMessage    string
	Credits         model.Credits
	ModificationOf  string
	ModificationMsg string
}

type GenerationService interface {
	Generate(ctx context.Context, userID string, p GenerateParams) (*GenerateResult, error)
	// Modify produces a variant of an earlier request from its recorded
	// attributes plus a natural-language delta. Same credit rules as
	// Generate.
	Modify(ctx context.Context, userID, requestID, modification string) (*GenerateResult, error)
	// ListRequests returns recorded requests, newest first.
	ListRequests(ctx context.Context, limit int) ([]model.OutfitRequest, error)
}

type generationService struct {
	userRepo    repository.UserRepository
	outfitRepo  repository.OutfitRequestRepository
	generator   ImageGenerator
	watermarker *imaging.Watermarker
	store       storage.ArtifactStore
	delivery    DeliveryService
	logger      zerolog.Logger
}

func NewGenerationService(
	userRepo repository.UserRepository,
	outfitRepo repository.OutfitRequestRepository,
	generator ImageGenerator,
	watermarker *imaging.Watermarker,
	store storage.ArtifactStore,
	delivery DeliveryService,
	logger zerolog.Logger,
) GenerationService {
	return &generationService{
		userRepo:    userRepo,
		outfitRepo:  outfitRepo,
		generator:   generator,
		watermarker: watermarker,
		store:       store,
		delivery:    delivery,
		logger:      logger.With().Str("service", "GenerationService").Logger(),
	}
}

func (s *generationService) Generate(ctx context.Context, userID string, p GenerateParams) (*GenerateResult, error) {
	user, err := s.admit(ctx, userID)
	if err != nil {
		return nil, err
	}

	composition := catalog.ResolveSuitComposition(p.SuitType)
	promptText := prompt.Compose(prompt.Input{
		Atmosphere:                 p.Atmosphere,
		SuitType:                   p.SuitType,
		Composition:                composition,
		LapelType:                  p.LapelType,
		PocketType:                 p.PocketType,
		ShoeType:                   p.ShoeType,
		AccessoryType:              p.AccessoryType,
		Gender:                     p.Gender,
		FabricDescription:          p.FabricDescription,
		CustomShoeDescription:      p.CustomShoeDescription,
		CustomAccessoryDescription: p.CustomAccessoryDescription,
		HasFabricImage:             p.FabricImage != nil,
		HasShoeImage:               p.ShoeImage != nil,
		HasAccessoryImage:          p.AccessoryImage != nil,
	})

	outfit := &model.OutfitRequest{
		ID:             uuid.NewString(),
		Atmosphere:     p.Atmosphere,
		SuitType:       p.SuitType,
		LapelType:      p.LapelType,
		PocketType:     p.PocketType,
		ShoeType:       p.ShoeType,
		AccessoryType:  p.AccessoryType,
		Gender:         p.Gender,
		FabricDesc:     optional(p.FabricDescription),
		CustomShoeDesc: optional(p.CustomShoeDescription),
		CustomAccDesc:  optional(p.CustomAccessoryDescription),
		CreatorEmail:   user.Email,
		RecipientEmail: optional(p.RecipientEmail),
	}

	// The record is persisted before the model is called so the creator
	// identity and attributes survive a generation failure.
	if err := s.outfitRepo.Create(ctx, outfit); err != nil {
		return nil, fmt.Errorf("recording outfit request: %w", err)
	}

	// Reference order is fixed: subject, fabric, footwear, accessory. The
	// prompt's "Nth uploaded image" sentences rely on it.
	refs := []ReferenceImage{p.ModelImage}
	for _, extra := range []*ReferenceImage{p.FabricImage, p.ShoeImage, p.AccessoryImage} {
		if extra != nil {
			refs = append(refs, *extra)
		}
	}

	return s.produce(ctx, user, outfit, promptText, refs)
}

func (s *generationService) Modify(ctx context.Context, userID, requestID, modification string) (*GenerateResult, error) {
	user, err := s.admit(ctx, userID)
	if err != nil {
		return nil, err
	}

	prior, err := s.outfitRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("loading prior request: %w", err)
	}
	if prior == nil {
		return nil, ErrRequestNotFound
	}

	priorImage, err := s.store.Get(ctx, model.ArtifactFilename(prior.ID))
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("loading prior artifact: %w", err)
	}

	promptText := prompt.ComposeModification(prompt.Input{
		Atmosphere:                 prior.Atmosphere,
		SuitType:                   prior.SuitType,
		Composition:                catalog.ResolveSuitComposition(prior.SuitType),
		LapelType:                  prior.LapelType,
		PocketType:                 prior.PocketType,
		ShoeType:                   prior.ShoeType,
		AccessoryType:              prior.AccessoryType,
		Gender:                     prior.Gender,
		FabricDescription:          deref(prior.FabricDesc),
		CustomShoeDescription:      deref(prior.CustomShoeDesc),
		CustomAccessoryDescription: deref(prior.CustomAccDesc),
	}, modification)

	outfit := &model.OutfitRequest{
		ID:               uuid.NewString(),
		Atmosphere:       prior.Atmosphere,
		SuitType:         prior.SuitType,
		LapelType:        prior.LapelType,
		PocketType:       prior.PocketType,
		ShoeType:         prior.ShoeType,
		AccessoryType:    prior.AccessoryType,
		Gender:           prior.Gender,
		FabricDesc:       prior.FabricDesc,
		CustomShoeDesc:   prior.CustomShoeDesc,
		CustomAccDesc:    prior.CustomAccDesc,
		CreatorEmail:     user.Email,
		ModificationOf:   &prior.ID,
		ModificationDesc: &modification,
	}
	if err := s.outfitRepo.Create(ctx, outfit); err != nil {
		return nil, fmt.Errorf("recording modification request: %w", err)
	}

	refs := []ReferenceImage{{MIMEType: "image/png", Data: priorImage}}
	result, err := s.produce(ctx, user, outfit, promptText, refs)
	if err != nil {
		return nil, err
	}
	result.ModificationOf = prior.ID
	result.ModificationMsg = modification
	return result, nil
}

func (s *generationService) ListRequests(ctx context.Context, limit int) ([]model.OutfitRequest, error) {
	return s.outfitRepo.List(ctx, limit)
}

// admit loads the user and enforces the quota. It runs before any external
// call: a rejected request has zero side effects.
func (s *generationService) admit(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.CanConsume() {
		return nil, &QuotaError{Used: user.ImagesUsedTotal, Limit: user.ImagesLimitTotal}
	}
	return user, nil
}

// produce runs the fallible tail of the lifecycle: model call, watermark,
// artifact storage, credit consumption and optional delivery.
func (s *generationService) produce(ctx context.Context, user *model.User, outfit *model.OutfitRequest, promptText string, refs []ReferenceImage) (*GenerateResult, error) {
	imageBytes, err := s.generator.GenerateImage(ctx, promptText, refs)
	if err != nil {
		// The request record deliberately stays behind for diagnostics.
		s.logger.Error().Err(err).Str("request_id", outfit.ID).Msg("Image generation failed")
		return nil, fmt.Errorf("generating image: %w", err)
	}

	imageBytes = s.watermarker.Apply(imageBytes)

	filename := model.ArtifactFilename(outfit.ID)
	if err := s.store.Put(ctx, filename, imageBytes); err != nil {
		return nil, fmt.Errorf("storing artifact: %w", err)
	}

	used, limit, err := s.userRepo.ConsumeCredit(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("consuming credit: %w", err)
	}
	user.ImagesUsedTotal = used
	user.ImagesLimitTotal = limit

	var emailSent bool
	var emailMessage string
	if outfit.RecipientEmail != nil {
		status, msg := s.delivery.SendArtifact(ctx, *outfit.RecipientEmail, outfit, imageBytes)
		emailSent = status.Sent()
		emailMessage = msg
	}

	return &GenerateResult{
		RequestID:     outfit.ID,
		ImageFilename: filename,
		DownloadURL:   "/api/download/" + filename,
		EmailSent:     emailSent,
		EmailMessage:  emailMessage,
		Credits:       user.CreditsSnapshot(),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
