package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedFormat rejects an export or import format that is neither
// csv nor json.
var ErrUnsupportedFormat = errors.New("unsupported format")

// exportColumns is the fixed CSV column order for user exports. Imports
// accept the same header.
var exportColumns = []string{"nom", "email", "role", "images_used_total", "images_limit_total", "is_active"}

// UserUpdate carries a partial user update. Nil fields are left untouched.
type UserUpdate struct {
	Nom              *string
	Email            *string
	Password         *string
	Role             *string
	ImagesUsedTotal  *int
	ImagesLimitTotal *int
	IsActive         *bool
}

// ImportResult reports a bulk user import. Row failures are collected
// instead of aborting the batch.
type ImportResult struct {
	ImportedCount int      `json:"imported_count"`
	ImportedUsers []string `json:"imported_users"`
	Errors        []string `json:"errors"`
}

// UserCreate carries an admin-provisioned account. Zero-value fields fall
// back to the same defaults as a bulk import row.
type UserCreate struct {
	Nom              string
	Email            string
	Password         string
	Role             string
	ImagesUsedTotal  int
	ImagesLimitTotal int
	IsActive         *bool
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, in UserCreate) (*model.User, error)
	UpdateUser(ctx context.Context, idOrEmail string, upd UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, idOrEmail string) error
	ExportUsers(ctx context.Context, format string) ([]byte, string, error)
	ImportUsers(ctx context.Context, format string, data io.Reader) (*ImportResult, error)

	ListRequests(ctx context.Context, limit int) ([]model.OutfitRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.RequestStats, error)

	ListQueuedEmails(ctx context.Context) ([]model.EmailQueueEntry, error)
	ResolveQueuedEmail(ctx context.Context, id string) error
}

type adminService struct {
	userRepo   repository.UserRepository
	outfitRepo repository.OutfitRequestRepository
	queueRepo  repository.EmailQueueRepository
	store      storage.ArtifactStore
	logger     zerolog.Logger
}

func NewAdminService(
	userRepo repository.UserRepository,
	outfitRepo repository.OutfitRequestRepository,
	queueRepo repository.EmailQueueRepository,
	store storage.ArtifactStore,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		userRepo:   userRepo,
		outfitRepo: outfitRepo,
		queueRepo:  queueRepo,
		store:      store,
		logger:     logger.With().Str("service", "AdminService").Logger(),
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.ListUsers(ctx)
}

// findUser resolves an admin-supplied identifier, trying the primary key
// first and falling back to the email address.
func (s *adminService) findUser(ctx context.Context, idOrEmail string) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, idOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.userRepo.GetUserByEmail(ctx, idOrEmail)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *adminService) UpdateUser(ctx context.Context, idOrEmail string, upd UserUpdate) (*model.User, error) {
	user, err := s.findUser(ctx, idOrEmail)
	if err != nil {
		return nil, err
	}

	if upd.Nom != nil {
		user.Nom = *upd.Nom
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if upd.Role != nil {
		user.Role = *upd.Role
	}
	if upd.ImagesUsedTotal != nil {
		user.ImagesUsedTotal = *upd.ImagesUsedTotal
	}
	if upd.ImagesLimitTotal != nil {
		user.ImagesLimitTotal = *upd.ImagesLimitTotal
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, idOrEmail string) error {
	user, err := s.findUser(ctx, idOrEmail)
	if err != nil {
		return err
	}
	return s.userRepo.DeleteUser(ctx, user.ID)
}

func (s *adminService) ExportUsers(ctx context.Context, format string) ([]byte, string, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, "", err
	}

	switch strings.ToLower(format) {
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(exportColumns); err != nil {
			return nil, "", err
		}
		for _, u := range users {
			row := []string{
				u.Nom,
				u.Email,
				u.Role,
				strconv.Itoa(u.ImagesUsedTotal),
				strconv.Itoa(u.ImagesLimitTotal),
				strconv.FormatBool(u.IsActive),
			}
			if err := w.Write(row); err != nil {
				return nil, "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	case "json":
		data, err := json.MarshalIndent(users, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	default:
		return nil, "", ErrUnsupportedFormat
	}
}

// importedRow is one user row from an import file, in either format.
type importedRow struct {
	Nom              string `json:"nom"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	Role             string `json:"role"`
	ImagesUsedTotal  int    `json:"images_used_total"`
	ImagesLimitTotal int    `json:"images_limit_total"`
	IsActive         *bool  `json:"is_active"`
}

func (s *adminService) ImportUsers(ctx context.Context, format string, data io.Reader) (*ImportResult, error) {
	var rows []importedRow
	var rowErrs []string

	switch strings.ToLower(format) {
	case "csv":
		parsed, errs, err := parseUsersCSV(data)
		if err != nil {
			return nil, err
		}
		rows, rowErrs = parsed, errs
	case "json":
		if err := json.NewDecoder(data).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	result := &ImportResult{
		ImportedUsers: []string{},
		Errors:        rowErrs,
	}
	for i, row := range rows {
		if _, err := s.importRow(ctx, row); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("ligne %d (%s): %v", i+1, row.Email, err))
			continue
		}
		result.ImportedCount++
		result.ImportedUsers = append(result.ImportedUsers, row.Email)
	}
	return result, nil
}

// CreateUser provisions a single account through the same path as a bulk
// import row.
func (s *adminService) CreateUser(ctx context.Context, in UserCreate) (*model.User, error) {
	return s.importRow(ctx, importedRow{
		Nom:              in.Nom,
		Email:            in.Email,
		Password:         in.Password,
		Role:             in.Role,
		ImagesUsedTotal:  in.ImagesUsedTotal,
		ImagesLimitTotal: in.ImagesLimitTotal,
		IsActive:         in.IsActive,
	})
}

func (s *adminService) importRow(ctx context.Context, row importedRow) (*model.User, error) {
	if row.Email == "" {
		return nil, errors.New("email manquant")
	}

	password := row.Password
	if password == "" {
		password = uuid.NewString()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	role := row.Role
	if role == "" {
		role = model.RoleClient
	}
	active := true
	if row.IsActive != nil {
		active = *row.IsActive
	}

	user := &model.User{
		ID:               uuid.NewString(),
		Nom:              row.Nom,
		Email:            row.Email,
		PasswordHash:     string(hash),
		Role:             role,
		ImagesUsedTotal:  row.ImagesUsedTotal,
		ImagesLimitTotal: row.ImagesLimitTotal,
		IsActive:         active,
		IsVerified:       true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, fmt.Errorf("email déjà utilisé: %w", err)
		}
		return nil, err
	}
	return user, nil
}

func parseUsersCSV(data io.Reader) ([]importedRow, []string, error) {
	r := csv.NewReader(data)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["email"]; !ok {
		return nil, nil, errors.New("csv header missing email column")
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []importedRow
	var rowErrs []string
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("ligne %d: %v", line, err))
			continue
		}

		row := importedRow{
			Nom:      field(record, "nom"),
			Email:    field(record, "email"),
			Password: field(record, "password"),
			Role:     field(record, "role"),
		}
		if v := field(record, "images_used_total"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				rowErrs = append(rowErrs, fmt.Sprintf("ligne %d: images_used_total invalide", line))
				continue
			}
			row.ImagesUsedTotal = n
		}
		if v := field(record, "images_limit_total"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				rowErrs = append(rowErrs, fmt.Sprintf("ligne %d: images_limit_total invalide", line))
				continue
			}
			row.ImagesLimitTotal = n
		}
		if v := field(record, "is_active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				rowErrs = append(rowErrs, fmt.Sprintf("ligne %d: is_active invalide", line))
				continue
			}
			row.IsActive = &b
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func (s *adminService) ListRequests(ctx context.Context, limit int) ([]model.OutfitRequest, error) {
	return s.outfitRepo.List(ctx, limit)
}

func (s *adminService) DeleteRequest(ctx context.Context, id string) error {
	req, err := s.outfitRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if err := s.outfitRepo.Delete(ctx, id); err != nil {
		return err
	}
	// The artifact is removed best-effort. A stale object is preferable to
	// a request row resurrected by a failed rollback.
	if err := s.store.Delete(ctx, model.ArtifactFilename(id)); err != nil && !errors.Is(err, storage.ErrArtifactNotFound) {
		s.logger.Warn().Err(err).Str("request_id", id).Msg("Failed to delete generated artifact")
	}
	return nil
}

func (s *adminService) Stats(ctx context.Context) (*model.RequestStats, error) {
	stats, err := s.outfitRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count stored artifacts")
		count = 0
	}
	stats.GeneratedImagesCount = count
	return stats, nil
}

func (s *adminService) ListQueuedEmails(ctx context.Context) ([]model.EmailQueueEntry, error) {
	return s.queueRepo.ListPending(ctx)
}

func (s *adminService) ResolveQueuedEmail(ctx context.Context, id string) error {
	return s.queueRepo.MarkResolved(ctx, id)
}
