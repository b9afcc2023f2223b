package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/models"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

type AdminService struct {
	store  store.Store
	tokens *utils.TokenIssuer
	log    *zap.Logger
}

func NewAdminService(s store.Store, tokens *utils.TokenIssuer, log *zap.Logger) *AdminService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{store: s, tokens: tokens, log: log}
}

type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     *models.Admin `json:"admin"`
}

func (s *AdminService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	admin, err := s.store.FindAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.IsActive || !admin.ValidatePassword(password) {
		return nil, ErrInvalidCredentials
	}
	token, exp, err := s.tokens.GenerateJWT(admin.ID, admin.Username)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin logged in", zap.String("admin_id", admin.ID))
	return &LoginResult{Token: token, ExpiresAt: exp, Admin: admin}, nil
}

// Authenticate resolves a bearer token to an active admin.
func (s *AdminService) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	id, err := s.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	admin, err := s.store.FindAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// EnsureAdmin creates the bootstrap account if it does not exist yet.
func (s *AdminService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" {
		return nil
	}
	if _, err := s.store.FindAdminByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	a := &models.Admin{Username: username, Password: password, Name: username, IsActive: true}
	if err := a.HashPassword(); err != nil {
		return err
	}
	if err := s.store.CreateAdmin(ctx, a); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return err
	}
	s.log.Info("admin account ensured", zap.String("username", username))
	return nil
}
