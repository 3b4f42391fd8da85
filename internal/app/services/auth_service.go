package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kofiboateng/cschool/internal/app/models/dto"
	"github.com/kofiboateng/cschool/internal/app/repositories"
	"github.com/kofiboateng/cschool/internal/pkg/apperrors"
	"github.com/kofiboateng/cschool/internal/pkg/auth"
)

// AuthService handles staff authentication
type AuthService interface {
	// Login verifies staff credentials and issues a JWT access token.
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authServiceImpl struct {
	adminRepo  repositories.AdminRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new auth service instance
func NewAuthService(adminRepo repositories.AdminRepository, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		adminRepo:  adminRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperrors.ErrAdminNotFound) {
			// Same answer as a wrong password; usernames are not probeable.
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckSecret(admin.Password, req.Password) {
		s.logger.Warn().Str("username", req.Username).Msg("Failed staff login")
		return nil, apperrors.ErrInvalidCredentials
	}

	if !admin.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, expiresIn, err := s.jwtService.GenerateToken(admin)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID); err != nil {
		s.logger.Error().Err(err).Int64("adminId", admin.ID).Msg("Failed to stamp last login")
	}

	s.logger.Info().Str("username", admin.Username).Msg("Staff login")

	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		Role:        string(admin.Role),
	}, nil
}
