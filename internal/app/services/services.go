// Package services contains the business logic between the HTTP controllers
// and the repositories.
package services

import (
	"github.com/rs/zerolog"

	"github.com/kofiboateng/cschool/internal/app/repositories"
	"github.com/kofiboateng/cschool/internal/pkg/auth"
	"github.com/kofiboateng/cschool/internal/pkg/reservation"
)

// Container holds all services for dependency injection.
type Container struct {
	Voucher   VoucherService
	Admission AdmissionService
	Auth      AuthService
}

// Options carries the domain settings services need beyond their repositories.
type Options struct {
	Clock        reservation.Clock
	OrgCode      string
	NumberLength int
	PINLength    int
}

// NewContainer wires the service layer.
func NewContainer(repos *repositories.Container, jwtService *auth.JWTService, opts Options, logger zerolog.Logger) *Container {
	return &Container{
		Voucher: NewVoucherService(
			repos.Voucher, repos.Attempt, repos.Audit, repos.Academic,
			opts.Clock, opts.NumberLength, opts.PINLength,
			logger.With().Str("service", "voucher").Logger(),
		),
		Admission: NewAdmissionService(
			repos.Admission, repos.Academic, repos.Audit,
			opts.Clock, opts.OrgCode,
			logger.With().Str("service", "admission").Logger(),
		),
		Auth: NewAuthService(
			repos.Admin, jwtService,
			logger.With().Str("service", "auth").Logger(),
		),
	}
}
