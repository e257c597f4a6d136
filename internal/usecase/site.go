//go:generate go run go.uber.org/mock/mockgen -source=site.go -destination=../mocks/mock_site_directory.go -package=mocks

// Package usecase orchestrates site creation and lookup against the site
// directory. Validation failures are aggregated so the caller sees every
// invalid field in one response; store failures are logged in full and
// mapped to a generic internal error.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sitewise/chatrelay/internal/errs"
	"github.com/sitewise/chatrelay/internal/models"
)

// SiteDirectory is the durable key-value store of site metadata.
type SiteDirectory interface {
	CreateSite(ctx context.Context, site models.Site) (models.Site, error)
	GetSiteByID(ctx context.Context, siteID string) (models.Site, error)
}

// CreateSiteInput carries the caller-supplied fields for a new site.
type CreateSiteInput struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone" validate:"required"`
}

// Sites implements the site use case layer.
type Sites struct {
	directory SiteDirectory
	validate  *validator.Validate
	log       *slog.Logger
}

func NewSites(directory SiteDirectory, log *slog.Logger) *Sites {
	if log == nil {
		log = slog.Default()
	}
	return &Sites{
		directory: directory,
		validate:  validator.New(),
		log:       log,
	}
}

// Create validates the input, generates the site id, and persists the
// record. On validation failure it returns a *errs.ValidationError carrying
// every issue; on store failure it returns errs.ErrInternal.
func (s *Sites) Create(ctx context.Context, input CreateSiteInput) (models.Site, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Timezone = strings.TrimSpace(input.Timezone)

	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			s.log.Error("unexpected validator failure", "err", err)
			return models.Site{}, errs.ErrInternal
		}
		return models.Site{}, &errs.ValidationError{
			Issues: lo.Map(fieldErrs, func(fe validator.FieldError, _ int) errs.ValidationIssue {
				return issueFor(fe)
			}),
		}
	}

	site := models.Site{
		SiteID:   uuid.NewString(),
		Name:     input.Name,
		Timezone: input.Timezone,
	}
	created, err := s.directory.CreateSite(ctx, site)
	if err != nil {
		var storeErr *errs.StoreError
		if errors.As(err, &storeErr) {
			s.log.Error("site directory failure during create",
				"site_id", storeErr.EntityID, "op", storeErr.Op, "err", storeErr.Unwrap())
		} else {
			s.log.Error("unexpected error during site create", "err", err)
		}
		return models.Site{}, errs.ErrInternal
	}
	return created, nil
}

// Get fetches a site by id, passing through errs.ErrSiteNotFound.
func (s *Sites) Get(ctx context.Context, siteID string) (models.Site, error) {
	site, err := s.directory.GetSiteByID(ctx, siteID)
	if err != nil {
		if errors.Is(err, errs.ErrSiteNotFound) {
			return models.Site{}, err
		}
		s.log.Error("site fetch failed", "site_id", siteID, "err", err)
		return models.Site{}, errs.ErrInternal
	}
	return site, nil
}

func issueFor(fe validator.FieldError) errs.ValidationIssue {
	field := strings.ToLower(fe.Field())
	if fe.Tag() == "required" {
		return errs.RequiredIssue(field)
	}
	return errs.ValidationIssue{
		Field:   field,
		Code:    fe.Tag(),
		Message: field + " is invalid",
	}
}
