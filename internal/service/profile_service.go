package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jafarshop/cartsync/internal/domain"
	"github.com/jafarshop/cartsync/pkg/errors"
)

// Profile fields the user may edit
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldAddress   = "address"
)

var editableFields = map[string]bool{
	FieldFirstName: true,
	FieldLastName:  true,
	FieldAddress:   true,
}

// ProfileAPI is the part of the backend that serves the signed-in user
type ProfileAPI interface {
	GetProfile(ctx context.Context) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, fields map[string]string) (*domain.Profile, error)
}

// ProfileService reads and edits the signed-in user's profile
type ProfileService struct {
	api    ProfileAPI
	logger *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(api ProfileAPI, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		api:    api,
		logger: logger,
	}
}

// Me returns the signed-in user
func (s *ProfileService) Me(ctx context.Context) (*domain.Profile, error) {
	return s.api.GetProfile(ctx)
}

// UpdateField sets one editable field and returns the stored profile
func (s *ProfileService) UpdateField(ctx context.Context, field, value string) (*domain.Profile, error) {
	if !editableFields[field] {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("field %q cannot be edited", field)}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("%s cannot be blank", field)}
	}

	profile, err := s.api.UpdateProfile(ctx, map[string]string{field: value})
	if err != nil {
		s.logger.Warn("Failed to update profile", zap.String("field", field), zap.Error(err))
		return nil, err
	}
	return profile, nil
}
