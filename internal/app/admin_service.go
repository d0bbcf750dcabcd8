package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"binome_rotation_bot/internal/domain/section"
	idb "binome_rotation_bot/internal/infra/database"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrSectionRequired = fmt.Errorf("a section id is required")
var ErrInvalidSectionID = fmt.Errorf("section id must be a positive number")

// AdminService resolves the acting section of a command and guards the
// operations that replace a cycle.
type AdminService struct {
	sectionRepo     section.Repository
	adminTelegramID int64
}

func NewAdminService(sr section.Repository, adminID int64) *AdminService {
	return &AdminService{
		sectionRepo:     sr,
		adminTelegramID: adminID,
	}
}

// Authorize fails unless performingID is the configured admin.
func (s *AdminService) Authorize(performingID int64) error {
	if performingID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// ResolveSection parses a raw section id argument and loads the section.
func (s *AdminService) ResolveSection(ctx context.Context, raw string) (*section.Section, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSectionRequired
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidSectionID
	}

	sec, err := s.sectionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, idb.ErrSectionNotFound) {
			return nil, idb.ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to get section %d: %w", id, err)
	}
	return sec, nil
}

// ListSections returns every section.
func (s *AdminService) ListSections(ctx context.Context) ([]*section.Section, error) {
	sections, err := s.sectionRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}
