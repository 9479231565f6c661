package service

import (
	"context"
	"strings"

	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/validation"
)

// GroupService manages groups. Only administrators create groups.
type GroupService struct {
	groupRepo repository.GroupRepository
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// Create validates form and inserts the group.
func (s *GroupService) Create(ctx context.Context, form GroupForm) (*models.Group, error) {
	form.Slug = strings.TrimSpace(form.Slug)
	if err := validation.Struct(&form); err != nil {
		return nil, err
	}
	group := &models.Group{
		Title:       strings.TrimSpace(form.Title),
		Slug:        form.Slug,
		Description: form.Description,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}
