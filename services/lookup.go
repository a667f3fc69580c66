package services

import (
	"context"
	"errors"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
)

func findUser(ctx context.Context, store repositories.Store, id uint) (*models.SiteUser, error) {
	u, err := store.Users().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func findMatching(ctx context.Context, store repositories.Store, id uint) (*models.Matching, error) {
	m, err := store.Matchings().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrMatchingNotFound
	}
	return m, err
}

func findApply(ctx context.Context, store repositories.Store, id uint) (*models.Apply, error) {
	a, err := store.Applies().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrApplyNotFound
	}
	return a, err
}

// findOwnedMatching resolves both records and checks ownership by user id.
func findOwnedMatching(ctx context.Context, store repositories.Store, organizerID, matchingID uint) (*models.Matching, error) {
	organizer, err := findUser(ctx, store, organizerID)
	if err != nil {
		return nil, err
	}
	m, err := findMatching(ctx, store, matchingID)
	if err != nil {
		return nil, err
	}
	if !m.IsOrganizedBy(organizer.ID) {
		return nil, ErrNoPermission
	}
	return m, nil
}
