package services

import (
	"context"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
)

// DeletePolicy runs inside the delete transaction when a matching that is not
// flagged WEATHER_ISSUE still has confirmed participants. It may penalize the
// organizer or de-confirm applicants through tx. An error aborts the delete.
type DeletePolicy interface {
	OnDelete(ctx context.Context, tx repositories.Store, m *models.Matching, confirmed []models.Apply) error
}

type DeletePolicyFunc func(ctx context.Context, tx repositories.Store, m *models.Matching, confirmed []models.Apply) error

func (f DeletePolicyFunc) OnDelete(ctx context.Context, tx repositories.Store, m *models.Matching, confirmed []models.Apply) error {
	return f(ctx, tx, m, confirmed)
}

// NoPenalty is the default policy.
type NoPenalty struct{}

func (NoPenalty) OnDelete(context.Context, repositories.Store, *models.Matching, []models.Apply) error {
	return nil
}
