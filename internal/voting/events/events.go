// Package events fans admitted votes out to downstream sinks.
package events

import (
	"context"
	"errors"
	"fmt"

	"votacao/internal/voting/models"
)

// Publisher is notified once per admitted vote.
type Publisher interface {
	PublishVote(ctx context.Context, vote *models.Vote) error
}

// Multi calls every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishVote(ctx context.Context, vote *models.Vote) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.PublishVote(ctx, vote); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
