package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher announces placed orders to other services.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o Order, cartID uuid.UUID, userID int64) error
}

// Service adds event publication on top of the Repository. Every other
// operation goes straight to the repository.
type Service struct {
	Repository
	publisher Publisher
	logger    logrus.FieldLogger
}

func NewService(repo Repository, publisher Publisher, logger logrus.FieldLogger) *Service {
	return &Service{Repository: repo, publisher: publisher, logger: logger}
}

// Place commits the order and then publishes OrderCreated. A publish failure
// is logged; the order stands.
func (s *Service) Place(ctx context.Context, cartID uuid.UUID, userID int64) (Order, error) {
	o, err := s.Repository.Place(ctx, cartID, userID)
	if err != nil {
		return Order{}, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"cart_id":  cartID,
		"user_id":  userID,
		"items":    len(o.Items),
	})
	log.Info("order placed")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderCreated(ctx, o, cartID, userID); err != nil {
			log.WithError(err).Warn("publish OrderCreated failed")
		}
	}
	return o, nil
}
