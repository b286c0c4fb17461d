package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	apperrors "github.com/nguyendm/salemarket-backend/pkg/errors"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
)

type itemFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
}

// Service owns cart line management for buyers.
type Service struct {
	repo  Repository
	items itemFinder
	logg  *logger.Logger
}

// NewService validates dependencies and builds the cart service.
func NewService(repo Repository, items itemFinder, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("cart repository is required")
	}
	if items == nil {
		return nil, errors.New("item finder is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{repo: repo, items: items, logg: logg}, nil
}

// List returns the user's cart lines with item snapshots preloaded.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing cart")
	}
	return lines, nil
}

// AddItem adds quantity of an item to the user's cart, merging with an
// existing line for the same item.
func (s *Service) AddItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "user id and item id are required")
	}
	if quantity <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "item not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading item")
	}
	if item.Stock < quantity {
		return apperrors.New(apperrors.CodeStateConflict, fmt.Sprintf("item %s has insufficient stock", itemID))
	}

	line := &models.CartItem{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: quantity,
	}
	if err := s.repo.Upsert(ctx, line); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "saving cart line")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"item_id": itemID.String(),
		"qty":     quantity,
	}), "cart line added")
	return nil
}

// UpdateQuantity sets the quantity of an existing line; zero removes it.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must not be negative")
	}
	line, err := s.repo.FindLine(ctx, userID, itemID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading cart line")
	}
	if line == nil {
		return apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}
	if quantity == 0 {
		if err := s.repo.Delete(ctx, line.ID); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "removing cart line")
		}
		return nil
	}
	if err := s.repo.UpdateQuantity(ctx, line.ID, quantity); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "updating cart line")
	}
	return nil
}

// RemoveItem deletes the line for the item from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	line, err := s.repo.FindLine(ctx, userID, itemID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading cart line")
	}
	if line == nil {
		return apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}
	if err := s.repo.Delete(ctx, line.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "removing cart line")
	}
	return nil
}
