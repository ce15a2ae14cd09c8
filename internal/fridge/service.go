package fridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fdg312/fridge-journal/internal/storage"
)

var (
	ErrNotFound        = errors.New("fridge item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrAlreadyInFridge = errors.New("product already in fridge")
	ErrValidation      = errors.New("validation failed")
)

// Store is the storage the fridge service needs.
type Store interface {
	storage.FridgeStorage
	GetProductByBarcode(ctx context.Context, barcode string) (*storage.Product, error)
}

type Service struct {
	storage Store
}

func NewService(storage Store) *Service {
	return &Service{storage: storage}
}

func (s *Service) List(ctx context.Context, ownerUserID string, filter storage.FridgeFilter, limit, offset int) ([]ItemDTO, int, error) {
	items, total, err := s.storage.ListFridgeItems(ctx, ownerUserID, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list fridge items: %w", err)
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = ToDTO(item)
	}
	return dtos, total, nil
}

func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*ItemDTO, error) {
	item, err := s.storage.GetFridgeItem(ctx, ownerUserID, id)
	if err != nil {
		return nil, mapStorageError(err)
	}
	dto := ToDTO(*item)
	return &dto, nil
}

func (s *Service) Create(ctx context.Context, ownerUserID string, req CreateItemRequest) (*ItemDTO, error) {
	barcode := strings.TrimSpace(req.ProductBarcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: product_barcode is required", ErrValidation)
	}
	if err := validateAmount("current_amount", req.CurrentAmount); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err := validateAmount("threshold", req.Threshold); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	product, err := s.storage.GetProductByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	current, err := toProductUnit(req.CurrentAmount, req.Unit, *product)
	if err != nil {
		return nil, err
	}
	threshold, err := toProductUnit(req.Threshold, req.Unit, *product)
	if err != nil {
		return nil, err
	}

	item := &storage.FridgeItem{
		OwnerUserID:      ownerUserID,
		ProductID:        product.ID,
		CurrentAmount:    current,
		Threshold:        threshold,
		IsOnShoppingList: req.IsOnShoppingList,
	}
	if err := s.storage.CreateFridgeItem(ctx, item); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrAlreadyInFridge
		}
		return nil, mapStorageError(err)
	}

	item.Product = *product
	dto := ToDTO(*item)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, ownerUserID string, id uuid.UUID, req UpdateItemRequest) (*ItemDTO, error) {
	item, err := s.storage.GetFridgeItem(ctx, ownerUserID, id)
	if err != nil {
		return nil, mapStorageError(err)
	}

	unit := ""
	if req.Unit != nil {
		if req.CurrentAmount == nil && req.Threshold == nil {
			return nil, fmt.Errorf("%w: unit requires current_amount or threshold", ErrValidation)
		}
		unit = *req.Unit
	}

	if req.CurrentAmount != nil {
		if err := validateAmount("current_amount", *req.CurrentAmount); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		if item.CurrentAmount, err = toProductUnit(*req.CurrentAmount, unit, item.Product); err != nil {
			return nil, err
		}
	}
	if req.Threshold != nil {
		if err := validateAmount("threshold", *req.Threshold); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
		}
		if item.Threshold, err = toProductUnit(*req.Threshold, unit, item.Product); err != nil {
			return nil, err
		}
	}
	if req.IsOnShoppingList != nil {
		item.IsOnShoppingList = *req.IsOnShoppingList
	}

	if err := s.storage.UpdateFridgeItem(ctx, item); err != nil {
		return nil, mapStorageError(err)
	}

	dto := ToDTO(*item)
	return &dto, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return mapStorageError(s.storage.DeleteFridgeItem(ctx, ownerUserID, id))
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
