package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/storage"
)

var (
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidDateRange = errors.New("from date must not be after to date")
	ErrRangeTooLarge    = errors.New("date range too large")
)

// Store is the storage an export reads from.
type Store interface {
	ListJournalEntries(ctx context.Context, ownerUserID string, filter storage.JournalFilter, limit, offset int) ([]storage.JournalEntry, int, error)
	ListMeals(ctx context.Context, ownerUserID string) ([]storage.Meal, error)
}

// Service exports a user's journal.
type Service struct {
	storage      Store
	generator    *Generator
	maxRangeDays int
}

func NewService(storage Store, maxRangeDays int) *Service {
	return &Service{
		storage:      storage,
		generator:    NewGenerator(),
		maxRangeDays: maxRangeDays,
	}
}

func (s *Service) MaxRangeDays() int {
	return s.maxRangeDays
}

// Export renders the owner's journal between req.From and req.To.
func (s *Service) Export(ctx context.Context, ownerUserID string, req ExportRequest) (*Export, error) {
	if req.Format == "" {
		req.Format = FormatCSV
	}
	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	if days := int(to.Sub(from).Hours()/24) + 1; days > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}

	rows, err := s.loadRows(ctx, ownerUserID, req)
	if err != nil {
		return nil, err
	}

	data, err := s.generator.Generate(req, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	return &Export{
		Data:        data,
		ContentType: contentType(req.Format),
		Filename:    fmt.Sprintf("journal_%s_%s.%s", req.From, req.To, req.Format),
	}, nil
}

// loadRows returns entries ordered by date, meal position, then creation time.
func (s *Service) loadRows(ctx context.Context, ownerUserID string, req ExportRequest) ([]Row, error) {
	entries, _, err := s.storage.ListJournalEntries(ctx, ownerUserID, storage.JournalFilter{From: req.From, To: req.To}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch journal: %w", err)
	}

	meals, err := s.storage.ListMeals(ctx, ownerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meals: %w", err)
	}
	mealsByID := make(map[uuid.UUID]storage.Meal, len(meals))
	for _, m := range meals {
		mealsByID[m.ID] = m
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if pa, pb := mealsByID[a.MealID].Position, mealsByID[b.MealID].Position; pa != pb {
			return pa < pb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		n, err := nutrition.Calculate(e.Amount, e.Product.Unit, e.Product.Nutrition())
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		rows = append(rows, Row{
			Date:      e.Date,
			Meal:      mealsByID[e.MealID].Name,
			Product:   e.Product.Name,
			Barcode:   e.Product.Barcode,
			Amount:    e.Amount,
			Unit:      e.Product.Unit,
			Nutrients: n,
		})
	}
	return rows, nil
}
