package products

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/fdg312/fridge-journal/internal/blob"
	"github.com/fdg312/fridge-journal/internal/nutrition"
	"github.com/fdg312/fridge-journal/internal/storage"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrBarcodeTaken    = errors.New("barcode taken")
	ErrValidation      = errors.New("validation failed")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedMime = errors.New("unsupported mime type")
	ErrNoPicture       = errors.New("product has no picture")
)

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/heic": ".heic",
	"image/webp": ".webp",
}

// Service manages the shared product catalogue.
type Service struct {
	storage      storage.ProductsStorage
	blobStore    blob.Store
	maxUploadMB  int
	allowedMimes []string
}

func NewService(storage storage.ProductsStorage, blobStore blob.Store, maxUploadMB int, allowedMimes string) *Service {
	var mimes []string
	for _, m := range strings.Split(allowedMimes, ",") {
		if m = strings.TrimSpace(m); m != "" {
			mimes = append(mimes, m)
		}
	}

	return &Service{
		storage:      storage,
		blobStore:    blobStore,
		maxUploadMB:  maxUploadMB,
		allowedMimes: mimes,
	}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]ProductDTO, int, error) {
	products, total, err := s.storage.ListProducts(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = ToDTO(p)
	}
	return dtos, total, nil
}

// Lookup returns the stored product for barcode.
func (s *Service) Lookup(ctx context.Context, barcode string) (*storage.Product, error) {
	p, err := s.storage.GetProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, barcode string) (*ProductDTO, error) {
	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*p)
	return &dto, nil
}

func (s *Service) Create(ctx context.Context, addedBy string, req ProductRequest) (*ProductDTO, error) {
	p := &storage.Product{AddedBy: addedBy}
	if err := req.apply(p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if err := s.storage.CreateProduct(ctx, p); err != nil {
		return nil, mapStorageError(err)
	}

	dto := ToDTO(*p)
	return &dto, nil
}

// Replace handles PUT. An empty body barcode keeps the current one.
func (s *Service) Replace(ctx context.Context, barcode string, req ProductRequest) (*ProductDTO, error) {
	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Barcode) == "" {
		req.Barcode = p.Barcode
	}
	if err := req.apply(p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	return s.save(ctx, p)
}

func (s *Service) Patch(ctx context.Context, barcode string, req PatchProductRequest) (*ProductDTO, error) {
	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if err := req.apply(p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	return s.save(ctx, p)
}

func (s *Service) save(ctx context.Context, p *storage.Product) (*ProductDTO, error) {
	if err := s.storage.UpdateProduct(ctx, p); err != nil {
		return nil, mapStorageError(err)
	}
	dto := ToDTO(*p)
	return &dto, nil
}

// Delete removes the product, its fridge items and journal entries, then its picture.
func (s *Service) Delete(ctx context.Context, barcode string) error {
	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteProduct(ctx, p.ID); err != nil {
		return mapStorageError(err)
	}

	if p.ObjectKey != "" {
		_ = s.blobStore.DeleteObject(ctx, p.ObjectKey)
	}
	return nil
}

// Nutrients computes the nutrients in amount of unit of the product.
func (s *Service) Nutrients(ctx context.Context, barcode string, amount float64, unit nutrition.Unit) (*NutrientsResponse, error) {
	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	n, err := nutrition.Calculate(amount, unit, p.Nutrition())
	if err != nil {
		return nil, err
	}

	return &NutrientsResponse{
		Barcode:   p.Barcode,
		Amount:    amount,
		Unit:      unit,
		Nutrients: n,
		Kcal:      n.Kcal(),
	}, nil
}

// UploadPicture stores data as the product picture and replaces the previous one.
func (s *Service) UploadPicture(ctx context.Context, barcode string, data []byte, contentType string) (*ProductDTO, error) {
	if int64(len(data)) > s.MaxUploadBytes() {
		return nil, ErrFileTooLarge
	}
	if !s.isAllowedMime(contentType) {
		return nil, ErrUnsupportedMime
	}

	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("products/%s/%s%s", p.ID, uuid.NewString(), mimeExtensions[contentType])
	if err := s.blobStore.PutObject(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("store picture: %w", err)
	}

	oldKey := p.ObjectKey
	p.ObjectKey = key
	p.Picture = s.pictureURL(ctx, p)

	dto, err := s.save(ctx, p)
	if err != nil {
		_ = s.blobStore.DeleteObject(ctx, key)
		return nil, err
	}

	if oldKey != "" {
		_ = s.blobStore.DeleteObject(ctx, oldKey)
	}
	return dto, nil
}

// Picture returns either a URL to redirect to or the picture bytes.
func (s *Service) Picture(ctx context.Context, barcode string) (string, *blob.Object, error) {
	p, err := s.Lookup(ctx, barcode)
	if err != nil {
		return "", nil, err
	}

	if p.ObjectKey == "" {
		if isAbsoluteURL(p.Picture) {
			return p.Picture, nil, nil
		}
		return "", nil, ErrNoPicture
	}

	link, err := s.blobStore.URL(ctx, p.ObjectKey)
	if err == nil {
		return link, nil, nil
	}
	if !errors.Is(err, blob.ErrNoURL) {
		return "", nil, err
	}

	obj, err := s.blobStore.GetObject(ctx, p.ObjectKey)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return "", nil, ErrNoPicture
		}
		return "", nil, err
	}
	return "", obj, nil
}

func (s *Service) MaxUploadBytes() int64 {
	return int64(s.maxUploadMB) << 20
}

// pictureURL is the link stored on the product: the blob URL when the store
// has one, the API picture endpoint otherwise.
func (s *Service) pictureURL(ctx context.Context, p *storage.Product) string {
	if link, err := s.blobStore.URL(ctx, p.ObjectKey); err == nil {
		return link
	}
	return path.Join("/v1/products", url.PathEscape(p.Barcode), "picture")
}

func (s *Service) isAllowedMime(contentType string) bool {
	for _, m := range s.allowedMimes {
		if m == contentType {
			return true
		}
	}
	return false
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrBarcodeTaken
	default:
		return err
	}
}
