package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stockdesk/stockdesk/internal/shared"
)

// Backend is the subset of the remote API the catalog reads and writes.
type Backend interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error)
	PatchProduct(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Service exposes catalog snapshots and product maintenance.
type Service struct {
	backend   Backend
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService constructs a catalog service.
func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, validator: NewValidator(), logger: logger}
}

// NewValidator returns a validator that understands decimal amounts.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Snapshot fetches the current catalog.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	products, err := s.backend.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(products), nil
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.backend.GetProduct(ctx, id)
}

// Create validates and creates a product.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	if err := s.validate(input); err != nil {
		return Product{}, err
	}
	product, err := s.backend.CreateProduct(ctx, input)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", slog.Int64("product_id", product.ID), slog.String("name", product.Name))
	return product, nil
}

// Update replaces a product.
func (s *Service) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	if err := s.validate(input); err != nil {
		return Product{}, err
	}
	product, err := s.backend.UpdateProduct(ctx, id, input)
	if err != nil {
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return product, nil
}

// Patch applies a partial update.
func (s *Service) Patch(ctx context.Context, id int64, patch ProductPatch) (Product, error) {
	if err := s.validate(patch); err != nil {
		return Product{}, err
	}
	product, err := s.backend.PatchProduct(ctx, id, patch)
	if err != nil {
		return Product{}, fmt.Errorf("patch product %d: %w", id, err)
	}
	return product, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	s.logger.Info("product deleted", slog.Int64("product_id", id))
	return nil
}

func (s *Service) validate(input interface{}) error {
	err := s.validator.Struct(input)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fieldErr := range verrs {
		fields[fieldErr.Field()] = fieldErr.Tag()
	}
	return &shared.ValidationError{Code: shared.CodeInvalidProduct, Fields: fields}
}
