package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/shared"
)

// Backend is the subset of the remote API used to compose and submit invoices.
type Backend interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListAccounts(ctx context.Context, kind Kind) ([]Account, error)
	ListInvoices(ctx context.Context, kind Kind) ([]Invoice, error)
	CreateInvoice(ctx context.Context, payload SubmissionPayload) (Invoice, error)
}

// ReportInvalidator drops cached report figures after an invoice lands.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Recorder receives engine outcomes for metrics.
type Recorder interface {
	StockViolation(kind string)
	Submission(kind, outcome string)
}

// ServiceConfig carries optional collaborators.
type ServiceConfig struct {
	Logger      *slog.Logger
	Guard       *shared.IdempotencyStore
	Invalidator ReportInvalidator
	Recorder    Recorder
	Clock       func() time.Time
}

// Service runs draft sessions on top of the composition engine.
type Service struct {
	backend     Backend
	store       Store
	guard       *shared.IdempotencyStore
	invalidator ReportInvalidator
	recorder    Recorder
	logger      *slog.Logger
	clock       func() time.Time
	locks       keyedMutex
}

// NewService constructs an invoicing service.
func NewService(backend Backend, store Store, cfg ServiceConfig) *Service {
	svc := &Service{
		backend:     backend,
		store:       store,
		guard:       cfg.Guard,
		invalidator: cfg.Invalidator,
		recorder:    cfg.Recorder,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.guard == nil {
		svc.guard = shared.NewIdempotencyStore(nil, time.Minute)
	}
	return svc
}

// Open starts a new draft session, fetching products and accounts in parallel.
func (s *Service) Open(ctx context.Context, kind Kind) (*Session, error) {
	var (
		products []catalog.Product
		accounts []Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.backend.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.backend.ListAccounts(gctx, kind)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("open invoice draft", slog.String("kind", string(kind)), slog.Any("error", err))
		return nil, err
	}

	now := s.clock()
	composer := NewComposer(kind, catalog.NewSnapshot(products), now)
	sess := &Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		Draft:     composer.Draft(),
		Products:  products,
		Accounts:  accounts,
		OpenedAt:  now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save draft session: %w", err)
	}
	return sess, nil
}

// Get loads a draft session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Load(ctx, id)
}

// Discard drops a draft session without submitting it.
func (s *Service) Discard(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.store.Delete(ctx, id)
}

// AddItem appends a default row.
func (s *Service) AddItem(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(c *Composer) error {
		c.AddLineItem()
		return nil
	})
}

// RemoveItem drops the row at index.
func (s *Service) RemoveItem(ctx context.Context, id string, index int) (*Session, error) {
	return s.mutate(ctx, id, func(c *Composer) error {
		_, err := c.RemoveLineItem(index)
		return err
	})
}

// SetItemField edits one row field. A *StockViolation is returned together
// with the session holding the reverted draft.
func (s *Service) SetItemField(ctx context.Context, id string, index int, field Field, value string) (*Session, error) {
	sess, err := s.mutate(ctx, id, func(c *Composer) error {
		_, err := c.SetLineItemField(index, field, value)
		return err
	})
	var violation *StockViolation
	if errors.As(err, &violation) {
		s.logger.Warn("stock violation",
			slog.String("draft_id", id),
			slog.Int64("product_id", violation.ProductID),
			slog.String("requested", violation.Requested.String()),
			slog.String("available", violation.Available.String()))
		if s.recorder != nil {
			s.recorder.StockViolation(string(sess.Kind))
		}
	}
	return sess, err
}

// HeaderUpdate changes draft header fields; nil fields are left alone.
type HeaderUpdate struct {
	Date      *string `json:"date,omitempty"`
	AccountID *int64  `json:"account_id,omitempty"`
	Discount  *string `json:"discount,omitempty"`
}

// UpdateHeader applies header edits.
func (s *Service) UpdateHeader(ctx context.Context, id string, update HeaderUpdate) (*Session, error) {
	return s.mutate(ctx, id, func(c *Composer) error {
		if update.AccountID != nil {
			c.SetAccount(*update.AccountID)
		}
		if update.Discount != nil {
			c.SetDiscount(*update.Discount)
		}
		if update.Date != nil {
			return c.SetDate(*update.Date)
		}
		return nil
	})
}

// Submit builds the payload and posts it to the backend. Validation and
// submission failures keep the draft so the user can correct and retry; a
// successful submit removes the session.
func (s *Service) Submit(ctx context.Context, id string) (Invoice, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	payload, err := sess.Composer().BuildPayload(sess.Accounts)
	if err != nil {
		s.record(sess.Kind, "invalid")
		return Invoice{}, err
	}

	key := shared.DraftSubmitKey(id)
	if err := s.guard.Acquire(ctx, key); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return Invoice{}, ErrAlreadySubmitted
		}
		return Invoice{}, err
	}

	invoice, err := s.backend.CreateInvoice(ctx, payload)
	if err != nil {
		if releaseErr := s.guard.Release(ctx, key); releaseErr != nil {
			s.logger.Warn("release submit guard", slog.String("draft_id", id), slog.Any("error", releaseErr))
		}
		s.logger.Error("submit invoice", slog.String("draft_id", id), slog.String("kind", string(sess.Kind)), slog.Any("error", err))
		s.record(sess.Kind, "rejected")
		return Invoice{}, err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Warn("delete submitted draft", slog.String("draft_id", id), slog.Any("error", err))
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("invalidate report cache", slog.Any("error", err))
		}
	}
	s.record(sess.Kind, "created")
	s.logger.Info("invoice submitted",
		slog.String("draft_id", id),
		slog.String("kind", string(sess.Kind)),
		slog.Int64("invoice_id", invoice.ID),
		slog.Float64("total_amount", payload.TotalAmount))
	return invoice, nil
}

// List returns stored invoices of kind.
func (s *Service) List(ctx context.Context, kind Kind) ([]Invoice, error) {
	return s.backend.ListInvoices(ctx, kind)
}

// ListAll fetches sale and purchase invoices concurrently.
func (s *Service) ListAll(ctx context.Context) (sales, purchases []Invoice, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.backend.ListInvoices(gctx, KindSale)
		return err
	})
	g.Go(func() error {
		var err error
		purchases, err = s.backend.ListInvoices(gctx, KindPurchase)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sales, purchases, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Composer) error) (*Session, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	composer := sess.Composer()
	editErr := fn(composer)
	sess.Draft = composer.Draft()
	sess.UpdatedAt = s.clock()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save draft session: %w", err)
	}
	return sess, editErr
}

func (s *Service) record(kind Kind, outcome string) {
	if s.recorder != nil {
		s.recorder.Submission(string(kind), outcome)
	}
}

// keyedMutex serialises edits per draft id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock acquires the mutex for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
