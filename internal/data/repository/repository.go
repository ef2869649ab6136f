package repository

import (
	"context"
	"fmt"

	"tourlink/pkg/database"

	"go.uber.org/zap"
)

// TxRunner runs fn against a Repository bound to a single transaction.
// Either every write inside fn commits or none does.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(r *Repository) error) error
}

type Repository struct {
	Tx      TxRunner
	User    UserRepository
	Session SessionRepository
	Tourist TouristRepository
	Guide   GuideRepository
	Listing ListingRepository
	Booking BookingRepository
	Payment PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newWithQuerier(db, log)
	repo.Tx = &pgxTxRunner{db: db, log: log}
	return repo
}

func newWithQuerier(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(q, log),
		Session: NewSessionRepository(q, log),
		Tourist: NewTouristRepository(q, log),
		Guide:   NewGuideRepository(q, log),
		Listing: NewListingRepository(q, log),
		Booking: NewBookingRepository(q, log),
		Payment: NewPaymentRepository(q, log),
	}
}

type pgxTxRunner struct {
	db  database.PgxIface
	log *zap.Logger
}

func (r *pgxTxRunner) WithinTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txRepo := newWithQuerier(tx, r.log)
	// Already inside a transaction; nested units just join it.
	txRepo.Tx = passthroughTxRunner{repo: txRepo}

	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type passthroughTxRunner struct {
	repo *Repository
}

func (r passthroughTxRunner) WithinTx(ctx context.Context, fn func(r *Repository) error) error {
	return fn(r.repo)
}
