package obligationrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sqlc-dev/pqtype"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/infrastructure/database"
)

type ObligationRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func New(db *database.DBManager, logger zerolog.Logger) IObligationRepository {
	return &ObligationRepository{
		db:     db.Db,
		logger: logger,
	}
}

const upsertObligationQuery = `
INSERT INTO obligations (
	id, payable_item_id, plan_kind, sequence_order, amount_cents,
	currency_code, due_at, status, paid_at, transaction_id, metadata,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	paid_at = EXCLUDED.paid_at,
	transaction_id = EXCLUDED.transaction_id,
	metadata = EXCLUDED.metadata,
	updated_at = EXCLUDED.updated_at`

func (r *ObligationRepository) UpsertObligations(ctx context.Context, obligations []domain.Obligation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, o := range obligations {
		id := o.ID
		if id == "" {
			id = uuid.New().String()
		}

		var dueAt sql.NullTime
		if o.DueAt != nil {
			dueAt = sql.NullTime{Time: *o.DueAt, Valid: true}
		}
		var paidAt sql.NullTime
		if o.PaidAt != nil {
			paidAt = sql.NullTime{Time: *o.PaidAt, Valid: true}
		}

		createdAt := o.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}

		_, err = tx.ExecContext(ctx, upsertObligationQuery,
			id,
			o.PayableItemID,
			string(o.PlanKind),
			o.SequenceOrder,
			o.AmountCents,
			o.CurrencyCode,
			dueAt,
			string(o.Status),
			paidAt,
			sql.NullString{String: o.TransactionID, Valid: o.TransactionID != ""},
			pqtype.NullRawMessage{RawMessage: o.Metadata, Valid: o.Metadata != nil},
			createdAt,
			time.Now(),
		)
		if err != nil {
			r.logger.Err(err).Str("obligation_id", id).Msg("Failed to upsert obligation")
			return fmt.Errorf("failed to upsert obligation %s: %w", id, err)
		}
	}

	return tx.Commit()
}

const listByPayableItemQuery = `
SELECT id, payable_item_id, plan_kind, sequence_order, amount_cents,
	currency_code, due_at, status, paid_at, transaction_id, metadata,
	created_at, updated_at
FROM obligations
WHERE payable_item_id = $1
ORDER BY sequence_order ASC, created_at ASC`

func (r *ObligationRepository) ListByPayableItem(ctx context.Context, payableItemID string) ([]domain.Obligation, error) {
	rows, err := r.db.QueryContext(ctx, listByPayableItemQuery, payableItemID)
	if err != nil {
		r.logger.Err(err).Str("payable_item_id", payableItemID).Msg("Failed to list obligations")
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	defer rows.Close()

	var obligations []domain.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, *o)
	}

	return obligations, rows.Err()
}

const getByIDQuery = `
SELECT id, payable_item_id, plan_kind, sequence_order, amount_cents,
	currency_code, due_at, status, paid_at, transaction_id, metadata,
	created_at, updated_at
FROM obligations
WHERE id = $1`

func (r *ObligationRepository) GetByID(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	row := r.db.QueryRowContext(ctx, getByIDQuery, obligationID)
	o, err := scanObligation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Err(err).Str("obligation_id", obligationID).Msg("Failed to get obligation")
		return nil, fmt.Errorf("failed to get obligation %s: %w", obligationID, err)
	}
	return o, nil
}

const markPaidQuery = `
UPDATE obligations
SET status = 'paid', paid_at = $2, transaction_id = $3, updated_at = $4
WHERE id = $1 AND status = 'unpaid'`

func (r *ObligationRepository) MarkPaid(ctx context.Context, obligationID, transactionID string, paidAt time.Time) error {
	result, err := r.db.ExecContext(ctx, markPaidQuery,
		obligationID,
		paidAt,
		sql.NullString{String: transactionID, Valid: transactionID != ""},
		time.Now(),
	)
	if err != nil {
		r.logger.Err(err).Str("obligation_id", obligationID).Msg("Failed to mark obligation paid")
		return fmt.Errorf("failed to mark obligation %s paid: %w", obligationID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		// Already paid elsewhere (other device, concurrent session); the
		// mirror already reflects the authoritative state.
		r.logger.Warn().Str("obligation_id", obligationID).Msg("Obligation was not unpaid when marking paid")
	}
	return nil
}

const supersedeUnpaidQuery = `
UPDATE obligations
SET status = 'superseded', updated_at = $2
WHERE payable_item_id = $1 AND status = 'unpaid'`

func (r *ObligationRepository) SupersedeUnpaid(ctx context.Context, payableItemID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, supersedeUnpaidQuery, payableItemID, time.Now())
	if err != nil {
		r.logger.Err(err).Str("payable_item_id", payableItemID).Msg("Failed to supersede unpaid obligations")
		return 0, fmt.Errorf("failed to supersede unpaid obligations: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return affected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObligation(row rowScanner) (*domain.Obligation, error) {
	var (
		// IDs are assigned by the remote plans service and treated as
		// opaque text, never parsed.
		id            string
		payableItemID string
		planKind      string
		sequenceOrder int
		amountCents   int64
		currencyCode  string
		dueAt         sql.NullTime
		status        string
		paidAt        sql.NullTime
		transactionID sql.NullString
		metadata      pqtype.NullRawMessage
		createdAt     time.Time
		updatedAt     time.Time
	)

	if err := row.Scan(&id, &payableItemID, &planKind, &sequenceOrder, &amountCents,
		&currencyCode, &dueAt, &status, &paidAt, &transactionID, &metadata,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	o := &domain.Obligation{
		ID:            id,
		PayableItemID: payableItemID,
		PlanKind:      domain.PlanKind(planKind),
		SequenceOrder: sequenceOrder,
		AmountCents:   amountCents,
		CurrencyCode:  currencyCode,
		Status:        domain.ObligationStatus(status),
		TransactionID: transactionID.String,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if dueAt.Valid {
		t := dueAt.Time
		o.DueAt = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	if metadata.Valid {
		o.Metadata = metadata.RawMessage
	}

	return o, nil
}
