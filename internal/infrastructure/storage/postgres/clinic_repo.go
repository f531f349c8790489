package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/domain/clinic"
)

const (
	clinicTable  = "clinics"
	profileTable = "profiles"
)

var _ clinic.Repository = (*ClinicRepo)(nil)

// ClinicRepo is the PostgreSQL clinic and profile store. It is the one
// repository not scoped by a request clinic: it resolves which clinic a
// request belongs to in the first place.
type ClinicRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

// NewClinicRepo creates a clinic repository.
func NewClinicRepo(txm *TxManager) *ClinicRepo {
	return &ClinicRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts the clinic and its founding profile in one
// transaction.
func (r *ClinicRepo) Create(ctx context.Context, c *clinic.Clinic, p *clinic.Profile) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		clinicSQL, clinicArgs, err := r.builder.
			Insert(clinicTable).
			SetMap(StructToMap(*c)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build clinic insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, clinicSQL, clinicArgs...); err != nil {
			return fmt.Errorf("create clinic: %w", err)
		}

		profileSQL, profileArgs, err := r.builder.
			Insert(profileTable).
			SetMap(StructToMap(*p)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build profile insert: %w", err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, profileSQL, profileArgs...); err != nil {
			if IsUniqueViolation(err) {
				return apperror.NewDuplicate("profile", "user_id", p.UserID)
			}
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
}

// GetProfileByUserID resolves the caller's clinic membership.
func (r *ClinicRepo) GetProfileByUserID(ctx context.Context, userID string) (*clinic.Profile, error) {
	sql, args, err := r.builder.
		Select(ExtractDBColumns[clinic.Profile]()...).
		From(profileTable).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profile select: %w", err)
	}

	var p clinic.Profile
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("profile", userID)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}
