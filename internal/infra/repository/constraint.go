package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
	"github.com/totegamma/wbconstraints/internal/domain"
	"github.com/totegamma/wbconstraints/internal/infra/database/models"
)

// ConstraintRepository stores constraint statements per property. Lookups by
// property are cached in process for ttl; Replace drops the cached entry.
type ConstraintRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewConstraintRepository(db *gorm.DB, ttl time.Duration) *ConstraintRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ConstraintRepository{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *ConstraintRepository) ConstraintsForProperty(ctx context.Context, pid wbconstraints.PropertyID) ([]checker.Constraint, error) {
	ctx, span := tracer.Start(ctx, "Repository.Constraint.ConstraintsForProperty")
	defer span.End()

	if x, found := r.cache.Get(pid.String()); found {
		return x.([]checker.Constraint), nil
	}

	var rows []models.Constraint
	err := r.db.WithContext(ctx).
		Where("property_id = ?", pid.String()).
		Order("position").
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, pkgerrors.Wrapf(err, "failed to load constraints of %s", pid)
	}

	constraints := make([]checker.Constraint, 0, len(rows))
	for _, row := range rows {
		con, err := constraintFromModel(row)
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, con)
	}

	r.cache.SetDefault(pid.String(), constraints)
	return constraints, nil
}

func (r *ConstraintRepository) Get(ctx context.Context, constraintID string) (checker.Constraint, error) {
	ctx, span := tracer.Start(ctx, "Repository.Constraint.Get")
	defer span.End()

	var row models.Constraint
	err := r.db.WithContext(ctx).Where("id = ?", constraintID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return checker.Constraint{}, domain.ConstraintNotFound(constraintID)
	}
	if err != nil {
		span.RecordError(err)
		return checker.Constraint{}, pkgerrors.Wrapf(err, "failed to load constraint %s", constraintID)
	}
	return constraintFromModel(row)
}

// Replace sets the constraints of pid, in order, removing all others.
func (r *ConstraintRepository) Replace(ctx context.Context, pid wbconstraints.PropertyID, constraints []checker.Constraint) error {
	ctx, span := tracer.Start(ctx, "Repository.Constraint.Replace")
	defer span.End()

	rows := make([]models.Constraint, 0, len(constraints))
	for i, con := range constraints {
		if con.PropertyID != pid {
			return pkgerrors.Errorf("constraint %s belongs to %s, not %s", con.ID, con.PropertyID, pid)
		}
		params, err := json.Marshal(con.Parameters)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to encode parameters of %s", con.ID)
		}
		rows = append(rows, models.Constraint{
			ID:         con.ID,
			PropertyID: pid.String(),
			Position:   i,
			TypeID:     con.TypeID.String(),
			Parameters: string(params),
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", pid.String()).Delete(&models.Constraint{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		span.RecordError(err)
		return pkgerrors.Wrapf(err, "failed to replace constraints of %s", pid)
	}

	r.cache.Delete(pid.String())
	return nil
}

func constraintFromModel(row models.Constraint) (checker.Constraint, error) {
	con := checker.Constraint{
		ID:         row.ID,
		PropertyID: wbconstraints.PropertyID(row.PropertyID),
		TypeID:     wbconstraints.EntityID(row.TypeID),
	}
	if row.Parameters != "" {
		if err := json.Unmarshal([]byte(row.Parameters), &con.Parameters); err != nil {
			return checker.Constraint{}, pkgerrors.Wrapf(err, "failed to decode parameters of %s", row.ID)
		}
	}
	return con, nil
}
