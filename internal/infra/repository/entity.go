package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/internal/infra/database/models"
)

var tracer = otel.Tracer("repository")

type EntityRepository struct {
	db *gorm.DB
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// GetEntity returns the latest revision of id, or nil if it does not exist.
func (r *EntityRepository) GetEntity(ctx context.Context, id wbconstraints.EntityID) (*wbconstraints.Entity, error) {
	ctx, span := tracer.Start(ctx, "Repository.Entity.GetEntity")
	defer span.End()

	var model models.Entity
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, pkgerrors.Wrapf(err, "failed to load entity %s", id)
	}
	return entityFromModel(model)
}

func (r *EntityRepository) LatestRevisions(ctx context.Context, ids []wbconstraints.EntityID) (map[wbconstraints.EntityID]int64, error) {
	ctx, span := tracer.Start(ctx, "Repository.Entity.LatestRevisions")
	defer span.End()

	out := make(map[wbconstraints.EntityID]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	var rows []models.Entity
	err := r.db.WithContext(ctx).
		Select("id", "revision").
		Where("id IN ?", keys).
		Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		return nil, pkgerrors.Wrap(err, "failed to load revisions")
	}
	for _, row := range rows {
		out[wbconstraints.EntityID(row.ID)] = row.Revision
	}
	return out, nil
}

// Save stores entity as a new revision. Statements without a GUID get one.
// The stored entity, carrying its new revision, is returned.
func (r *EntityRepository) Save(ctx context.Context, entity *wbconstraints.Entity) (*wbconstraints.Entity, error) {
	ctx, span := tracer.Start(ctx, "Repository.Entity.Save")
	defer span.End()

	if _, err := wbconstraints.ParseEntityID(entity.ID.String()); err != nil {
		return nil, err
	}

	saved := *entity
	saved.Statements = make([]wbconstraints.Statement, len(entity.Statements))
	for i, s := range entity.Statements {
		if s.GUID == "" {
			s.GUID = wbconstraints.ComposeGUID(entity.ID, uuid.NewString())
		}
		if s.Rank == "" {
			s.Rank = wbconstraints.RankNormal
		}
		saved.Statements[i] = s
	}

	statements, err := json.Marshal(saved.Statements)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode statements")
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Entity
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", saved.ID.String()).
			Take(&current).Error
		switch {
		case err == nil:
			saved.Revision = current.Revision + 1
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved.Revision = 1
		default:
			return err
		}

		model := models.Entity{
			ID:         saved.ID.String(),
			Type:       string(saved.Type()),
			Revision:   saved.Revision,
			Statements: string(statements),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"type", "revision", "statements", "m_date"}),
		}).Create(&model).Error
	})
	if err != nil {
		span.RecordError(err)
		return nil, pkgerrors.Wrapf(err, "failed to save entity %s", saved.ID)
	}
	return &saved, nil
}

func entityFromModel(model models.Entity) (*wbconstraints.Entity, error) {
	entity := &wbconstraints.Entity{
		ID:       wbconstraints.EntityID(model.ID),
		Revision: model.Revision,
	}
	if model.Statements != "" {
		if err := json.Unmarshal([]byte(model.Statements), &entity.Statements); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to decode statements of %s", model.ID)
		}
	}
	return entity, nil
}
