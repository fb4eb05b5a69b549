package usecase

import (
	"context"
	"slices"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
	"github.com/totegamma/wbconstraints/checker"
)

// Dump is a batch of entities and constraint definitions to load.
type Dump struct {
	Entities    []*wbconstraints.Entity                            `json:"entities"`
	Constraints map[wbconstraints.PropertyID][]checker.Constraint `json:"constraints"`
}

type ImportReport struct {
	Entities   int
	Properties int
}

// ImportUsecase writes entities and constraints to the stores and purges the
// stored results of everything it touched.
type ImportUsecase struct {
	entities    EntityRepository
	constraints ConstraintRepository
	purge       *PurgeUsecase
	logger      *zap.Logger
}

func NewImportUsecase(entities EntityRepository, constraints ConstraintRepository, purge *PurgeUsecase, logger *zap.Logger) *ImportUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportUsecase{entities: entities, constraints: constraints, purge: purge, logger: logger}
}

// Import replaces the constraints of every property in the dump, then saves
// the entities, bumping their revisions. Constraints without a property id
// take the one they are listed under.
//
// Results of other entities using a replaced property are not purged; they
// expire with the cache TTL.
func (uc *ImportUsecase) Import(ctx context.Context, dump Dump) (ImportReport, error) {
	var report ImportReport
	var touched []wbconstraints.EntityID

	pids := make([]wbconstraints.PropertyID, 0, len(dump.Constraints))
	for pid := range dump.Constraints {
		pids = append(pids, pid)
	}
	slices.Sort(pids)

	for _, pid := range pids {
		cons := slices.Clone(dump.Constraints[pid])
		for i := range cons {
			if cons[i].PropertyID == "" {
				cons[i].PropertyID = pid
			}
		}
		if err := uc.constraints.Replace(ctx, pid, cons); err != nil {
			return report, pkgerrors.Wrapf(err, "failed to replace constraints of %s", pid)
		}
		uc.logger.Debug("imported constraints", zap.String("property", pid.String()), zap.Int("count", len(cons)))
		touched = append(touched, pid.EntityID())
		report.Properties++
	}

	for _, e := range dump.Entities {
		if e == nil {
			continue
		}
		saved, err := uc.entities.Save(ctx, e)
		if err != nil {
			return report, pkgerrors.Wrapf(err, "failed to save %s", e.ID)
		}
		uc.logger.Debug("imported entity", zap.String("entity", saved.ID.String()), zap.Int64("revision", saved.Revision))
		touched = append(touched, saved.ID)
		report.Entities++
	}

	if len(touched) == 0 || uc.purge == nil {
		return report, nil
	}
	slices.Sort(touched)
	touched = slices.Compact(touched)
	if err := uc.purge.Purge(ctx, touched); err != nil {
		return report, pkgerrors.Wrap(err, "failed to purge imported entities")
	}
	return report, nil
}
