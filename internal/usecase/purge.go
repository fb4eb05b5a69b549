package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
)

// PurgeUsecase drops stored results so that the next request recomputes them.
type PurgeUsecase struct {
	cache     *ResultsCache
	publisher PurgePublisher
	logger    *zap.Logger
}

// NewPurgeUsecase builds a PurgeUsecase. publisher may be nil when there are
// no other instances to notify.
func NewPurgeUsecase(cache *ResultsCache, publisher PurgePublisher, logger *zap.Logger) *PurgeUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurgeUsecase{cache: cache, publisher: publisher, logger: logger}
}

func (uc *PurgeUsecase) Purge(ctx context.Context, ids []wbconstraints.EntityID) error {
	if err := uc.PurgeLocal(ctx, ids); err != nil {
		return err
	}
	if uc.publisher == nil {
		return nil
	}
	return uc.publisher.PublishPurge(ctx, ids)
}

// PurgeLocal drops stored results without notifying other instances. It is
// the handler for purge signals received from them.
func (uc *PurgeUsecase) PurgeLocal(ctx context.Context, ids []wbconstraints.EntityID) error {
	for _, id := range ids {
		if err := uc.cache.Delete(ctx, id); err != nil {
			return err
		}
		uc.logger.Debug("purged cached results", zap.String("entity", id.String()))
	}
	return nil
}
