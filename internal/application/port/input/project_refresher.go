package input

import (
	"context"

	"mpc-refresher/internal/domain/entity"
)

type ProjectRefresher interface {
	Execute(ctx context.Context, req entity.RefreshRequest) (*entity.RefreshResult, error)
}
