package output

import (
	"context"

	"mpc-refresher/internal/domain/entity"
)

type SnapshotStore interface {
	Save(ctx context.Context, name string, shot *entity.Screenshot) (string, error)
}
