package output

import (
	"context"

	"mpc-refresher/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, elementID, text string) error
	PressEnter(ctx context.Context, elementID string) error
	Click(ctx context.Context, xpath string) error
	WaitLoad(ctx context.Context) error

	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
