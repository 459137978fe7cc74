package editsession

import (
	"context"
	"errors"
)

// ErrRenderInfoUnavailable is returned when no render info provider is
// configured or the provider has no record for the asset.
var ErrRenderInfoUnavailable = errors.New("render info unavailable")

// RenderInfo describes the display geometry of an asset's source image.
type RenderInfo struct {
	Width       int
	Height      int
	Format      string
	Orientation int // EXIF orientation, 1 when unknown
}

// RenderInfoProvider supplies per-asset render geometry. It is implemented by
// the storage/ingestion collaborator that decoded the source image; a nil
// provider makes GetRenderInfo report ErrRenderInfoUnavailable.
type RenderInfoProvider interface {
	RenderInfoFor(ctx context.Context, assetID string) (RenderInfo, error)
}
