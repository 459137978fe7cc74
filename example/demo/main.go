// Command demo walks through a typical edit session against the in-memory
// edit log: applying edits, undo/redo, snapshots and both render paths.
package main

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/editlog/memoryengine"
	"github.com/lumetric/darkroom-engine-go/editsession"
	"github.com/lumetric/darkroom-engine-go/snapshot"
	"github.com/lumetric/darkroom-engine-go/zapadapter"
)

const assetID = "asset-demo-0001"

func main() {
	if err := run(); err != nil {
		log.Fatalf("demo failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	logger, err := zapadapter.NewDevelopmentLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	session, err := editsession.NewSession(
		memoryengine.NewStore(),
		snapshot.NewMemoryStore(),
		editsession.WithContextualLogging(logger),
		editsession.WithCacheCapacity(32),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	// Apply a few edits.
	if _, err = session.ApplyEdit(ctx, assetID, editlog.EventTypeEdited,
		[]byte(`{"exposure": 0.4, "contrast": 0.2}`)); err != nil {
		return err
	}

	if _, err = session.ApplyEdit(ctx, assetID, editlog.EventTypeEdited,
		[]byte(`{"exposure": -0.3, "saturation": 1.3}`)); err != nil {
		return err
	}

	state, err := session.GetCurrentEditState(ctx, assetID)
	if err != nil {
		return err
	}

	fmt.Printf("state after two edits: exposure=%.2f contrast=%.2f saturation=%.2f\n",
		state.Exposure, state.Contrast, state.Saturation)
	fmt.Printf("css filters:           %s\n", session.ComputeCSSFilters(ctx, assetID))

	// Snapshot the current look, then keep editing.
	snap, err := session.CreateSnapshot(ctx, assetID, "warm pass", "first grading pass")
	if err != nil {
		return err
	}

	if _, err = session.ApplyEdit(ctx, assetID, editlog.EventTypeEdited,
		[]byte(`{"colorTemp": 35, "vibrance": 0.4}`)); err != nil {
		return err
	}

	// Undo steps back one event, and the undone event stays redoable.
	result, err := session.UndoEdit(ctx, assetID)
	if err != nil {
		return err
	}

	fmt.Printf("after undo:            colorTemp=%.0f canRedo=%v\n",
		result.State.ColorTemp, result.CanRedo)

	timeline, err := session.GetEventTimeline(ctx, assetID, 0)
	if err != nil {
		return err
	}

	if _, err = session.RedoEdit(ctx, assetID, timeline[len(timeline)-1].ID.String()); err != nil {
		return err
	}

	// Restoring the snapshot rewinds the active frontier to its sequence.
	result, err = session.RestoreToSnapshot(ctx, snap.ID.String())
	if err != nil {
		return err
	}

	fmt.Printf("after restore:         exposure=%.2f activeEvents=%d\n",
		result.State.Exposure, result.ActiveEventCount)

	// Pixel path on a tiny synthetic image.
	renderDemo(ctx, session)

	stats := session.CacheStats()
	fmt.Printf("render cache:          hits=%d misses=%d evictions=%d\n",
		stats.Hits, stats.Misses, stats.Evictions)

	return nil
}

func renderDemo(ctx context.Context, session *editsession.Session) {
	const size = 32

	src := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 256)
	}

	rendered, err := session.RenderPixels(ctx, assetID, src, size/2, size/2)
	if err != nil {
		fmt.Printf("pixel render:          unavailable (%v)\n", err)
		return
	}

	bounds := rendered.Bounds()
	fmt.Printf("pixel render:          ok, %dx%d module=%q benchmark=%.3fms\n",
		bounds.Dx(), bounds.Dy(), session.PixelEngine().ModuleName(),
		session.BenchmarkPixelPath(64, 64))
}
