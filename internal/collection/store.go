package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/notify"
)

// TrackedImage is one collection member. Snapshot copies are handed out;
// mutations happen only inside the store, keyed by ID.
type TrackedImage struct {
	ID           string             `json:"id"`
	Source       device.PickedImage `json:"source"`
	PersistedRef string             `json:"persisted_ref,omitempty"`
	State        LifecycleState     `json:"state"`
}

// BestRef is the reference the payload builder should read: the persisted
// copy when available, else the (possibly cropped) original.
func (t TrackedImage) BestRef() string {
	if t.PersistedRef != "" {
		return t.PersistedRef
	}
	return t.Source.Path
}

// Store is the image collection. All mutations are read-modify-write under
// one mutex; workflow results re-fetch their member by id so that removals
// racing an in-flight workflow degrade to no-ops.
type Store struct {
	mu     sync.Mutex
	images []*TrackedImage

	max      int
	picker   device.Picker
	files    device.FileStore
	workflow *Workflow
	notifier notify.Notifier
	tr       i18n.Func

	pending sync.WaitGroup
}

func NewStore(picker device.Picker, files device.FileStore, workflow *Workflow, notifier notify.Notifier, tr i18n.Func) *Store {
	return &Store{
		max:      MaxImages,
		picker:   picker,
		files:    files,
		workflow: workflow,
		notifier: notifier,
		tr:       tr,
	}
}

// Add appends batch members not already present (by source path) until the
// collection is full; the rest of the batch is dropped silently. Each
// accepted image starts its persistence workflow immediately. Returns
// snapshots of the accepted members.
func (s *Store) Add(batch []device.PickedImage) []TrackedImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.images))
	for _, img := range s.images {
		seen[img.Source.Path] = true
	}

	var accepted []TrackedImage
	for _, picked := range batch {
		if len(s.images) >= s.max {
			break
		}
		if seen[picked.Path] {
			continue
		}
		seen[picked.Path] = true

		img := &TrackedImage{
			ID:     uuid.NewString(),
			Source: picked,
			State:  StateSaving,
		}
		s.images = append(s.images, img)
		accepted = append(accepted, *img)
		s.startPersist(img.ID, picked)
	}
	return accepted
}

// Remove drops the member with that id and best-effort deletes its persisted
// copy. A failed delete is advisory cleanup, not an error.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, img := range s.images {
		if img.ID != id {
			continue
		}
		if img.PersistedRef != "" {
			if err := s.files.Delete(img.PersistedRef); err != nil {
				slog.Debug("failed to delete persisted copy", "id", id, "err", err)
			}
		}
		s.images = append(s.images[:i], s.images[i+1:]...)
		return true
	}
	return false
}

// Crop opens the cropper for the member with that id and, if the member still
// exists when the cropper returns, swaps in the cropped source and restarts
// persistence. A user cancel changes nothing.
func (s *Store) Crop(ctx context.Context, id string) error {
	img, ok := s.find(id)
	if !ok {
		return fmt.Errorf("no tracked image with id %s", id)
	}

	width, height := img.Source.Width, img.Source.Height
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 1024
	}

	cropped, err := s.picker.Crop(ctx, device.CropOptions{
		Path:   img.Source.Path,
		Width:  width,
		Height: height,
	})
	if err != nil {
		s.reportPickerError(err)
		if errors.Is(err, device.ErrCancelled) {
			return nil
		}
		return err
	}

	s.applyCrop(id, cropped, img.Source.Path)
	return nil
}

// CropTo applies an externally produced crop result (e.g. a re-upload from a
// client-side cropper) to the member with that id.
func (s *Store) CropTo(id string, cropped device.PickedImage) bool {
	img, ok := s.find(id)
	if !ok {
		return false
	}
	return s.applyCrop(id, cropped, img.Source.Path)
}

func (s *Store) applyCrop(id string, cropped device.PickedImage, previousPath string) bool {
	s.mu.Lock()
	img := s.lookup(id)
	if img == nil {
		// Removed while the cropper was open. Stale result, drop it.
		s.mu.Unlock()
		return false
	}
	if img.PersistedRef != "" {
		if err := s.files.Delete(img.PersistedRef); err != nil {
			slog.Debug("failed to delete persisted copy", "id", id, "err", err)
		}
	}
	img.Source = cropped
	img.PersistedRef = ""
	img.State = StateSaving
	s.startPersist(id, cropped)
	s.mu.Unlock()

	if err := s.picker.Cleanup(previousPath); err != nil {
		slog.Debug("picker cleanup failed", "path", previousPath, "err", err)
	}
	return true
}

// AcquireFromPicker runs a multi-select gallery pick against the remaining
// capacity. At capacity it surfaces the limit notice without opening the
// picker.
func (s *Store) AcquireFromPicker(ctx context.Context) error {
	remaining := s.max - s.Len()
	if remaining <= 0 {
		return s.reportCapacity()
	}

	picked, err := s.picker.Pick(ctx, device.PickOptions{MinFiles: 1, MaxFiles: remaining})
	if err != nil {
		s.reportPickerError(err)
		if errors.Is(err, device.ErrCancelled) {
			return nil
		}
		return err
	}
	s.Add(picked)
	return nil
}

// AcquireFromCamera captures a single photo with an immediate crop step.
func (s *Store) AcquireFromCamera(ctx context.Context) error {
	if s.Len() >= s.max {
		return s.reportCapacity()
	}

	captured, err := s.picker.Capture(ctx, device.CaptureOptions{Width: 1024, Height: 1024})
	if err != nil {
		s.reportPickerError(err)
		if errors.Is(err, device.ErrCancelled) {
			return nil
		}
		return err
	}
	s.Add([]device.PickedImage{captured})
	return nil
}

// Snapshot returns value copies of the members in insertion order.
func (s *Store) Snapshot() []TrackedImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TrackedImage, len(s.images))
	for i, img := range s.images {
		out[i] = *img
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// SelectedCountText is the "n/5" counter.
func (s *Store) SelectedCountText() string {
	return fmt.Sprintf("%d/%d", s.Len(), s.max)
}

// SavedCountText is the "saved/selected" counter.
func (s *Store) SavedCountText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := 0
	for _, img := range s.images {
		if img.PersistedRef != "" {
			saved++
		}
	}
	return fmt.Sprintf("%d/%d", saved, len(s.images))
}

// Wait blocks until every persistence workflow started so far has settled.
// Callers must not race it against new acquisitions.
func (s *Store) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startPersist launches one workflow run for (id, source). Caller holds the
// lock; the goroutine applies its outcome by re-fetching the member by id, so
// a concurrent removal makes the result a no-op.
func (s *Store) startPersist(id string, source device.PickedImage) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ref, err := s.workflow.Persist(context.Background(), id, source)
		if err != nil {
			s.apply(id, func(img *TrackedImage) {
				img.State = StateFailed
				img.PersistedRef = ""
			})
			s.reportPickerError(err)
			return
		}
		s.apply(id, func(img *TrackedImage) {
			img.State = StateSaved
			img.PersistedRef = ref
		})
	}()
}

// apply mutates the current member with that id in place. Returns false
// (without error) when the member is gone.
func (s *Store) apply(id string, mutate func(*TrackedImage)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := s.lookup(id)
	if img == nil {
		return false
	}
	mutate(img)
	return true
}

func (s *Store) lookup(id string) *TrackedImage {
	for _, img := range s.images {
		if img.ID == id {
			return img
		}
	}
	return nil
}

func (s *Store) find(id string) (TrackedImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if img := s.lookup(id); img != nil {
		return *img, true
	}
	return TrackedImage{}, false
}

// reportPickerError converts a picker/workflow failure into the generic user
// notice. User cancels are swallowed silently.
func (s *Store) reportPickerError(err error) {
	if errors.Is(err, device.ErrCancelled) {
		return
	}
	body := s.tr(i18n.KeyUnknownPickerError, nil)
	if err != nil {
		body = err.Error()
	}
	s.notifier.Notify(s.tr(i18n.KeyErrorTitle, nil), body)
}

func (s *Store) reportCapacity() error {
	s.notifier.Notify(
		s.tr(i18n.KeyLimitTitle, nil),
		s.tr(i18n.KeyLimitBody, map[string]any{"max": s.max}),
	)
	return CapacityError{Max: s.max}
}
