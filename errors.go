package sprite

import "errors"

// Sentinel errors returned by the sprite package.
var (
	// ErrNoRenderer is returned when no backend device could be opened.
	// It always wraps backend.ErrBackendNotAvailable.
	ErrNoRenderer = errors.New("sprite: no renderer available")

	// ErrInvalidSize is returned for zero or negative image sizes.
	ErrInvalidSize = errors.New("sprite: invalid image size")

	// ErrInvalidPixels is returned for pixel buffers that are empty or do
	// not hold exactly width*height*4 bytes.
	ErrInvalidPixels = errors.New("sprite: invalid pixel buffer")

	// ErrImageNotFound is returned by LoadImage when the pixel source has
	// no image under the requested name.
	ErrImageNotFound = errors.New("sprite: image not found")

	// ErrEmptyChain is returned by NewChain when no proxies are given.
	ErrEmptyChain = errors.New("sprite: empty proxy chain")

	// ErrForeignImage is returned when an image created by one renderer
	// is used with another.
	ErrForeignImage = errors.New("sprite: image belongs to another renderer")

	// ErrReleased is returned when a released image is used.
	ErrReleased = errors.New("sprite: image released")

	// ErrRendererClosed is returned when a closed renderer is used.
	ErrRendererClosed = errors.New("sprite: renderer closed")

	// ErrNotWindow is returned by Present for stores that were not
	// created with NewWindowStore.
	ErrNotWindow = errors.New("sprite: not a window store")

	// ErrInvalidQuestSize is returned for quest sizes outside the
	// allowed range.
	ErrInvalidQuestSize = errors.New("sprite: invalid quest size")

	// ErrUnknownVideoMode is returned by SetVideoMode for names that are
	// not in VideoModes.
	ErrUnknownVideoMode = errors.New("sprite: unknown video mode")

	// ErrFilterSize is returned by ApplyPixelFilter when the destination
	// does not have the filtered size.
	ErrFilterSize = errors.New("sprite: filter destination size mismatch")
)
