package sprite

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoding
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"path"
	"sync"

	_ "golang.org/x/image/bmp" // register BMP decoding
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// PixelSource returns the decoded pixels of a named image. It may be
// called from several goroutines at once.
type PixelSource func(name string) (*Pixels, error)

// FSPixelSource decodes images stored in fsys. PNG, JPEG, GIF, BMP, TIFF
// and WebP are recognized. Missing files report ErrImageNotFound.
func FSPixelSource(fsys fs.FS) PixelSource {
	return func(name string) (*Pixels, error) {
		f, err := fsys.Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrImageNotFound, name)
			}
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		p, err := Decode(f)
		if err != nil {
			return nil, fmt.Errorf("sprite: decode %s: %w", name, err)
		}
		return p, nil
	}
}

// Decode reads an encoded image.
func Decode(r io.Reader) (*Pixels, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	p := PixelsFromImage(img)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// CacheKey normalizes an image name: Unicode NFC, then a cleaned
// slash-separated path.
func CacheKey(name string) string {
	return path.Clean(norm.NFC.String(name))
}

// Decoder decodes images from a PixelSource on a bounded pool of
// goroutines. Results are plain pixels; stores are created by the caller
// on the renderer goroutine.
type Decoder struct {
	src     PixelSource
	workers int
}

// NewDecoder returns a decoder running at most workers decodes at once.
func NewDecoder(src PixelSource, workers int) *Decoder {
	return &Decoder{src: src, workers: max(workers, 1)}
}

// DecodeAll decodes every name. The first error cancels the remaining
// work and is returned.
func (d *Decoder) DecodeAll(ctx context.Context, names []string) (map[string]*Pixels, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]*Pixels, len(names))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := d.src(name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
