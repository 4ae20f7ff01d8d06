package system

import (
	"image"
	"sync"
)

// ImagePool recycles frame-sized RGBA buffers. Overlay layers render one
// frame per tick and would otherwise allocate width*height*4 bytes each time.
type ImagePool struct {
	mu    sync.RWMutex
	pools map[image.Point]*sync.Pool
}

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

var frames = NewImagePool()

// GetImage returns a buffer with bounds rect from the shared pool. The
// content is not cleared.
func GetImage(rect image.Rectangle) *image.RGBA {
	return frames.Get(rect)
}

// PutImage hands a buffer obtained from GetImage back to the shared pool.
func PutImage(img *image.RGBA) {
	frames.Put(img)
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pl, ok := p.pools[size]
	p.mu.RUnlock()
	if ok {
		return pl
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pl, ok = p.pools[size]; !ok {
		pl = &sync.Pool{New: func() any {
			return image.NewRGBA(image.Rectangle{Max: size})
		}}
		p.pools[size] = pl
	}
	return pl
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.pool(rect.Size()).Get().(*image.RGBA)
	img.Rect = rect
	return img
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	p.pool(img.Rect.Size()).Put(img)
}
