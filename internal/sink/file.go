// Package sink provides destinations for sliced layers.
package sink

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Faultbox/layerslice/pkg/slicer"
)

// Sink errors.
var (
	ErrUnknownFormat = errors.New("unknown image format")
	ErrUnknownKey    = errors.New("unknown layer key")
	ErrDuplicateKey  = errors.New("layer key already written")
)

// Format is an image file format for layer output.
type Format int

const (
	PNG Format = iota
	BMP
	TIFF
)

// ParseFormat parses "png", "bmp" or "tiff".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png", "":
		return PNG, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// String returns the config spelling of the format.
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	case TIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

func (f Format) encode(w io.Writer, img image.Image) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// KeyMode selects what identifies a layer file.
type KeyMode int

const (
	// KeyIndex names files by plane index. Always unique.
	KeyIndex KeyMode = iota
	// KeyHeight names files by plane height rounded to an integer.
	KeyHeight
)

// ParseKeyMode parses "index" or "height".
func ParseKeyMode(s string) (KeyMode, error) {
	switch s {
	case "index", "":
		return KeyIndex, nil
	case "height":
		return KeyHeight, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
}

// String returns the config spelling of the key mode.
func (k KeyMode) String() string {
	switch k {
	case KeyIndex:
		return "index"
	case KeyHeight:
		return "height"
	default:
		return fmt.Sprintf("KeyMode(%d)", int(k))
	}
}

// Options configure a FileSink.
type Options struct {
	Dir    string
	Prefix string
	Format Format
	Key    KeyMode
}

// FileSink writes every layer to its own image file, filled pixels white.
// It is safe for concurrent use.
type FileSink struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	claimed map[int]int // key -> layer index
	files   []string
}

// NewFileSink creates the output directory and returns a sink writing into it.
func NewFileSink(opts Options, log *zap.Logger) (*FileSink, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output dir: %w", err)
		}
	}
	return &FileSink{
		opts:    opts,
		log:     log,
		claimed: make(map[int]int),
	}, nil
}

func (s *FileSink) key(l *slicer.Layer) int {
	if s.opts.Key == KeyHeight {
		return l.Key()
	}
	return l.Index
}

// Filename returns the path a layer is written to.
func (s *FileSink) Filename(l *slicer.Layer) string {
	name := fmt.Sprintf("%s%05d%s", s.opts.Prefix, s.key(l), s.opts.Format.Ext())
	if s.opts.Dir != "" {
		name = filepath.Join(s.opts.Dir, name)
	}
	return name
}

// claim reserves the key of l, failing if another layer already holds it.
func (s *FileSink) claim(l *slicer.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(l)
	if other, ok := s.claimed[k]; ok {
		return fmt.Errorf("%w: %s %d held by layer %d", ErrDuplicateKey, s.opts.Key, k, other)
	}
	s.claimed[k] = l.Index
	return nil
}

// WriteLayer encodes l and writes it to Filename(l).
func (s *FileSink) WriteLayer(l *slicer.Layer) error {
	if err := s.claim(l); err != nil {
		return err
	}

	filename := s.Filename(l)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := s.opts.Format.encode(file, l.Image()); err != nil {
		return fmt.Errorf("encoding %s: %w", s.opts.Format, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filename, err)
	}

	s.mu.Lock()
	s.files = append(s.files, filename)
	s.mu.Unlock()

	s.log.Debug("saved layer",
		zap.String("file", filename),
		zap.Int("layer", l.Index),
		zap.Float32("z", l.Z),
	)
	return nil
}

// Files returns the paths written so far, sorted.
func (s *FileSink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(slices.Values(s.files))
}
