// Package compression provides transparent decompression of dataset objects
// fetched from object storage.
//
// # Overview
//
// Objects in a bucket are frequently stored compressed. The remote dataset
// provider picks the algorithm from the object name's extension, inflates
// the bytes and then hands them to the format normalizer:
//
//	alg, name := compression.AlgorithmForFilename("events.json.gz")
//	// alg == compression.Gzip, name == "events.json"
//	raw, err := compression.Decompress(alg, data)
//
// Supported algorithms:
//   - Gzip (.gz, .gzip)
//   - Zstd (.zst, .zstd)
//   - LZ4 frame format (.lz4)
//   - S2 / Snappy stream format (.sz, .s2)
package compression

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// S2 represents s2 stream compression (reads Snappy framed streams too)
	S2 Algorithm = "s2"
)

// MaxDecompressedSize bounds the output of a single Decompress call.
const MaxDecompressedSize int64 = 1 << 30

var extensions = map[string]Algorithm{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".lz4":  LZ4,
	".sz":   S2,
	".s2":   S2,
}

// AlgorithmForFilename returns the algorithm implied by the extension of
// name and the name with that extension removed. Names without a known
// extension yield None and are returned unchanged.
func AlgorithmForFilename(name string) (Algorithm, string) {
	ext := strings.ToLower(path.Ext(name))
	if alg, ok := extensions[ext]; ok {
		return alg, name[:len(name)-len(ext)]
	}
	return None, name
}

// Compressor compresses and decompresses whole payloads.
// All implementations are safe for concurrent use.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Algorithm() Algorithm
}

// NewCompressor returns the compressor for alg.
func NewCompressor(alg Algorithm) (Compressor, error) {
	switch alg {
	case None, "":
		return noneCompressor{}, nil
	case Gzip:
		return defaultGzip, nil
	case Zstd:
		return defaultZstd, nil
	case LZ4:
		return lz4Compressor{}, nil
	case S2:
		return s2Compressor{}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
	}
}

// Decompress inflates data compressed with alg.
func Decompress(alg Algorithm, data []byte) ([]byte, error) {
	c, err := NewCompressor(alg)
	if err != nil {
		return nil, err
	}
	out, err := c.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s payload: %w", alg, err)
	}
	return out, nil
}

// readAllLimited drains r, failing when more than MaxDecompressedSize bytes
// would be produced.
func readAllLimited(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if n > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed payload exceeds %d bytes", MaxDecompressedSize)
	}
	return buf.Bytes(), nil
}

type noneCompressor struct{}

func (noneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) Algorithm() Algorithm                   { return None }

// Gzip compressor
type gzipCompressor struct {
	writerPool sync.Pool
	readerPool sync.Pool
}

var defaultGzip = newGzipCompressor()

func newGzipCompressor() *gzipCompressor {
	gc := &gzipCompressor{}
	gc.writerPool.New = func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.DefaultCompression)
		return w
	}
	gc.readerPool.New = func() interface{} {
		return new(gzip.Reader)
	}
	return gc
}

func (gc *gzipCompressor) Algorithm() Algorithm { return Gzip }

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r := gc.readerPool.Get().(*gzip.Reader)
	defer gc.readerPool.Put(r)

	if err := r.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return readAllLimited(r)
}

// Zstd compressor. The encoder and decoder are concurrency safe when used
// through EncodeAll/DecodeAll.
type zstdCompressor struct {
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	err     error
}

var defaultZstd = &zstdCompressor{}

func (zc *zstdCompressor) init() error {
	zc.once.Do(func() {
		zc.encoder, zc.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zc.err != nil {
			return
		}
		zc.decoder, zc.err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(MaxDecompressedSize)))
	})
	return zc.err
}

func (zc *zstdCompressor) Algorithm() Algorithm { return Zstd }

func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	if err := zc.init(); err != nil {
		return nil, err
	}
	return zc.encoder.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	if err := zc.init(); err != nil {
		return nil, err
	}
	return zc.decoder.DecodeAll(data, nil)
}

// LZ4 compressor (frame format)
type lz4Compressor struct{}

func (lz4Compressor) Algorithm() Algorithm { return LZ4 }

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(lz4.Fast)); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return readAllLimited(lz4.NewReader(bytes.NewReader(data)))
}

// S2 compressor (stream format)
type s2Compressor struct{}

func (s2Compressor) Algorithm() Algorithm { return S2 }

func (s2Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := s2.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s2Compressor) Decompress(data []byte) ([]byte, error) {
	return readAllLimited(s2.NewReader(bytes.NewReader(data)))
}
