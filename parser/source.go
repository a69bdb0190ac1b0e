package parser

import (
	"io"
	"iter"
)

// DefaultChunkSize is the block size used to read files and the buffer trim threshold.
const DefaultChunkSize = 64 * 1024

// Source hands out the input in order. Next returns io.EOF once the input is exhausted and
// keeps returning it afterwards. A returned chunk is only valid until the next call.
type Source interface {
	Next() ([]byte, error)
}

type SourceFunc func() ([]byte, error)

func (f SourceFunc) Next() ([]byte, error) { return f() }

func StringSource(s string) Source {
	return BytesSource([]byte(s))
}

// BytesSource serves the given chunks in order, dropping empty ones.
func BytesSource(chunks ...[]byte) Source {
	i := 0
	return SourceFunc(func() ([]byte, error) {
		for i < len(chunks) {
			chunk := chunks[i]
			i++
			if len(chunk) > 0 {
				return chunk, nil
			}
		}
		return nil, io.EOF
	})
}

// SeqSource pulls chunks from seq. The returned stop function releases seq and must be
// called once the Source is no longer needed.
func SeqSource(seq iter.Seq[[]byte]) (Source, func()) {
	next, stop := iter.Pull(seq)
	exhausted := false
	return SourceFunc(func() ([]byte, error) {
		for !exhausted {
			chunk, ok := next()
			if !ok {
				exhausted = true
				break
			}
			if len(chunk) > 0 {
				return chunk, nil
			}
		}
		return nil, io.EOF
	}), stop
}

// ReaderSource reads r in blocks of chunkSize bytes.
func ReaderSource(r io.Reader, chunkSize int) Source {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	var readErr error
	return SourceFunc(func() ([]byte, error) {
		for readErr == nil {
			n, err := r.Read(buf)
			if err != nil {
				readErr = err
			}
			if n > 0 {
				return buf[:n], nil
			}
		}
		if readErr == io.EOF {
			return nil, io.EOF
		}
		return nil, &SourceError{Op: "read", Err: readErr}
	})
}
