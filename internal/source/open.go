// Package source opens the typing inputs: local files, '-' for stdin,
// s3://bucket/key objects, any of them optionally gzip-compressed.
package source

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Opener resolves input paths. The zero value reads local files and stdin;
// S3 must be set before s3:// paths can be opened.
type Opener struct {
	Stdin io.Reader
	S3    *S3Fetcher
}

// Open returns a reader over path's decompressed content.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case path == Stdin:
		in := o.Stdin
		if in == nil {
			in = os.Stdin
		}
		rc = io.NopCloser(in)
	case IsS3(path):
		if o.S3 == nil {
			return nil, fmt.Errorf("%s: s3 input not configured", path)
		}
		rc, err = o.S3.Open(ctx, path)
	default:
		rc, err = os.Open(path)
	}
	if err != nil {
		return nil, err
	}
	return maybeGunzip(rc, path)
}

// maybeGunzip detects gzip by magic number (1F 8B) or by .gz suffix.
func maybeGunzip(rc io.ReadCloser, path string) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)
	sig, _ := br.Peek(2)
	if (len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, rc}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{rc}}, nil
}

// CheckStdin rejects more than one '-' among paths.
func CheckStdin(paths ...string) error {
	n := 0
	for _, p := range paths {
		if p == Stdin {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("only one input may be read from stdin ('-')")
	}
	return nil
}
