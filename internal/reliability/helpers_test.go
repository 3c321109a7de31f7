package reliability

import (
	"archive/tar"
	"compress/gzip"
	"io"
)

func gzipWriter(w io.Writer) *gzip.Writer { return gzip.NewWriter(w) }

func tarWriter(w io.Writer) *tar.Writer { return tar.NewWriter(w) }
