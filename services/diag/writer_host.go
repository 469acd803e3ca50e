// services/diag/writer_host.go
//go:build !rp2040

package diag

import (
	"io"
	"os"
)

func defaultWriter() io.Writer { return os.Stdout }
