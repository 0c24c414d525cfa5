package downloader

import "io"

// progressWriter reports the running byte count after every write.
type progressWriter struct {
	w        io.Writer
	total    int64
	progress func(done int64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.total += int64(n)
		if pw.progress != nil {
			pw.progress(pw.total)
		}
	}

	return n, err
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(done int64)) (int64, error) {
	pw := &progressWriter{w: dst, progress: progress}
	buf := make([]byte, 32*1024)

	return io.CopyBuffer(pw, src, buf)
}
