package detect

import "github.com/rendiffdev/shotdetect-core/internal/imgproc"

func imgProcFrame(w, h int) *imgproc.Frame {
	return imgproc.NewFrame(w, h)
}
