package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidate(t *testing.T) {
	red := solid(8, 4, color.RGBA{R: 255, A: 255})
	pngBytes := encodePNG(t, red)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, red, nil))
	var bm bytes.Buffer
	require.NoError(t, bmp.Encode(&bm, red))

	assert.NoError(t, Validate(pngBytes, "wound.PNG"))
	assert.NoError(t, Validate(jpg.Bytes(), "wound.jpeg"))
	assert.NoError(t, Validate(bm.Bytes(), "wound.bmp"))

	assert.ErrorIs(t, Validate(pngBytes, "wound.gif"), ErrExtension)
	assert.ErrorIs(t, Validate(pngBytes, "wound"), ErrExtension)
	assert.ErrorIs(t, Validate([]byte("not an image"), "wound.png"), ErrCorrupt)
	assert.ErrorIs(t, Validate(make([]byte, MaxFileSize+1), "wound.png"), ErrTooLarge)
}

func TestDescribe(t *testing.T) {
	content := encodePNG(t, solid(8, 4, color.RGBA{G: 255, A: 255}))
	info := Describe(content)
	assert.Equal(t, "PNG", info.Format)
	assert.Equal(t, []int{8, 4}, info.Size)
	assert.Equal(t, len(content), info.FileSizeBytes)
	assert.Empty(t, info.Error)

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, solid(2, 2, color.White), nil))
	assert.Equal(t, "RGB", Describe(jpg.Bytes()).Mode)

	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	assert.Equal(t, "L", Describe(encodePNG(t, gray)).Mode)

	bad := Describe([]byte("garbage"))
	assert.NotEmpty(t, bad.Error)
	assert.Empty(t, bad.Format)
}

func TestPreprocess_ResizesAndScales(t *testing.T) {
	content := encodePNG(t, solid(10, 6, color.RGBA{R: 255, B: 51, A: 255}))

	tensor, err := Preprocess(content)
	require.NoError(t, err)
	assert.Equal(t, TargetSize, tensor.Width)
	assert.Equal(t, TargetSize, tensor.Height)
	require.Len(t, tensor.Pix, TargetSize*TargetSize*3)

	assert.InDelta(t, 1.0, tensor.At(100, 100, 0), 0.01)
	assert.InDelta(t, 0.0, tensor.At(100, 100, 1), 0.01)
	assert.InDelta(t, 0.2, tensor.At(0, 223, 2), 0.01)

	_, err = Preprocess([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNormalize(t *testing.T) {
	tensor := &Tensor{Width: 1, Height: 1, Pix: []float32{0.5, 0.5, 0.5}}
	out := tensor.Normalize([3]float32{0.5, 0.25, 0}, [3]float32{1, 0.5, 2})
	assert.Equal(t, []float32{0, 0.5, 0.25}, out.Pix)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, tensor.Pix)
}
