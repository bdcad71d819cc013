package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

const (
	// MaxFileSize 上传图像上限 10MB
	MaxFileSize = 10 << 20
	// TargetSize 模型输入边长
	TargetSize = 224
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

var (
	ErrTooLarge  = errors.New("image file too large")
	ErrExtension = errors.New("unsupported image extension")
	ErrCorrupt   = errors.New("image cannot be decoded")
)

// Validate 检查大小与扩展名，并完整解码一次确认未损坏
func Validate(content []byte, filename string) error {
	if len(content) > MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, len(content))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrExtension, ext)
	}
	if _, _, err := image.Decode(bytes.NewReader(content)); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// Info 图像元数据；size 为 [宽, 高]
type Info struct {
	Format        string `json:"format,omitempty"`
	Size          []int  `json:"size,omitempty"`
	Mode          string `json:"mode,omitempty"`
	FileSizeBytes int    `json:"file_size_bytes,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Describe 只读文件头；无法识别时仅填 Error
func Describe(content []byte) Info {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return Info{Error: err.Error()}
	}
	return Info{
		Format:        strings.ToUpper(format),
		Size:          []int{cfg.Width, cfg.Height},
		Mode:          colorMode(cfg.ColorModel),
		FileSizeBytes: len(content),
	}
}

func colorMode(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.CMYKModel:
		return "CMYK"
	}
	return "RGB"
}

// Tensor HWC 排列的 RGB 浮点数据
type Tensor struct {
	Width  int
	Height int
	Pix    []float32
}

// At 第 c 通道在 (x, y) 的值
func (t *Tensor) At(x, y, c int) float32 {
	return t.Pix[(y*t.Width+x)*3+c]
}

// Normalize 逐通道 (v-mean)/std，返回新 Tensor
func (t *Tensor) Normalize(mean, std [3]float32) *Tensor {
	out := &Tensor{Width: t.Width, Height: t.Height, Pix: make([]float32, len(t.Pix))}
	for i, v := range t.Pix {
		c := i % 3
		out.Pix[i] = (v - mean[c]) / std[c]
	}
	return out
}

// Preprocess 解码后缩放到 TargetSize x TargetSize，像素归一化到 [0,1]
func Preprocess(content []byte) (*Tensor, error) {
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return FromImage(src, TargetSize), nil
}

// FromImage 缩放为 size x size 并丢弃 alpha
func FromImage(src image.Image, size int) *Tensor {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	t := &Tensor{Width: size, Height: size, Pix: make([]float32, size*size*3)}
	for i := 0; i < size*size; i++ {
		px := dst.Pix[i*4 : i*4+3]
		t.Pix[i*3] = float32(px[0]) / 255
		t.Pix[i*3+1] = float32(px[1]) / 255
		t.Pix[i*3+2] = float32(px[2]) / 255
	}
	return t
}
