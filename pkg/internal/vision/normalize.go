// Package vision 实现图片预处理与分类推理.
// normalize.go 负责把原始图片字节转换为分类器期望的标准化张量.
package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// 注册标准栅格格式解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	// 注册 webp 解码器
	_ "golang.org/x/image/webp"
)

// InputSize 分类器期望的输入边长（像素）. 模型按此分辨率训练，改动会使权重失效.
const InputSize = 224

// ErrDecode 输入字节无法解码为受支持的图片格式.
var ErrDecode = errors.New("unsupported or corrupt image")

// 每通道标准化常量（RGB 顺序），与训练时保持一致，属于冻结契约.
var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// Tensor 通道优先的浮点张量，Data 长度为 C*H*W.
type Tensor struct {
	C, H, W int
	Data    []float32
}

// At 返回 (c, y, x) 处的值.
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[c*t.H*t.W+y*t.W+x]
}

// Normalize 把原始图片字节解码为 3x224x224 的标准化张量.
// 纯函数：相同字节输入产生相同输出.
//
// 步骤：解码 -> 强制 RGB（丢弃 alpha，灰度展开）-> 双线性缩放到 224x224
// -> 像素缩放到 [0,1] -> 按通道标准化.
func Normalize(raw []byte) (*Tensor, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	// 双线性重采样到固定分辨率，RGBA 作为统一的中间表示
	dst := image.NewRGBA(image.Rect(0, 0, InputSize, InputSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	t := &Tensor{
		C:    3,
		H:    InputSize,
		W:    InputSize,
		Data: make([]float32, 3*InputSize*InputSize),
	}

	plane := InputSize * InputSize

	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			// RGBA stride 为 4，直接按偏移取 R/G/B，忽略 alpha
			off := dst.PixOffset(x, y)
			r := dst.Pix[off]
			g := dst.Pix[off+1]
			b := dst.Pix[off+2]

			idx := y*InputSize + x
			t.Data[idx] = (float32(r)/255.0 - normMean[0]) / normStd[0]
			t.Data[plane+idx] = (float32(g)/255.0 - normMean[1]) / normStd[1]
			t.Data[2*plane+idx] = (float32(b)/255.0 - normMean[2]) / normStd[2]
		}
	}

	return t, nil
}
