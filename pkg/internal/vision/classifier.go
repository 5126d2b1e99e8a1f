// classifier.go 负责加载模型权重并执行前向推理.
package vision

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/artguard/artguard/pkg/internal/model"
	nlog "github.com/artguard/artguard/pkg/log"
)

// 权重文件固定结构：
//
//	magic   "AGW1"（4 字节）
//	header  uint32 x3（LE）：输入维度、隐藏维度、类别数
//	body    float32（LE）：W1[hidden][in]、b1[hidden]、W2[classes][hidden]、b2[classes]
const weightsMagic = "AGW1"

// 分类头的固定结构，和训练侧保持一致.
const (
	poolGrid    = 7 // 每通道池化为 7x7
	numChannels = 3
	featureDim  = numChannels * poolGrid * poolGrid
	numClasses  = 3
)

// ErrModelLoad 权重文件缺失或结构与分类头不匹配.
var ErrModelLoad = errors.New("model weights load failed")

// classLabels 固定的 argmax 索引到标签映射. 越界索引映射为 Unknown，不报错.
var classLabels = map[int]model.Label{
	0: model.LabelHandmade,
	1: model.LabelAIGenerated,
	2: model.LabelPrint,
}

// Classifier 持有加载后的模型权重. 权重加载后不再变更，
// 并发推理读共享状态无需加锁；只有加载本身需要同步.
type Classifier struct {
	w1 []float32 // [hidden][featureDim]
	b1 []float32 // [hidden]
	w2 []float32 // [numClasses][hidden]
	b2 []float32 // [numClasses]

	hidden int
}

// Prediction 单次推理结果.
type Prediction struct {
	Label      model.Label
	Confidence float64
}

var (
	defaultClassifier *Classifier
	loadOnce          sync.Once
	loadErr           error
)

// Init 加载进程级分类器实例. 权重缺失或结构不匹配视为不可恢复错误，
// 调用方应在启动阶段处理失败并中止（不做逐请求重试）.
func Init(path string) error {
	loadOnce.Do(func() {
		defaultClassifier, loadErr = LoadClassifier(path)
		if loadErr == nil {
			nlog.Logger().Info().Str("path", path).Msg("classifier weights loaded")
		}
	})

	return loadErr
}

// Default 返回进程级分类器实例，Init 成功前为 nil.
func Default() *Classifier {
	return defaultClassifier
}

// LoadClassifier 从权重文件加载分类器.
func LoadClassifier(path string) (*Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrModelLoad, path, err)
	}
	defer f.Close()

	magic := make([]byte, len(weightsMagic))
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != weightsMagic {
		return nil, fmt.Errorf("%w: %s: bad magic", ErrModelLoad, path)
	}

	var header [3]uint32
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrModelLoad, err)
	}

	inDim, hidden, classes := int(header[0]), int(header[1]), int(header[2])
	if inDim != featureDim || classes != numClasses || hidden <= 0 {
		return nil, fmt.Errorf("%w: architecture mismatch: got %dx%dx%d, want %dxNx%d",
			ErrModelLoad, inDim, hidden, classes, featureDim, numClasses)
	}

	c := &Classifier{
		w1:     make([]float32, hidden*featureDim),
		b1:     make([]float32, hidden),
		w2:     make([]float32, numClasses*hidden),
		b2:     make([]float32, numClasses),
		hidden: hidden,
	}

	for _, buf := range [][]float32{c.w1, c.b1, c.w2, c.b2} {
		if err := binary.Read(f, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrModelLoad, err)
		}
	}

	return c, nil
}

// Classify 对标准化张量执行一次前向推理，返回标签与置信度.
// 置信度为 softmax 后 argmax 位置的概率，始终落在 [0,1]；
// 概率并列时取最小索引.
func (c *Classifier) Classify(t *Tensor) (Prediction, error) {
	if t == nil || t.C != numChannels || t.H != InputSize || t.W != InputSize {
		return Prediction{}, fmt.Errorf("classify: tensor shape mismatch")
	}

	features := pool(t)

	// 两层前向：dense + ReLU + dense
	h := make([]float64, c.hidden)
	for i := 0; i < c.hidden; i++ {
		sum := float64(c.b1[i])
		row := c.w1[i*featureDim : (i+1)*featureDim]

		for j, f := range features {
			sum += float64(row[j]) * f
		}

		if sum < 0 {
			sum = 0
		}

		h[i] = sum
	}

	logits := make([]float64, numClasses)
	for i := 0; i < numClasses; i++ {
		sum := float64(c.b2[i])
		row := c.w2[i*c.hidden : (i+1)*c.hidden]

		for j, v := range h {
			sum += float64(row[j]) * v
		}

		logits[i] = sum
	}

	probs := softmax(logits)

	best := 0
	for i := 1; i < numClasses; i++ {
		// 严格大于，保证并列取最小索引
		if probs[i] > probs[best] {
			best = i
		}
	}

	label, ok := classLabels[best]
	if !ok {
		label = model.LabelUnknown
	}

	return Prediction{Label: label, Confidence: probs[best]}, nil
}

// pool 把 3x224x224 张量按通道平均池化为 3x7x7 特征向量.
func pool(t *Tensor) []float64 {
	const block = InputSize / poolGrid

	features := make([]float64, 0, featureDim)

	for c := 0; c < numChannels; c++ {
		for gy := 0; gy < poolGrid; gy++ {
			for gx := 0; gx < poolGrid; gx++ {
				var sum float64

				for y := gy * block; y < (gy+1)*block; y++ {
					for x := gx * block; x < (gx+1)*block; x++ {
						sum += float64(t.At(c, y, x))
					}
				}

				features = append(features, sum/float64(block*block))
			}
		}
	}

	return features
}

// softmax 数值稳定的 softmax.
func softmax(logits []float64) []float64 {
	maxV := logits[0]
	for _, v := range logits[1:] {
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float64, len(logits))

	var sum float64

	for i, v := range logits {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}

	for i := range out {
		out[i] /= sum
	}

	return out
}
