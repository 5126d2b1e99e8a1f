package vision_test

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/artguard/artguard/pkg/internal/model"
	"github.com/artguard/artguard/pkg/internal/vision"
)

const (
	testFeatureDim = 147
	testClasses    = 3
)

// writeWeights 生成测试用权重文件.
func writeWeights(t *testing.T, dir string, hidden int, w1, b1, w2, b2 []float32) string {
	t.Helper()

	path := filepath.Join(dir, "weights.agw")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create weights file: %v", err)
	}
	defer f.Close()

	if _, err := f.Write([]byte("AGW1")); err != nil {
		t.Fatalf("write magic: %v", err)
	}

	header := [3]uint32{testFeatureDim, uint32(hidden), testClasses}
	if err := binary.Write(f, binary.LittleEndian, header); err != nil {
		t.Fatalf("write header: %v", err)
	}

	for _, buf := range [][]float32{w1, b1, w2, b2} {
		if err := binary.Write(f, binary.LittleEndian, buf); err != nil {
			t.Fatalf("write weights body: %v", err)
		}
	}

	return path
}

// zeroWeights 返回全零权重的各层切片.
func zeroWeights(hidden int) (w1, b1, w2, b2 []float32) {
	return make([]float32, hidden*testFeatureDim),
		make([]float32, hidden),
		make([]float32, testClasses*hidden),
		make([]float32, testClasses)
}

func grayTensor(t *testing.T) *vision.Tensor {
	t.Helper()

	tensor, err := vision.Normalize(encodeSolidPNG(t, 128, 128, 128))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	return tensor
}

func TestLoadClassifierBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.agw")

	if err := os.WriteFile(path, []byte("NOPE1234"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := vision.LoadClassifier(path); err == nil {
		t.Fatal("bad magic should fail")
	}
}

func TestLoadClassifierMissingFile(t *testing.T) {
	if _, err := vision.LoadClassifier(filepath.Join(t.TempDir(), "absent.agw")); err == nil {
		t.Fatal("missing weights file should fail")
	}
}

func TestLoadClassifierArchMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.agw")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, _ = f.Write([]byte("AGW1"))
	// 输入维度错误（64 而非 147）
	_ = binary.Write(f, binary.LittleEndian, [3]uint32{64, 8, 3})
	f.Close()

	if _, err := vision.LoadClassifier(path); err == nil {
		t.Fatal("architecture mismatch should fail")
	}
}

func TestClassifyTieBreaksToLowestIndex(t *testing.T) {
	// 全零权重：三类 logits 相等，argmax 取最小索引 0 -> Handmade
	hidden := 4
	w1, b1, w2, b2 := zeroWeights(hidden)
	path := writeWeights(t, t.TempDir(), hidden, w1, b1, w2, b2)

	c, err := vision.LoadClassifier(path)
	if err != nil {
		t.Fatalf("load classifier: %v", err)
	}

	pred, err := c.Classify(grayTensor(t))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if pred.Label != model.LabelHandmade {
		t.Fatalf("tie should resolve to lowest index, got %s", pred.Label)
	}

	if math.Abs(pred.Confidence-1.0/3.0) > 1e-9 {
		t.Fatalf("uniform distribution confidence = %v, want 1/3", pred.Confidence)
	}
}

func TestClassifyForcedClass(t *testing.T) {
	// 隐层常量 1（b1=1，w1=0），第 1 类输出偏置远大于其它类
	hidden := 1
	w1, b1, w2, b2 := zeroWeights(hidden)
	b1[0] = 1
	w2[1] = 10 // w2[class=1][hidden=0]

	path := writeWeights(t, t.TempDir(), hidden, w1, b1, w2, b2)

	c, err := vision.LoadClassifier(path)
	if err != nil {
		t.Fatalf("load classifier: %v", err)
	}

	pred, err := c.Classify(grayTensor(t))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if pred.Label != model.LabelAIGenerated {
		t.Fatalf("label = %s, want AIGenerated", pred.Label)
	}

	if pred.Confidence <= 0.9 || pred.Confidence > 1 {
		t.Fatalf("confidence = %v, want (0.9, 1]", pred.Confidence)
	}
}

func TestClassifyConfidenceInRange(t *testing.T) {
	hidden := 8
	w1, b1, w2, b2 := zeroWeights(hidden)
	// 任意非零权重
	for i := range w1 {
		w1[i] = float32(i%7) * 0.01
	}

	for i := range w2 {
		w2[i] = float32(i%5) * 0.1
	}

	path := writeWeights(t, t.TempDir(), hidden, w1, b1, w2, b2)

	c, err := vision.LoadClassifier(path)
	if err != nil {
		t.Fatalf("load classifier: %v", err)
	}

	pred, err := c.Classify(grayTensor(t))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if pred.Confidence < 0 || pred.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", pred.Confidence)
	}

	if pred.Label == model.LabelUnknown {
		t.Fatalf("in-range argmax should never map to Unknown")
	}
}

func TestClassifyShapeMismatch(t *testing.T) {
	hidden := 2
	w1, b1, w2, b2 := zeroWeights(hidden)
	path := writeWeights(t, t.TempDir(), hidden, w1, b1, w2, b2)

	c, err := vision.LoadClassifier(path)
	if err != nil {
		t.Fatalf("load classifier: %v", err)
	}

	bad := &vision.Tensor{C: 1, H: 10, W: 10, Data: make([]float32, 100)}
	if _, err := c.Classify(bad); err == nil {
		t.Fatal("shape mismatch should fail")
	}
}
