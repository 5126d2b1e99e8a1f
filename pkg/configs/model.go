package configs

import "github.com/spf13/viper"

const (
	DefaultModelWeightsPath = "models/artguard.agw" // 默认权重文件路径
	DefaultModelInputSize   = 224                   // 模型输入边长（像素）
)

// ModelConfig 图像分类模型配置.
type ModelConfig struct {
	WeightsPath string `mapstructure:"weights_path" rule:"required"`
	InputSize   int    `mapstructure:"input_size"   rule:"min=32,max=1024"`
	Warmup      bool   `mapstructure:"warmup"` // 启动时执行一次空推理预热
}

// setDefaults 设置模型配置的默认值.
func (c *ModelConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("model.weights_path", DefaultModelWeightsPath)
	v.SetDefault("model.input_size", DefaultModelInputSize)
	v.SetDefault("model.warmup", true)
}
