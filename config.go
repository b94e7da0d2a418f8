package imageset

// The downstream representation learning pipeline consumes these static
// hyperparameter bundles together with the extracted records. They are not
// part of the extraction path.

// LearningRates groups the per-component learning rates of a training phase.
type LearningRates struct {
	Latent        float64
	Generator     float64
	Discriminator float64
}

// LossWeights groups the loss term weights of a training phase.
type LossWeights struct {
	Reconstruction  float64
	ContentDecay    float64
	Adversarial     float64
	GradientPenalty float64
}

// TrainConfig describes one training phase.
type TrainConfig struct {
	BatchSize     int
	NEpochs       int
	LearningRates LearningRates
	LossWeights   LossWeights
}

// Config is the hyperparameter bundle handed to the downstream pipeline.
type Config struct {
	ContentDepth int
	ClassDepth   int
	ContentStd   float64

	// ImgShape is the output image size the pipeline trains on,
	// width x height.
	ImgShape [2]int

	// PerceptualLossLayers indexes the feature layers used by the
	// perceptual reconstruction loss.
	PerceptualLossLayers []int

	Train TrainConfig
}

// BaseConfig returns the default downstream training configuration.
func BaseConfig() Config {
	return Config{
		ContentDepth:         1,
		ClassDepth:           256,
		ContentStd:           1,
		ImgShape:             [2]int{128, 128},
		PerceptualLossLayers: []int{2, 7, 12, 21, 30},
		Train: TrainConfig{
			BatchSize: 64,
			NEpochs:   1000,
			LearningRates: LearningRates{
				Latent:        1e-3,
				Generator:     1e-4,
				Discriminator: 1e-4,
			},
			LossWeights: LossWeights{
				Reconstruction:  1,
				ContentDecay:    1e-4,
				Adversarial:     0,
				GradientPenalty: 0,
			},
		},
	}
}

// imgShapes lists the datasets whose readers emit a size other than the base
// 128x128 by default.
var imgShapes = map[string][2]int{
	"cars3d": {64, 64},
	"cub":    {256, 256},
}

// ConfigFor returns the downstream configuration of a dataset: the base
// bundle with the dataset's default output image shape applied. Unknown
// names get the base bundle unchanged.
func ConfigFor(dataset string) Config {
	cfg := BaseConfig()
	if shape, ok := imgShapes[dataset]; ok {
		cfg.ImgShape = shape
	}
	return cfg
}
