// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package algorithms

import (
	"context"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfrank/internal/recommend"
)

// SVDConfig contains hyperparameters for the latent factor model.
type SVDConfig struct {
	// Factors is the latent dimension F.
	Factors int

	// Epochs is the number of SGD passes over the training triples.
	Epochs int

	// LearningRate is the SGD step size.
	LearningRate float64

	// Regularization is the L2 strength applied to every learned parameter.
	Regularization float64

	// TestFraction is the held-out share of observed ratings.
	TestFraction float64

	// Seed fixes the train/test split and the per-epoch shuffles, making
	// training reproducible end to end.
	Seed int64

	// MinRating and MaxRating bound the rating scale.
	MinRating float64
	MaxRating float64
}

// DefaultSVDConfig returns the reference configuration.
func DefaultSVDConfig() SVDConfig {
	return SVDConfig{
		Factors:        100,
		Epochs:         20,
		LearningRate:   0.005,
		Regularization: 0.02,
		TestFraction:   0.2,
		Seed:           42,
		MinRating:      1,
		MaxRating:      5,
	}
}

// Evaluation holds held-out error metrics from a training run. The metrics
// are reported, not enforced: the artifact is persisted regardless.
type Evaluation struct {
	// RMSE is the root-mean-squared error over the scored held-out set.
	RMSE float64

	// MAE is the mean absolute error over the scored held-out set.
	MAE float64

	// TrainSize and TestSize are the split sizes.
	TrainSize int
	TestSize  int

	// ColdSkipped counts held-out triples whose user or item never
	// appeared in the training split and therefore could not be scored.
	ColdSkipped int
}

// TrainSVD learns the biased matrix factorization model from observed
// rating triples only; unobserved entries are never treated as zeros.
//
// The observed ratings are split into training and held-out sets with a
// seeded shuffle, then all biases and factor vectors are optimized jointly
// by SGD with L2 regularization, one pass over the shuffled training
// triples per epoch. Execution is single-goroutine so a fixed seed yields
// bit-identical models.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func TrainSVD(ctx context.Context, ratings []recommend.Rating, cfg SVDConfig,
	logger zerolog.Logger) (*recommend.FactorModel, Evaluation, error) {
	if len(ratings) == 0 {
		return nil, Evaluation{}, recommend.ErrNoRatings
	}
	applySVDDefaults(&cfg)

	logger = logger.With().Str("component", "svd").Logger()
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible training, not cryptography

	// Reproducible split.
	shuffled := make([]recommend.Rating, len(ratings))
	copy(shuffled, ratings)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testSize := int(float64(len(shuffled)) * cfg.TestFraction)
	test := shuffled[:testSize]
	train := shuffled[testSize:]

	model := initModel(train, cfg, rng)

	logger.Info().
		Int("train", len(train)).
		Int("test", len(test)).
		Int("factors", cfg.Factors).
		Int("epochs", cfg.Epochs).
		Msg("training latent factor model")

	lr := cfg.LearningRate
	reg := cfg.Regularization

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if contextCancelled(ctx) {
			return nil, Evaluation{}, ctx.Err()
		}

		rng.Shuffle(len(train), func(i, j int) {
			train[i], train[j] = train[j], train[i]
		})

		var sqErr float64
		for _, r := range train {
			bu := model.UserBias[r.UserID]
			bi := model.ItemBias[r.ItemID]
			pu := model.UserFactors[r.UserID]
			qi := model.ItemFactors[r.ItemID]

			var dot float64
			for f := 0; f < cfg.Factors; f++ {
				dot += pu[f] * qi[f]
			}

			err := r.Score - (model.GlobalBias + bu + bi + dot)
			sqErr += err * err

			model.UserBias[r.UserID] = bu + lr*(err-reg*bu)
			model.ItemBias[r.ItemID] = bi + lr*(err-reg*bi)

			for f := 0; f < cfg.Factors; f++ {
				puf := pu[f]
				qif := qi[f]
				pu[f] = puf + lr*(err*qif-reg*puf)
				qi[f] = qif + lr*(err*puf-reg*qif)
			}
		}

		logger.Debug().
			Int("epoch", epoch+1).
			Float64("train_rmse", math.Sqrt(sqErr/float64(len(train)))).
			Msg("epoch complete")
	}

	eval := evaluate(model, test)
	eval.TrainSize = len(train)
	eval.TestSize = len(test)

	logger.Info().
		Float64("rmse", eval.RMSE).
		Float64("mae", eval.MAE).
		Int("cold_skipped", eval.ColdSkipped).
		Msg("held-out evaluation complete")

	return model, eval, nil
}

func applySVDDefaults(cfg *SVDConfig) {
	def := DefaultSVDConfig()
	if cfg.Factors <= 0 {
		cfg.Factors = def.Factors
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.Regularization < 0 {
		cfg.Regularization = def.Regularization
	}
	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = def.TestFraction
	}
	if cfg.MinRating >= cfg.MaxRating {
		cfg.MinRating = def.MinRating
		cfg.MaxRating = def.MaxRating
	}
}

// initModel allocates biases and factor vectors for every user and item in
// the training split. Factors start as small seeded Gaussian noise; biases
// start at zero around the global mean.
func initModel(train []recommend.Rating, cfg SVDConfig, rng *rand.Rand) *recommend.FactorModel {
	model := &recommend.FactorModel{
		Factors:     cfg.Factors,
		UserBias:    make(map[string]float64),
		ItemBias:    make(map[string]float64),
		UserFactors: make(map[string][]float64),
		ItemFactors: make(map[string][]float64),
		MinRating:   cfg.MinRating,
		MaxRating:   cfg.MaxRating,
	}

	var sum float64
	for _, r := range train {
		sum += r.Score
	}
	if len(train) > 0 {
		model.GlobalBias = sum / float64(len(train))
	}

	const initScale = 0.1
	for _, r := range train {
		if _, ok := model.UserFactors[r.UserID]; !ok {
			model.UserBias[r.UserID] = 0
			model.UserFactors[r.UserID] = randomVector(cfg.Factors, initScale, rng)
		}
		if _, ok := model.ItemFactors[r.ItemID]; !ok {
			model.ItemBias[r.ItemID] = 0
			model.ItemFactors[r.ItemID] = randomVector(cfg.Factors, initScale, rng)
		}
	}

	return model
}

func randomVector(n int, scale float64, rng *rand.Rand) []float64 {
	v := make([]float64, n)
	for f := range v {
		v[f] = rng.NormFloat64() * scale
	}
	return v
}

// evaluate computes RMSE and MAE over the held-out set. Triples whose user
// or item is unknown to the model are counted, not scored.
func evaluate(model *recommend.FactorModel, test []recommend.Rating) Evaluation {
	var eval Evaluation
	var sqSum, absSum float64
	scored := 0

	for _, r := range test {
		est, err := model.Predict(r.UserID, r.ItemID)
		if err != nil {
			eval.ColdSkipped++
			continue
		}
		diff := r.Score - est
		sqSum += diff * diff
		absSum += math.Abs(diff)
		scored++
	}

	if scored > 0 {
		eval.RMSE = math.Sqrt(sqSum / float64(scored))
		eval.MAE = absSum / float64(scored)
	}

	return eval
}
