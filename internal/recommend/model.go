// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package recommend

// FactorModel is the latent factor model artifact: a biased matrix
// factorization of the observed rating matrix.
//
// The estimate for (u, i) is
//
//	est = GlobalBias + UserBias[u] + ItemBias[i] + dot(UserFactors[u], ItemFactors[i])
//
// clamped to [MinRating, MaxRating]. Every user and item seen during
// training has exactly one bias and one factor vector; unseen identifiers
// are a typed cold-start miss, never a zero-vector default.
type FactorModel struct {
	// Factors is the latent dimension F, fixed at training time.
	Factors int

	// GlobalBias is the mean of the training ratings.
	GlobalBias float64

	// UserBias and ItemBias are the learned bias terms.
	UserBias map[string]float64
	ItemBias map[string]float64

	// UserFactors and ItemFactors are the learned F-dimensional embeddings.
	UserFactors map[string][]float64
	ItemFactors map[string][]float64

	// MinRating and MaxRating bound predictions to the rating scale.
	MinRating float64
	MaxRating float64
}

// KnowsUser reports whether the user was observed during training.
func (m *FactorModel) KnowsUser(userID string) bool {
	_, ok := m.UserFactors[userID]
	return ok
}

// KnowsItem reports whether the item was observed during training.
func (m *FactorModel) KnowsItem(itemID string) bool {
	_, ok := m.ItemFactors[itemID]
	return ok
}

// Predict returns the estimated rating for (userID, itemID), clamped to the
// rating scale. It returns ErrUnknownUser or ErrUnknownItem when the
// identifier was not observed during training.
func (m *FactorModel) Predict(userID, itemID string) (float64, error) {
	pu, ok := m.UserFactors[userID]
	if !ok {
		return 0, ErrUnknownUser
	}
	qi, ok := m.ItemFactors[itemID]
	if !ok {
		return 0, ErrUnknownItem
	}

	est := m.GlobalBias + m.UserBias[userID] + m.ItemBias[itemID]
	for f := range pu {
		est += pu[f] * qi[f]
	}

	if est < m.MinRating {
		est = m.MinRating
	}
	if est > m.MaxRating {
		est = m.MaxRating
	}

	return est, nil
}
