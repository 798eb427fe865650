package forecast

import "math/rand/v2"

func gaussianNoise(mu, sigma float64) float64 {
	return mu + rand.NormFloat64()*sigma
}
