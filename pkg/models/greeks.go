package models

// Greeks holds the five first-order sensitivities of an option position.
// Vega is per 1 vol point, rho per 1 rate point, theta per calendar day.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// Add returns the component-wise sum of g and other.
func (g Greeks) Add(other Greeks) Greeks {
	return Greeks{
		Delta: g.Delta + other.Delta,
		Gamma: g.Gamma + other.Gamma,
		Vega:  g.Vega + other.Vega,
		Theta: g.Theta + other.Theta,
		Rho:   g.Rho + other.Rho,
	}
}

// Scale returns g with every component multiplied by factor.
func (g Greeks) Scale(factor float64) Greeks {
	return Greeks{
		Delta: g.Delta * factor,
		Gamma: g.Gamma * factor,
		Vega:  g.Vega * factor,
		Theta: g.Theta * factor,
		Rho:   g.Rho * factor,
	}
}
