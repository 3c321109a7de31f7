package config

import (
	"fmt"
	"os"

	"github.com/jcnfinancial/dashboard-api/internal/domain"
	"gopkg.in/yaml.v3"
)

// PortfolioFile is the on-disk shape of the default portfolio.
//
//	holdings:
//	  - symbol: AAPL
//	    cost_basis: 150.25
//	    shares: 10
type PortfolioFile struct {
	Name     string           `yaml:"name"`
	Holdings []domain.Holding `yaml:"holdings"`
}

// LoadPortfolio reads the default holdings from a YAML file.
// An empty path yields an empty portfolio, not an error.
func LoadPortfolio(path string) (*PortfolioFile, error) {
	if path == "" {
		return &PortfolioFile{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}

	var pf PortfolioFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file: %w", err)
	}

	for i, h := range pf.Holdings {
		sym := domain.NormalizeSymbol(h.Symbol)
		if sym == "" {
			return nil, fmt.Errorf("holding %d: symbol is required", i)
		}
		if h.CostBasis <= 0 || h.Shares <= 0 {
			return nil, fmt.Errorf("holding %s: cost_basis and shares must be positive", sym)
		}
		pf.Holdings[i].Symbol = sym
	}

	return &pf, nil
}

// Symbols returns the normalized symbols of the default portfolio.
func (p *PortfolioFile) Symbols() []string {
	return domain.HoldingSymbols(p.Holdings)
}
