package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/bankroll/internal/domain"
)

// legsFile es el formato YAML de entrada para las patas de una operación.
// Odd y stake como strings decimales — nunca floats de YAML.
type legsFile struct {
	Legs []legEntry `yaml:"legs"`
}

type legEntry struct {
	Currency  string `yaml:"currency"`
	Odd       string `yaml:"odd"`
	Stake     string `yaml:"stake"`
	Reference bool   `yaml:"reference"`
	Locked    bool   `yaml:"locked"`
}

// loadLegs parsea el archivo de patas y valida su forma antes de devolverlo.
func loadLegs(path string) ([]domain.ArbitrageLeg, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legs file %q: %w", path, err)
	}

	var f legsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse legs file %q: %w", path, err)
	}

	legs := make([]domain.ArbitrageLeg, 0, len(f.Legs))
	for i, e := range f.Legs {
		odd, err := decimal.NewFromString(e.Odd)
		if err != nil {
			return nil, fmt.Errorf("leg %d: odd %q: %w", i, e.Odd, err)
		}
		stake := decimal.Zero
		if e.Stake != "" {
			if stake, err = decimal.NewFromString(e.Stake); err != nil {
				return nil, fmt.Errorf("leg %d: stake %q: %w", i, e.Stake, err)
			}
		}
		legs = append(legs, domain.ArbitrageLeg{
			Currency:    domain.Currency(e.Currency),
			Odd:         odd,
			Stake:       stake,
			IsReference: e.Reference,
			IsLocked:    e.Locked,
		})
	}

	if err := domain.ValidateLegs(legs); err != nil {
		return nil, err
	}
	return legs, nil
}
