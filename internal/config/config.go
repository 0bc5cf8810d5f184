// Package config reads the optional rates file.
//
//	[rates]
//	CITY_BIKE = 15.00
//	E_BIKE = 25.00
//
// Bike types missing from the file keep their default daily rate.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/semanticallynull/bikerental/bike"
	"github.com/semanticallynull/bikerental/store"
)

var ErrInvalidRate = errors.New("invalid rate")

type File struct {
	Rates map[string]float64 `toml:"rates"`
}

// LoadRates reads path and merges its rates over store.DefaultRates. An empty
// path returns the defaults.
func LoadRates(path string) (store.Rates, error) {
	if path == "" {
		return mergeRates(File{})
	}

	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	rates, err := mergeRates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rates, nil
}

// ParseRates is LoadRates for TOML held in memory.
func ParseRates(data string) (store.Rates, error) {
	var f File
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, err
	}
	return mergeRates(f)
}

func mergeRates(f File) (store.Rates, error) {
	rates := make(store.Rates, len(store.DefaultRates))
	for t, r := range store.DefaultRates {
		rates[t] = r
	}
	for key, rate := range f.Rates {
		t, err := bike.ParseType(key)
		if err != nil {
			return nil, err
		}
		if rate <= 0 {
			return nil, fmt.Errorf("%w: %s must be positive, got %.2f", ErrInvalidRate, key, rate)
		}
		rates[t] = rate
	}
	return rates, nil
}
