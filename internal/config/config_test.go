package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/semanticallynull/bikerental/bike"
)

func TestLoadRates_DefaultsWithoutFile(t *testing.T) {
	rates, err := LoadRates("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rates[bike.City] != 15.00 || rates[bike.EBike] != 25.00 {
		t.Errorf("expected default rates, got %v", rates)
	}
}

func TestLoadRates_OverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.toml")
	if err := os.WriteFile(path, []byte("[rates]\nE_BIKE = 27.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rates, err := LoadRates(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rates[bike.EBike] != 27.5 {
		t.Errorf("expected e-bike rate 27.5, got %v", rates[bike.EBike])
	}
	if rates[bike.City] != 15.00 {
		t.Errorf("expected city rate to keep its default, got %v", rates[bike.City])
	}
}

func TestLoadRates_UnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.toml")
	if err := os.WriteFile(path, []byte("currency = \"EUR\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRates(path); err == nil {
		t.Error("expected an error for an unknown key")
	}
}

func TestParseRates_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown type":  "[rates]\nTANDEM = 40.0\n",
		"negative rate": "[rates]\nCITY_BIKE = -1.0\n",
		"not toml":      "[rates\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRates(data); err == nil {
				t.Error("expected an error")
			}
		})
	}

	_, err := ParseRates("[rates]\nCITY_BIKE = 0.0\n")
	if !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
}

func TestParseRates_LegacyTypeKey(t *testing.T) {
	rates, err := ParseRates("[rates]\nSTADSFIETS = 12.0\n")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rates[bike.City] != 12.0 {
		t.Errorf("expected city rate 12, got %v", rates[bike.City])
	}
}
