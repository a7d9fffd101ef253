// Package config loads seed files that populate the website list and the schedule.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukex/webmonitor/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrEmptySeed is returned when a seed file sets neither websites nor a schedule.
var ErrEmptySeed = errors.New("seed file defines no websites and no schedule")

// SeedFile is the YAML layout of a seed file:
//
//	websites:
//	  - https://example.com
//	schedule:
//	  1: "09:00"
//	  5: "17:30"
type SeedFile struct {
	Websites []string          `yaml:"websites"`
	Schedule map[string]string `yaml:"schedule"`
}

// Seed is a validated seed file. A nil field was absent from the file and
// leaves the stored document untouched.
type Seed struct {
	Websites []string
	Schedule models.Schedule
}

// LoadSeed reads and validates the seed file at filepath.
func LoadSeed(filepath string) (Seed, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file %s: %w", filepath, err)
	}

	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed. Website URLs are normalized and must be unique;
// schedule entries that are not a weekday/HH:MM pair are rejected.
func ParseSeed(data []byte) (Seed, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Seed{}, fmt.Errorf("failed to parse YAML seed: %w", err)
	}

	if file.Websites == nil && file.Schedule == nil {
		return Seed{}, ErrEmptySeed
	}

	seed := Seed{}

	if file.Websites != nil {
		seed.Websites = make([]string, 0, len(file.Websites))

		for _, raw := range file.Websites {
			url, err := models.NormalizeWebsiteURL(raw)
			if err != nil {
				return Seed{}, fmt.Errorf("website %q: %w", raw, err)
			}

			if models.ContainsWebsite(seed.Websites, url) {
				return Seed{}, fmt.Errorf("website %q is listed twice", url)
			}

			seed.Websites = append(seed.Websites, url)
		}
	}

	if file.Schedule != nil {
		seed.Schedule = models.Schedule{}

		for key, value := range file.Schedule {
			weekday, err := models.ParseWeekday(key)
			if err != nil {
				return Seed{}, err
			}

			if _, _, err = models.ParseTimeOfDay(value); err != nil {
				return Seed{}, fmt.Errorf("weekday %d: %w", weekday, err)
			}

			if _, ok := seed.Schedule[weekday]; ok {
				return Seed{}, fmt.Errorf("weekday %d is listed twice", weekday)
			}

			seed.Schedule[weekday] = value
		}
	}

	return seed, nil
}
