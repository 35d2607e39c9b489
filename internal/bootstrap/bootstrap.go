// Package bootstrap loads the two JSON fixtures the daemon needs at startup
// that aren't part of the SQLite-backed Store: the controller map
// (outputs.json) and the model table (models.json), both in FPP's on-disk
// shape.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/plextuner/ledshowd/internal/ddp"
	"github.com/plextuner/ledshowd/internal/player"
)

// universe is one physical output range within a channelOutput, in
// outputs.json's on-disk shape.
type universe struct {
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	Address      string `json:"address"`
	StartChannel uint32 `json:"startChannel"`
	ChannelCount uint32 `json:"channelCount"`
	ID           uint32 `json:"id"`
}

type channelOutput struct {
	Type         string     `json:"type"`
	StartChannel uint32     `json:"startChannel"`
	Enabled      bool       `json:"enabled"`
	ChannelCount int        `json:"channelCount"`
	Universes    []universe `json:"universes"`
}

type channels struct {
	ChannelOutputs []channelOutput `json:"channelOutputs"`
}

// LoadControllers reads an outputs.json file and flattens its
// channelOutputs[].universes[] into a ddp.Controller per enabled, active
// universe, converting each universe's 1-based startChannel to the 0-based
// convention ddp.Controller expects.
func LoadControllers(path string) ([]ddp.Controller, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read %s: %w", path, err)
	}

	var doc channels
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bootstrap: parse %s: %w", path, err)
	}

	var out []ddp.Controller
	for _, co := range doc.ChannelOutputs {
		if !co.Enabled {
			continue
		}
		for _, u := range co.Universes {
			if !u.Active {
				continue
			}
			ip := net.ParseIP(u.Address)
			if ip == nil {
				return nil, fmt.Errorf("bootstrap: %s: universe %d: invalid address %q", path, u.ID, u.Address)
			}
			out = append(out, ddp.Controller{
				IP:           ip,
				StartChannel: int(u.StartChannel) - 1,
				ChannelCount: int(u.ChannelCount),
			})
		}
	}
	return out, nil
}

// model is one entry of models.json's models[] array.
type model struct {
	Name         string `json:"Name"`
	ChannelCount uint32 `json:"ChannelCount"`
	StartChannel uint32 `json:"StartChannel"`
}

type models struct {
	Models []model `json:"models"`
}

// LoadModels reads a models.json file into the name-keyed table
// player.TestRequest needs to resolve a test pattern's model names to
// (start channel, channel count).
func LoadModels(path string) (map[string]player.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read %s: %w", path, err)
	}

	var doc models
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bootstrap: parse %s: %w", path, err)
	}

	out := make(map[string]player.Model, len(doc.Models))
	for _, m := range doc.Models {
		out[m.Name] = player.Model{
			Name:         m.Name,
			StartChannel: int(m.StartChannel),
			ChannelCount: int(m.ChannelCount),
		}
	}
	return out, nil
}
