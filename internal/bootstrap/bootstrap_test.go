package bootstrap

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadControllers(t *testing.T) {
	path := writeFile(t, `{
		"channelOutputs": [
			{
				"type": "DDP",
				"startChannel": 1,
				"enabled": true,
				"channelCount": 300,
				"universes": [
					{"description": "porch", "active": true, "address": "10.0.0.5", "startChannel": 1, "channelCount": 150, "id": 1, "deDuplicate": false, "priority": 0, "monitor": false, "type": 1},
					{"description": "disabled", "active": false, "address": "10.0.0.6", "startChannel": 151, "channelCount": 150, "id": 2, "deDuplicate": false, "priority": 0, "monitor": false, "type": 1}
				]
			},
			{
				"type": "DDP",
				"startChannel": 301,
				"enabled": false,
				"channelCount": 150,
				"universes": [
					{"description": "disabled output", "active": true, "address": "10.0.0.7", "startChannel": 301, "channelCount": 150, "id": 3, "deDuplicate": false, "priority": 0, "monitor": false, "type": 1}
				]
			}
		]
	}`)

	got, err := LoadControllers(path)
	if err != nil {
		t.Fatalf("LoadControllers: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d controllers, want 1 (disabled output + inactive universe excluded): %+v", len(got), got)
	}
	c := got[0]
	if !c.IP.Equal(net.ParseIP("10.0.0.5")) {
		t.Errorf("IP = %v", c.IP)
	}
	if c.StartChannel != 0 {
		t.Errorf("StartChannel = %d, want 0 (1-based 1 normalized)", c.StartChannel)
	}
	if c.ChannelCount != 150 {
		t.Errorf("ChannelCount = %d, want 150", c.ChannelCount)
	}
}

func TestLoadControllers_InvalidAddress(t *testing.T) {
	path := writeFile(t, `{
		"channelOutputs": [
			{"type": "DDP", "startChannel": 1, "enabled": true, "channelCount": 10, "universes": [
				{"description": "x", "active": true, "address": "not-an-ip", "startChannel": 1, "channelCount": 10, "id": 1, "deDuplicate": false, "priority": 0, "monitor": false, "type": 1}
			]}
		]
	}`)
	if _, err := LoadControllers(path); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestLoadControllers_MissingFile(t *testing.T) {
	if _, err := LoadControllers("/no/such/outputs.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadModels(t *testing.T) {
	path := writeFile(t, `{
		"models": [
			{"Name": "arch-1", "xLights": true, "ChannelCount": 150, "Orientation": "horizontal", "StartChannel": 1, "StringCount": 1, "ChannelCountPerNode": 3, "StrandsPerString": 1, "StartCorner": "BL", "Type": "Channel"}
		]
	}`)

	got, err := LoadModels(path)
	if err != nil {
		t.Fatalf("LoadModels: %v", err)
	}
	m, ok := got["arch-1"]
	if !ok {
		t.Fatal("missing model arch-1")
	}
	if m.StartChannel != 1 || m.ChannelCount != 150 {
		t.Errorf("model = %+v", m)
	}
}

func TestLoadModels_MissingFile(t *testing.T) {
	if _, err := LoadModels("/no/such/models.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
