package perenual

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, s string) payload {
	t.Helper()
	var p payload
	require.NoError(t, json.Unmarshal([]byte(s), &p))
	return p
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "18-24°C (65-75°F)", formatTemperature(65, 75))
	assert.Equal(t, "0-0°C (32-32°F)", formatTemperature(32, 32))
	assert.Equal(t, "-18-38°C (0-100°F)", formatTemperature(0, 100))
}

func TestTemperatureFromPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"numbers", `{"hardiness":{"min":65,"max":75}}`, "18-24°C (65-75°F)"},
		{"numeric strings", `{"hardiness":{"min":"32","max":" 32 "}}`, "0-0°C (32-32°F)"},
		{"missing max", `{"hardiness":{"min":"65"}}`, DefaultTemperature},
		{"zone letters", `{"hardiness":{"min":"7a","max":"9b"}}`, DefaultTemperature},
		{"not an object", `{"hardiness":"warm"}`, DefaultTemperature},
		{"absent", `{}`, DefaultTemperature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			care := extractCare(decodePayload(t, tt.body))
			assert.Equal(t, tt.want, care.Temperature)
		})
	}
}

func TestExtractCare_FieldDefaults(t *testing.T) {
	care := extractCare(decodePayload(t, `{}`))

	assert.False(t, care.IsDefault)
	assert.Equal(t, DefaultName, care.Name)
	assert.Equal(t, DefaultScientificName, care.ScientificName)
	assert.Equal(t, DefaultCareInstructions, care.CareInstructions)
	assert.Equal(t, DefaultWatering, care.WateringFrequency)
	assert.Equal(t, DefaultSunlight, care.SunlightRequirements)
	assert.Equal(t, DefaultHumidity, care.Humidity)
	assert.Equal(t, DefaultTemperature, care.Temperature)
	assert.Equal(t, DefaultFertilization, care.Fertilization)
	assert.Equal(t, DefaultDescription, care.Description)
	assert.Nil(t, care.ImageURL)
}

func TestExtractCare_OddShapes(t *testing.T) {
	care := extractCare(decodePayload(t, `{
		"common_name": "Aloe",
		"scientific_name": "Aloe vera",
		"watering": 3,
		"sunlight": "full sun",
		"care_level": "Low",
		"default_image": null
	}`))

	assert.Equal(t, "Aloe", care.Name)
	assert.Equal(t, "Aloe vera", care.ScientificName)
	assert.Equal(t, DefaultWatering, care.WateringFrequency)
	assert.Equal(t, "full sun", care.SunlightRequirements)
	assert.Equal(t, "Care Level: Low", care.CareInstructions)
	assert.Equal(t, "Low", care.Fertilization)
	assert.Equal(t, DefaultDescription, care.Description)
	assert.Nil(t, care.ImageURL)
}

func TestDefault(t *testing.T) {
	d := Default("Pothos")
	assert.True(t, d.IsDefault)
	assert.Equal(t, "Pothos", d.Name)
	assert.Equal(t, Default("Pothos"), d)
	assert.Equal(t, DefaultName, Default("  ").Name)
}
