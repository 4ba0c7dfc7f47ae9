package perenual

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/floradex/internal/model"
)

// flexNumber accepts a JSON number or a numeric string.
type flexNumber struct {
	Value float64
	Valid bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = flexNumber{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = flexNumber{}
			return nil
		}
		*n = flexNumber{Value: f, Valid: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = flexNumber{Value: f, Valid: true}
	return nil
}

// payload is a details response kept as raw fields so a single field of
// an unexpected shape only loses that field.
type payload map[string]json.RawMessage

func (p payload) str(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// list reads a string or a list of strings.
func (p payload) list(key string) []string {
	raw, ok := p[key]
	if !ok {
		return nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		out := many[:0]
		for _, s := range many {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := p.str(key); s != "" {
		return []string{s}
	}
	return nil
}

func (p payload) number(key string) flexNumber {
	var n flexNumber
	if raw, ok := p[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	return n
}

func (p payload) object(key string) payload {
	var obj payload
	if raw, ok := p[key]; ok {
		_ = json.Unmarshal(raw, &obj)
	}
	return obj
}

// Default returns the fallback record for name.  The result depends only
// on name.
func Default(name string) model.CareInfo {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return model.CareInfo{
		Name:                 name,
		ScientificName:       DefaultScientificName,
		CareInstructions:     DefaultCareInstructions,
		WateringFrequency:    DefaultWatering,
		SunlightRequirements: DefaultSunlight,
		Humidity:             DefaultHumidity,
		Temperature:          DefaultTemperature,
		Fertilization:        DefaultFertilization,
		Description:          DefaultDescription,
		IsDefault:            true,
	}
}

// extractCare maps a details payload onto a care record.  Missing or
// malformed fields fall back to their defaults one by one.
func extractCare(p payload) model.CareInfo {
	care := model.CareInfo{
		Name:                 firstNonEmpty(p.str("common_name"), DefaultName),
		ScientificName:       DefaultScientificName,
		WateringFrequency:    firstNonEmpty(p.str("watering"), DefaultWatering),
		SunlightRequirements: DefaultSunlight,
		Humidity:             firstNonEmpty(p.str("humidity"), DefaultHumidity),
		Temperature:          temperature(p.object("hardiness")),
		Fertilization:        DefaultFertilization,
		Description:          firstNonEmpty(p.str("description"), DefaultDescription),
	}
	if names := p.list("scientific_name"); len(names) > 0 {
		care.ScientificName = names[0]
	}
	if sun := p.list("sunlight"); len(sun) > 0 {
		care.SunlightRequirements = strings.Join(sun, ", ")
	}

	desc := p.str("description")
	level := p.str("care_level")
	var parts []string
	if desc != "" {
		parts = append(parts, desc)
	}
	if level != "" {
		parts = append(parts, "Care Level: "+level)
		care.Fertilization = level
	}
	care.CareInstructions = firstNonEmpty(strings.Join(parts, " "), DefaultCareInstructions)

	if img := p.object("default_image").str("original_url"); img != "" {
		care.ImageURL = &img
	}
	if id := p.number("id"); id.Valid {
		care.ExternalID = int64(id.Value)
	}
	return care
}

// blank reports whether an extracted record holds nothing but fallback
// values, as for a details payload of just {"id": 5}.
func blank(c model.CareInfo) bool {
	return c.Name == DefaultName &&
		c.ScientificName == DefaultScientificName &&
		c.CareInstructions == DefaultCareInstructions &&
		c.WateringFrequency == DefaultWatering &&
		c.SunlightRequirements == DefaultSunlight &&
		c.Humidity == DefaultHumidity &&
		c.Temperature == DefaultTemperature &&
		c.Fertilization == DefaultFertilization
}

// temperature converts hardiness bounds in Fahrenheit into the display
// string.  Anything missing or non-numeric gives the default.
func temperature(h payload) string {
	if h == nil {
		return DefaultTemperature
	}
	lo, hi := h.number("min"), h.number("max")
	if !lo.Valid || !hi.Valid {
		return DefaultTemperature
	}
	return formatTemperature(lo.Value, hi.Value)
}

func formatTemperature(minF, maxF float64) string {
	return fmt.Sprintf("%d-%d°C (%v-%v°F)", toCelsius(minF), toCelsius(maxF), minF, maxF)
}

func toCelsius(f float64) int {
	return int(math.Round((f - 32) * 5 / 9))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
