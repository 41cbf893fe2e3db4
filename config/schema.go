package config

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/export"
	"go.jacobcolvin.com/glyphcast/still"
)

// Schema returns the JSON Schema of the YAML config file.
func Schema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[RenderConfig](nil)
	if err != nil {
		return nil, fmt.Errorf("generating schema: %w", err)
	}

	s.Title = "glyphcast configuration"

	enums := map[string][]string{
		"type":      Types(),
		"mode":      canvas.Modes(),
		"parser":    still.Parsers(),
		"format":    export.Formats(),
		"dithering": canvas.Ditherings(),
		"audio":     {On, Off},
		"shell":     {ShellInteractive, ShellNoninteractive},
		"truecolor": {Auto, On, Off},
	}

	for name, values := range enums {
		p, ok := s.Properties[name]
		if !ok {
			return nil, fmt.Errorf("generating schema: missing property %q", name)
		}

		p.Enum = make([]any, len(values))
		for i, v := range values {
			p.Enum[i] = v
		}
	}

	ranges := map[string][2]float64{
		"threshold":            {0, MaxThreshold},
		"fps":                  {0, MaxFPS},
		"volume":               {0, MaxVolume},
		"volume_step":          {1, MaxVolume},
		"max_width":            {1, 1 << 14},
		"seek_frames":          {1, 1 << 20},
		"buffer_ahead_frames":  {MinBuffer, 1 << 12},
		"buffer_behind_frames": {MinBuffer, 1 << 12},
		"dot_size":             {1, 64},
		"dot_density":          {1, 64},
	}

	for name, r := range ranges {
		p, ok := s.Properties[name]
		if !ok {
			return nil, fmt.Errorf("generating schema: missing property %q", name)
		}

		p.Minimum = jsonschema.Ptr(r[0])
		p.Maximum = jsonschema.Ptr(r[1])
	}

	return s, nil
}

// SchemaJSON returns the indented schema document.
func SchemaJSON() ([]byte, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}

	return append(out, '\n'), nil
}
