package beamprofile

import (
	"fmt"
	"os"

	json "github.com/KevinWang15/go-json5"
)

// ShellOptions are parameter-file settings for the programs around the analyzer rather than
// the analysis itself.
type ShellOptions struct {
	LogLevel     string
	CameraDevice int
	ShowInput    bool
}

// Params is a parsed parameter file. Every key is optional. A file without "strategy" follows
// the strategy the image source implies, so the analysis settings are resolved per image by
// Config.
type Params struct {
	Shell ShellOptions

	jsonTable map[string]interface{}
}

// LoadParamsFile reads a JSON5 (or JSON) parameter file.
func LoadParamsFile(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("attempt to read parameter file %q failed: %w", path, err)
	}
	p, err := ParseParams(data)
	if err != nil {
		return nil, fmt.Errorf("parameter file %q: %w", path, err)
	}
	return p, nil
}

// ParseParams parses parameter file contents. The analysis settings are validated against
// every strategy the file can resolve to.
func ParseParams(data []byte) (*Params, error) {
	var jsonTable map[string]interface{}
	if err := json.Unmarshal(data, &jsonTable); err != nil {
		return nil, fmt.Errorf("format error: %w", err)
	}

	p := &Params{jsonTable: jsonTable}
	if msg, ok := validateJsonTableAndFillShell(jsonTable, &p.Shell); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
	}
	for _, fallback := range []Strategy{GaussianBlurStrategy, NonLocalMeansStrategy} {
		if _, err := p.Config(fallback); err != nil {
			return nil, err
		}
		if p.HasStrategy() {
			break
		}
	}
	return p, nil
}

// HasStrategy reports whether the file names a strategy.
func (p *Params) HasStrategy() bool {
	if p == nil {
		return false
	}
	_, ok := getLeafValue(p.jsonTable, "strategy")
	return ok
}

// Config returns the validated analysis settings. The defaults of the file's "strategy", or
// of fallback when the file names none, are overridden by the keys the file sets. A nil
// Params yields DefaultConfig(fallback).
func (p *Params) Config(fallback Strategy) (Config, error) {
	if p == nil {
		return DefaultConfig(fallback), nil
	}
	var cfg Config
	if msg, ok := validateJsonTableAndFillConfig(p.jsonTable, fallback, &cfg); !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func validateJsonTableAndFillConfig(jsonTable map[string]interface{}, fallback Strategy, cfg *Config) (string, bool) {
	msg := "No problem found in parameter file" // Initialize msg to presumed success.

	// The strategy decides the defaults for everything else, so it goes first.
	strategy := fallback
	name, ok := getLeafValue(jsonTable, "strategy")
	if ok {
		s, ok := name.(string)
		if !ok {
			msg = "strategy: is not a string"
			return msg, false
		}
		parsed, err := ParseStrategy(s)
		if err != nil {
			return err.Error(), false
		}
		strategy = parsed
	}
	*cfg = DefaultConfig(strategy)

	intFields := []struct {
		key string
		dst *int
	}{
		{"window_margin", &cfg.WindowMargin},
		{"nlm_patch_size", &cfg.NLMPatchSize},
		{"nlm_patch_distance", &cfg.NLMPatchDistance},
	}
	for _, f := range intFields {
		v, ok := getLeafValue(jsonTable, f.key)
		if !ok {
			continue
		}
		num, ok := v.(float64)
		if !ok {
			msg = f.key + ": is not a number"
			return msg, false
		}
		if num != float64(int(num)) {
			msg = f.key + ": is not a whole number"
			return msg, false
		}
		*f.dst = int(num)
	}

	floatFields := []struct {
		key string
		dst *float64
	}{
		{"smoothing_sigma", &cfg.SmoothingSigma},
		{"nlm_strength_factor", &cfg.NLMStrengthFactor},
		{"pixel_scale", &cfg.PixelScale},
	}
	for _, f := range floatFields {
		v, ok := getLeafValue(jsonTable, f.key)
		if !ok {
			continue
		}
		*f.dst, ok = v.(float64)
		if !ok {
			msg = f.key + ": is not a float64"
			return msg, false
		}
	}

	useBounds, ok := getLeafValue(jsonTable, "use_bounds_bool")
	if ok {
		cfg.UseBounds, ok = useBounds.(bool)
		if !ok {
			msg = "use_bounds_bool: is not a bool"
			return msg, false
		}
	}

	units, ok := getLeafValue(jsonTable, "units")
	if ok {
		cfg.Units, ok = units.(string)
		if !ok {
			msg = "units: is not a string"
			return msg, false
		}
	}

	padding, ok := getLeafValue(jsonTable, "profile_padding")
	if ok {
		name, ok := padding.(string)
		if !ok {
			msg = "profile_padding: is not a string"
			return msg, false
		}
		mode, err := ParsePaddingMode(name)
		if err != nil {
			return err.Error(), false
		}
		cfg.ProfilePadding = mode
	}

	return msg, true
}

func validateJsonTableAndFillShell(jsonTable map[string]interface{}, shell *ShellOptions) (string, bool) {
	msg := "No problem found in parameter file"

	device, ok := getLeafValue(jsonTable, "camera_device")
	if ok {
		num, ok := device.(float64)
		if !ok {
			msg = "camera_device: is not a number"
			return msg, false
		}
		if num != float64(int(num)) {
			msg = "camera_device: is not a whole number"
			return msg, false
		}
		shell.CameraDevice = int(num)
	}

	showInput, ok := getLeafValue(jsonTable, "show_input_bool")
	if ok {
		shell.ShowInput, ok = showInput.(bool)
		if !ok {
			msg = "show_input_bool: is not a bool"
			return msg, false
		}
	}

	logLevel, ok := getLeafValue(jsonTable, "log_level")
	if ok {
		shell.LogLevel, ok = logLevel.(string)
		if !ok {
			msg = "log_level: is not a string"
			return msg, false
		}
	}

	return msg, true
}
