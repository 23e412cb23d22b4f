package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/playsync/playsync/color"
	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/key"
	"github.com/playsync/playsync/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Playsync + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes both the effective and the default value.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Parse converts a raw command-line value into the type of the field's default.
func (f *Field) Parse(raw string) (any, error) {
	switch f.Value.(type) {
	case string:
		return raw, nil
	case int:
		return strconv.Atoi(raw)
	case float64:
		return strconv.ParseFloat(raw, 64)
	case bool:
		return strconv.ParseBool(raw)
	case []string:
		return strings.Fields(raw), nil
	default:
		return nil, fmt.Errorf("unsupported type %s", f.typeName())
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

// Closest returns the registered key with the smallest edit distance to name.
func Closest(name string) string {
	return lo.MinBy(lo.Keys(Default), func(a string, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
}

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.EngineAutoStartLoad, false, "Start fragment loading as soon as the source is attached.\nWhen false the session starts loading once the manifest is parsed")
	register(key.EngineStartPosition, -1.0, "Position in seconds where loading starts.\n-1 resumes from the stored position or the beginning")
	register(key.EngineLowLatencyMode, false, "Enable low latency live playback")
	register(key.EngineMaxBufferLength, 30, "Target forward buffer length in seconds")
	register(key.EngineMaxMaxBufferLength, 60, "Upper bound of the forward buffer in seconds when the buffer keeps growing (e.g. paused)")
	register(key.EngineMaxBufferSize, 60*1000*1000, "Maximum forward buffer size in bytes")
	register(key.EngineMaxBufferHole, 0.5, "Tolerated gap in the buffer in seconds")
	register(key.EngineBackBufferLength, 300, "Seconds of already played media kept for rewinding")
	register(key.EngineEnableWorker, true, "Offload demuxing to a background worker")
	register(key.EngineSmoothQualityChange, true, "Switch quality at fragment boundaries instead of flushing the buffer")
	register(key.EngineManifestLoadingTimeout, 10000, "Manifest load timeout in milliseconds")
	register(key.EngineManifestLoadingMaxRetry, 3, "Retries for a failed manifest load")
	register(key.EngineFragLoadingTimeout, 10000, "Fragment load timeout in milliseconds")
	register(key.EngineFragLoadingMaxRetry, 5, "Retries for a failed fragment load")
	register(key.EngineCapLevelToPlayerSize, true, "Never pick a quality larger than the player surface")
	register(key.EngineStartFragPrefetch, true, "Prefetch the first fragment as soon as it is known")
	register(key.EngineAbrEwmaDefaultEstimate, 500000, "Initial bandwidth estimate in bits per second")
	register(key.EngineAbrEwmaFastVoD, 3.0, "Fast bandwidth reaction half-life in seconds")
	register(key.EngineAbrEwmaSlowVoD, 5.0, "Slow bandwidth reaction half-life in seconds")
	register(key.PlayerPath, "mpv", "Path or name of the mpv executable")
	register(key.PlayerArgs, []string{}, "Extra options passed to mpv on launch, e.g. --volume=50")
	register(key.TUISeekStep, 5, "Percent of the duration skipped by the seek keys")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd, plain, squares")
	register(key.PositionBackend, "file", "Where playback positions are stored.\nAvailable options are: file, sqlite, memory")
	register(key.PositionSaveInterval, 5, "Seconds between playback position saves")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"blue":     style.Fg(color.Blue),
	"purple":   style.Fg(color.Purple),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
