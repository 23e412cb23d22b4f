package engine

import (
	"time"

	"github.com/playsync/playsync/key"
	"github.com/spf13/viper"
)

// Config is the fixed option set handed to the engine at initialization.
type Config struct {
	AutoStartLoad bool
	// StartPosition is where loading starts; negative means the engine decides.
	StartPosition  float64
	LowLatencyMode bool

	MaxBufferLength    time.Duration
	MaxMaxBufferLength time.Duration
	MaxBufferSize      int64
	MaxBufferHole      time.Duration
	BackBufferLength   time.Duration

	EnableWorker        bool
	SmoothQualityChange bool

	ManifestLoadingTimeout  time.Duration
	ManifestLoadingMaxRetry int
	FragLoadingTimeout      time.Duration
	FragLoadingMaxRetry     int

	CapLevelToPlayerSize bool
	StartFragPrefetch    bool

	// AbrEwmaDefaultEstimate is the initial bandwidth estimate in bits per second.
	AbrEwmaDefaultEstimate int64
	AbrEwmaFastVoD         float64
	AbrEwmaSlowVoD         float64
}

// DefaultConfig returns the on-demand playback profile: deferred loading, 30s buffer, generous timeouts.
func DefaultConfig() Config {
	return Config{
		AutoStartLoad:           false,
		StartPosition:           -1,
		LowLatencyMode:          false,
		MaxBufferLength:         30 * time.Second,
		MaxMaxBufferLength:      60 * time.Second,
		MaxBufferSize:           60 * 1000 * 1000,
		MaxBufferHole:           500 * time.Millisecond,
		BackBufferLength:        300 * time.Second,
		EnableWorker:            true,
		SmoothQualityChange:     true,
		ManifestLoadingTimeout:  10 * time.Second,
		ManifestLoadingMaxRetry: 3,
		FragLoadingTimeout:      10 * time.Second,
		FragLoadingMaxRetry:     5,
		CapLevelToPlayerSize:    true,
		StartFragPrefetch:       true,
		AbrEwmaDefaultEstimate:  500000,
		AbrEwmaFastVoD:          3,
		AbrEwmaSlowVoD:          5,
	}
}

func seconds(k string) time.Duration {
	return time.Duration(viper.GetFloat64(k) * float64(time.Second))
}

func millis(k string) time.Duration {
	return time.Duration(viper.GetInt64(k)) * time.Millisecond
}

// ConfigFromViper reads the engine.* keys registered by the config package.
func ConfigFromViper() Config {
	return Config{
		AutoStartLoad:           viper.GetBool(key.EngineAutoStartLoad),
		StartPosition:           viper.GetFloat64(key.EngineStartPosition),
		LowLatencyMode:          viper.GetBool(key.EngineLowLatencyMode),
		MaxBufferLength:         seconds(key.EngineMaxBufferLength),
		MaxMaxBufferLength:      seconds(key.EngineMaxMaxBufferLength),
		MaxBufferSize:           viper.GetInt64(key.EngineMaxBufferSize),
		MaxBufferHole:           seconds(key.EngineMaxBufferHole),
		BackBufferLength:        seconds(key.EngineBackBufferLength),
		EnableWorker:            viper.GetBool(key.EngineEnableWorker),
		SmoothQualityChange:     viper.GetBool(key.EngineSmoothQualityChange),
		ManifestLoadingTimeout:  millis(key.EngineManifestLoadingTimeout),
		ManifestLoadingMaxRetry: viper.GetInt(key.EngineManifestLoadingMaxRetry),
		FragLoadingTimeout:      millis(key.EngineFragLoadingTimeout),
		FragLoadingMaxRetry:     viper.GetInt(key.EngineFragLoadingMaxRetry),
		CapLevelToPlayerSize:    viper.GetBool(key.EngineCapLevelToPlayerSize),
		StartFragPrefetch:       viper.GetBool(key.EngineStartFragPrefetch),
		AbrEwmaDefaultEstimate:  viper.GetInt64(key.EngineAbrEwmaDefaultEstimate),
		AbrEwmaFastVoD:          viper.GetFloat64(key.EngineAbrEwmaFastVoD),
		AbrEwmaSlowVoD:          viper.GetFloat64(key.EngineAbrEwmaSlowVoD),
	}
}
