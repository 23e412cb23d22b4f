// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Streaming Engine - these keys mirror the option set handed to the managed streaming engine at session start.
const (
	EngineAutoStartLoad           = "engine.auto_start_load"
	EngineStartPosition           = "engine.start_position"
	EngineLowLatencyMode          = "engine.low_latency_mode"
	EngineMaxBufferLength         = "engine.max_buffer_length"
	EngineMaxMaxBufferLength      = "engine.max_max_buffer_length"
	EngineMaxBufferSize           = "engine.max_buffer_size"
	EngineMaxBufferHole           = "engine.max_buffer_hole"
	EngineBackBufferLength        = "engine.back_buffer_length"
	EngineEnableWorker            = "engine.enable_worker"
	EngineSmoothQualityChange     = "engine.smooth_quality_change"
	EngineManifestLoadingTimeout  = "engine.manifest_loading_timeout"
	EngineManifestLoadingMaxRetry = "engine.manifest_loading_max_retry"
	EngineFragLoadingTimeout      = "engine.frag_loading_timeout"
	EngineFragLoadingMaxRetry     = "engine.frag_loading_max_retry"
	EngineCapLevelToPlayerSize    = "engine.cap_level_to_player_size"
	EngineStartFragPrefetch       = "engine.start_frag_prefetch"
	EngineAbrEwmaDefaultEstimate  = "engine.abr_ewma_default_estimate"
	EngineAbrEwmaFastVoD          = "engine.abr_ewma_fast_vod"
	EngineAbrEwmaSlowVoD          = "engine.abr_ewma_slow_vod"
)

// Media Playback - these keys configure the external playback process.
const (
	PlayerPath = "player.path"
	PlayerArgs = "player.args"
)

// Terminal User Interface - these keys tune the interactive player view.
const (
	TUISeekStep  = "tui.seek_step"
	IconsVariant = "icons.variant"
)

// Position Persistence - these keys govern where and how often playback offsets are stored.
const (
	PositionBackend      = "position.backend"
	PositionSaveInterval = "position.save_interval"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment
const (
	CliColored = "cli.colored"
)
