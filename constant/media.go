package constant

// HLSMimeType is the MIME type probed on a media element before falling back to native HLS playback.
const HLSMimeType = "application/vnd.apple.mpegurl"

// PositionKeyPrefix prefixes every persisted playback position key.
const PositionKeyPrefix = "video-"

// AutoQuality is the quality selector that hands level selection back to the engine.
const AutoQuality = -1
