package config

const (
	// MaxMessageContentLength is the maximum length for message content.
	// 32768 characters comfortably covers long pasted prompts while keeping
	// a single row well under TOAST thresholds.
	MaxMessageContentLength = 32768

	// MaxImagePayloadLength is the maximum length for an encoded image
	// payload (data URI). 10MB of base64 covers typical uploads.
	MaxImagePayloadLength = 10 << 20

	// DefaultListLimit is the page size applied by the gateway when the
	// limit query parameter is missing or not numeric.
	DefaultListLimit = 10

	// MaxListLimit caps a single listing page.
	MaxListLimit = 100
)
