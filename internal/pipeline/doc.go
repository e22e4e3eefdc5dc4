// Package pipeline composes the question synthesis stages: prompt
// construction, the generative service call, payload extraction and record
// validation. Each stage runs in its own OpenTelemetry span, and an
// optional completion cache short-circuits the service call for prompts
// that already produced a valid batch.
package pipeline
