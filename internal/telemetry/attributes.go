// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on recorder spans.
const (
	SessionIDKey  = "recording.session_id"
	ModeKey       = "recording.mode"
	ResolutionKey = "recording.resolution"
	FrameRateKey  = "recording.frame_rate"
	MicKey        = "recording.source.microphone"
	SystemKey     = "recording.source.system_audio"
	CameraKey     = "recording.source.camera"
	OutputPathKey = "recording.output_path"
	StatusKey     = "recording.status"

	ErrorTypeKey = "error.type"
)

// RecordingAttributes describes a capture request.
func RecordingAttributes(mode, resolution string, frameRate uint32, mic, system, camera bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(ModeKey, mode),
		attribute.Int64(FrameRateKey, int64(frameRate)),
		attribute.Bool(MicKey, mic),
		attribute.Bool(SystemKey, system),
		attribute.Bool(CameraKey, camera),
	}
	if resolution != "" {
		attrs = append(attrs, attribute.String(ResolutionKey, resolution))
	}
	return attrs
}

// RecordError marks span as failed with errType as classification.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(ErrorTypeKey, errType))
	}
}
