// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the recorder.
// Labels are low-cardinality outcome names only; session ids and paths
// belong in logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// RecordingStartTotal counts start requests by result (ok, already_recording, error).
	RecordingStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashscreen_recording_start_total",
		Help: "Total number of recording start requests, by result.",
	}, []string{"result"})

	// RecordingStopTotal counts finished sessions by outcome (completed, cancelled, failed).
	RecordingStopTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashscreen_recording_stop_total",
		Help: "Total number of finished recording sessions, by outcome.",
	}, []string{"outcome"})

	// RecordingActive is 1 while a session is recording or paused.
	RecordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flashscreen_recording_active",
		Help: "Whether a recording session is live (1) or not (0).",
	})

	// RecordingDuration observes wall-clock session length at stop.
	RecordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashscreen_recording_duration_seconds",
		Help:    "Wall-clock duration of completed recording sessions.",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800, 3600, 7200},
	})

	// FFmpegSpawnTotal counts capture process spawn attempts by result.
	FFmpegSpawnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashscreen_ffmpeg_spawn_total",
		Help: "Total number of capture process spawn attempts, by result.",
	}, []string{"result"})

	// FFmpegExitTotal counts capture process exits by reason
	// (graceful, killed, cancelled, unexpected).
	FFmpegExitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashscreen_ffmpeg_exit_total",
		Help: "Total number of capture process exits, by reason.",
	}, []string{"reason"})

	// ConfigReloadTotal counts settings reloads by result.
	ConfigReloadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flashscreen_config_reload_total",
		Help: "Total number of settings reloads, by result.",
	}, []string{"result"})
)

func RecordStart(result string) {
	RecordingStartTotal.WithLabelValues(result).Inc()
}

func RecordStop(outcome string) {
	RecordingStopTotal.WithLabelValues(outcome).Inc()
}

// SetActive flips the live-session gauge.
func SetActive(active bool) {
	if active {
		RecordingActive.Set(1)
		return
	}
	RecordingActive.Set(0)
}

func ObserveDuration(seconds float64) {
	RecordingDuration.Observe(seconds)
}

func RecordFFmpegSpawn(result string) {
	FFmpegSpawnTotal.WithLabelValues(result).Inc()
}

func RecordFFmpegExit(reason string) {
	FFmpegExitTotal.WithLabelValues(reason).Inc()
}

func RecordConfigReload(result string) {
	ConfigReloadTotal.WithLabelValues(result).Inc()
}

// GetActive reads the live-session gauge.
func GetActive() float64 {
	var m dto.Metric
	if err := RecordingActive.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
