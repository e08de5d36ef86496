// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/flashscreen/internal/config"
	"github.com/ManuGH/flashscreen/internal/recording"
	"github.com/ManuGH/flashscreen/internal/session"
)

type ctlOptions struct {
	addr    string
	timeout time.Duration
}

func (o *ctlOptions) client() *client {
	return newClient(o.addr, o.timeout)
}

func runCtl(args []string) int {
	root := newCtlCmd(os.Stdout)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newCtlCmd(out io.Writer) *cobra.Command {
	opts := &ctlOptions{}
	root := &cobra.Command{
		Use:           "flashscreen ctl",
		Short:         "Control a running FlashScreen daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.addr, "addr",
		config.ParseString(config.EnvListen, config.Default().Server.Listen), "daemon control API address")
	// Stop may merge segments, which takes a while for long recordings.
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 3*time.Minute, "request timeout")

	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newStateCmd(opts))
	root.AddCommand(newStopCmd(opts))
	root.AddCommand(newSimpleCmd(opts, "pause", "Pause the recording"))
	root.AddCommand(newSimpleCmd(opts, "resume", "Resume a paused recording"))
	root.AddCommand(newSimpleCmd(opts, "cancel", "Cancel the recording and discard its output"))
	return root
}

func newStartCmd(opts *ctlOptions) *cobra.Command {
	var (
		mode     string
		region   string
		windowID string
		src      recording.Sources
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start recording",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := recording.ParseMode(mode)
			if err != nil {
				return err
			}
			req := session.StartRequest{Mode: m, Sources: src}
			if region != "" {
				r, err := parseRegion(region)
				if err != nil {
					return err
				}
				req.Region = &r
			}
			if windowID != "" {
				req.WindowID = &windowID
			}

			var resp struct {
				OutputPath string `json:"outputPath"`
			}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/recording/start", req, &resp); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), resp.OutputPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(recording.ModeFullscreen), "capture mode: fullscreen, window or region")
	cmd.Flags().StringVar(&region, "region", "", "capture region as x,y,width,height")
	cmd.Flags().StringVar(&windowID, "window-id", "", "window identifier (window mode)")
	cmd.Flags().BoolVar(&src.Microphone, "mic", false, "record the microphone")
	cmd.Flags().BoolVar(&src.SystemAudio, "system-audio", false, "record system audio")
	cmd.Flags().BoolVar(&src.Camera, "camera", false, "enable the camera overlay")
	return cmd
}

func newStopCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop recording and print the output file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				OutputPath string `json:"outputPath"`
			}
			if err := opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/recording/stop", nil, &resp); err != nil {
				return err
			}
			if resp.OutputPath != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), resp.OutputPath)
			}
			return nil
		},
	}
}

func newSimpleCmd(opts *ctlOptions, op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   op,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client().do(cmd.Context(), http.MethodPost, "/api/v1/recording/"+op, nil, nil)
		},
	}
}

func newStateCmd(opts *ctlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the recording state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap recording.Snapshot
			if err := opts.client().do(cmd.Context(), http.MethodGet, "/api/v1/recording", nil, &snap); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}

// parseRegion parses "x,y,width,height".
func parseRegion(s string) (recording.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return recording.Region{}, fmt.Errorf("region %q: want x,y,width,height", s)
	}
	var nums [4]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return recording.Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		nums[i] = n
	}
	if nums[2] <= 0 || nums[3] <= 0 {
		return recording.Region{}, fmt.Errorf("%w: width and height must be positive", recording.ErrInvalidRegion)
	}
	return recording.Region{
		X:      int32(nums[0]),
		Y:      int32(nums[1]),
		Width:  uint32(nums[2]),
		Height: uint32(nums[3]),
	}, nil
}
