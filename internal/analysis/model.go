package analysis

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/your-org/rallyscope/internal/config"
)

// Detector runs the external ball-tracking model over a video file and loads
// the result JSON it writes. The model itself is a black box: a configured
// command line with placeholder substitution, bounded by a timeout. With no
// command configured the result file is expected to exist already (useful for
// replaying canned outputs in development).
type Detector struct {
	cfg config.ModelConfig
}

func NewDetector(cfg config.ModelConfig) *Detector {
	return &Detector{cfg: cfg}
}

func (d *Detector) Detect(ctx context.Context, matchID, videoPath string) (*ModelResult, error) {
	outputDir := filepath.Join(d.cfg.OutputDirectory, matchID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create model output dir: %w", err)
	}

	placeholders := map[string]string{
		"{matchId}":    matchID,
		"{video}":      videoPath,
		"{outputDir}":  outputDir,
		"{weights}":    d.cfg.WeightsPath,
		"{confidence}": fmt.Sprintf("%g", d.cfg.ConfidenceThreshold),
	}

	if len(d.cfg.Command) > 0 {
		if err := d.runCommand(ctx, placeholders); err != nil {
			return nil, err
		}
	} else {
		slog.Debug("no model command configured; expecting result JSON to exist", "match_id", matchID)
	}

	resultFile := filepath.Join(outputDir, substitute(d.cfg.ResultFileName, placeholders))
	data, err := os.ReadFile(resultFile)
	if err != nil {
		return nil, fmt.Errorf("read model result %s: %w", resultFile, err)
	}

	result := &ModelResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("parse model result %s: %w", resultFile, err)
	}

	slog.Info("model result loaded", "match_id", matchID,
		"events", len(result.Events), "shots", len(result.Shots))
	return result, nil
}

func (d *Detector) runCommand(ctx context.Context, placeholders map[string]string) error {
	args := make([]string, 0, len(d.cfg.Command))
	for _, token := range d.cfg.Command {
		args = append(args, substitute(token, placeholders))
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.CommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if d.cfg.WorkingDirectory != "" {
		cmd.Dir = d.cfg.WorkingDirectory
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("model stderr pipe: %w", err)
	}

	slog.Info("running model command", "cmd", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start model command: %w", err)
	}

	// Log stderr in background
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Warn("model stderr", "output", scanner.Text())
		}
	}()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("model command timed out after %s", d.cfg.CommandTimeout)
		}
		return fmt.Errorf("model command: %w", err)
	}
	return nil
}

func substitute(s string, placeholders map[string]string) string {
	for key, value := range placeholders {
		s = strings.ReplaceAll(s, key, value)
	}
	return s
}
