// Command replay is a terminal match viewer: it uploads a video (or attaches
// to an existing match), polls until analysis finishes, then walks the
// timeline printing the synchronized view state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/config"
	"github.com/your-org/rallyscope/internal/models"
	"github.com/your-org/rallyscope/internal/observability"
	"github.com/your-org/rallyscope/internal/replay"
	"github.com/your-org/rallyscope/pkg/client"
	"github.com/your-org/rallyscope/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	server := flag.String("server", "http://localhost:8080", "match API base URL")
	upload := flag.String("upload", "", "video file to upload and watch")
	matchID := flag.String("match", "", "existing match id to watch")
	stepMs := flag.Int64("step", 500, "playback step in milliseconds")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, "text")

	if (*upload == "") == (*matchID == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -upload or -match is required")
		os.Exit(1)
	}

	api := client.New(*server, cfg.Server.APIKey, cfg.Replay.RequestTimeout)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := resolveMatch(ctx, api, *upload, *matchID)
	if err != nil {
		slog.Error("resolve match", "error", err)
		os.Exit(1)
	}

	status, err := waitForTerminal(ctx, cancel, api, cfg.Replay, id)
	if err != nil {
		slog.Error("wait for analysis", "error", err)
		os.Exit(1)
	}
	if status != models.MatchStatusComplete {
		slog.Error("analysis did not complete", "match_id", id, "status", status)
		os.Exit(1)
	}

	details, err := api.GetMatch(context.Background(), id)
	if err != nil {
		slog.Error("fetch match", "error", err)
		os.Exit(1)
	}

	playback(details, cfg.Replay, *stepMs)
}

func resolveMatch(ctx context.Context, api *client.Client, upload, matchID string) (uuid.UUID, error) {
	if upload != "" {
		resp, err := api.Upload(ctx, upload)
		if err != nil {
			return uuid.Nil, err
		}
		fmt.Printf("uploaded %s as match %s\n", upload, resp.ID)
		return resp.ID, nil
	}
	return uuid.Parse(matchID)
}

// waitForTerminal polls the batch status endpoint until the match reaches a
// terminal state. One ticker, one request per round, even though only a
// single match is tracked here.
func waitForTerminal(ctx context.Context, cancel context.CancelFunc, api *client.Client, cfg config.ReplayConfig, id uuid.UUID) (models.MatchStatus, error) {
	var final models.MatchStatus

	poller := replay.NewPoller(api, cfg.PollInterval, cfg.RequestTimeout,
		func(ctx context.Context, terminalID uuid.UUID, status models.MatchStatus) {
			final = status
			cancel()
		})
	poller.Track(id)

	fmt.Printf("waiting for analysis of %s (poll every %s)\n", id, cfg.PollInterval)
	poller.Run(ctx)

	if final == "" {
		return "", fmt.Errorf("polling stopped before match %s finished", id)
	}
	return final, nil
}

// playback walks the full timeline step by step and prints what a viewer
// would see: score changes, active shots and events, live aggregates.
func playback(details *dto.MatchDetailsResponse, cfg config.ReplayConfig, stepMs int64) {
	match := &models.Match{
		Shots:      details.Shots,
		Events:     details.Events,
		Statistics: details.Statistics,
	}
	session := replay.NewSession(match, replay.Windows{
		ShotMs:  cfg.ShotWindowMs,
		EventMs: cfg.EventWindowMs,
	}, nil)

	var endMs int64
	if details.DurationSeconds != nil {
		endMs = int64(*details.DurationSeconds) * 1000
	}
	if n := len(details.Events); n > 0 && details.Events[n-1].TimestampMs > endMs {
		endMs = details.Events[n-1].TimestampMs
	}

	lastScore := models.ScoreState{}
	for pos := int64(0); pos <= endMs; pos += stepMs {
		frame, ok := session.Seek(pos)
		if !ok {
			continue
		}
		if frame.Score != lastScore {
			fmt.Printf("[%7dms] score %d-%d (lead %+d)\n",
				pos, frame.Score.Player1, frame.Score.Player2, frame.Lead)
			lastScore = frame.Score
		}
		if frame.ActiveEvent != nil {
			fmt.Printf("[%7dms] event: %s (%s)\n",
				pos, frame.ActiveEvent.Title, frame.ActiveEvent.Description)
		}
		if frame.ActiveShot != nil {
			fmt.Printf("[%7dms] shot: player %d %s at %.1f km/h (%s)\n",
				pos, frame.ActiveShot.Player, frame.ActiveShot.ShotType,
				frame.ActiveShot.Speed, frame.ActiveShot.Result)
		}
	}

	final := replay.Aggregate(match.Shots, endMs)
	fmt.Printf("\nfinal: %d shots, max %.1f km/h, avg %.1f km/h, score %d-%d\n",
		final.TotalShots, final.MaxSpeed, final.AverageSpeed,
		lastScore.Player1, lastScore.Player2)
}
