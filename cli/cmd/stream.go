package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/justapithecus/vgmlink/adapter"
	"github.com/justapithecus/vgmlink/artifact"
	"github.com/justapithecus/vgmlink/board"
	"github.com/justapithecus/vgmlink/cli/config"
	"github.com/justapithecus/vgmlink/cli/render"
	"github.com/justapithecus/vgmlink/cli/tui"
	"github.com/justapithecus/vgmlink/device"
	"github.com/justapithecus/vgmlink/iox"
	"github.com/justapithecus/vgmlink/link"
	"github.com/justapithecus/vgmlink/lode"
	"github.com/justapithecus/vgmlink/log"
	"github.com/justapithecus/vgmlink/metrics"
	"github.com/justapithecus/vgmlink/session"
	"github.com/justapithecus/vgmlink/types"
)

const (
	// eventBuffer bounds the progress channel between session and view.
	eventBuffer = 1024
	// finalizeTimeout bounds archive and adapter work after the session.
	finalizeTimeout = 30 * time.Second
	// simulatorPort names the in-memory device in records and logs.
	simulatorPort = "simulator"
	// unknownBoard labels records of sessions that never negotiated.
	unknownBoard = "unknown"
)

// StreamCommand returns the stream command.
func StreamCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Serial port (default: auto-detect)",
			EnvVars: []string{"VGMLINK_PORT"},
		},
		&cli.IntFlag{
			Name:  "baud",
			Usage: "Serial baud rate",
			Value: link.DefaultBaud,
		},
		&cli.StringFlag{
			Name:  "loop",
			Usage: "Loop mode: none, infinite, or total play count N",
			Value: "none",
		},
		&cli.BoolFlag{
			Name:  "simulate",
			Usage: "Stream to an in-memory device instead of a serial port",
		},
		&cli.StringFlag{
			Name:  "simulate-board",
			Usage: "Board the simulated device reports",
			Value: "mega",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Override the negotiated chunk payload size",
		},
		&cli.IntFlag{
			Name:  "pipeline-depth",
			Usage: "Override the negotiated number of unacknowledged chunks",
		},
		&cli.BoolFlag{
			Name:  "archive-artifact",
			Usage: "Store the compiled stream next to the session record",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress and result output",
		},
	}
	flags = append(flags, ReadOnlyFlags()...)
	flags = append(flags, pipelineFlags()...)
	flags = append(flags, storageFlags()...)
	flags = append(flags, adapterFlags()...)

	return &cli.Command{
		Name:      "stream",
		Usage:     "Stream a VGM file or compiled artifact to a device",
		ArgsUsage: "FILE",
		Flags:     flags,
		Action:    streamAction,
	}
}

// StreamSummary is the rendered result of one stream.
type StreamSummary struct {
	SessionID         string        `json:"session_id" yaml:"session_id"`
	Source            string        `json:"source" yaml:"source"`
	Title             string        `json:"title,omitempty" yaml:"title,omitempty"`
	Board             string        `json:"board" yaml:"board"`
	Port              string        `json:"port" yaml:"port"`
	Outcome           string        `json:"outcome" yaml:"outcome"`
	Loop              string        `json:"loop" yaml:"loop"`
	Passes            int           `json:"passes" yaml:"passes"`
	BytesTotal        int64         `json:"bytes_total" yaml:"bytes_total"`
	BytesConfirmed    int64         `json:"bytes_confirmed" yaml:"bytes_confirmed"`
	ChunksSent        int64         `json:"chunks_sent" yaml:"chunks_sent"`
	Retransmits       int64         `json:"retransmits" yaml:"retransmits"`
	UnknownBytes      int64         `json:"unknown_bytes" yaml:"unknown_bytes"`
	PlaybackConfirmed bool          `json:"playback_confirmed" yaml:"playback_confirmed"`
	Duration          time.Duration `json:"duration" yaml:"duration"`
	Archive           string        `json:"archive,omitempty" yaml:"archive,omitempty"`
	Error             string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// streamRun carries the resolved inputs of one stream invocation.
type streamRun struct {
	src       *source
	pipeline  pipelineChoice
	table     board.Table
	loop      session.Loop
	collector *metrics.Collector
	logger    *log.Logger
}

func streamAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("stream requires exactly one FILE argument", exitFormatError)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFormatError)
	}
	table, err := cfg.Table()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid boards config: %v", err), exitFormatError)
	}

	pc := parsePipelineChoice(c, cfg)
	if _, err := pc.options(table, "", nil); err != nil {
		return cli.Exit(err.Error(), exitFormatError)
	}
	loop, err := parseLoop(resolveString(c, "loop", cfg.Loop))
	if err != nil {
		return cli.Exit(err.Error(), exitFormatError)
	}

	src, err := loadSource(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), exitFormatError)
	}

	sc := parseStorageChoice(c, cfg)
	if sc.enabled() {
		if err := validateStorageConfig(sc); err != nil {
			return cli.Exit(err.Error(), exitFormatError)
		}
	}
	var ac *adapterChoice
	if t := resolveAdapterType(c, cfg); t != "" {
		choice, err := parseAdapterConfigWithPrecedence(c, cfg, t)
		if err != nil {
			return cli.Exit(err.Error(), exitFormatError)
		}
		ac = &choice
	}

	simulate := c.Bool("simulate")
	portName := simulatorPort
	baud := resolveInt(c, "baud", cfg.Baud)
	if !simulate {
		portName = resolveString(c, "port", cfg.Port)
		if portName == "" {
			portName, err = link.Detect()
			if err != nil {
				return cli.Exit(fmt.Sprintf("%v\n  List candidates with: vgmlink ports", err), exitTransport)
			}
		}
	}

	sessionID := uuid.NewString()
	meta := &types.SessionMeta{SessionID: sessionID, Source: src.name(), Port: portName}
	logger := log.NewLogger(meta, streamLogLevel(c, cfg))
	defer iox.DiscardErr(logger.Sync)

	port, err := openPort(simulate, portName, baud, c.String("simulate-board"), table)
	if err != nil {
		return cli.Exit(err.Error(), exitTransport)
	}

	events := make(chan session.Event, eventBuffer)
	collector := metrics.NewCollector(portName, sessionID)
	scfg := session.Config{
		Table:     table,
		Events:    events,
		Collector: collector,
		Logger:    logger,
		PortName:  portName,
		Baud:      baud,
	}
	cfg.Session.Apply(&scfg)
	if simulate {
		scfg.SettleDelay = -1
	}
	if c.IsSet("chunk-size") || c.IsSet("pipeline-depth") {
		scfg.Override = &board.Profile{ChunkSize: c.Int("chunk-size"), Depth: c.Int("pipeline-depth")}
	}

	sess := session.New(port, scfg)
	defer iox.DiscardClose(sess)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &streamRun{
		src:       src,
		pipeline:  pc,
		table:     table,
		loop:      loop,
		collector: collector,
		logger:    logger,
	}

	startedAt := time.Now()
	var (
		res      *session.Result
		compiled *artifact.File
		runErr   error
	)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer close(events)
		res, compiled, runErr = run.execute(runCtx, sess)
		return nil
	})
	if c.Bool("tui") && !c.Bool("quiet") {
		info := tui.StreamInfo{Source: src.name(), Title: src.title(), Port: portName, Passes: loop.Passes()}
		g.Go(func() error { return tui.RunStream(gctx, info, events, cancel) })
	} else {
		out := io.Discard
		if !c.Bool("quiet") {
			out = os.Stderr
		}
		g.Go(func() error {
			followProgress(out, events)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("progress view failed", map[string]any{"error": err.Error()})
	}

	rec := buildSessionRecord(sessionID, portName, run, compiled, res, runErr, startedAt)

	finCtx, finCancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer finCancel()
	archivePath := archiveSession(finCtx, sc, collector, rec, compiled, c.Bool("archive-artifact"), logger)
	if ac != nil {
		notify(finCtx, *ac, buildSessionCompletedEvent(rec, archivePath), logger)
	}

	if !c.Bool("quiet") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if err := r.Render(summarize(rec, res, archivePath)); err != nil {
			return err
		}
	}

	code := exitCodeFor(res.Outcome, runErr)
	if runErr == nil {
		return cli.Exit("", code)
	}
	return cli.Exit(failureMessage(runErr), code)
}

// streamLogLevel keeps the TUI readable by defaulting to errors only.
func streamLogLevel(c *cli.Context, cfg *config.Config) zapcore.Level {
	level := resolveString(c, "log-level", cfg.LogLevel)
	if level == "" {
		level = "info"
		if c.Bool("tui") {
			level = "error"
		}
	}
	return log.ParseLevel(level)
}

// openPort opens the serial port or starts a simulated device.
func openPort(simulate bool, name string, baud int, simBoard string, table board.Table) (link.Port, error) {
	if simulate {
		p, err := table.ByName(simBoard)
		if err != nil {
			return nil, fmt.Errorf("invalid --simulate-board: %w", err)
		}
		return device.New(device.Options{Board: p.ID}), nil
	}
	port, err := link.Open(name, baud)
	if err != nil {
		return nil, &session.TransportError{Op: "open", Err: err}
	}
	return port, nil
}

// execute handshakes when the compile depends on the board, compiles
// VGM input, and streams the program.
func (r *streamRun) execute(ctx context.Context, sess *session.Session) (*session.Result, *artifact.File, error) {
	start := time.Now()
	file := r.src.artifact
	if file == nil {
		var negotiated *board.Profile
		if r.pipeline.needsBoard() {
			p, err := sess.Handshake(ctx)
			if err != nil {
				res, err := r.abort(ctx, sess, start, err)
				return res, nil, err
			}
			negotiated = &p
		}

		opts, err := r.pipeline.options(r.table, r.src.name(), negotiated)
		if err != nil {
			res, err := r.abort(ctx, sess, start, err)
			return res, nil, err
		}
		var report *artifact.Report
		file, report, err = artifact.Compile(r.src.vgm, opts)
		if err != nil {
			res, err := r.abort(ctx, sess, start, err)
			return res, nil, err
		}
		r.logger.Info("compiled", map[string]any{
			"reduction":   file.Reduction,
			"encoded_len": report.EncodedLen,
			"truncated":   report.Truncated,
			"loop":        file.HasLoop(),
		})
		sugar := r.logger.Sugar()
		for _, st := range report.Steps {
			sugar.Debugf("pass %s: %d -> %d commands", st.Pass, st.Before, st.After)
		}
	}

	res, err := sess.Stream(ctx, session.ProgramFrom(file.Encoded()), r.loop)
	return res, file, err
}

// abort builds the result of a session that ended before streaming.
// Cancellation yields an interrupted outcome and a nil error.
func (r *streamRun) abort(ctx context.Context, sess *session.Session, start time.Time, err error) (*session.Result, error) {
	res := &session.Result{Outcome: types.OutcomeFailed, Duration: time.Since(start)}
	if p, ok := sess.Profile(); ok {
		res.Profile = p
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		res.Outcome = types.OutcomeInterrupted
		r.collector.IncSessionInterrupted()
		r.logger.Warn("session interrupted", nil)
		err = nil
	} else {
		r.collector.IncSessionFailed()
		r.logger.Error("session failed", map[string]any{"error": err.Error()})
	}
	res.Metrics = r.collector.Snapshot()
	return res, err
}

// followProgress prints a line per state or pass change until events is
// closed.
func followProgress(w io.Writer, events <-chan session.Event) {
	var last session.Event
	for ev := range events {
		if ev.State == last.State && ev.Pass == last.Pass {
			continue
		}
		last = ev
		if ev.Total > 0 {
			fmt.Fprintf(w, "%s pass %d: %d/%d bytes\n", ev.State, ev.Pass, ev.Confirmed, ev.Total)
		} else {
			fmt.Fprintf(w, "%s\n", ev.State)
		}
	}
}

// buildSessionRecord maps the finished session onto an archive record.
func buildSessionRecord(sessionID, portName string, run *streamRun, file *artifact.File, res *session.Result, runErr error, startedAt time.Time) *lode.SessionRecord {
	rec := &lode.SessionRecord{
		SessionID:         sessionID,
		Source:            run.src.name(),
		Title:             run.src.title(),
		Game:              run.src.game(),
		Board:             res.Profile.Name,
		Port:              portName,
		StartedAt:         startedAt.UTC(),
		DurationMs:        res.Duration.Milliseconds(),
		Outcome:           string(res.Outcome),
		Reduction:         run.pipeline.reduction,
		Loop:              loopString(run.loop),
		Passes:            res.Passes,
		BytesTotal:        res.BytesTotal,
		BytesConfirmed:    res.BytesConfirmed,
		ChunksSent:        res.ChunksSent,
		Retransmits:       res.Retransmits,
		UnknownBytes:      res.UnknownBytes,
		HandshakeAttempts: res.Metrics.HandshakeAttempts,
		PlaybackConfirmed: res.PlaybackConfirmed,
	}
	if rec.Board == "" {
		rec.Board = unknownBoard
	}
	if file != nil {
		rec.Reduction = file.Reduction
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	return rec
}

// archiveSession writes rec, and optionally the compiled stream, to the
// configured archive. Failures are logged. Returns the partition path
// when the record was written.
func archiveSession(ctx context.Context, sc storageChoice, collector *metrics.Collector, rec *lode.SessionRecord, file *artifact.File, withArtifact bool, logger *log.Logger) string {
	archive, err := buildArchive(ctx, sc, collector)
	if err != nil {
		warnArchive(logger, "archive unavailable", err)
		return ""
	}
	if archive == nil {
		return ""
	}
	defer iox.DiscardClose(archive)

	day := lode.DeriveDay(rec.StartedAt)
	if withArtifact && file != nil {
		data, err := artifact.Marshal(file)
		if err == nil {
			ref := lode.FileRef{
				Board:     rec.Board,
				Day:       day,
				SessionID: rec.SessionID,
				Filename:  strings.TrimSuffix(rec.Source, filepath.Ext(rec.Source)) + artifact.Ext,
			}
			rec.Artifact, err = archive.PutFile(ctx, ref, data)
		}
		if err != nil {
			warnArchive(logger, "archive artifact failed", err)
		}
	}

	if err := archive.WriteSession(ctx, rec); err != nil {
		warnArchive(logger, "archive session failed", err)
		return ""
	}
	path := buildStoragePath(sc, sc.dataset, rec.Board, day, rec.SessionID)
	logger.Info("session archived", map[string]any{"path": path})
	return path
}

func warnArchive(logger *log.Logger, msg string, err error) {
	fields := map[string]any{"error": err.Error()}
	if hint := lode.Hint(err); hint != "" {
		fields["hint"] = hint
	}
	logger.Warn(msg, fields)
}

// notify publishes ev through the configured adapter, best effort.
func notify(ctx context.Context, ac adapterChoice, ev *adapter.SessionCompletedEvent, logger *log.Logger) {
	a, err := buildAdapter(ac)
	if err != nil {
		logger.Warn("adapter unavailable", map[string]any{"error": err.Error()})
		return
	}
	defer iox.DiscardClose(a)
	publishEvent(ctx, a, ev, logger)
}

func summarize(rec *lode.SessionRecord, res *session.Result, archivePath string) StreamSummary {
	return StreamSummary{
		SessionID:         rec.SessionID,
		Source:            rec.Source,
		Title:             rec.Title,
		Board:             rec.Board,
		Port:              rec.Port,
		Outcome:           rec.Outcome,
		Loop:              rec.Loop,
		Passes:            rec.Passes,
		BytesTotal:        rec.BytesTotal,
		BytesConfirmed:    rec.BytesConfirmed,
		ChunksSent:        rec.ChunksSent,
		Retransmits:       rec.Retransmits,
		UnknownBytes:      rec.UnknownBytes,
		PlaybackConfirmed: rec.PlaybackConfirmed,
		Duration:          res.Duration,
		Archive:           archivePath,
		Error:             rec.Error,
	}
}

// failureMessage appends troubleshooting hints to protocol errors.
func failureMessage(err error) string {
	var pe *session.ProtocolError
	if !errors.As(err, &pe) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for _, hint := range pe.Guidance() {
		b.WriteString("\n  - ")
		b.WriteString(hint)
	}
	return b.String()
}
