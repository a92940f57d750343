// Package main provides the CLI entrypoint for splitclock.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/splitclock/internal/config"
	"github.com/verte-zerg/splitclock/internal/historyui"
	"github.com/verte-zerg/splitclock/internal/input"
	"github.com/verte-zerg/splitclock/internal/model"
	"github.com/verte-zerg/splitclock/internal/stats"
	"github.com/verte-zerg/splitclock/internal/store"
	"github.com/verte-zerg/splitclock/internal/timing"
	"github.com/verte-zerg/splitclock/internal/tui"
)

const (
	defaultFPS              = 60
	defaultRunner           = "me"
	defaultSegmentsOnScreen = 10
	defaultMinSegmentsAhead = 2
	defaultLockingMessage   = "Timer locked"
	defaultBackend          = input.BackendAuto
	defaultLogLevel         = "info"
	defaultHistoryWindow    = 5
)

var defaultExtraStats = []string{"current-pace", "sum-of-best", "runs-that-reach-here", "personal-best"}

var (
	timerFPS              int
	timerRunner           string
	timerSegmentsOnScreen int
	timerMinSegmentsAhead int
	timerExtraStats       []string
	timerLockingMessage   string
	inputBackend          string
	inputKeyboardID       int
	inputKeyDelay         float64
	logLevel              string

	newForce bool

	exportOut string

	historyLast   int
	historyWindow int
	historyPlain  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "splitclock <splits>",
		Short:         "Terminal speedrun timer",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.Flags().IntVar(&timerFPS, "fps", defaultFPS, "frames per second")
	rootCmd.Flags().StringVar(&timerRunner, "runner", defaultRunner, "name recorded with a new world record")
	rootCmd.Flags().IntVar(&timerSegmentsOnScreen, "segments-per-screen", defaultSegmentsOnScreen, "segments shown at once (0 = all)")
	rootCmd.Flags().IntVar(&timerMinSegmentsAhead, "min-segments-ahead", defaultMinSegmentsAhead, "upcoming segments kept on screen")
	rootCmd.Flags().StringSliceVar(&timerExtraStats, "stats", defaultExtraStats, "stats shown under the clock")
	rootCmd.Flags().StringVar(&timerLockingMessage, "locking-message", defaultLockingMessage, "message shown while the timer is locked")
	rootCmd.Flags().StringVar(&inputBackend, "backend", defaultBackend, "input backend: auto, terminal or xinput")
	rootCmd.Flags().IntVar(&inputKeyboardID, "keyboard-id", 0, "xinput keyboard device id")
	rootCmd.Flags().Float64Var(&inputKeyDelay, "key-delay", input.DefaultKeyDelay.Seconds(), "seconds before a held key repeats")
	rootCmd.Flags().StringVar(&logLevel, "log-level", defaultLogLevel, "debug log level")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newSplitsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveTimerConfig(cmd, args[0], fileCfg)
	if err != nil {
		return err
	}
	kinds, err := stats.ParseKinds(cfg.ExtraStats)
	if err != nil {
		return err
	}

	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	logs, err := setupLogger(config.DefaultLogPath(), level, logRotationFrom(fileCfg.Log))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logs.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()
	logger := logs.Logger

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	run, err := loadRun(context.Background(), st, config.SplitsPath(cfg.SplitsName))
	if err != nil {
		return err
	}

	backend, err := input.NewBackend(cfg.InputBackend, cfg.KeyboardID)
	if err != nil {
		return err
	}
	terminal, _ := backend.(*input.Terminal)
	if terminal == nil {
		cfg.Keys = config.ResolveKeys(fileCfg.Keys, input.BackendXInput)
	}
	reader := input.NewReader(backend, input.Options{
		KeyDelay: cfg.KeyDelay,
		ResetMin: cfg.ResetMin,
		ResetMax: cfg.ResetMax,
		Logger:   logger.With("component", "input"),
	})
	timer := timing.New(run, reader, st, timing.Options{
		Keys:   cfg.Keys,
		Runner: cfg.Runner,
		Logger: logger.With("component", "timer"),
	})
	logger.Info("timer started", "game", run.Game, "category", run.Category, "segments", len(run.Segments), "backend", fmt.Sprintf("%T", backend))

	m := tui.NewModel(timer, tui.Options{
		Config:   cfg,
		Stats:    kinds,
		Terminal: terminal,
		Logger:   logger.With("component", "tui"),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveTimerConfig merges defaults, the config file and flags.
func resolveTimerConfig(cmd *cobra.Command, splits string, fileCfg config.FileConfig) (model.Config, error) {
	applyIntConfig(cmd, "fps", &timerFPS, fileCfg.Timer.FPS)
	applyStringConfig(cmd, "runner", &timerRunner, fileCfg.Timer.Runner)
	applyIntConfig(cmd, "segments-per-screen", &timerSegmentsOnScreen, fileCfg.Timer.SegmentsOnScreen)
	applyIntConfig(cmd, "min-segments-ahead", &timerMinSegmentsAhead, fileCfg.Timer.MinSegmentsAhead)
	applySliceConfig(cmd, "stats", &timerExtraStats, fileCfg.Timer.ExtraStats)
	applyStringConfig(cmd, "locking-message", &timerLockingMessage, fileCfg.Timer.LockingMessage)
	applyStringConfig(cmd, "backend", &inputBackend, fileCfg.Input.Backend)
	applyIntConfig(cmd, "keyboard-id", &inputKeyboardID, fileCfg.Input.KeyboardID)
	applyFloatConfig(cmd, "key-delay", &inputKeyDelay, fileCfg.Input.KeyDelay)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	colors, err := config.ResolveColors(fileCfg.Colors)
	if err != nil {
		return model.Config{}, err
	}
	cfg := model.Config{
		SplitsName:       splits,
		FPS:              timerFPS,
		Runner:           timerRunner,
		SegmentsOnScreen: timerSegmentsOnScreen,
		MinSegmentsAhead: timerMinSegmentsAhead,
		ExtraStats:       timerExtraStats,
		LockingMessage:   timerLockingMessage,
		InputBackend:     inputBackend,
		KeyboardID:       inputKeyboardID,
		KeyDelay:         seconds(inputKeyDelay),
		ResetMin:         secondsOr(fileCfg.Input.ResetMin, input.DefaultResetMin),
		ResetMax:         secondsOr(fileCfg.Input.ResetMax, input.DefaultResetMax),
		Keys:             config.ResolveKeys(fileCfg.Keys, input.BackendTerminal),
		Colors:           colors,
	}
	if cfg.InputBackend == input.BackendXInput {
		cfg.Keys = config.ResolveKeys(fileCfg.Keys, input.BackendXInput)
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// loadRun reads the splits file and prefers the stored run for the same game
// and category when its segments still match.
func loadRun(ctx context.Context, st *store.Store, path string) (model.RunRecord, error) {
	fileRun, err := config.LoadSplits(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.RunRecord{}, fmt.Errorf("splits not found at %s\nCreate them with: splitclock new <game> <category> <segment>...", path)
		}
		return model.RunRecord{}, err
	}
	stored, ok, err := st.LoadRun(ctx, fileRun.Game, fileRun.Category)
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("failed to load run: %w", err)
	}
	if !ok {
		return fileRun, nil
	}
	if !sameSegments(stored, fileRun) {
		logErrf("segments in %s differ from the saved run; using the splits file\n", path)
		return fileRun, nil
	}
	return stored, nil
}

func sameSegments(a, b model.RunRecord) bool {
	if len(a.Segments) != len(b.Segments) {
		return false
	}
	for i := range a.Segments {
		if a.Segments[i].Name != b.Segments[i].Name {
			return false
		}
	}
	return true
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return openEditor(path)
}

func openEditor(path string) error {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <game> <category> <segment>...",
		Short: "Create a splits file",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runNewCmd,
	}
	cmd.Flags().BoolVar(&newForce, "force", false, "overwrite an existing splits file")
	return cmd
}

func runNewCmd(cmd *cobra.Command, args []string) error {
	run := config.NewSplits(args[0], args[1], args[2:])
	name := config.SplitsName(run.Game, run.Category)
	path := config.SplitsPath(name)
	if !newForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("splits already exist: %s (use --force to overwrite)", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat splits: %w", err)
		}
	}
	if err := config.WriteSplits(path, run); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nStart with: splitclock %s\n", path, name); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSplitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "splits",
		Short: "List splits files",
		Args:  cobra.NoArgs,
		RunE:  runSplitsCmd,
	}
}

func runSplitsCmd(cmd *cobra.Command, _ []string) error {
	dir := config.DefaultSplitsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logErrf("No splits found. Create them with: splitclock new <game> <category> <segment>...\n")
			return fmt.Errorf("splits directory does not exist")
		}
		return fmt.Errorf("failed to read splits directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".toml"))
	}
	if len(names) == 0 {
		logErrf("No splits found. Create them with: splitclock new <game> <category> <segment>...\n")
		return fmt.Errorf("no splits found")
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <splits>",
		Short: "Write the saved run back to its splits file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "write to this path instead of the splits file")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	path := config.SplitsPath(args[0])
	fileRun, err := config.LoadSplits(path)
	if err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	run, ok, err := st.LoadRun(context.Background(), fileRun.Game, fileRun.Category)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if !ok {
		return fmt.Errorf("no saved run for %s / %s", fileRun.Game, fileRun.Category)
	}
	out := path
	if exportOut != "" {
		out = exportOut
	}
	if err := config.WriteSplits(out, run); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <splits>",
		Short: "Show run history",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N attempts")
	cmd.Flags().IntVar(&historyWindow, "window", defaultHistoryWindow, "moving average window for finish times")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print tables instead of opening the TUI")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyWindow < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	fileRun, err := config.LoadSplits(config.SplitsPath(args[0]))
	if err != nil {
		return err
	}
	cfg := model.HistoryConfig{
		Game:     fileRun.Game,
		Category: fileRun.Category,
		Last:     historyLast,
		Window:   historyWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	fd := int(os.Stdout.Fd())
	if historyPlain || !term.IsTerminal(fd) {
		width := 80
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
		report, err := stats.BuildReport(context.Background(), st, cfg)
		if err != nil {
			return err
		}
		return renderPlainHistory(cmd, report, cfg.Window, width)
	}

	m := historyui.NewModel(historyui.StoreLoader(st), cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func renderPlainHistory(cmd *cobra.Command, report stats.Report, window, width int) error {
	w := cmd.OutOrStdout()
	if err := stats.RenderSummary(w, report, window, width-len("Finish times: ")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderSegmentTable(w, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderAttempts(w, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}

func secondsOr(s *float64, def time.Duration) time.Duration {
	if s == nil {
		return def
	}
	return seconds(*s)
}

func logRotationFrom(cfg config.LogConfig) logRotation {
	r := logRotation{
		MaxSizeMB:  defaultLogMaxSizeMB,
		MaxBackups: defaultLogMaxBackups,
		MaxAgeDays: defaultLogMaxAgeDays,
	}
	if cfg.MaxSizeMB != nil {
		r.MaxSizeMB = *cfg.MaxSizeMB
	}
	if cfg.MaxBackups != nil {
		r.MaxBackups = *cfg.MaxBackups
	}
	if cfg.MaxAgeDays != nil {
		r.MaxAgeDays = *cfg.MaxAgeDays
	}
	return r
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# splitclock configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# fps = %d                    # Frames per second
# runner = %q               # Name recorded with a new world record
# segments-per-screen = %d    # Segments shown at once (0 = all)
# min-segments-ahead = %d      # Upcoming segments kept on screen
# extra-stats = [%s]
# locking-message = %q

[input]
# backend = %q             # auto, terminal or xinput
# keyboard-id = 0             # xinput device id (see: xinput list)
# key-delay = %.1f             # Seconds before a held key repeats
# reset-min = %.1f             # Double-tap reset window, in seconds
# reset-max = %.1f

[keys]
# Terminal keys use Bubble Tea names ("space", "r"); xinput keys use X keycodes ("65").
# split = { key = "space" }
# reset = { key = "r" }
# undo = { key = "u" }
# redo = { key = "i" }
# lock = { key = "l", shift = false }

[colors]
# Hex colours: #rrggbb or #rrggbbaa
# base = "#e6e6e6"
# ahead-gaining = "#00cc36"
# ahead-losing = "#52cc73"
# behind-gaining = "#cc5c52"
# behind-losing = "#cc1200"
# best = "#d8af1f"
# separator = "#4a4a4a"
# detailed-timer = "#9a9a9a"

[log]
# level = %q
# max-size-mb = %d
# max-backups = %d
# max-age-days = %d
`,
		defaultFPS,
		defaultRunner,
		defaultSegmentsOnScreen,
		defaultMinSegmentsAhead,
		quoteList(defaultExtraStats),
		defaultLockingMessage,
		defaultBackend,
		input.DefaultKeyDelay.Seconds(),
		input.DefaultResetMin.Seconds(),
		input.DefaultResetMax.Seconds(),
		defaultLogLevel,
		defaultLogMaxSizeMB,
		defaultLogMaxBackups,
		defaultLogMaxAgeDays,
	)
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}

func validateConfig(cfg model.Config) error {
	if cfg.FPS <= 0 || cfg.FPS > 1000 {
		return fmt.Errorf("--fps must be between 1 and 1000")
	}
	if strings.TrimSpace(cfg.Runner) == "" {
		return fmt.Errorf("--runner must not be empty")
	}
	if cfg.SegmentsOnScreen < 0 {
		return fmt.Errorf("--segments-per-screen must be >= 0")
	}
	if cfg.MinSegmentsAhead < 0 {
		return fmt.Errorf("--min-segments-ahead must be >= 0")
	}
	if cfg.SegmentsOnScreen > 0 && cfg.MinSegmentsAhead >= cfg.SegmentsOnScreen {
		return fmt.Errorf("--min-segments-ahead must be less than --segments-per-screen")
	}
	if cfg.KeyDelay <= 0 {
		return fmt.Errorf("--key-delay must be > 0")
	}
	if cfg.ResetMin < 0 || cfg.ResetMax <= cfg.ResetMin {
		return fmt.Errorf("reset-max must be greater than reset-min")
	}
	switch cfg.InputBackend {
	case input.BackendAuto, input.BackendTerminal, input.BackendXInput:
	default:
		return fmt.Errorf("--backend must be auto, terminal or xinput")
	}
	if cfg.InputBackend == input.BackendXInput && cfg.KeyboardID <= 0 {
		return fmt.Errorf("--keyboard-id is required for the xinput backend (see: xinput list)")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
