// 指示: miu200521358
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/text/message"

	"github.com/miu200521358/mu_fabrik/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_fabrik/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_fabrik/pkg/adapter/scene"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/infra/base/mlogging"
	"github.com/miu200521358/mu_fabrik/pkg/infra/config"
	"github.com/miu200521358/mu_fabrik/pkg/infra/watch"
	"github.com/miu200521358/mu_fabrik/pkg/shared/base/logging"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

const appName = "mu_fabrik"

// options はCLI引数を保持する。
type options struct {
	inputPath   string
	outputPath  string
	configPath  string
	language    string
	startFrame  int
	frames      int
	previewSize int
	watch       bool
	verbose     bool
	debug       bool
	quiet       bool
}

// main はリグファイルのIKを解決してポーズを保存する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	opts, err := parseOptions(args, errOut)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyOverrides(&cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := mlogging.NewLogger(errOut)
	logger.SetLevel(resolveLogLevel(opts, cfg))
	logging.SetDefaultLogger(logger)
	printer := messages.NewPrinter(cfg.Logging.Language)

	repository := io_rig.NewRigRepository()
	if !repository.CanLoad(opts.inputPath) {
		return fmt.Errorf("入力形式が未対応です: %s", opts.inputPath)
	}
	usecase := minteractor.NewFabrikUsecase(minteractor.FabrikUsecaseDeps{
		RigReader:  repository,
		PoseWriter: repository,
		Options: minteractor.SolveOptions{
			MaxIterations: cfg.Solver.MaxIterations,
			Tolerance:     cfg.Solver.Tolerance,
		},
	})

	solve := func() error {
		return solveOnce(usecase, opts, cfg, out, printer)
	}
	if !opts.watch {
		return solve()
	}
	return watchAndSolve(opts.inputPath, solve, out, printer)
}

// solveOnce はリグを1回解決して結果を表示する。
func solveOnce(
	usecase *minteractor.FabrikUsecase,
	opts options,
	cfg config.SolverConfig,
	out io.Writer,
	printer *message.Printer,
) error {
	fmt.Fprintf(out, "[%s] %s: %s\n", appName, printer.Sprintf(messages.LabelRigPath), opts.inputPath)
	result, err := usecase.SolveRig(minteractor.SolveRigRequest{
		RigPath:      opts.inputPath,
		OutputPath:   opts.outputPath,
		SceneBuilder: buildScene,
		Animation: minteractor.AnimationRequest{
			StartFrame:       cfg.Solver.StartFrame,
			FrameCount:       cfg.Solver.Frames,
			Fps:              cfg.Solver.Fps,
			ProgressReporter: progressReporter{},
		},
		PreviewSize: cfg.Output.PreviewSize,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", printer.Sprintf(messages.MessageSolveFailed), err)
	}
	fmt.Fprintf(out, "[%s] %s\n", appName, printer.Sprintf(messages.LogSolveSuccess,
		result.OutputPath, len(result.Poses.Frames), result.PreSolve.ChainCount, len(result.PreSolve.BranchJoints)))
	if result.PreviewPath != "" {
		fmt.Fprintf(out, "[%s] %s\n", appName, printer.Sprintf(messages.LogPreviewSuccess, result.PreviewPath))
	}
	return nil
}

// watchAndSolve はリグファイルの変更ごとに解決をやり直す。割り込みで終了する。
func watchAndSolve(path string, solve func() error, out io.Writer, printer *message.Printer) error {
	if err := solve(); err != nil {
		fmt.Fprintf(out, "[%s] %v\n", appName, err)
	}
	watcher, err := watch.NewRigWatcher(path, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	fmt.Fprintf(out, "[%s] %s\n", appName, printer.Sprintf(messages.MessageWatchStarted, watcher.Path()))
	return watcher.Run(ctx, func(changed string) {
		fmt.Fprintf(out, "[%s] %s\n", appName, printer.Sprintf(messages.MessageWatchReloading, changed))
		if err := solve(); err != nil {
			fmt.Fprintf(out, "[%s] %v\n", appName, err)
		}
	})
}

// buildScene はリグ定義からメモリ上のシーングラフを構築する。
func buildScene(rig *model.RigData) (moutput.ISceneGraph, error) {
	graph, err := scene.NewMemorySceneGraph(rig)
	if err != nil {
		return nil, err
	}
	return graph, nil
}

// progressReporter は解決進捗をデバッグログへ流す。
type progressReporter struct{}

// ReportSolveProgress は解決処理進捗を通知する。
func (progressReporter) ReportSolveProgress(event minteractor.SolveProgressEvent) {
	logger := logging.DefaultLogger()
	if logger == nil || !logger.IsDebugEnabled() {
		return
	}
	logger.Debug("進捗: type=%s frame=%d chain=%d/%d branches=%d",
		event.Type, event.Frame, event.ChainIndex+1, event.ChainCount, event.BranchCount)
}

// parseOptions はCLI引数を解析する。
func parseOptions(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(errOut)

	in := fs.String("in", "", "入力リグファイルパス (.yaml/.yml/.json/.gltf/.glb/.vrm)")
	out := fs.String("out", "", "出力ポーズJSONパス")
	configPath := fs.String("config", "", "設定TOMLファイルパス")
	lang := fs.String("lang", "", "表示言語 (ja/en)")
	start := fs.Int("start", -1, "開始フレーム")
	frames := fs.Int("frames", 0, "解決するフレーム数")
	preview := fs.Int("preview", -1, "プレビューBMPの一辺ピクセル数 (0で出力しない)")
	watchFlag := fs.Bool("watch", false, "リグファイルの変更を監視して再解決する")
	verbose := fs.Bool("v", false, "INFOログを出力する")
	debug := fs.Bool("vv", false, "DEBUGログを出力する")
	quiet := fs.Bool("q", false, "ERRORログのみ出力する")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if *in == "" && fs.NArg() > 0 {
		*in = fs.Arg(0)
	}
	if *out == "" && fs.NArg() > 1 {
		*out = fs.Arg(1)
	}
	if strings.TrimSpace(*in) == "" {
		return options{}, fmt.Errorf("入力リグファイルを指定してください (-in)")
	}
	if *frames < 0 {
		return options{}, fmt.Errorf("フレーム数は0以上で指定してください: %d", *frames)
	}

	return options{
		inputPath:   *in,
		outputPath:  *out,
		configPath:  *configPath,
		language:    *lang,
		startFrame:  *start,
		frames:      *frames,
		previewSize: *preview,
		watch:       *watchFlag,
		verbose:     *verbose,
		debug:       *debug,
		quiet:       *quiet,
	}, nil
}

// applyOverrides はCLI引数で指定された値を設定へ反映する。
func applyOverrides(cfg *config.SolverConfig, opts options) {
	if opts.frames > 0 {
		cfg.Solver.Frames = opts.frames
	}
	if opts.startFrame >= 0 {
		cfg.Solver.StartFrame = opts.startFrame
	}
	if opts.previewSize >= 0 {
		cfg.Output.PreviewSize = opts.previewSize
	}
	if strings.TrimSpace(opts.language) != "" {
		cfg.Logging.Language = opts.language
	}
}

// resolveLogLevel は冗長度フラグを優先し、無ければ設定のレベルを使う。
func resolveLogLevel(opts options, cfg config.SolverConfig) logging.LogLevel {
	if opts.debug || opts.verbose || opts.quiet {
		return logging.LevelFromFlags(opts.debug, opts.verbose, opts.quiet)
	}
	return logging.ParseLogLevel(cfg.Logging.Level)
}
