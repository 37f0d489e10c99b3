// 指示: miu200521358
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/miu200521358/mu_fabrik/pkg/adapter/io_rig"
	"github.com/miu200521358/mu_fabrik/pkg/adapter/scene"
	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
	"github.com/miu200521358/mu_fabrik/pkg/infra/config"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/minteractor"
	"github.com/miu200521358/mu_fabrik/pkg/usecase/port/moutput"
)

const (
	batchOutputDirMode = 0o755
	batchPreviewSize   = 256
)

// batchConfig はバッチ解決の実行設定を表す。
type batchConfig struct {
	RigDir     string
	OutputRoot string
	Frames     int
	DryRun     bool
	FailFast   bool
}

// solveEntry は1リグ分の解決入力情報を表す。
type solveEntry struct {
	Index      int
	SourcePath string
	RigName    string
	CaseDir    string
	OutputPath string
}

// solveResult は1リグ分の解決結果を表す。
type solveResult struct {
	Entry     solveEntry
	Status    string
	Duration  time.Duration
	Err       error
	StageInfo string
}

// solveProgressCollector は SolveRig の進捗イベントを収集する。
type solveProgressCollector struct {
	eventCounts map[minteractor.SolveProgressEventType]int
	chainMax    int
	branchMax   int
	frameTotal  int
}

// main はリグディレクトリ配下の一括IK解決を実行する。
func main() {
	os.Exit(run())
}

// run は実行設定を解決して一括解決を実行し、終了コードを返す。
func run() int {
	cfg, err := parseBatchConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	repository := io_rig.NewRigRepository()
	paths, err := collectRigPaths(cfg.RigDir, repository)
	if err != nil {
		fmt.Fprintf(os.Stderr, "入力リグの収集に失敗しました: %v\n", err)
		return 2
	}
	entries := buildSolveEntries(cfg.OutputRoot, paths)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "解決対象リグがありません")
		return 2
	}

	results := executeBatchSolve(cfg, repository, entries)
	printBatchSummary(results)

	for _, result := range results {
		if result.Status == "failed" {
			return 1
		}
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig() (batchConfig, error) {
	defaultRigDir, defaultOutputRoot, err := resolveDefaultDirs()
	if err != nil {
		return batchConfig{}, err
	}
	rigDir := flag.String("dir", defaultRigDir, "入力リグのディレクトリ")
	outputRoot := flag.String("output-root", defaultOutputRoot, "解決結果の出力ルートディレクトリ")
	frames := flag.Int("frames", 1, "解決するフレーム数")
	dryRun := flag.Bool("dry-run", false, "実解決せず、入力解決と出力先計画のみ表示する")
	failFast := flag.Bool("fail-fast", false, "失敗時に即時終了する")
	flag.Parse()

	trimmedOutputRoot := strings.TrimSpace(*outputRoot)
	if trimmedOutputRoot == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	if strings.TrimSpace(*rigDir) == "" {
		return batchConfig{}, errors.New("dir が空です")
	}
	if *frames <= 0 {
		return batchConfig{}, fmt.Errorf("frames は1以上を指定してください: %d", *frames)
	}
	return batchConfig{
		RigDir:     filepath.Clean(*rigDir),
		OutputRoot: filepath.Clean(trimmedOutputRoot),
		Frames:     *frames,
		DryRun:     *dryRun,
		FailFast:   *failFast,
	}, nil
}

// resolveDefaultDirs はスクリプト配置ディレクトリ基準の既定入出力先を返す。
func resolveDefaultDirs() (string, string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", "", errors.New("実行ファイル位置を取得できません")
	}
	currentDir := filepath.Dir(currentFilePath)
	return filepath.Join(currentDir, "rigs"), filepath.Join(currentDir, "output"), nil
}

// collectRigPaths は読み込み可能なリグファイルを名前順で返す。
func collectRigPaths(dir string, reader moutput.IRigReader) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(items))
	for _, item := range items {
		if item.IsDir() || strings.HasSuffix(item.Name(), ".handles.yaml") {
			continue
		}
		path := filepath.Join(dir, item.Name())
		if reader.CanLoad(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// buildSolveEntries は入力パス一覧から解決対象エントリを生成する。
func buildSolveEntries(outputRoot string, inputPaths []string) []solveEntry {
	entries := make([]solveEntry, 0, len(inputPaths))
	for i, path := range inputPaths {
		rigName := resolveRigName(path)
		safeRigName := sanitizePathComponent(rigName)
		caseDir := filepath.Join(outputRoot, fmt.Sprintf("%03d_%s", i+1, safeRigName))
		entries = append(entries, solveEntry{
			Index:      i + 1,
			SourcePath: path,
			RigName:    rigName,
			CaseDir:    caseDir,
			OutputPath: filepath.Join(caseDir, safeRigName+"_solved.json"),
		})
	}
	return entries
}

// executeBatchSolve は全リグの解決処理を順次実行する。
func executeBatchSolve(cfg batchConfig, repository *io_rig.RigRepository, entries []solveEntry) []solveResult {
	defaults := config.Default()
	results := make([]solveResult, 0, len(entries))
	usecase := minteractor.NewFabrikUsecase(minteractor.FabrikUsecaseDeps{
		RigReader:  repository,
		PoseWriter: repository,
		Options: minteractor.SolveOptions{
			MaxIterations: defaults.Solver.MaxIterations,
			Tolerance:     defaults.Solver.Tolerance,
		},
	})

	total := len(entries)
	for _, entry := range entries {
		fmt.Printf("[%d/%d] 解決開始: rig=%s\n", entry.Index, total, entry.RigName)
		result := solveRigEntry(usecase, cfg, defaults.Solver.Fps, entry)
		results = append(results, result)
		switch result.Status {
		case "succeeded":
			fmt.Printf("[%d/%d] 解決成功: rig=%s output=%s elapsed=%s\n",
				entry.Index, total, entry.RigName, entry.OutputPath, result.Duration.Round(time.Millisecond))
			if strings.TrimSpace(result.StageInfo) != "" {
				fmt.Printf("[%d/%d] SolveRig進捗: %s\n", entry.Index, total, result.StageInfo)
			}
		case "dry_run":
			fmt.Printf("[%d/%d] DRY-RUN: rig=%s input=%s output=%s\n",
				entry.Index, total, entry.RigName, entry.SourcePath, entry.OutputPath)
		default:
			fmt.Printf("[%d/%d] 解決失敗: rig=%s reason=%v\n", entry.Index, total, entry.RigName, result.Err)
			if cfg.FailFast {
				return results
			}
		}
	}
	return results
}

// solveRigEntry は1リグ分の解決を実行する。
func solveRigEntry(usecase *minteractor.FabrikUsecase, cfg batchConfig, fps float64, entry solveEntry) solveResult {
	result := solveResult{Entry: entry, Status: "failed"}
	if cfg.DryRun {
		result.Status = "dry_run"
		return result
	}
	if err := os.MkdirAll(entry.CaseDir, batchOutputDirMode); err != nil {
		result.Err = fmt.Errorf("出力ディレクトリ作成に失敗しました: %w", err)
		return result
	}

	startedAt := time.Now()
	collector := newSolveProgressCollector()
	solved, err := usecase.SolveRig(minteractor.SolveRigRequest{
		RigPath:      entry.SourcePath,
		OutputPath:   entry.OutputPath,
		SceneBuilder: buildScene,
		Animation: minteractor.AnimationRequest{
			FrameCount:       cfg.Frames,
			Fps:              fps,
			ProgressReporter: collector,
		},
		PreviewSize: batchPreviewSize,
	})
	if err != nil {
		result.Err = fmt.Errorf("SolveRigに失敗しました: %w", err)
		return result
	}
	if solved == nil || solved.Poses == nil {
		result.Err = errors.New("SolveRig結果が空です")
		return result
	}

	result.Status = "succeeded"
	result.Duration = time.Since(startedAt)
	result.StageInfo = collector.Summary()
	return result
}

func buildScene(rig *model.RigData) (moutput.ISceneGraph, error) {
	graph, err := scene.NewMemorySceneGraph(rig)
	if err != nil {
		return nil, err
	}
	return graph, nil
}

// printBatchSummary は解決結果の集計を標準出力へ表示する。
func printBatchSummary(results []solveResult) {
	succeeded, failed, dryRun := 0, 0, 0
	for _, result := range results {
		switch result.Status {
		case "succeeded":
			succeeded++
		case "dry_run":
			dryRun++
		default:
			failed++
		}
	}
	fmt.Printf("バッチ解決サマリ: total=%d succeeded=%d failed=%d dry_run=%d\n",
		len(results), succeeded, failed, dryRun)
}

// resolveRigName は入力パスから拡張子を除いたリグ名を返す。
func resolveRigName(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		return "rig"
	}
	return name
}

// sanitizePathComponent は出力ディレクトリ/ファイル名に使えない文字を置換する。
func sanitizePathComponent(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "rig"
	}
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		default:
			if r < 0x20 {
				return '_'
			}
			return r
		}
	}, trimmed)
	replaced = strings.Trim(replaced, " .")
	if replaced == "" {
		return "rig"
	}
	return replaced
}

// newSolveProgressCollector は SolveRig 進捗収集器を生成する。
func newSolveProgressCollector() *solveProgressCollector {
	return &solveProgressCollector{
		eventCounts: map[minteractor.SolveProgressEventType]int{},
	}
}

// ReportSolveProgress は SolveRig の進捗イベントを収集する。
func (collector *solveProgressCollector) ReportSolveProgress(event minteractor.SolveProgressEvent) {
	if collector == nil {
		return
	}
	collector.eventCounts[event.Type]++
	if event.ChainCount > collector.chainMax {
		collector.chainMax = event.ChainCount
	}
	if event.BranchCount > collector.branchMax {
		collector.branchMax = event.BranchCount
	}
	if event.Type == minteractor.SolveProgressEventTypeFrameSolved {
		collector.frameTotal++
	}
}

// Summary は収集した進捗の要約文字列を返す。
func (collector *solveProgressCollector) Summary() string {
	if collector == nil || len(collector.eventCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(collector.eventCounts))
	for stageType := range collector.eventCounts {
		types = append(types, string(stageType))
	}
	sort.Strings(types)
	return fmt.Sprintf("events=%d frames=%d chainMax=%d branchMax=%d stages=%s",
		len(collector.eventCounts), collector.frameTotal, collector.chainMax, collector.branchMax,
		strings.Join(types, ","))
}
