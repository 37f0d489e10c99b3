// 指示: miu200521358
package minteractor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/vector"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

const (
	outputDirFileMode    = 0o755
	outputFileMode       = 0o644
	solvedFileSuffix     = "_solved"
	previewFileSuffix    = "_preview"
	defaultPreviewSize   = 256
	previewMarginRatio   = 0.1
	previewLinkHalfWidth = 0.75
	previewJointHalfSize = 2.0
)

var (
	nowFunc           = time.Now
	previewBackground = color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}
	previewLinkColor  = color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
	previewJointColor = color.RGBA{R: 0xff, G: 0x80, B: 0x40, A: 0xff}
)

// BuildDefaultOutputPath はリグパスから既定の解決結果JSONパスを生成する。
func BuildDefaultOutputPath(rigPath string) string {
	return buildDefaultOutputPathAt(rigPath, nowFunc())
}

// buildDefaultOutputPathAt は指定時刻で既定の解決結果JSONパスを生成する。
func buildDefaultOutputPathAt(rigPath string, now time.Time) string {
	dir := filepath.Dir(rigPath)
	base := strings.TrimSuffix(filepath.Base(rigPath), filepath.Ext(rigPath))
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	stamp := now.Format("20060102150405")
	outDir := filepath.Join(dir, fmt.Sprintf("%s_%s", base, stamp))
	return filepath.Join(outDir, base+solvedFileSuffix+".json")
}

// ResolvePoseOutputPath は解決結果の保存先パスを解決し、拡張子を検証する。
func ResolvePoseOutputPath(rigPath string, outputPath string) (string, error) {
	resolved := strings.TrimSpace(outputPath)
	if resolved == "" {
		resolved = BuildDefaultOutputPath(rigPath)
	}
	if strings.TrimSpace(resolved) == "" {
		return "", fmt.Errorf("保存先JSONパスが未指定です")
	}
	if !strings.EqualFold(filepath.Ext(resolved), ".json") {
		return "", fmt.Errorf("保存先拡張子が .json ではありません: %s", resolved)
	}
	return resolved, nil
}

// BuildPreviewPath は解決結果JSONパスと同じ場所のプレビューBMPパスを返す。
func BuildPreviewPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	base = strings.TrimSuffix(base, solvedFileSuffix)
	return filepath.Join(dir, base+previewFileSuffix+".bmp")
}

// ensureOutputDir は出力先ディレクトリを作成する。
func ensureOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, outputDirFileMode); err != nil {
		return fmt.Errorf("出力先ディレクトリの作成に失敗しました: %w", err)
	}
	return nil
}

// WritePreviewBitmap はポーズをXY平面へ投影したプレビューBMPを書き出す。
func WritePreviewBitmap(path string, pose model.FramePose, size int) error {
	data, err := buildPreviewBitmap(pose, size)
	if err != nil {
		return err
	}
	if err := ensureOutputDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, outputFileMode); err != nil {
		return fmt.Errorf("プレビューの保存に失敗しました: %w", err)
	}
	return nil
}

// buildPreviewBitmap はジョイントを正方形、親子リンクを線分で描いたBMPを生成する。
func buildPreviewBitmap(pose model.FramePose, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultPreviewSize
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(previewBackground), image.Point{}, draw.Src)

	if len(pose.Joints) > 0 {
		project := newPreviewProjection(pose.Joints, size)
		positions := make(map[string][2]float32, len(pose.Joints))
		for _, joint := range pose.Joints {
			positions[joint.Path] = project(joint.Position.X, joint.Position.Y)
		}

		links := vector.NewRasterizer(size, size)
		links.DrawOp = draw.Over
		for _, joint := range pose.Joints {
			parent, ok := model.ParentJointPath(joint.Path)
			if !ok {
				continue
			}
			from, ok := positions[parent]
			if !ok {
				continue
			}
			addPreviewSegment(links, from, positions[joint.Path])
		}
		links.Draw(img, img.Bounds(), image.NewUniform(previewLinkColor), image.Point{})

		joints := vector.NewRasterizer(size, size)
		joints.DrawOp = draw.Over
		for _, joint := range pose.Joints {
			addPreviewSquare(joints, positions[joint.Path])
		}
		joints.Draw(img, img.Bounds(), image.NewUniform(previewJointColor), image.Point{})
	}

	var out bytes.Buffer
	if err := bmp.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("プレビューのBMP変換に失敗しました: %w", err)
	}
	return out.Bytes(), nil
}

// newPreviewProjection はジョイント範囲が画像に収まる投影関数を返す。Yは上向き。
func newPreviewProjection(joints []model.Joint, size int) func(x, y float64) [2]float32 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, joint := range joints {
		minX = math.Min(minX, joint.Position.X)
		maxX = math.Max(maxX, joint.Position.X)
		minY = math.Min(minY, joint.Position.Y)
		maxY = math.Max(maxY, joint.Position.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span <= 0 {
		span = 1
	}
	usable := float64(size) * (1 - 2*previewMarginRatio)
	scale := usable / span
	centerX, centerY := (minX+maxX)/2, (minY+maxY)/2
	half := float64(size) / 2
	return func(x, y float64) [2]float32 {
		return [2]float32{
			float32(half + (x-centerX)*scale),
			float32(half - (y-centerY)*scale),
		}
	}
}

// addPreviewSegment は線分を細い四角形としてラスタライザへ追加する。
func addPreviewSegment(z *vector.Rasterizer, from, to [2]float32) {
	dx, dy := to[0]-from[0], to[1]-from[1]
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return
	}
	nx, ny := -dy/length*previewLinkHalfWidth, dx/length*previewLinkHalfWidth
	z.MoveTo(from[0]+nx, from[1]+ny)
	z.LineTo(to[0]+nx, to[1]+ny)
	z.LineTo(to[0]-nx, to[1]-ny)
	z.LineTo(from[0]-nx, from[1]-ny)
	z.ClosePath()
}

// addPreviewSquare はジョイント位置に正方形を追加する。
func addPreviewSquare(z *vector.Rasterizer, center [2]float32) {
	z.MoveTo(center[0]-previewJointHalfSize, center[1]-previewJointHalfSize)
	z.LineTo(center[0]+previewJointHalfSize, center[1]-previewJointHalfSize)
	z.LineTo(center[0]+previewJointHalfSize, center[1]+previewJointHalfSize)
	z.LineTo(center[0]-previewJointHalfSize, center[1]+previewJointHalfSize)
	z.ClosePath()
}
