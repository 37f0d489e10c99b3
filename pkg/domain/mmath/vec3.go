// 指示: miu200521358
// Package mmath はIK計算で使う3Dベクトルと回転を提供する。
package mmath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 は3Dベクトルを表す。
type Vec3 struct {
	r3.Vec
}

// NewVec3 は成分からベクトルを生成する。
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{Vec: r3.Vec{X: x, Y: y, Z: z}}
}

// Vec3FromSlice は3要素スライスからベクトルを生成する。
func Vec3FromSlice(values []float64) (Vec3, error) {
	if len(values) != 3 {
		return Vec3{}, fmt.Errorf("ベクトル要素数が3ではありません: %d", len(values))
	}
	return NewVec3(values[0], values[1], values[2]), nil
}

// Slice は成分を3要素スライスで返す。
func (v Vec3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// Added は加算結果を返す。
func (v Vec3) Added(other Vec3) Vec3 {
	return Vec3{Vec: r3.Add(v.Vec, other.Vec)}
}

// Subed は減算結果を返す。
func (v Vec3) Subed(other Vec3) Vec3 {
	return Vec3{Vec: r3.Sub(v.Vec, other.Vec)}
}

// MuledScalar はスカラー倍を返す。
func (v Vec3) MuledScalar(s float64) Vec3 {
	return Vec3{Vec: r3.Scale(s, v.Vec)}
}

// Length はベクトル長を返す。
func (v Vec3) Length() float64 {
	return r3.Norm(v.Vec)
}

// Distance は2点間距離を返す。
func (v Vec3) Distance(other Vec3) float64 {
	return r3.Norm(r3.Sub(v.Vec, other.Vec))
}

// Lerp は v と other を ratio で線形補間する。ratio=0 で v、ratio=1 で other。
func (v Vec3) Lerp(other Vec3, ratio float64) Vec3 {
	return Vec3{Vec: r3.Add(r3.Scale(1-ratio, v.Vec), r3.Scale(ratio, other.Vec))}
}

// NearEquals は各成分が許容誤差内か判定する。
func (v Vec3) NearEquals(other Vec3, epsilon float64) bool {
	return math.Abs(v.X-other.X) <= epsilon &&
		math.Abs(v.Y-other.Y) <= epsilon &&
		math.Abs(v.Z-other.Z) <= epsilon
}

// IsFinite は全成分が有限値か判定する。
func (v Vec3) IsFinite() bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// String はデバッグ用の文字列表現を返す。
func (v Vec3) String() string {
	return fmt.Sprintf("[x=%.5f, y=%.5f, z=%.5f]", v.X, v.Y, v.Z)
}

// Mean は位置群の算術平均を返す。空の場合は false を返す。
func Mean(positions []Vec3) (Vec3, bool) {
	if len(positions) == 0 {
		return Vec3{}, false
	}
	sum := r3.Vec{}
	for _, p := range positions {
		sum = r3.Add(sum, p.Vec)
	}
	return Vec3{Vec: r3.Scale(1/float64(len(positions)), sum)}, true
}

// Distances は連続する位置間の距離一覧を返す。
func Distances(positions []Vec3) []float64 {
	if len(positions) < 2 {
		return nil
	}
	links := make([]float64, 0, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		links = append(links, positions[i-1].Distance(positions[i]))
	}
	return links
}

// TotalLength はリンク長の合計を返す。
func TotalLength(links []float64) float64 {
	if len(links) == 0 {
		return 0
	}
	return floats.Sum(links)
}
