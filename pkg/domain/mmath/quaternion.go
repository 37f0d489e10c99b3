// 指示: miu200521358
package mmath

import "github.com/go-gl/mathgl/mgl64"

// Quaternion はジョイントの向きを表す。
type Quaternion struct {
	mgl64.Quat
}

// NewQuaternion は単位クォータニオンを生成する。
func NewQuaternion() Quaternion {
	return Quaternion{Quat: mgl64.QuatIdent()}
}

// NewQuaternionFromWXYZ は成分からクォータニオンを生成する。
func NewQuaternionFromWXYZ(w, x, y, z float64) Quaternion {
	return Quaternion{Quat: mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}}
}

// NearEquals は許容誤差内で同じ向きか判定する。
func (q Quaternion) NearEquals(other Quaternion, epsilon float64) bool {
	return q.Quat.ApproxEqualThreshold(other.Quat, epsilon)
}

// Rotated はベクトルを回転させた結果を返す。
func (q Quaternion) Rotated(v Vec3) Vec3 {
	r := q.Quat.Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return NewVec3(r[0], r[1], r[2])
}
