// 指示: miu200521358
package io_rig

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/miu200521358/mu_fabrik/pkg/domain/model"
)

// ParseRigJSON はJSONのリグ定義を解析する。ファイル以外から受け取った定義に使う。
func ParseRigJSON(b []byte) (*model.RigData, error) {
	return parseJsonRig(b)
}

// parseJsonRig はJSONのリグ定義を解析する。
func parseJsonRig(b []byte) (*model.RigData, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("JSONの形式が不正です")
	}
	root := gjson.ParseBytes(b)
	doc := rigDocument{
		Name:    root.Get("name").String(),
		Joints:  jsonJoints(root.Get("joints")),
		Handles: jsonHandles(root.Get("handles")),
	}
	return doc.toRigData()
}

func jsonJoints(value gjson.Result) []jointDocument {
	docs := make([]jointDocument, 0)
	value.ForEach(func(_, joint gjson.Result) bool {
		docs = append(docs, jointDocument{
			Name:     joint.Get("name").String(),
			Path:     joint.Get("path").String(),
			Position: jsonFloats(joint.Get("position")),
			Children: jsonJoints(joint.Get("children")),
		})
		return true
	})
	return docs
}

func jsonHandles(value gjson.Result) []handleDocument {
	docs := make([]handleDocument, 0)
	value.ForEach(func(_, handle gjson.Result) bool {
		doc := handleDocument{
			Name:     handle.Get("name").String(),
			Effector: handle.Get("effector").String(),
			Root:     handle.Get("root").String(),
			Target:   jsonFloats(handle.Get("target")),
			Track: trackDocument{
				X: handle.Get("track.x").String(),
				Y: handle.Get("track.y").String(),
				Z: handle.Get("track.z").String(),
			},
		}
		if priority := handle.Get("priority"); priority.Exists() {
			value := int(priority.Int())
			doc.Priority = &value
		}
		docs = append(docs, doc)
		return true
	})
	return docs
}

func jsonFloats(value gjson.Result) []float64 {
	if !value.IsArray() {
		return nil
	}
	items := value.Array()
	values := make([]float64, 0, len(items))
	for _, item := range items {
		values = append(values, item.Float())
	}
	return values
}
