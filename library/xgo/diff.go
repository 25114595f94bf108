package xgo

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/r3labs/diff/v3"
)

// Diff 比较两个同类型的值
func Diff(a, b any) (diff.Changelog, error) {
	return diff.Diff(a, b, diff.DisableStructValues())
}

// DiffLog 比较并格式化变更, 每行一个字段: path: from -> to
func DiffLog(a, b any) (diff.Changelog, string, error) {
	changes, err := Diff(a, b)
	if err != nil {
		return nil, "", err
	}
	var sb strings.Builder
	for _, c := range changes {
		fmt.Fprintf(&sb, "  %s: %v -> %v\n", strings.Join(c.Path, "."), c.From, c.To)
	}
	return changes, sb.String(), nil
}

// DeepCopy src 深拷贝到 dst
func DeepCopy(dst, src any) error {
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true, IgnoreEmpty: false})
}
