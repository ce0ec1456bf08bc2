package inspect

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"caf/pkg/core"
)

// PrintStructure 解析并打印结构化对象 (Tag/Commit/Tree)
// 如果是原始数据 (Blob)，返回 false，由调用者决定如何展示
func PrintStructure(data []byte, w io.Writer) (bool, error) {
	// 1. 尝试探测类型
	var header struct {
		TypeVal core.ObjectType `cbor:"t"`
	}

	// 如果连基本的 CBOR 头都解不出来，说明是 Raw Data
	if err := core.DecodeObject(data, &header); err != nil {
		return false, nil
	}

	// 2. 分发打印
	switch header.TypeVal {
	case core.TypeTag:
		return true, printTag(data, w)
	case core.TypeCommit:
		return true, printCommit(data, w)
	case core.TypeTree:
		return true, printTree(data, w)
	default:
		// 未知类型，或者可能是巧合的二进制数据
		return false, nil
	}
}

// printTag 用严格解码：顺便校验对象完整性
// 一个存储层损坏的 Tag 在这里就会暴露，而不是打出一半错误字段
func printTag(data []byte, w io.Writer) error {
	t, err := core.DecodeTag(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:    Tag\n")
	fmt.Fprintf(w, "Hash:    %s\n", t.ID())
	fmt.Fprintf(w, "Name:    %s\n", t.Name)
	fmt.Fprintf(w, "Target:  %s (%s)\n", t.Target.Hash, t.TargetType)
	fmt.Fprintf(w, "Author:  %s\n", t.Author)
	fmt.Fprintf(w, "Time:    %s\n", time.Unix(t.Timestamp, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "\n%s\n", t.Message)
	return nil
}

func printCommit(data []byte, w io.Writer) error {
	var c core.Commit
	if err := core.DecodeObject(data, &c); err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:    Commit\n")
	fmt.Fprintf(w, "Author:  %s\n", c.Author)
	fmt.Fprintf(w, "Time:    %s\n", time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Tree:    %s\n", c.TreeCid.Hash)
	for _, p := range c.Parents {
		fmt.Fprintf(w, "Parent:  %s\n", p.Hash)
	}
	fmt.Fprintf(w, "\n%s\n", c.Message)
	return nil
}

func printTree(data []byte, w io.Writer) error {
	var t core.Tree
	if err := core.DecodeObject(data, &t); err != nil {
		return err
	}
	fmt.Fprintf(w, "Type: Tree (%d entries)\n", len(t.Entries))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range t.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Type, e.Hash.Hash[:12], e.Size, e.Name)
	}
	return tw.Flush()
}
