package commands

import (
	"fmt"
	"os"

	"caf/pkg/inspect"
	"caf/pkg/types"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <hash>",
	Short: "Show an object by hash",
	Long:  `Retrieve an object from the repository by its content hash (or unique prefix). Structured objects (tag/commit/tree) are pretty-printed, blobs go to stdout verbatim.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		// 支持短哈希
		hash, err := CAF.Store.ExpandHash(ctx, types.HashPrefix(args[0]))
		if err != nil {
			return fmt.Errorf("invalid hash '%s': %w", args[0], err)
		}

		data, err := loadObject(ctx, hash)
		if err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}

		// 结构化对象：漂亮地打印；原始 Blob：直接写 stdout
		// 如果是二进制内容，可以通过 > file.bin 重定向
		ok, err := inspect.PrintStructure(data, os.Stdout)
		if err != nil {
			return fmt.Errorf("object %s is corrupted: %w", hash, err)
		}
		if !ok {
			_, err = os.Stdout.Write(data)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
