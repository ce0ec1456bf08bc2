package commands

import (
	"fmt"
	"os"

	"caf/pkg/core"

	"github.com/spf13/cobra"
)

var hashObjectWrite bool

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object <file>",
	Short: "Compute the content hash of a file",
	Long:  `Compute the blob hash of a file. With -w, also write the blob into the object store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		blob := core.NewBlob(data)

		if hashObjectWrite {
			if err := CAF.Store.Put(cmd.Context(), blob); err != nil {
				return fmt.Errorf("failed to store blob: %w", err)
			}
		}

		fmt.Println(blob.ID())
		return nil
	},
}

func init() {
	hashObjectCmd.Flags().BoolVarP(&hashObjectWrite, "write", "w", false, "write the blob into the object store")
	rootCmd.AddCommand(hashObjectCmd)
}
