package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"caf/pkg/core"
	"caf/pkg/inspect"
	"caf/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Create, list, show and delete annotated tags",
}

// -----------------------------------------------------------------------------
// caf tag create <name> <target>
// -----------------------------------------------------------------------------

var (
	tagMessage    string
	tagTargetType string
)

var tagCreateCmd = &cobra.Command{
	Use:   "create <name> <target-hash>",
	Short: "Create an annotated tag pointing at an object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}
		name := args[0]

		ctx := cmd.Context()

		// 1. 展开目标哈希 (支持短哈希)
		// 只检查目标对象在对象库里存在，不去解引用它
		target, err := CAF.Store.ExpandHash(ctx, types.HashPrefix(args[1]))
		if err != nil {
			return fmt.Errorf("invalid target '%s': %w", args[1], err)
		}

		targetType := core.ObjectType(tagTargetType)

		// 2. 准备作者身份 (从配置中读)
		// 身份格式是这一层的事，core 只把它当不透明字符串
		author := viper.GetString("user.name")
		if author == "" {
			author = "caf user"
		}
		if email := viper.GetString("user.email"); email != "" {
			author = fmt.Sprintf("%s <%s>", author, email)
		}

		// 3. 构造 Tag 对象
		// 时间戳在这里取，core 层构造是纯函数
		tagObj, err := core.NewTag(target, targetType, name, author, tagMessage, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to create tag object: %w", err)
		}

		// 4. 持久化对象，然后挂引用
		// 顺序很重要：先对象后引用，引用永远不会指向不存在的对象
		if err := CAF.Store.Put(ctx, tagObj); err != nil {
			return fmt.Errorf("failed to store tag: %w", err)
		}
		if err := CAF.Refs.CreateTag(ctx, name, tagObj.ID()); err != nil {
			// 对象已经写进去了，但内容寻址存储只增不删，留着无害
			return fmt.Errorf("failed to create tag reference: %w", err)
		}

		// 5. 投影到 SQL 索引 (查询加速，失败不影响主流程)
		if err := CAF.Meta.IndexTag(ctx, tagObj); err != nil {
			fmt.Printf("⚠️  Warning: failed to index tag: %v\n", err)
		}

		fmt.Printf("✅ [%s] %s -> %s (%s)\n", tagObj.ID()[:8], name, target[:8], targetType)
		return nil
	},
}

// -----------------------------------------------------------------------------
// caf tag list
// -----------------------------------------------------------------------------

var tagListAuthor string

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		// 按作者过滤时走 SQL 索引
		if tagListAuthor != "" {
			tags, err := CAF.Meta.FindTagsByAuthor(ctx, tagListAuthor, 100)
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Printf("%s  %s  %s\n", t.Hash[:8], t.Name, t.Message)
			}
			return nil
		}

		// 默认走引用层 (真相来源)
		byName, names, err := CAF.Refs.ListTags(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Printf("%s  %s\n", byName[name][:8], name)
		}
		return nil
	},
}

// -----------------------------------------------------------------------------
// caf tag show <name>
// -----------------------------------------------------------------------------

var tagShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an annotated tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		hash, err := CAF.Refs.ResolveTag(ctx, args[0])
		if err != nil {
			return err
		}

		data, err := loadObject(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to load tag object %s: %w", hash, err)
		}

		// PrintStructure 里的严格解码顺便完成了完整性校验
		ok, err := inspect.PrintStructure(data, os.Stdout)
		if err != nil {
			return fmt.Errorf("tag object %s is corrupted: %w", hash, err)
		}
		if !ok {
			return fmt.Errorf("object %s is not a structured object", hash)
		}
		return nil
	},
}

// -----------------------------------------------------------------------------
// caf tag delete <name>
// -----------------------------------------------------------------------------

var tagDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a tag reference",
	Long:  `Remove the tag reference. The tag object itself stays in the object store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}
		if err := CAF.Refs.DeleteTag(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted tag '%s'\n", args[0])
		return nil
	},
}

// -----------------------------------------------------------------------------
// caf tag verify
// -----------------------------------------------------------------------------

var tagVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of all tag objects",
	Long:  `Re-decode every tag object strictly and check that its content hash matches the reference.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if CAF == nil {
			return fmt.Errorf("application not initialized")
		}
		ctx := cmd.Context()

		byName, names, err := CAF.Refs.ListTags(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No tags to verify.")
			return nil
		}

		var mu sync.Mutex
		var problems []string

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8) // 并发校验，但别把存储后端打爆

		for _, name := range names {
			name := name
			hash := byName[name]
			g.Go(func() error {
				if msg := verifyTag(gctx, name, hash); msg != "" {
					mu.Lock()
					problems = append(problems, msg)
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Println("❌", p)
			}
			return fmt.Errorf("%d of %d tags failed verification", len(problems), len(names))
		}

		fmt.Printf("✅ All %d tags verified.\n", len(names))
		return nil
	},
}

// verifyTag 返回空字符串表示通过，否则返回问题描述
func verifyTag(ctx context.Context, name string, hash types.Hash) string {
	data, err := loadObject(ctx, hash)
	if err != nil {
		return fmt.Sprintf("%s: cannot load object %s: %v", name, hash[:8], err)
	}

	// 严格解码：非规范编码、字段损坏都会在这里被拒绝
	tagObj, err := core.DecodeTag(data)
	if err != nil {
		return fmt.Sprintf("%s: %v", name, err)
	}

	// 解码成功意味着重新序列化与输入一致，此时 ID 就是存储字节的哈希
	if tagObj.ID() != hash {
		return fmt.Sprintf("%s: content hash mismatch (ref says %s, object is %s)", name, hash[:8], tagObj.ID()[:8])
	}
	if tagObj.Name != name {
		return fmt.Sprintf("%s: tag object carries a different name %q", name, tagObj.Name)
	}
	return ""
}

// loadObject 从存储层读出完整字节
func loadObject(ctx context.Context, hash types.Hash) ([]byte, error) {
	reader, err := CAF.Store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCreateCmd.Flags().StringVarP(&tagMessage, "message", "m", "", "tag message")
	tagCreateCmd.Flags().StringVarP(&tagTargetType, "type", "t", "commit", "target object type (blob|tree|commit|tag)")
	tagCmd.AddCommand(tagCreateCmd)

	tagListCmd.Flags().StringVar(&tagListAuthor, "author", "", "filter tags by author")
	tagCmd.AddCommand(tagListCmd)

	tagCmd.AddCommand(tagShowCmd)
	tagCmd.AddCommand(tagDeleteCmd)
	tagCmd.AddCommand(tagVerifyCmd)
}
