package idproof

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veridoc/idproof/commitment"
	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/smt"
)

// NewBuildTreeCmd builds a screening-list tree offline. The input is one
// entry per line, fields separated by "|"; each line's fields are
// concatenated, packed and poseidon-hashed into the tree key, with value 1.
// The run is deterministic and restartable from scratch: re-inserting an
// existing entry is a no-op.
func NewBuildTreeCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build-tree <list-file>",
		Short: "Build a sparse screening-list tree from a line-oriented list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tree := smt.New()
			one := big.NewInt(1)

			scanner := bufio.NewScanner(f)
			lines := 0
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				joined := strings.Join(strings.Split(line, "|"), "")
				key, err := commitment.Hash(common.PackBytes([]byte(joined), 31))
				if err != nil {
					return fmt.Errorf("line %d: %w", lines+1, err)
				}
				if err := tree.Insert(key, one); err != nil {
					return fmt.Errorf("line %d: %w", lines+1, err)
				}
				lines++
			}
			if err := scanner.Err(); err != nil {
				return err
			}

			data, err := tree.Export()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("built tree with %d entries, root %s\n", tree.Size(), tree.Root())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "screening.smt.json", "Output snapshot file")
	return cmd
}
