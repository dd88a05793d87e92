package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gozoneinfo/tzcore/tzif"
)

func init() {
	RootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <tzif-file-a> <tzif-file-b>",
	Short: "Field-by-field diff of two decoded TZif files",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()
		if err := runDiff(args[0], args[1]); err != nil {
			log.Fatal(err)
		}
	},
}

func runDiff(pathA, pathB string) error {
	af, err := os.ReadFile(pathA)
	if err != nil {
		return err
	}
	bf, err := os.ReadFile(pathB)
	if err != nil {
		return err
	}

	adata, err := tzif.DecodeData(bytes.NewReader(af))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", pathA, err)
	}
	bdata, err := tzif.DecodeData(bytes.NewReader(bf))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", pathB, err)
	}

	if diff := cmp.Diff(adata, bdata); diff != "" {
		fmt.Printf("files are different: -%s +%s\n", pathA, pathB)
		fmt.Println(diff)
		return nil
	}
	fmt.Println("files are identical")
	return nil
}
