package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gozoneinfo/tzcore"
)

func init() {
	RootCmd.AddCommand(offsetCmd)
}

var offsetCmd = &cobra.Command{
	Use:   "offset <zone-key> <rfc3339-instant>",
	Short: "Print the UTC offset, DST offset, and abbreviation for a zone at an instant",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()
		if err := runOffset(args[0], args[1]); err != nil {
			log.Fatal(err)
		}
	},
}

func runOffset(key, instant string) error {
	t, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return fmt.Errorf("parsing instant %q: %w", instant, err)
	}

	zone, err := tzcore.Load(key)
	if err != nil {
		return fmt.Errorf("loading zone %q: %w", key, err)
	}

	rec := zone.Lookup(t)
	fmt.Printf("%s utcoff=%s dstoff=%s isdst=%v abbr=%s\n",
		t.Format(time.RFC3339), time.Duration(rec.UTCOffsetSeconds)*time.Second,
		time.Duration(rec.DSTOffsetSeconds)*time.Second, rec.IsDST, rec.Abbr)
	return nil
}
