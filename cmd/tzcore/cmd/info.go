package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gozoneinfo/tzcore/tzif"
)

var infoPrintTransitionsFlag bool

func init() {
	RootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVarP(&infoPrintTransitionsFlag, "transitions", "t", false, "print every transition in human-readable form")
}

var infoCmd = &cobra.Command{
	Use:   "info <tzif-file>",
	Short: "Print a TZif file's header, body, and tail rule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()
		if err := runInfo(args[0]); err != nil {
			log.Fatal(err)
		}
	},
}

func runInfo(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	data, err := tzif.DecodeData(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	fmt.Printf("version: %s\n", data.Version)

	if data.Version == tzif.V1 {
		printHeaderCounts(data.V1Header)
		printDesignationsAndTypes(data.V1Data.TimeZoneDesignation, data.V1Data.LocalTimeTypeRecord)
		return nil
	}

	printHeaderCounts(data.V2Header)
	printDesignationsAndTypes(data.V2Data.TimeZoneDesignation, data.V2Data.LocalTimeTypeRecord)
	fmt.Printf("tail rule: %q\n", string(data.V2Footer.TZString))
	if infoPrintTransitionsFlag {
		for i, t := range data.V2Data.TransitionTimes {
			fmt.Printf("  %s -> type %d\n", time.Unix(t, 0).UTC().Format(time.RFC3339), data.V2Data.TransitionTypes[i])
		}
	}
	return nil
}

func printHeaderCounts(h tzif.Header) {
	fmt.Printf("isutcnt=%d isstdcnt=%d leapcnt=%d timecnt=%d typecnt=%d charcnt=%d\n",
		h.Isutcnt, h.Isstdcnt, h.Leapcnt, h.Timecnt, h.Typecnt, h.Charcnt)
}

func printDesignationsAndTypes(designations []byte, types []tzif.LocalTimeTypeRecord) {
	fmt.Printf("designations: %s\n", strings.Join(strings.Split(string(designations), "\x00"), ", "))
	for i, r := range types {
		fmt.Printf("  type[%d]: utoff=%s isdst=%v\n", i, time.Duration(r.Utoff)*time.Second, r.Dst)
	}
}
