// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alexandremahdhaoui/csx-stats/pkg/ledger"
	"github.com/caarlos0/env/v11"
)

// runHistory prints the publish ledger, newest first.
func runHistory(args []string, stdout, stderr io.Writer) error {
	envs := Envs{} //nolint:exhaustruct // unmarshal
	if err := env.Parse(&envs); err != nil {
		return err
	}

	fs := flag.NewFlagSet("csx-stats history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ledgerPath := fs.String("ledger", envs.LedgerPath, "path to the publish ledger")
	limit := fs.Int("n", 10, "number of records to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := ledger.New(*ledgerPath).List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(stdout, "No publications recorded in %s\n", *ledgerPath)
		return nil
	}

	if *limit > 0 && len(records) > *limit {
		records = records[:*limit]
	}

	return printRecords(stdout, records)
}

func printRecords(w io.Writer, records []ledger.PublishRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTARTED\tDURATION\tFILES\tDIGEST\tDESTINATION")

	for _, r := range records {
		digest := r.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		if digest == "" {
			digest = "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1fs\t%d\t%s\t%s\n",
			r.ID,
			r.Status,
			r.StartTime.Local().Format(time.DateTime),
			r.Duration,
			r.FileCount,
			digest,
			r.Destination,
		)
	}

	return tw.Flush()
}
