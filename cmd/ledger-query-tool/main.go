package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"property-brokerage-system/internal/adapters/storage/clickhouse"
)

func main() {
	var addr string
	var limit int

	var rootCmd = &cobra.Command{Use: "ledger-query-tool"}
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "localhost:9000", "ClickHouse address")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 20, "Max rows to return")

	// Latest settlements, newest first.
	var recentCmd = &cobra.Command{
		Use:   "recent",
		Short: "Show the latest settlements in the commission ledger",
		Run: func(cmd *cobra.Command, args []string) {
			ledger := connect(addr)
			defer ledger.Close()

			recs, err := ledger.Recent(context.Background(), limit)
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PROPERTY ID\tSTATUS\tPURPOSE\tFINAL PRICE\tCOMMISSION\tSETTLED AT")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
					rec.PropertyID, rec.Status, rec.Purpose,
					rec.FinalPrice, rec.Total, rec.SettledAt.Format(time.RFC3339))
			}
			w.Flush()
		},
	}

	// Brokers ranked by commission earned on their settled properties.
	var topBrokersCmd = &cobra.Command{
		Use:   "top-brokers",
		Short: "Rank brokers by total commission",
		Run: func(cmd *cobra.Command, args []string) {
			ledger := connect(addr)
			defer ledger.Close()

			rows, err := ledger.TopBrokers(context.Background(), limit)
			if err != nil {
				log.Fatal(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "BROKER ID\tSETTLEMENTS\tTOTAL COMMISSION")
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%d\t%.2f\n", row.BrokerID, row.Settlements, row.Total)
			}
			w.Flush()
		},
	}

	rootCmd.AddCommand(recentCmd, topBrokersCmd)
	rootCmd.Execute()
}

func connect(addr string) *clickhouse.Ledger {
	ledger, err := clickhouse.NewLedger(addr)
	if err != nil {
		log.Fatal(err)
	}
	return ledger
}
