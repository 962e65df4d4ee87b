package main

import (
	"chat-relay/repositories"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Prints the newest entries of the transfer journal.
func main() {
	dbPath := flag.String("db", envOr("BADGER_FILEPATH", "./data/journal"), "Path to badger DB")
	limit := flag.Int("limit", 50, "Number of transfers to show, 0 for all")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR).WithReadOnly(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	records, err := repositories.NewTransferRepository(db, slog.Default(), 0).Latest(*limit)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Closed", "ID", "Sender", "Recipient", "File", "Bytes", "Declared", "State", "Outcome", "Error"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, r := range records {
		displayID := r.ID.String()[:8]
		table.Append([]string{
			r.ClosedAt.Local().Format("2006-01-02 15:04:05"),
			displayID,
			r.Sender,
			r.Recipient,
			r.Filename,
			strconv.FormatInt(r.BytesRelayed, 10),
			strconv.FormatInt(r.DeclaredSize, 10),
			r.FinalState.String(),
			string(r.Outcome),
			r.Error,
		})
	}
	table.Render()
	fmt.Printf("%d transfer(s)\n", len(records))
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
