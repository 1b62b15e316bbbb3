// Package export renders stored simulations as CSV downloads.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/refis-sim/refis-sim/internal/refis"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

// WriteItemsCSV emits the stored debt simulations, one row per item.
func WriteItemsCSV(w io.Writer, items []refis.Item) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment("# Report: Debt Simulations"); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{
		"ID", "Entity", "Profile", "Description", "Year", "Category", "Choice", "Installments",
		"Principal", "Charges", "Correction", "Current Total", "Discount", "Settled Total",
		"Installment Amount", "Down Payment", "Alert",
	}); err != nil {
		return err
	}
	for _, it := range items {
		if err := streamer.writeRow([]string{
			strconv.FormatInt(it.ID, 10),
			it.Entity,
			string(it.Profile),
			it.Description,
			strconv.Itoa(it.Year),
			string(it.Category),
			string(it.Choice),
			strconv.Itoa(it.Installments),
			formatDecimal(it.Principal),
			formatDecimal(it.Charges),
			formatDecimal(it.Correction),
			formatDecimal(it.Settlement.CurrentTotal),
			formatDecimal(it.Settlement.DiscountAmount),
			formatDecimal(it.Settlement.SettledTotal),
			formatDecimal(it.Settlement.InstallmentAmount),
			formatDecimal(it.Settlement.DownPayment),
			it.Settlement.Alert,
		}); err != nil {
			return err
		}
	}
	return streamer.Close()
}

// WriteGroupsCSV emits the stored joint negotiations, one row per group.
func WriteGroupsCSV(w io.Writer, groups []refis.Group) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeComment("# Report: Joint Negotiations"); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{
		"ID", "Entity", "Profile", "Category", "Choice", "Installments", "Members",
		"Principal", "Charges", "Correction", "Current Total", "Discount", "Settled Total",
		"Installment Amount", "Down Payment", "Alert",
	}); err != nil {
		return err
	}
	for _, g := range groups {
		if err := streamer.writeRow([]string{
			strconv.FormatInt(g.ID, 10),
			g.Entity,
			string(g.Profile),
			string(g.Category),
			string(g.Choice),
			strconv.Itoa(g.Installments),
			joinIDs(g.MemberIDs),
			formatDecimal(g.Principal),
			formatDecimal(g.Charges),
			formatDecimal(g.Correction),
			formatDecimal(g.Settlement.CurrentTotal),
			formatDecimal(g.Settlement.DiscountAmount),
			formatDecimal(g.Settlement.SettledTotal),
			formatDecimal(g.Settlement.InstallmentAmount),
			formatDecimal(g.Settlement.DownPayment),
			g.Settlement.Alert,
		}); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func formatDecimal(v decimal.Decimal) string {
	return v.StringFixed(2)
}
