// Package warehouse loads the materialized warehouse order snapshot.
//
// The snapshot is a directory of CSV extracts with VAT-band aggregation
// already applied upstream. Fixed column contract: order_id, order_date,
// gross_amount, net_amount, transaction_refs (semicolon separated, may be
// empty), plus one qty_<band>/net_<band>/vat_<band> triplet per VAT band
// present in the extract (bands 0, 5, 20 in practice).
package warehouse

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// Loader reads warehouse orders from a snapshot directory.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader over the given snapshot directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

// LoadOrders reads every *.csv in the snapshot directory and returns the
// orders whose order_date falls inside [start, end] inclusive, sorted by
// order ID. The returned slice is a fresh materialization; callers treat it
// as read-only for the rest of the run.
func (l *Loader) LoadOrders(ctx context.Context, start, end time.Time) ([]model.WarehouseOrder, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot dir %s: %w", l.dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no snapshot CSV files found in %s", l.dir)
	}
	sort.Strings(paths)

	var orders []model.WarehouseOrder
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fileOrders, err := l.loadFile(path, start, end)
		if err != nil {
			return nil, fmt.Errorf("snapshot file %s: %w", filepath.Base(path), err)
		}
		orders = append(orders, fileOrders...)
		l.logger.Debug("loaded snapshot file", "file", filepath.Base(path), "orders", len(fileOrders))
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })

	l.logger.Info("loaded warehouse snapshot",
		"files", len(paths),
		"orders", len(orders),
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
	)

	return orders, nil
}

func (l *Loader) loadFile(path string, start, end time.Time) ([]model.WarehouseOrder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range []string{"order_id", "order_date", "gross_amount", "net_amount"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	bands := bandColumns(cols)

	var orders []model.WarehouseOrder
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		order, err := parseOrder(row, cols, bands)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		if order.OrderDate.Before(start) || order.OrderDate.After(end) {
			continue
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func parseOrder(row []string, cols map[string]int, bands []string) (model.WarehouseOrder, error) {
	var order model.WarehouseOrder

	order.OrderID = strings.TrimSuffix(strings.TrimSpace(row[cols["order_id"]]), ".0")
	if order.OrderID == "" {
		return order, fmt.Errorf("empty order_id")
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(row[cols["order_date"]]))
	if err != nil {
		return order, fmt.Errorf("bad order_date: %w", err)
	}
	order.OrderDate = date

	if order.GrossAmount, err = parseAmount(row[cols["gross_amount"]]); err != nil {
		return order, fmt.Errorf("bad gross_amount: %w", err)
	}
	if order.NetAmount, err = parseAmount(row[cols["net_amount"]]); err != nil {
		return order, fmt.Errorf("bad net_amount: %w", err)
	}

	if idx, ok := cols["transaction_refs"]; ok {
		for _, ref := range strings.Split(row[idx], ";") {
			if ref = strings.TrimSpace(ref); ref != "" {
				order.TransactionRefs = append(order.TransactionRefs, ref)
			}
		}
	}

	if len(bands) > 0 {
		order.VATBands = make(map[string]model.VATBand, len(bands))
	}
	for _, band := range bands {
		qty, err := parseQuantity(row[cols["qty_"+band]])
		if err != nil {
			return order, fmt.Errorf("bad qty_%s: %w", band, err)
		}
		net, err := parseAmount(row[cols["net_"+band]])
		if err != nil {
			return order, fmt.Errorf("bad net_%s: %w", band, err)
		}
		vat, err := parseAmount(row[cols["vat_"+band]])
		if err != nil {
			return order, fmt.Errorf("bad vat_%s: %w", band, err)
		}
		order.VATBands[band] = model.VATBand{Quantity: qty, NetAmount: net, VATAmount: vat}
	}

	return order, nil
}

// bandColumns finds the VAT-band labels that have a complete
// qty/net/vat column triplet, sorted for determinism.
func bandColumns(cols map[string]int) []string {
	var bands []string
	for name := range cols {
		band, ok := strings.CutPrefix(name, "qty_")
		if !ok {
			continue
		}
		if _, ok := cols["net_"+band]; !ok {
			continue
		}
		if _, ok := cols["vat_"+band]; !ok {
			continue
		}
		bands = append(bands, band)
	}
	sort.Strings(bands)
	return bands
}

// parseAmount treats a blank cell as zero, the way the extract encodes
// absent band amounts.
func parseAmount(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func parseQuantity(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSuffix(value, ".0"))
}
