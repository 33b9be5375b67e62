package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"warehouse-inventory/internal/app"
)

const usage = `Available commands:
  stock <warehouse>                   live stock by item, bin and batch
  expiring <warehouse> [days]         batches expiring within days (default 30)
  aging <warehouse>                   live lots with age and value
  reconcile <warehouse>               compare ledger balances with live lots
  picks <warehouse> [limit]           recent pick history
  pick <warehouse> <sku> <qty>        pick stock oldest lot first
  reorder-suggestions <warehouse>     reorder rules with priority
  reorder-evaluate <warehouse>        raise requisitions for items at or below minimum`

// Run executes a one-shot CLI command as the given actor and writes the
// result to out. args[0] is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, actor app.Actor, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "stock":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		result, err := svc.StockLevels(ctx, actor, wh)
		if err != nil {
			return err
		}
		printStock(out, result)

	case "expiring":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		days, err := optionalInt(args, 2, "days", 30)
		if err != nil {
			return err
		}
		result, err := svc.ExpiringBatches(ctx, actor, wh, days)
		if err != nil {
			return err
		}
		printExpiring(out, result)

	case "aging":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		result, err := svc.StockAging(ctx, actor, wh)
		if err != nil {
			return err
		}
		printAging(out, result)

	case "reconcile":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		result, err := svc.Reconcile(ctx, actor, wh)
		if err != nil {
			return err
		}
		printReconcile(out, result)
		if len(result.Discrepancies) > 0 {
			return fmt.Errorf("%d ledger discrepancies in warehouse %d", len(result.Discrepancies), wh)
		}

	case "picks":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		limit, err := optionalInt(args, 2, "limit", 20)
		if err != nil {
			return err
		}
		result, err := svc.RecentPicks(ctx, actor, wh, limit)
		if err != nil {
			return err
		}
		printPicks(out, result)

	case "pick":
		if len(args) < 4 {
			return fmt.Errorf("usage: pick <warehouse> <sku> <qty>")
		}
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		qty, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[3])
		}
		result, err := svc.Pick(ctx, actor, app.PickStockRequest{WarehouseID: wh, SKU: args[2], Quantity: qty, Notes: "cli"})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Picked %d x %s from warehouse %d\n", result.Quantity, result.SKU, result.WarehouseID)
		for _, a := range result.Allocations {
			fmt.Fprintf(out, "  lot %-8d bin %-10s %8d\n", a.LotID, a.BinCode, a.Quantity)
		}

	case "reorder-suggestions":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		result, err := svc.ReorderSuggestions(ctx, actor, wh)
		if err != nil {
			return err
		}
		printSuggestions(out, result)

	case "reorder-evaluate":
		wh, err := warehouseArg(args)
		if err != nil {
			return err
		}
		result, err := svc.EvaluateReorder(ctx, actor, wh)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Checked %d rules in warehouse %d, raised %d requisitions\n",
			result.RulesChecked, result.WarehouseID, len(result.Requisitions))
		for _, pr := range result.Requisitions {
			for _, l := range pr.Lines {
				fmt.Fprintf(out, "  PR %-6d %-12s %8d\n", pr.ID, l.SKU, l.Quantity)
			}
		}

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func warehouseArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: %s <warehouse>", args[0])
	}
	wh, err := strconv.Atoi(args[1])
	if err != nil || wh <= 0 {
		return 0, fmt.Errorf("invalid warehouse %q", args[1])
	}
	return wh, nil
}

func optionalInt(args []string, idx int, name string, def int) (int, error) {
	if len(args) <= idx {
		return def, nil
	}
	v, err := strconv.Atoi(args[idx])
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, args[idx])
	}
	return v, nil
}

func header(out io.Writer, title string, warehouseID int) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 66))
	fmt.Fprintf(out, "  %s  (warehouse %d)\n", title, warehouseID)
	fmt.Fprintln(out, strings.Repeat("=", 66))
}

func printStock(out io.Writer, result *app.StockResult) {
	header(out, "STOCK LEVELS", result.WarehouseID)
	fmt.Fprintf(out, "  %-12s %-24s %-10s %-10s %6s\n", "SKU", "NAME", "BIN", "BATCH", "QTY")
	fmt.Fprintln(out, strings.Repeat("-", 66))
	for _, l := range result.Levels {
		batch := "-"
		if l.BatchCode != nil {
			batch = *l.BatchCode
		}
		fmt.Fprintf(out, "  %-12s %-24s %-10s %-10s %6d\n", l.SKU, l.ItemName, l.BinCode, batch, l.Quantity)
	}
	fmt.Fprintln(out, strings.Repeat("=", 66))
}

func printExpiring(out io.Writer, result *app.ExpiringResult) {
	header(out, fmt.Sprintf("EXPIRING WITHIN %d DAYS", result.Days), result.WarehouseID)
	fmt.Fprintf(out, "  %-12s %-10s %-10s %-10s %5s %6s\n", "SKU", "BATCH", "BIN", "EXPIRES", "DAYS", "QTY")
	fmt.Fprintln(out, strings.Repeat("-", 66))
	for _, b := range result.Batches {
		code := "-"
		if b.BatchCode != nil {
			code = *b.BatchCode
		}
		fmt.Fprintf(out, "  %-12s %-10s %-10s %-10s %5d %6d\n",
			b.SKU, code, b.BinCode, b.ExpiryDate.Format("2006-01-02"), b.DaysLeft, b.Quantity)
	}
	fmt.Fprintln(out, strings.Repeat("=", 66))
}

func printAging(out io.Writer, result *app.StockAgingResult) {
	header(out, "STOCK AGING", result.WarehouseID)
	fmt.Fprintf(out, "  %-8s %-12s %-10s %6s %5s %14s\n", "LOT", "SKU", "BIN", "QTY", "AGE", "VALUE")
	fmt.Fprintln(out, strings.Repeat("-", 66))
	for _, a := range result.Lots {
		fmt.Fprintf(out, "  %-8d %-12s %-10s %6d %5d %14s\n", a.LotID, a.SKU, a.BinCode, a.Quantity, a.AgeDays, a.Value.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("=", 66))
}

func printReconcile(out io.Writer, result *app.ReconcileResult) {
	header(out, "LEDGER RECONCILIATION", result.WarehouseID)
	if len(result.Discrepancies) == 0 {
		fmt.Fprintln(out, "  Ledger and live lots agree.")
		return
	}
	fmt.Fprintf(out, "  %-8s %-8s %-8s %10s %10s\n", "ITEM", "BIN", "BATCH", "LEDGER", "LOTS")
	fmt.Fprintln(out, strings.Repeat("-", 66))
	for _, d := range result.Discrepancies {
		batch := "-"
		if d.Key.BatchID != nil {
			batch = strconv.Itoa(*d.Key.BatchID)
		}
		fmt.Fprintf(out, "  %-8d %-8d %-8s %10d %10d\n", d.Key.ItemID, d.Key.BinID, batch, d.LedgerQty, d.LotQty)
	}
}

func printPicks(out io.Writer, result *app.PickListResult) {
	header(out, "RECENT PICKS", result.WarehouseID)
	fmt.Fprintf(out, "  %-16s %-12s %-10s %6s %6s\n", "PICKED AT", "SKU", "BIN", "QTY", "BY")
	fmt.Fprintln(out, strings.Repeat("-", 66))
	for _, p := range result.Picks {
		fmt.Fprintf(out, "  %-16s %-12s %-10s %6d %6d\n", p.PickedAt.Format("2006-01-02 15:04"), p.SKU, p.BinCode, p.Quantity, p.PickedBy)
	}
	fmt.Fprintln(out, strings.Repeat("=", 66))
}

func printSuggestions(out io.Writer, result *app.SuggestionListResult) {
	header(out, "REORDER SUGGESTIONS", result.WarehouseID)
	fmt.Fprintf(out, "  %-12s %8s %8s %8s %8s  %s\n", "SKU", "ON HAND", "MIN", "MAX", "REORDER", "PRIORITY")
	fmt.Fprintln(out, strings.Repeat("-", 66))
	for _, s := range result.Suggestions {
		fmt.Fprintf(out, "  %-12s %8d %8d %8d %8d  %s\n",
			s.Rule.SKU, s.CurrentQty, s.Rule.MinQty, s.Rule.MaxQty, s.Rule.ReorderQty, s.Priority)
	}
	fmt.Fprintln(out, strings.Repeat("=", 66))
}
