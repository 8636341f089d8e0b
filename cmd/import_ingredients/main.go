package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"mise/internal/config"
	"mise/internal/costing"
	"mise/internal/db"
	"mise/internal/store"
)

var (
	pdfColumnPattern = regexp.MustCompile(`\t|;|\s{2,}`)
	costPattern      = regexp.MustCompile(`[^0-9.,\-]`)
)

var (
	loadConfigFunc   = config.Load
	openDatabaseFunc = openDatabase
)

type column int

const (
	colName column = iota
	colUnit
	colCost
	colSupplier
	colCategory
)

var headerAliases = map[string]column{
	"name":          colName,
	"ingredient":    colName,
	"item":          colName,
	"product":       colName,
	"unit":          colUnit,
	"pack_unit":     colUnit,
	"pack unit":     colUnit,
	"uom":           colUnit,
	"cost":          colCost,
	"price":         colCost,
	"unit_cost":     colCost,
	"net_unit_cost": colCost,
	"net unit cost": colCost,
	"supplier":      colSupplier,
	"vendor":        colSupplier,
	"category":      colCategory,
}

var positionalColumns = []column{colName, colUnit, colCost, colSupplier, colCategory}

// priceRow is one ingredient line read from a supplier price list. HasUnit and
// HasCost are false when the file has no such column or the cell is blank.
type priceRow struct {
	Line     int
	Name     string
	Unit     string
	Cost     float64
	Supplier string
	Category string
	HasUnit  bool
	HasCost  bool
}

type summary struct {
	Created int
	Updated int
	Skipped int
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: import_ingredients <file> <kitchen-id>")
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path, kitchenID string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("file path must not be empty")
	}
	if strings.TrimSpace(kitchenID) == "" {
		return fmt.Errorf("kitchen id must not be empty")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("locate file: %w", err)
	}

	cfg, err := loadConfigFunc()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := openDatabaseFunc(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	rows, err := readRows(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	result, err := importRows(ctx, store.New(database), kitchenID, rows)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d ingredients from %s (%d created, %d updated, %d skipped)\n",
		result.Created+result.Updated, filepath.Base(path), result.Created, result.Updated, result.Skipped)
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	database, err := db.Initialize(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(database); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return database, nil
}

func importRows(ctx context.Context, records *store.Store, kitchenID string, rows []priceRow) (summary, error) {
	var result summary
	if _, err := records.GetKitchen(ctx, kitchenID); err != nil {
		return result, fmt.Errorf("find kitchen %q: %w", kitchenID, err)
	}

	for _, row := range rows {
		if row.Name == "" {
			result.Skipped++
			continue
		}

		name := row.Name
		in := store.IngredientInput{Name: &name}
		if row.HasUnit {
			unit := string(costing.Normalize(row.Unit))
			in.PackUnit = &unit
		}
		if row.HasCost {
			cost := row.Cost
			in.NetUnitCost = &cost
		}
		if row.Supplier != "" {
			supplier := row.Supplier
			in.Supplier = &supplier
		}
		if row.Category != "" {
			category := row.Category
			in.Category = &category
		}

		_, created, err := records.UpsertIngredientByName(ctx, kitchenID, in)
		if err != nil {
			return result, fmt.Errorf("line %d (%s): %w", row.Line, row.Name, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

func readRows(path string) ([]priceRow, error) {
	var (
		cells [][]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		cells, err = readCSV(path)
	case ".xlsx", ".xlsm":
		cells, err = readXLSX(path)
	case ".pdf":
		cells, err = readPDF(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseRows(cells)
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return workbook.GetRows(sheets[0])
}

func readPDF(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := extractTextFromPDF(data)
	if err != nil {
		return nil, err
	}
	return splitTextRows(strings.NewReader(text))
}

func extractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String(), nil
}

// splitTextRows breaks plain text into cells on tabs, semicolons or runs of two
// or more spaces.
func splitTextRows(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, pdfColumnPattern.Split(line, -1))
	}
	return rows, nil
}

func parseRows(cells [][]string) ([]priceRow, error) {
	if len(cells) == 0 {
		return nil, errors.New("file is empty")
	}

	layout := positionalColumns
	start := 0
	if header, ok := detectHeader(cells[0]); ok {
		layout = header
		start = 1
	}

	rows := make([]priceRow, 0, len(cells)-start)
	for i := start; i < len(cells); i++ {
		row := priceRow{Line: i + 1}
		blank := true
		for idx, raw := range cells[i] {
			if idx >= len(layout) {
				break
			}
			value := strings.TrimSpace(raw)
			if value != "" {
				blank = false
			}
			switch layout[idx] {
			case colName:
				row.Name = value
			case colUnit:
				row.Unit = value
				row.HasUnit = value != ""
			case colCost:
				if value == "" {
					continue
				}
				cost, err := parseCost(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", i+1, err)
				}
				row.Cost = cost
				row.HasCost = true
			case colSupplier:
				row.Supplier = value
			case colCategory:
				row.Category = value
			}
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// detectHeader treats the first row as a header when at least one cell names a
// known column. Unknown header cells map to -1 and are ignored.
func detectHeader(row []string) ([]column, bool) {
	layout := make([]column, len(row))
	matched := 0
	for idx, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		col, ok := headerAliases[key]
		if !ok {
			layout[idx] = -1
			continue
		}
		layout[idx] = col
		matched++
	}
	if matched == 0 {
		return nil, false
	}
	return layout, true
}

// parseCost accepts "1.45", "1,45", "€ 1.234,50" and "$1,234.50". Empty text is zero.
func parseCost(value string) (float64, error) {
	cleaned := costPattern.ReplaceAllString(value, "")
	if cleaned == "" {
		if strings.TrimSpace(value) == "" {
			return 0, nil
		}
		return 0, fmt.Errorf("invalid cost %q", value)
	}

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid cost %q", value)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative cost %q", value)
	}
	return amount.InexactFloat64(), nil
}
