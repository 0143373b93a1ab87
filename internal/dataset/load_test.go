package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const csvHeader = "Retailer,Invoice Date,Region,State,City,Product,Price per Unit,Units Sold,Total Sales,Operating Profit,Sales Method"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "sales.csv", csvHeader+`
Foot Locker,1/1/2021,Northeast,New York,New York,Men's Street Footwear,$50.00,"1,200","$600,000",$300000,In-store
Walmart,2021-01-02,South,Texas,Houston,Women's Apparel,40,10,400,100,Online
`)

	table, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	recs := table.Records()
	first := recs[0]
	assert.Equal(t, "Foot Locker", first.Retailer)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), first.InvoiceDate)
	assert.Equal(t, 50.0, first.PriceperUnit)
	assert.Equal(t, 1200, first.UnitsSold)
	assert.Equal(t, 600000.0, first.TotalSales)
	assert.Equal(t, 300000.0, first.OperatingProfit)
	assert.Equal(t, "In-store", first.SalesMethod)

	assert.Equal(t, "Walmart", recs[1].Retailer)
	assert.Equal(t, time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), recs[1].InvoiceDate)
	assert.Equal(t, path, table.Source())
}

func TestLoad_XLSX(t *testing.T) {
	header := []any{"Retailer", "Invoice Date", "Region", "State", "City", "Product",
		"Price per Unit", "Units Sold", "Total Sales", "Operating Profit", "Sales Method"}
	path := writeWorkbook(t, "Data", [][]any{
		{"Adidas Sales Database"},
		{},
		header,
		{"Amazon", time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), "West", "California", "Los Angeles", "Men's Apparel", 45.5, 20, 910, 273, "Online"},
		{"Kohl's", "2022-07-04", "Midwest", "Ohio", "Columbus", "Women's Athletic Footwear", 30, 5, 150, 0, "Outlet"},
	})

	table, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	recs := table.Records()
	assert.Equal(t, "Amazon", recs[0].Retailer)
	assert.Equal(t, time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC), recs[0].InvoiceDate)
	assert.Equal(t, 45.5, recs[0].PriceperUnit)
	assert.Equal(t, 20, recs[0].UnitsSold)
	assert.Equal(t, time.Date(2022, 7, 4, 0, 0, 0, 0, time.UTC), recs[1].InvoiceDate)
	assert.Equal(t, "Outlet", recs[1].SalesMethod)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		row     int
		column  string
		message string
	}{
		{
			name:    "empty file",
			file:    "empty.csv",
			content: "",
			message: "source is empty",
		},
		{
			name:    "header only",
			file:    "header.csv",
			content: csvHeader + "\n",
			message: "no data rows",
		},
		{
			name:    "missing column",
			file:    "missing.csv",
			content: "Retailer,Invoice Date,Region,State,City,Product,Price per Unit,Units Sold,Total Sales,Sales Method\nA,2021-01-01,R,S,C,P,1,1,1,Online\n",
			row:     1,
			message: "OperatingProfit",
		},
		{
			name:    "invalid date",
			file:    "date.csv",
			content: csvHeader + "\nA,not-a-date,R,S,C,P,1,1,1,1,Online\n",
			row:     2,
			column:  colInvoiceDate,
		},
		{
			name:    "invalid number",
			file:    "number.csv",
			content: csvHeader + "\nA,2021-01-01,R,S,C,P,abc,1,1,1,Online\n",
			row:     2,
			column:  colPriceperUnit,
		},
		{
			name:    "fractional units",
			file:    "units.csv",
			content: csvHeader + "\nA,2021-01-01,R,S,C,P,1,1.5,1,1,Online\n",
			row:     2,
			column:  colUnitsSold,
		},
		{
			name:    "negative sales",
			file:    "negative.csv",
			content: csvHeader + "\nA,2021-01-01,R,S,C,P,1,1,1,1,Online\nB,2021-01-02,R,S,C,P,1,1,-5,1,Online\n",
			row:     3,
			column:  colTotalSales,
		},
		{
			name:    "unsupported extension",
			file:    "sales.json",
			content: "{}",
			message: "unsupported file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			table, err := Load(context.Background(), path)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.True(t, errors.Is(err, ErrDataLoad))

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, path, le.Source)
			assert.Equal(t, tt.row, le.Row)
			assert.Equal(t, tt.column, le.Column)
			if tt.message != "" {
				assert.Contains(t, le.Error(), tt.message)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_CanceledContext(t *testing.T) {
	path := writeFile(t, "sales.csv", csvHeader+"\nA,2021-01-01,R,S,C,P,1,1,1,1,Online\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_PreservesOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString(csvHeader + "\n")
	n := batchSize*2 + 17
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, i%700)
		b.WriteString("R,")
		b.WriteString(d.Format("2006-01-02"))
		b.WriteString(",West,CA,LA,P,1,1,")
		b.WriteString(strings.Repeat("1", 1+i%3))
		b.WriteString(",0,Online\n")
	}
	path := writeFile(t, "big.csv", b.String())

	table, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, n, table.Len())

	recs := table.Records()
	for i := 0; i < n; i += 997 {
		assert.Equal(t, start.AddDate(0, 0, i%700), recs[i].InvoiceDate, "row %d", i)
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "priceperunit", normalizeHeader(" Price per Unit "))
	assert.Equal(t, "priceperunit", normalizeHeader("PriceperUnit"))
	assert.Equal(t, "invoicedate", normalizeHeader("\uFEFFInvoice_Date"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2021-06-01", "6/1/2021", "06/01/2021", "2021-06-01T13:45:00Z", "2021/06/01"} {
		got, err := parseDate(s, false)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	got, err := parseDate("44348", true)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parseDate("44348", false)
	assert.Error(t, err)
}
