package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

func retailerRows() []models.CategoryTotal {
	return []models.CategoryTotal{
		{Category: "Amazon", TotalSales: 0.1 + 0.2},
		{Category: "Kohl's", TotalSales: 1234567.891},
		{Category: "Sports Direct, Inc", TotalSales: 0},
		{Category: "Walmart", TotalSales: 1e-7},
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	table := RetailerTable(retailerRows())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table, CSVOptions{}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Retailer", "TotalSales"}, records[0])

	for i, want := range retailerRows() {
		rec := records[i+1]
		assert.Equal(t, want.Category, rec[0])
		got, err := strconv.ParseFloat(rec[1], 64)
		require.NoError(t, err)
		assert.Equal(t, want.TotalSales, got, "row %d", i)
	}
}

func TestWriteCSV_Monthly(t *testing.T) {
	table := MonthlyTable([]models.PeriodTotal{
		{Period: "2021-01", Label: "Jan'21", TotalSales: 1300},
		{Period: "2021-02", Label: "Feb'21", TotalSales: 300.5},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table, CSVOptions{}))
	assert.Equal(t, "MonthYear,TotalSales\nJan'21,1300\nFeb'21,300.5\n", buf.String())
}

func TestWriteCSV_BOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, RetailerTable(nil), CSVOptions{BOM: true}))

	assert.Equal(t, "\xEF\xBB\xBFRetailer,TotalSales\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, RetailerTable(retailerRows())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Retailer", "TotalSales"}, rows[0])
	assert.Equal(t, "Kohl's", rows[2][0])

	got, err := strconv.ParseFloat(rows[2][1], 64)
	require.NoError(t, err)
	assert.Equal(t, 1234567.891, got)
}

func TestParseDatasetAndFormat(t *testing.T) {
	d, err := ParseDataset("retailer-sales")
	require.NoError(t, err)
	assert.Equal(t, RetailerSales, d)

	_, err = ParseDataset("products")
	assert.Error(t, err)

	f, err := ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, "RetailerSales.csv", RetailerSales.Filename(FormatCSV))
	assert.Equal(t, "MonthlySales.xlsx", MonthlySales.Filename(FormatXLSX))
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}
