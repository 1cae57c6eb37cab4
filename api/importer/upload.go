package importer

import (
	"encoding/csv"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"AblClaimsRecon/api/respond"
	"AblClaimsRecon/internal/importer"
	"AblClaimsRecon/internal/logger"
	"AblClaimsRecon/internal/store"
)

// Upload template columns. The header row sits below one skipped
// banner row; blank cells arrive as empty strings.
const (
	colCaseNo      = "ABL SG Case Ref."
	colClients     = "Clients/ Brokers"
	colInsured     = "Insured"
	colCaseTitle   = "Case Title"
	colDateOfLoss  = "Date of loss"
	colInsurers    = "Insurers"
	colInvoiceNo   = "Invoice No"
	colInvoiceDate = "Date of Invoice"
	colOffice      = "Issuing Office"
	colStatus      = "Status"
	colAmountMYR   = "Invoice Amount (MYR)"
	colAmountUSD   = "Invoice Amount (USD)"
	colFxRate      = "Fx Rate"
	colAmountsMYR  = "Insurer Amounts (MYR)"
	colAmountsUSD  = "Insurer Amounts (USD)"
)

func getFileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// parseWorkbook reads every sheet of an uploaded workbook into raw
// string grids. CSV uploads count as a single sheet.
func parseWorkbook(file multipart.File, ext string) ([][][]string, error) {
	switch ext {
	case ".csv":
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil {
			return nil, err
		}
		return [][][]string{records}, nil
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		var sheets [][][]string
		for _, name := range f.GetSheetList() {
			rows, err := f.GetRows(name)
			if err != nil {
				return nil, err
			}
			sheets = append(sheets, rows)
		}
		return sheets, nil
	case ".xls":
		wb, err := xls.OpenReader(file, "utf-8")
		if err != nil {
			return nil, err
		}
		var sheets [][][]string
		for i := 0; i < wb.NumSheets(); i++ {
			ws := wb.GetSheet(i)
			if ws == nil {
				continue
			}
			var rows [][]string
			for r := 0; r <= int(ws.MaxRow); r++ {
				row := ws.Row(r)
				if row == nil {
					rows = append(rows, nil)
					continue
				}
				cells := make([]string, 0, row.LastCol()+1)
				for c := row.FirstCol(); c <= row.LastCol(); c++ {
					cells = append(cells, row.Col(c))
				}
				rows = append(rows, cells)
			}
			sheets = append(sheets, rows)
		}
		return sheets, nil
	}
	return nil, errors.New("unsupported file type")
}

// sheetRows converts one sheet grid into import rows. The first row is
// a banner and is skipped; the second carries the column headers.
func sheetRows(grid [][]string) []importer.Row {
	if len(grid) < 3 {
		return nil
	}
	header := grid[1]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	var rows []importer.Row
	for _, raw := range grid[2:] {
		if len(raw) == 0 {
			continue
		}
		rows = append(rows, importer.Row{
			CaseNo:        cell(raw, colCaseNo),
			Clients:       cell(raw, colClients),
			Insured:       cell(raw, colInsured),
			CaseTitle:     cell(raw, colCaseTitle),
			DateOfLoss:    cell(raw, colDateOfLoss),
			Insurers:      cell(raw, colInsurers),
			InvoiceNo:     cell(raw, colInvoiceNo),
			InvoiceDate:   cell(raw, colInvoiceDate),
			IssuingOffice: cell(raw, colOffice),
			Status:        cell(raw, colStatus),
			AmountMYR:     cell(raw, colAmountMYR),
			AmountUSD:     cell(raw, colAmountUSD),
			FxRate:        cell(raw, colFxRate),
			AmountsMYR:    cell(raw, colAmountsMYR),
			AmountsUSD:    cell(raw, colAmountsUSD),
		})
	}
	return rows
}

// Handler: UploadWorkbook imports one or more workbooks into the case
// store. Duplicate cases and invoices are skipped and reported; the
// rows that merged are saved in one atomic write per request.
func UploadWorkbook(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respond.Error(w, http.StatusBadRequest, "failed to parse multipart form")
			return
		}
		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			respond.Error(w, http.StatusBadRequest, "no files uploaded")
			return
		}

		var rows []importer.Row
		for _, fileHeader := range files {
			file, err := fileHeader.Open()
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "failed to open file: "+fileHeader.Filename)
				return
			}
			sheets, err := parseWorkbook(file, getFileExt(fileHeader.Filename))
			file.Close()
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "invalid workbook "+fileHeader.Filename+": "+err.Error())
				return
			}
			for _, grid := range sheets {
				rows = append(rows, sheetRows(grid)...)
			}
		}

		var report importer.Report
		err := st.Mutate(func(doc store.Document) error {
			report = importer.MergeRows(doc, rows)
			return nil
		})
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to save import: "+err.Error())
			return
		}
		logger.Audit("import batch %s: %d cases, %d invoices, %d duplicate cases, %d duplicate invoices",
			report.BatchID, report.CasesCreated, report.InvoicesAdded,
			len(report.DuplicateCases), len(report.DuplicateInvoices))
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"report":  report,
		})
	}
}
