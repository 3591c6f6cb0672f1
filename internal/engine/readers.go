package engine

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"edadash/internal/errors"
)

// rawTable is a dataset as read from disk: a header row and string cells.
// An empty cell is a missing value.
type rawTable struct {
	columns []string
	rows    [][]string
}

// readTable parses the uploaded file based on its extension. CSV, XLSX/XLS
// and XML are supported; anything else is an unsupported-format error.
func readTable(filename string, r io.Reader) (*rawTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(r)
	case ".xlsx", ".xls":
		return readExcel(r)
	case ".xml":
		return readXML(r)
	default:
		return nil, errors.New(errors.CodeUnsupportedFormat, "unsupported file format")
	}
}

func readCSV(r io.Reader) (*rawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CSV")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.CodeEngineError, "CSV file is empty")
	}

	table := &rawTable{columns: records[0]}
	for _, row := range records[1:] {
		table.rows = append(table.rows, padRow(row, len(table.columns)))
	}
	return table, nil
}

func readExcel(r io.Reader) (*rawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.CodeEngineError, "Excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "failed to read Excel sheet")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.CodeEngineError, "Excel sheet is empty")
	}

	table := &rawTable{columns: rows[0]}
	for _, row := range rows[1:] {
		table.rows = append(table.rows, padRow(row, len(table.columns)))
	}
	return table, nil
}

// readXML handles flat record-list XML: a root element whose children are
// records and whose grandchildren are scalar fields, matching what
// pandas.read_xml accepts.
func readXML(r io.Reader) (*rawTable, error) {
	decoder := xml.NewDecoder(r)

	var (
		table    = &rawTable{}
		colIndex = map[string]int{}
		depth    int
		current  map[string]string
		field    string
		value    strings.Builder
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse XML")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 2:
				current = map[string]string{}
			case 3:
				field = t.Name.Local
				value.Reset()
			}
		case xml.CharData:
			if depth == 3 {
				value.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 3:
				if _, ok := colIndex[field]; !ok {
					colIndex[field] = len(table.columns)
					table.columns = append(table.columns, field)
				}
				current[field] = strings.TrimSpace(value.String())
			case 2:
				row := make([]string, len(table.columns))
				for col, idx := range colIndex {
					row[idx] = current[col]
				}
				table.rows = append(table.rows, row)
			}
			depth--
		}
	}

	if len(table.columns) == 0 {
		return nil, errors.New(errors.CodeEngineError, "XML file has no records")
	}
	// Earlier rows may predate later-discovered columns.
	for i, row := range table.rows {
		table.rows[i] = padRow(row, len(table.columns))
	}
	return table, nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

// naTokens are the missing-value spellings pandas writes into exports.
// strconv.ParseFloat accepts "NaN" and "Inf" as numbers, so they must be
// normalized to missing before any cell reaches type inference or stats.
var naTokens = map[string]bool{
	"NaN": true, "nan": true, "NAN": true,
	"NA": true, "N/A": true, "#N/A": true,
	"null": true, "NULL": true, "None": true,
	"Inf": true, "-Inf": true, "inf": true, "-inf": true,
	"Infinity": true, "-Infinity": true,
}

// cell returns the value at (row, col), trimmed, with NA tokens normalized
// to the empty string.
func (t *rawTable) cell(row, col int) string {
	v := strings.TrimSpace(t.rows[row][col])
	if naTokens[v] {
		return ""
	}
	return v
}

// column collects one column's raw values in row order.
func (t *rawTable) column(col int) []string {
	out := make([]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.cell(i, col)
	}
	return out
}

func (t *rawTable) String() string {
	return fmt.Sprintf("table(%d rows, %d columns)", len(t.rows), len(t.columns))
}
