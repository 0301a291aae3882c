package export

import (
	"bytes"
	"errors"
	"fmt"

	"catalog-sync/internal/catalog"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

const sheetName = "products"

// EncodeXLSX renders the same rows as EncodeCSV into a single-sheet workbook.
func EncodeXLSX(products []catalog.Product, urlPrefix string) ([]byte, error) {
	rows, err := Rows(products, urlPrefix)
	if err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX validates the inputs and replaces dest with the workbook.
func WriteXLSX(fsys afero.Fs, products []catalog.Product, urlPrefix, dest string) error {
	data, err := EncodeXLSX(products, urlPrefix)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return err
		}
		return &IOError{Path: dest, Err: err}
	}
	return writeFile(fsys, dest, data)
}
