package domain

import (
	"path"
	"strings"
)

// ColumnType is the logical type of a dataset column.
type ColumnType string

// Supported logical column types.
const (
	TypeLong      ColumnType = "long"
	TypeInteger   ColumnType = "integer"
	TypeString    ColumnType = "string"
	TypeFloat     ColumnType = "float"
	TypeDouble    ColumnType = "double"
	TypeDate      ColumnType = "date"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
)

var engineTypes = map[ColumnType]string{
	TypeLong:      "BIGINT",
	TypeInteger:   "INTEGER",
	TypeString:    "VARCHAR",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
	TypeDate:      "DATE",
	TypeBoolean:   "BOOLEAN",
	TypeTimestamp: "TIMESTAMP",
}

// EngineType returns the DuckDB type for the logical type, or "" if unknown.
func (t ColumnType) EngineType() string {
	return engineTypes[ColumnType(strings.ToLower(string(t)))]
}

// Valid reports whether t is a supported logical type.
func (t ColumnType) Valid() bool {
	return t.EngineType() != ""
}

// Column is one declared column of a dataset schema.
type Column struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// Dataset maps one raw CSV resource to one silver table.
type Dataset struct {
	Name       string   `json:"name" yaml:"name"`
	SourceFile string   `json:"source_file" yaml:"source_file"`
	Table      string   `json:"table" yaml:"table"`
	Columns    []Column `json:"columns" yaml:"columns"`
	// DateFormat is a Java-style pattern (MM/dd/yyyy) used for date columns
	// when InferDates is set.
	DateFormat string `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	InferDates bool   `json:"infer_dates,omitempty" yaml:"infer_dates,omitempty"`
}

// HasDateColumns reports whether any declared column is a date.
func (d Dataset) HasDateColumns() bool {
	for _, c := range d.Columns {
		if strings.EqualFold(string(c.Type), string(TypeDate)) {
			return true
		}
	}
	return false
}

// ColumnNames returns the declared column names in order.
func (d Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks the dataset definition for structural problems that do not
// depend on the engine. Identifier rules are enforced by the DDL builder.
func (d Dataset) Validate() error {
	if d.Name == "" {
		return ErrValidation("dataset name is required")
	}
	if d.SourceFile == "" {
		return ErrValidation("dataset %q: source_file is required", d.Name)
	}
	if path.Base(d.SourceFile) != d.SourceFile || strings.Contains(d.SourceFile, `\`) {
		return ErrValidation("dataset %q: source_file %q must be a bare file name", d.Name, d.SourceFile)
	}
	if !strings.EqualFold(path.Ext(d.SourceFile), ".csv") {
		return ErrValidation("dataset %q: source_file %q must be a .csv file", d.Name, d.SourceFile)
	}
	if d.Table == "" {
		return ErrValidation("dataset %q: table is required", d.Name)
	}
	if len(d.Columns) == 0 {
		return ErrValidation("dataset %q: at least one column is required", d.Name)
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c.Name == "" {
			return ErrValidation("dataset %q: column name is required", d.Name)
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return ErrValidation("dataset %q: duplicate column %q", d.Name, c.Name)
		}
		seen[key] = true
		if !c.Type.Valid() {
			return ErrValidation("dataset %q: column %q has unsupported type %q", d.Name, c.Name, c.Type)
		}
	}
	if d.InferDates && d.DateFormat == "" {
		return ErrValidation("dataset %q: infer_dates requires date_format", d.Name)
	}
	return nil
}

// ValidateDatasets validates each dataset and checks that names, tables and
// source files are unique across the catalog.
func ValidateDatasets(datasets []Dataset) error {
	if len(datasets) == 0 {
		return ErrValidation("dataset catalog is empty")
	}
	names := map[string]bool{}
	tables := map[string]bool{}
	files := map[string]bool{}
	for _, d := range datasets {
		if err := d.Validate(); err != nil {
			return err
		}
		if names[d.Name] {
			return ErrValidation("duplicate dataset name %q", d.Name)
		}
		if tables[strings.ToLower(d.Table)] {
			return ErrValidation("duplicate table %q", d.Table)
		}
		if files[strings.ToLower(d.SourceFile)] {
			return ErrValidation("duplicate source file %q", d.SourceFile)
		}
		names[d.Name] = true
		tables[strings.ToLower(d.Table)] = true
		files[strings.ToLower(d.SourceFile)] = true
	}
	return nil
}

// FindDataset returns the dataset with the given name or table name.
func FindDataset(datasets []Dataset, nameOrTable string) (Dataset, bool) {
	for _, d := range datasets {
		if d.Name == nameOrTable || strings.EqualFold(d.Table, nameOrTable) {
			return d, true
		}
	}
	return Dataset{}, false
}

// DefaultDateFormat is the date pattern used by the sales CSVs.
const DefaultDateFormat = "MM/dd/yyyy"

// DefaultDatasets returns the built-in sales catalog: products, customers,
// invoices and invoice details.
func DefaultDatasets() []Dataset {
	return []Dataset{
		{
			Name:       "products",
			SourceFile: "Products.csv",
			Table:      "silver_products",
			Columns: []Column{
				{Name: "ProductId", Type: TypeLong},
				{Name: "Product", Type: TypeString},
				{Name: "Category", Type: TypeString},
			},
		},
		{
			Name:       "customers",
			SourceFile: "Customers.csv",
			Table:      "silver_customers",
			Columns: []Column{
				{Name: "CustomerId", Type: TypeLong},
				{Name: "FirstName", Type: TypeString},
				{Name: "LastName", Type: TypeString},
				{Name: "Country", Type: TypeString},
				{Name: "City", Type: TypeString},
				{Name: "DOB", Type: TypeDate},
			},
			DateFormat: DefaultDateFormat,
			InferDates: true,
		},
		{
			Name:       "invoices",
			SourceFile: "Invoices.csv",
			Table:      "silver_invoices",
			Columns: []Column{
				{Name: "InvoiceId", Type: TypeLong},
				{Name: "Date", Type: TypeDate},
				{Name: "TotalSalesAmount", Type: TypeFloat},
				{Name: "CustomerId", Type: TypeLong},
			},
			DateFormat: DefaultDateFormat,
			InferDates: true,
		},
		{
			Name:       "invoice_details",
			SourceFile: "InvoiceDetails.csv",
			Table:      "silver_invoice_details",
			Columns: []Column{
				{Name: "Id", Type: TypeLong},
				{Name: "Quantity", Type: TypeLong},
				{Name: "SalesAmount", Type: TypeFloat},
				{Name: "InvoiceId", Type: TypeLong},
				{Name: "ProductId", Type: TypeLong},
			},
		},
	}
}
