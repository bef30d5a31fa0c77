package mysql

import (
	"bytes"
	"context"
	"errors"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

var onUpdatePattern = regexp.MustCompile(`(?i)on update (current_timestamp(\(\d*\))?)`)

// mysqldump --xml document layout.
type dumpXML struct {
	XMLName  xml.Name
	Database *databaseXML `xml:"database"`
}

type databaseXML struct {
	Name   string     `xml:"name,attr"`
	Tables []tableXML `xml:"table_structure"`
}

type tableXML struct {
	Name    string      `xml:"name,attr"`
	Fields  []fieldXML  `xml:"field"`
	Keys    []keyXML    `xml:"key"`
	Options *optionsXML `xml:"options"`
}

type fieldXML struct {
	Field     string `xml:"Field,attr"`
	Type      string `xml:"Type,attr"`
	Null      string `xml:"Null,attr"`
	Key       string `xml:"Key,attr"`
	Default   string `xml:"Default,attr"`
	Extra     string `xml:"Extra,attr"`
	Collation string `xml:"Collation,attr"`
}

type keyXML struct {
	NonUnique  string `xml:"Non_unique,attr"`
	KeyName    string `xml:"Key_name,attr"`
	ColumnName string `xml:"Column_name,attr"`
	IndexType  string `xml:"Index_type,attr"`
	Expression string `xml:"Expression,attr"`
}

type optionsXML struct {
	Engine        string `xml:"Engine,attr"`
	AutoIncrement string `xml:"Auto_increment,attr"`
	Collation     string `xml:"Collation,attr"`
	Comment       string `xml:"Comment,attr"`
	RowFormat     string `xml:"Row_format,attr"`
	CreateOptions string `xml:"Create_options,attr"`
}

// Parser builds a Database from mysqldump --xml output.
type Parser struct {
	lookup schema.ForeignKeyLookup
	logger *slog.Logger
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithForeignKeyLookup sets the lookup used to classify and resolve foreign keys.
func WithForeignKeyLookup(l schema.ForeignKeyLookup) ParserOption {
	return func(p *Parser) {
		if l != nil {
			p.lookup = l
		}
	}
}

// WithParserLogger sets the logger.
func WithParserLogger(l *slog.Logger) ParserOption {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser. Without a lookup no key is treated as foreign.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		lookup: schema.NoForeignKeys{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile opens path and parses it.
func (p *Parser) ParseFile(ctx context.Context, path string, filter schema.Filter) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sderrors.NewParseError(sderrors.CodeReadFailed, "failed to open dump "+path, err)
	}
	defer func() { _ = f.Close() }()

	db, err := p.Parse(ctx, f, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return db, nil
}

// Parse reads one dump and returns the tables that pass filter.
func (p *Parser) Parse(ctx context.Context, r io.Reader, filter schema.Filter) (*Database, error) {
	var dump dumpXML
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&dump); err != nil {
		return nil, sderrors.NewParseError(sderrors.CodeMalformedDump, "input is not a valid XML document", err)
	}
	if err := expectEnd(dec); err != nil {
		return nil, err
	}
	if dump.XMLName.Local != "mysqldump" {
		return nil, sderrors.NewParseError(sderrors.CodeUnexpectedRoot,
			fmt.Sprintf("root element is <%s>, the document does not come from mysqldump", dump.XMLName.Local), nil)
	}
	if dump.Database == nil {
		return nil, sderrors.NewParseError(sderrors.CodeMissingDatabase, "dump has no <database> element", nil)
	}

	db := NewDatabase(dump.Database.Name)
	for _, tx := range dump.Database.Tables {
		if filter.Skip(tx.Name) {
			p.logger.Debug("skipping filtered table", "table", tx.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, sderrors.NewParseError(sderrors.CodeCanceled, "parse interrupted", err)
		}

		table, err := p.buildTable(ctx, tx)
		if err != nil {
			return nil, err
		}
		if err := db.AddTable(table); err != nil {
			return nil, err
		}
		p.logger.Debug("parsed table", "database", db.name, "table", table.name,
			"columns", table.columns.Len(), "indexes", table.indexes.Len())
	}
	return db, nil
}

func (p *Parser) buildTable(ctx context.Context, tx tableXML) (*Table, error) {
	table := NewTable(tx.Name)
	if tx.Options != nil {
		table.Options = parseOptions(tx.Options)
	}

	for _, fx := range tx.Fields {
		if err := table.AddColumn(buildColumn(fx)); err != nil {
			return nil, err
		}
	}

	functional := make(map[string]bool)
	for _, kx := range tx.Keys {
		if kx.ColumnName == "" && kx.Expression != "" {
			functional[kx.KeyName] = true
		}
	}

	for _, kx := range tx.Keys {
		if functional[kx.KeyName] {
			continue
		}
		col, ok := table.columns.Get(kx.ColumnName)
		if !ok {
			return nil, sderrors.NewParseError(sderrors.CodeUnknownColumn,
				fmt.Sprintf("key %s of table %s refers to unknown column %s", kx.KeyName, tx.Name, kx.ColumnName), nil)
		}

		if idx, ok := table.indexes.Get(kx.KeyName); ok {
			idx.AddColumn(col)
			continue
		}

		idx, err := p.buildIndex(ctx, tx.Name, kx)
		if err != nil {
			return nil, err
		}
		idx.AddColumn(col)
		if err := table.AddIndex(idx); err != nil {
			return nil, err
		}
	}
	for name := range functional {
		p.logger.Warn("skipping functional index", "table", tx.Name, "key", name)
	}
	return table, nil
}

// expectEnd consumes what follows the root element. Only whitespace,
// comments and processing instructions may remain.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return sderrors.NewParseError(sderrors.CodeMalformedDump, "input is not a valid XML document", err)
		}
		switch tok := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(tok)) != 0 {
				return sderrors.NewParseError(sderrors.CodeMalformedDump, "unexpected text after the root element", nil)
			}
		default:
			return sderrors.NewParseError(sderrors.CodeMalformedDump, "unexpected content after the root element", nil)
		}
	}
}

func (p *Parser) buildIndex(ctx context.Context, table string, kx keyXML) (*Index, error) {
	idx := &Index{name: kx.KeyName}

	if kx.KeyName == "PRIMARY" {
		idx.typ = IndexPrimary
		return idx, nil
	}

	isFK, err := p.lookup.IsForeignKey(ctx, table, kx.KeyName)
	if err != nil {
		return nil, sderrors.NewParseError(sderrors.CodeForeignKeyLookup,
			fmt.Sprintf("failed to check whether %s.%s is a foreign key", table, kx.KeyName), err)
	}
	if isFK {
		idx.typ = IndexForeign
		fk, err := p.lookup.ForeignKey(ctx, table, kx.KeyName)
		if err != nil {
			return nil, sderrors.NewParseError(sderrors.CodeForeignKeyLookup,
				fmt.Sprintf("failed to fetch foreign key %s.%s", table, kx.KeyName), err)
		}
		if fk == nil {
			p.logger.Warn("foreign key details not found", "table", table, "key", kx.KeyName)
		}
		idx.foreignKey = fk
		return idx, nil
	}

	switch {
	case kx.NonUnique == "0":
		idx.typ = IndexUnique
	case strings.EqualFold(kx.IndexType, "FULLTEXT"):
		idx.typ = IndexFulltext
	default:
		idx.typ = IndexKey
	}
	return idx, nil
}

func buildColumn(fx fieldXML) *Column {
	c := NewColumn(fx.Field, fx.Type)
	c.SetNullable(fx.Null != "NO")
	c.KeyHint = fx.Key
	c.Collation = fx.Collation
	if fx.Default != "" {
		c.SetDefault(fx.Default)
	}
	if strings.EqualFold(fx.Extra, "auto_increment") {
		c.autoIncrement = true
	}
	if m := onUpdatePattern.FindStringSubmatch(fx.Extra); m != nil {
		c.Attribute = "ON UPDATE " + strings.ToUpper(m[1])
	}
	return c
}

func parseOptions(ox *optionsXML) TableOptions {
	opts := TableOptions{
		Engine:         ox.Engine,
		Collation:      ox.Collation,
		Comment:        ox.Comment,
		FixedRowFormat: strings.EqualFold(ox.RowFormat, "Fixed"),
	}
	if n, err := strconv.ParseInt(ox.AutoIncrement, 10, 64); err == nil {
		opts.AutoIncrement = n
	}
	for _, o := range strings.Fields(strings.ToLower(ox.CreateOptions)) {
		switch o {
		case "checksum=1":
			opts.Checksum = true
		case "delay_key_write=1":
			opts.DelayKeyWrite = true
		}
	}
	return opts
}
