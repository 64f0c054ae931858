package taxengine

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/iwvelando/calcsuite/pkg/constants"
	"gopkg.in/yaml.v3"
)

//go:embed brackets.yaml
var embeddedBrackets []byte

// ErrUnsupportedJurisdiction is returned by Resolve when no bracket table exists
// for the requested jurisdiction and filing status.
var ErrUnsupportedJurisdiction = errors.New("unsupported jurisdiction or filing status")

// ErrInvalidTable is wrapped by every table validation failure.
var ErrInvalidTable = errors.New("invalid bracket table")

type tableKey struct {
	jurisdiction string
	status       string
}

// BracketTable maps (jurisdiction, filing status) to an ordered bracket
// sequence. It is immutable once loaded and safe for concurrent use.
type BracketTable struct {
	year          int
	defaultKey    tableKey
	brackets      map[tableKey][]TaxBracket
	jurisdictions map[string]Jurisdiction
	order         []string
}

type tableFile struct {
	TaxYear int `yaml:"taxYear"`
	Default struct {
		Jurisdiction string `yaml:"jurisdiction"`
		FilingStatus string `yaml:"filingStatus"`
	} `yaml:"default"`
	Jurisdictions []jurisdictionFile `yaml:"jurisdictions"`
}

type jurisdictionFile struct {
	Code              string                  `yaml:"code"`
	Name              string                  `yaml:"name"`
	Currency          string                  `yaml:"currency"`
	StandardDeduction float64                 `yaml:"standardDeduction"`
	FilingStatuses    []FilingStatus          `yaml:"filingStatuses"`
	Brackets          map[string][]TaxBracket `yaml:"brackets"`
}

// DefaultTable parses the bracket data bundled with the binary.
func DefaultTable() (*BracketTable, error) {
	return LoadTable(bytes.NewReader(embeddedBrackets))
}

// MustDefaultTable is like DefaultTable but panics on error.
func MustDefaultTable() *BracketTable {
	table, err := DefaultTable()
	if err != nil {
		panic(err)
	}
	return table
}

// LoadTableFile reads a YAML bracket file from disk.
func LoadTableFile(path string) (*BracketTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bracket file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadTable(f)
}

// LoadTable decodes and validates YAML bracket data.
func LoadTable(r io.Reader) (*BracketTable, error) {
	var file tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode bracket data: %w", err)
	}

	defaultKey := tableKey{
		jurisdiction: normalizeJurisdiction(file.Default.Jurisdiction),
		status:       normalizeStatus(file.Default.FilingStatus),
	}
	if defaultKey.jurisdiction == "" {
		defaultKey.jurisdiction = constants.DefaultJurisdiction
	}
	if defaultKey.status == "" {
		defaultKey.status = constants.DefaultFilingStatus
	}

	table := &BracketTable{
		year:          file.TaxYear,
		defaultKey:    defaultKey,
		brackets:      make(map[tableKey][]TaxBracket),
		jurisdictions: make(map[string]Jurisdiction),
	}

	for _, j := range file.Jurisdictions {
		code := normalizeJurisdiction(j.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: jurisdiction without code", ErrInvalidTable)
		}
		if _, dup := table.jurisdictions[code]; dup {
			return nil, fmt.Errorf("%w: duplicate jurisdiction %s", ErrInvalidTable, code)
		}

		meta := Jurisdiction{
			Code:              code,
			Name:              j.Name,
			Currency:          strings.ToUpper(strings.TrimSpace(j.Currency)),
			StandardDeduction: j.StandardDeduction,
			FilingStatuses:    append([]FilingStatus(nil), j.FilingStatuses...),
		}

		for status, brackets := range j.Brackets {
			status = normalizeStatus(status)
			if err := validateBrackets(brackets); err != nil {
				return nil, fmt.Errorf("%w: %s/%s: %v", ErrInvalidTable, code, status, err)
			}
			table.brackets[tableKey{jurisdiction: code, status: status}] = copyBrackets(brackets)
			meta.HasBrackets = append(meta.HasBrackets, status)
		}
		sort.Strings(meta.HasBrackets)

		table.jurisdictions[code] = meta
		table.order = append(table.order, code)
	}

	if _, ok := table.brackets[table.defaultKey]; !ok {
		return nil, fmt.Errorf("%w: default table %s/%s is missing",
			ErrInvalidTable, table.defaultKey.jurisdiction, table.defaultKey.status)
	}
	return table, nil
}

func validateBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return errors.New("no brackets")
	}
	if brackets[0].Min != 0 {
		return fmt.Errorf("first bracket starts at %v, expected 0", brackets[0].Min)
	}
	for i, b := range brackets {
		if b.Rate < 0 || b.Rate > 1 {
			return fmt.Errorf("bracket %d rate %v outside [0, 1]", i, b.Rate)
		}
		last := i == len(brackets)-1
		if b.Max == nil && !last {
			return fmt.Errorf("bracket %d is unbounded but is not the last bracket", i)
		}
		if b.Max != nil && last {
			return fmt.Errorf("last bracket must be unbounded")
		}
		if b.Max != nil && *b.Max <= b.Min {
			return fmt.Errorf("bracket %d has max %v <= min %v", i, *b.Max, b.Min)
		}
		if i > 0 {
			prev := brackets[i-1]
			if *prev.Max != b.Min {
				return fmt.Errorf("bracket %d starts at %v but previous ends at %v", i, b.Min, *prev.Max)
			}
			if b.Rate < prev.Rate {
				return fmt.Errorf("bracket %d rate %v is lower than previous %v", i, b.Rate, prev.Rate)
			}
		}
	}
	return nil
}

func copyBrackets(in []TaxBracket) []TaxBracket {
	out := make([]TaxBracket, len(in))
	for i, b := range in {
		out[i] = b
		out[i].Max = cloneBound(b.Max)
	}
	return out
}

// Year returns the tax year the table describes.
func (t *BracketTable) Year() int {
	return t.year
}

// DefaultKey returns the jurisdiction and filing status of the fallback table.
func (t *BracketTable) DefaultKey() (jurisdiction, status string) {
	return t.defaultKey.jurisdiction, t.defaultKey.status
}

// Lookup returns a copy of the brackets for the given pair.
func (t *BracketTable) Lookup(jurisdiction, status string) ([]TaxBracket, bool) {
	brackets, ok := t.brackets[tableKey{normalizeJurisdiction(jurisdiction), normalizeStatus(status)}]
	if !ok {
		return nil, false
	}
	return copyBrackets(brackets), true
}

// Resolve is the strict form of Lookup for callers that must not fall back.
func (t *BracketTable) Resolve(jurisdiction, status string) ([]TaxBracket, error) {
	brackets, ok := t.Lookup(jurisdiction, status)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedJurisdiction,
			normalizeJurisdiction(jurisdiction), normalizeStatus(status))
	}
	return brackets, nil
}

// Jurisdiction returns metadata for a jurisdiction code.
func (t *BracketTable) Jurisdiction(code string) (Jurisdiction, bool) {
	j, ok := t.jurisdictions[normalizeJurisdiction(code)]
	return j, ok
}

// Jurisdictions returns all jurisdictions in file order.
func (t *BracketTable) Jurisdictions() []Jurisdiction {
	out := make([]Jurisdiction, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.jurisdictions[code])
	}
	return out
}

// Currency returns the display currency for a jurisdiction, or fallback when
// the jurisdiction is unknown.
func (t *BracketTable) Currency(jurisdiction, fallback string) string {
	if meta, ok := t.Jurisdiction(jurisdiction); ok && meta.Currency != "" {
		return meta.Currency
	}
	return strings.ToUpper(fallback)
}

// selectBrackets returns the internal slice for a pair, falling back to the
// default table. The returned slice must not be modified.
func (t *BracketTable) selectBrackets(jurisdiction, status string) ([]TaxBracket, tableKey, bool) {
	key := tableKey{normalizeJurisdiction(jurisdiction), normalizeStatus(status)}
	if brackets, ok := t.brackets[key]; ok {
		return brackets, key, false
	}
	return t.brackets[t.defaultKey], t.defaultKey, true
}

func normalizeJurisdiction(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
