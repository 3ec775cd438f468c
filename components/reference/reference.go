// Package reference holds the static tables the dashboard renders: branches,
// payroll bands, headline stats, market comparison and the ar/en string
// catalog.
package reference

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

const documentVersionV1 = "1"

// Languages lists the catalog languages every translation key must cover.
var Languages = []string{"ar", "en"}

//go:embed data.yaml
var embeddedData []byte

// Document is the full reference data set.
type Document struct {
	Version      string                       `json:"version" yaml:"version"`
	Company      Company                      `json:"company" yaml:"company"`
	Branches     []Branch                     `json:"branches" yaml:"branches"`
	Payroll      []PayrollBand                `json:"payroll" yaml:"payroll"`
	Overview     Overview                     `json:"overview" yaml:"overview"`
	Market       Market                       `json:"market" yaml:"market"`
	ProfitLoss   []Share                      `json:"profit_loss" yaml:"profit_loss"`
	Translations map[string]map[string]string `json:"translations" yaml:"translations"`
	Source       string                       `json:"-" yaml:"-"`
}

// Company carries the brand strings shown in headers and footers.
type Company struct {
	Name    string `json:"name" yaml:"name"`
	NameAR  string `json:"name_ar" yaml:"name_ar"`
	Version string `json:"version" yaml:"version"`
	Year    int    `json:"year" yaml:"year"`
}

// Branch is one bakery location.
type Branch struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	NameEn    string `json:"nameEn" yaml:"name_en"`
	Address   string `json:"address" yaml:"address"`
	AddressEn string `json:"addressEn" yaml:"address_en"`
	Type      string `json:"type" yaml:"type"`
	Hours     string `json:"hours" yaml:"hours"`
	Status    string `json:"status" yaml:"status"`
}

// PayrollBand is the pay and training cost of a role.
type PayrollBand struct {
	Role     string `json:"role" yaml:"role"`
	Title    string `json:"title" yaml:"title"`
	TitleEn  string `json:"titleEn" yaml:"title_en"`
	Salary   int64  `json:"salary" yaml:"salary"`
	Training int64  `json:"training" yaml:"training"`
}

// Overview holds the headline numbers of the overview tab.
type Overview struct {
	Branches   int    `json:"branches" yaml:"branches"`
	Efficiency int    `json:"efficiency" yaml:"efficiency"`
	Cards      []Card `json:"cards" yaml:"cards"`
}

// Card is a KPI percentage with its trend in points.
type Card struct {
	Key   string `json:"key" yaml:"key"`
	Value int    `json:"value" yaml:"value"`
	Trend int    `json:"trend" yaml:"trend"`
}

// Market compares the chain against competitors on shared indicators.
type Market struct {
	Indicators []string       `json:"indicators" yaml:"indicators"`
	Max        float32        `json:"max" yaml:"max"`
	Series     []MarketSeries `json:"series" yaml:"series"`
}

// MarketSeries is one side of the comparison.
type MarketSeries struct {
	Key    string    `json:"key" yaml:"key"`
	Values []float32 `json:"values" yaml:"values"`
}

// Share is a labelled percentage of the P&L breakdown.
type Share struct {
	Key   string  `json:"key" yaml:"key"`
	Value float64 `json:"value" yaml:"value"`
}

var (
	errEmptyDocument = errors.New("reference: document is empty")

	defaultOnce sync.Once
	defaultDoc  *Document
	defaultErr  error
)

// Default returns the embedded reference document. It is decoded once and
// shared; callers must not mutate it.
func Default() *Document {
	defaultOnce.Do(func() {
		defaultDoc, defaultErr = Decode(bytes.NewReader(embeddedData))
	})
	if defaultErr != nil {
		panic(fmt.Errorf("reference: embedded data is invalid: %w", defaultErr))
	}
	return defaultDoc
}

// ReadFile loads a reference document from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reference: open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reference: decode %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// Decode parses and validates a reference document. Unknown fields are rejected.
func Decode(r io.Reader) (*Document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyDocument
		}
		return nil, fmt.Errorf("reference: parse: %w", err)
	}
	if doc.Version == "" {
		doc.Version = documentVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the cross-table constraints the views rely on.
func (doc *Document) Validate() error {
	if doc.Version != documentVersionV1 {
		return fmt.Errorf("reference: unsupported version %q", doc.Version)
	}
	if len(doc.Branches) == 0 {
		return errors.New("reference: at least one branch is required")
	}
	branchIDs := make(map[string]struct{}, len(doc.Branches))
	for idx, branch := range doc.Branches {
		if branch.ID == "" || branch.NameEn == "" {
			return fmt.Errorf("reference: branch at index %d is missing id or name_en", idx)
		}
		if _, dup := branchIDs[branch.ID]; dup {
			return fmt.Errorf("reference: duplicate branch id %s", branch.ID)
		}
		branchIDs[branch.ID] = struct{}{}
	}
	if len(doc.Payroll) == 0 {
		return errors.New("reference: at least one payroll band is required")
	}
	roles := make(map[string]struct{}, len(doc.Payroll))
	for _, band := range doc.Payroll {
		if band.Role == "" {
			return errors.New("reference: payroll band is missing role")
		}
		if _, dup := roles[band.Role]; dup {
			return fmt.Errorf("reference: duplicate payroll role %s", band.Role)
		}
		if band.Training < 0 || band.Salary < 0 {
			return fmt.Errorf("reference: payroll role %s has negative amounts", band.Role)
		}
		roles[band.Role] = struct{}{}
	}
	for _, series := range doc.Market.Series {
		if len(series.Values) != len(doc.Market.Indicators) {
			return fmt.Errorf("reference: market series %s has %d values for %d indicators",
				series.Key, len(series.Values), len(doc.Market.Indicators))
		}
	}
	return doc.validateTranslations()
}

func (doc *Document) validateTranslations() error {
	for _, lang := range Languages {
		if len(doc.Translations[lang]) == 0 {
			return fmt.Errorf("reference: missing %s translations", lang)
		}
	}
	base := doc.Translations[Languages[0]]
	for _, lang := range Languages[1:] {
		other := doc.Translations[lang]
		for key := range base {
			if _, ok := other[key]; !ok {
				return fmt.Errorf("reference: key %q missing from %s translations", key, lang)
			}
		}
		for key := range other {
			if _, ok := base[key]; !ok {
				return fmt.Errorf("reference: key %q missing from %s translations", key, Languages[0])
			}
		}
	}
	return nil
}

// Branch returns the branch with the given id.
func (doc *Document) Branch(id string) (Branch, bool) {
	for _, branch := range doc.Branches {
		if branch.ID == id {
			return branch, true
		}
	}
	return Branch{}, false
}

// HasBranchName reports whether name matches a branch in either language.
func (doc *Document) HasBranchName(name string) bool {
	for _, branch := range doc.Branches {
		if branch.NameEn == name || branch.Name == name {
			return true
		}
	}
	return false
}

// PayrollFor returns the band of role.
func (doc *Document) PayrollFor(role string) (PayrollBand, bool) {
	for _, band := range doc.Payroll {
		if band.Role == role {
			return band, true
		}
	}
	return PayrollBand{}, false
}
