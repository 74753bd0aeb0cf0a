package model

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Known matrix dimensions that receive defaults when missing
const (
	DimensionPHP     = "php-versions"
	DimensionDrupal  = "drupal"
	DimensionCiviCRM = "civicrm"
)

// ManifestPath is the location of the matrix manifest inside a repository
const ManifestPath = "tests/civicarrot.json"

// ManifestURL builds the raw file URL of the manifest for a GitLab repository at a revision.
// A trailing ".git" on the clone URL is dropped.
func ManifestURL(repoURL, revision string) string {
	repoURL = strings.TrimSuffix(repoURL, ".git")
	return repoURL + "/-/raw/" + revision + "/" + ManifestPath
}

// Placeholder is a symbolic token in a matrix that is replaced with a resolved version
type Placeholder int

const (
	PlaceholderDrupalLatest Placeholder = iota + 1
	PlaceholderDrupalPrior
	PlaceholderCiviDev
	PlaceholderCiviReleaseCandidate
	PlaceholderCiviLatest
	PlaceholderPHPSensible
)

type placeholderDef struct {
	token   Placeholder
	text    string
	pattern *regexp.Regexp
}

func newPlaceholderDef(token Placeholder, text string) placeholderDef {
	return placeholderDef{
		token:   token,
		text:    text,
		pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(text) + `\b`),
	}
}

// placeholderTable is the single source of truth for token spelling and substitution order.
// PHPSensible must stay last: it reads registry entries gathered while resolving the others.
var placeholderTable = []placeholderDef{
	newPlaceholderDef(PlaceholderDrupalLatest, "CIVICARROT_DRUPAL_LATEST"),
	newPlaceholderDef(PlaceholderDrupalPrior, "CIVICARROT_DRUPAL_PRIOR"),
	newPlaceholderDef(PlaceholderCiviDev, "CIVICARROT_CIVI_DEV"),
	newPlaceholderDef(PlaceholderCiviReleaseCandidate, "CIVICARROT_CIVI_RELEASECANDIDATE"),
	newPlaceholderDef(PlaceholderCiviLatest, "CIVICARROT_CIVI_LATEST"),
	newPlaceholderDef(PlaceholderPHPSensible, "CIVICARROT_PHP_SENSIBLE"),
}

// Placeholders returns all tokens in substitution order
func Placeholders() []Placeholder {
	tokens := make([]Placeholder, len(placeholderTable))
	for i, def := range placeholderTable {
		tokens[i] = def.token
	}
	return tokens
}

func (p Placeholder) def() (placeholderDef, bool) {
	for _, def := range placeholderTable {
		if def.token == p {
			return def, true
		}
	}
	return placeholderDef{}, false
}

func (p Placeholder) String() string {
	if def, ok := p.def(); ok {
		return def.text
	}
	return "UNKNOWN_PLACEHOLDER"
}

// In reports whether the token occurs in s as a whole word
func (p Placeholder) In(s string) bool {
	def, ok := p.def()
	return ok && def.pattern.MatchString(s)
}

// ReplaceIn replaces every whole-word occurrence of the token in s with value
func (p Placeholder) ReplaceIn(s, value string) string {
	def, ok := p.def()
	if !ok {
		return s
	}
	return def.pattern.ReplaceAllLiteralString(s, value)
}

// MatrixSpec is the singlePR part of a manifest. Either Dimensions describe a cross product or
// Include lists complete rows; Exclude rows are passed through as written.
type MatrixSpec struct {
	Dimensions map[string][]any
	Include    []map[string]any
	Exclude    []map[string]any
}

// IsInclude reports whether the manifest uses explicit include rows
func (m *MatrixSpec) IsInclude() bool {
	return m.Include != nil
}

// FillDefaults injects a placeholder for each known dimension that is missing or empty. Include
// style manifests are assumed to be complete and are left alone.
func (m *MatrixSpec) FillDefaults() {
	if m.IsInclude() {
		return
	}
	if m.Dimensions == nil {
		m.Dimensions = make(map[string][]any)
	}

	defaults := []struct {
		name  string
		token Placeholder
	}{
		{DimensionPHP, PlaceholderPHPSensible},
		{DimensionDrupal, PlaceholderDrupalLatest},
		{DimensionCiviCRM, PlaceholderCiviReleaseCandidate},
	}
	for _, d := range defaults {
		if len(m.Dimensions[d.name]) == 0 {
			m.Dimensions[d.name] = []any{d.token.String()}
		}
	}
}

// MarshalJSON renders the matrix in the shape GitHub Actions expects
func (m MatrixSpec) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Dimensions)+2)
	for name, values := range m.Dimensions {
		out[name] = values
	}
	if m.Include != nil {
		out["include"] = m.Include
	}
	if m.Exclude != nil {
		out["exclude"] = m.Exclude
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, goerr.Wrap(err, "failed to encode matrix")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseManifest decodes a manifest document and returns its singlePR matrix. A missing singlePR
// yields an empty matrix.
func ParseManifest(data []byte) (*MatrixSpec, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "manifest is not a JSON object", goerr.T(ErrTagManifestParse))
	}

	spec := &MatrixSpec{Dimensions: make(map[string][]any)}
	single, ok := doc["singlePR"]
	if !ok || isJSONNull(single) {
		return spec, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(single, &fields); err != nil {
		return nil, goerr.Wrap(err, "singlePR is not a JSON object", goerr.T(ErrTagManifestParse))
	}

	for name, raw := range fields {
		if isJSONNull(raw) {
			continue
		}

		switch name {
		case "include", "exclude":
			var rows []map[string]any
			if err := decodeNumbers(raw, &rows); err != nil {
				return nil, goerr.Wrap(err, "matrix rows must be a list of objects",
					goerr.V("key", name), goerr.T(ErrTagManifestParse))
			}
			if rows == nil {
				rows = []map[string]any{}
			}
			if name == "include" {
				spec.Include = rows
			} else {
				spec.Exclude = rows
			}

		default:
			var values []any
			if err := decodeNumbers(raw, &values); err != nil {
				return nil, goerr.Wrap(err, "matrix dimension must be a list",
					goerr.V("dimension", name), goerr.T(ErrTagManifestParse))
			}
			spec.Dimensions[name] = values
		}
	}

	return spec, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// decodeNumbers keeps numeric values as written so that 8.0 is not rendered back as 8
func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}
