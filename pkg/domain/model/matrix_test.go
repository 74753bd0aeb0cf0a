package model_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/carrot/pkg/domain/model"
)

func TestManifestURL(t *testing.T) {
	gt.Value(t, model.ManifestURL("https://git.example/org/repo.git", "abc123")).
		Equal("https://git.example/org/repo/-/raw/abc123/tests/civicarrot.json")
	gt.Value(t, model.ManifestURL("https://git.example/org/repo", "main")).
		Equal("https://git.example/org/repo/-/raw/main/tests/civicarrot.json")
	gt.Value(t, model.ManifestURL("https://git.example/org/repo.github", "main")).
		Equal("https://git.example/org/repo.github/-/raw/main/tests/civicarrot.json")
}

func TestPlaceholder_Table(t *testing.T) {
	tokens := model.Placeholders()
	gt.Number(t, len(tokens)).Equal(6)
	gt.Value(t, tokens[len(tokens)-1]).Equal(model.PlaceholderPHPSensible)

	spellings := map[model.Placeholder]string{
		model.PlaceholderDrupalLatest:         "CIVICARROT_DRUPAL_LATEST",
		model.PlaceholderDrupalPrior:          "CIVICARROT_DRUPAL_PRIOR",
		model.PlaceholderCiviDev:              "CIVICARROT_CIVI_DEV",
		model.PlaceholderCiviReleaseCandidate: "CIVICARROT_CIVI_RELEASECANDIDATE",
		model.PlaceholderCiviLatest:           "CIVICARROT_CIVI_LATEST",
		model.PlaceholderPHPSensible:          "CIVICARROT_PHP_SENSIBLE",
	}
	for token, text := range spellings {
		gt.Value(t, token.String()).Equal(text)
	}
}

func TestPlaceholder_ExactMatch(t *testing.T) {
	s := `{"civicrm":["CIVICARROT_CIVI_DEV_OLD","XCIVICARROT_CIVI_DEV"]}`
	gt.Value(t, model.PlaceholderCiviDev.In(s)).Equal(false)
	gt.Value(t, model.PlaceholderCiviDev.ReplaceIn(s, "dev-master")).Equal(s)

	s = `{"civicrm":["CIVICARROT_CIVI_DEV","CIVICARROT_CIVI_DEV"]}`
	gt.Value(t, model.PlaceholderCiviDev.In(s)).Equal(true)
	gt.Value(t, model.PlaceholderCiviDev.ReplaceIn(s, "dev-master")).
		Equal(`{"civicrm":["dev-master","dev-master"]}`)
}

func TestMatrixSpec_FillDefaults(t *testing.T) {
	t.Run("empty singlePR gets three defaults", func(t *testing.T) {
		spec, err := model.ParseManifest([]byte(`{"singlePR":{}}`))
		gt.NoError(t, err)
		spec.FillDefaults()

		gt.Number(t, len(spec.Dimensions)).Equal(3)
		gt.Value(t, spec.Dimensions["php-versions"]).Equal([]any{"CIVICARROT_PHP_SENSIBLE"})
		gt.Value(t, spec.Dimensions["drupal"]).Equal([]any{"CIVICARROT_DRUPAL_LATEST"})
		gt.Value(t, spec.Dimensions["civicrm"]).Equal([]any{"CIVICARROT_CIVI_RELEASECANDIDATE"})
	})

	t.Run("missing singlePR behaves like empty", func(t *testing.T) {
		spec, err := model.ParseManifest([]byte(`{"other":{}}`))
		gt.NoError(t, err)
		spec.FillDefaults()
		gt.Number(t, len(spec.Dimensions)).Equal(3)
	})

	t.Run("given dimensions are kept and empty ones filled", func(t *testing.T) {
		spec, err := model.ParseManifest([]byte(`{"singlePR":{"php-versions":[7.4,"8.1"],"drupal":[],"mysql":["5.7"]}}`))
		gt.NoError(t, err)
		spec.FillDefaults()

		gt.Number(t, len(spec.Dimensions)).Equal(4)
		gt.Value(t, spec.Dimensions["php-versions"]).Equal([]any{json.Number("7.4"), "8.1"})
		gt.Value(t, spec.Dimensions["drupal"]).Equal([]any{"CIVICARROT_DRUPAL_LATEST"})
		gt.Value(t, spec.Dimensions["mysql"]).Equal([]any{"5.7"})
	})

	t.Run("include rows are not filled", func(t *testing.T) {
		spec, err := model.ParseManifest([]byte(`{"singlePR":{"include":[
			{"php-versions":"7.3","drupal":"~9.1.1","civicrm":"5.40.x-dev"},
			{"php-versions":"7.4","drupal":"CIVICARROT_DRUPAL_PRIOR","civicrm":"CIVICARROT_CIVI_DEV"}
		]}}`))
		gt.NoError(t, err)
		gt.Value(t, spec.IsInclude()).Equal(true)
		spec.FillDefaults()

		gt.Number(t, len(spec.Dimensions)).Equal(0)
		gt.Number(t, len(spec.Include)).Equal(2)
	})

	t.Run("empty include list still counts as include", func(t *testing.T) {
		spec, err := model.ParseManifest([]byte(`{"singlePR":{"include":[]}}`))
		gt.NoError(t, err)
		gt.Value(t, spec.IsInclude()).Equal(true)
		spec.FillDefaults()
		gt.Number(t, len(spec.Dimensions)).Equal(0)
	})
}

func TestMatrixSpec_MarshalJSON(t *testing.T) {
	spec, err := model.ParseManifest([]byte(`{"singlePR":{"php-versions":[8.0],"drupal":["~10.1.0"],"exclude":[{"drupal":"~10.1.0"}]}}`))
	gt.NoError(t, err)

	data, err := json.Marshal(spec)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal(`{"drupal":["~10.1.0"],"exclude":[{"drupal":"~10.1.0"}],"php-versions":[8.0]}`)
}

func TestParseManifest_Errors(t *testing.T) {
	tests := map[string]string{
		"not JSON":             `<html>not found</html>`,
		"singlePR not object":  `{"singlePR":[1,2]}`,
		"dimension not list":   `{"singlePR":{"drupal":"~9"}}`,
		"include not row list": `{"singlePR":{"include":["a"]}}`,
		"top level not object": `["singlePR"]`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := model.ParseManifest([]byte(body))
			gt.Error(t, err)
			gt.Value(t, goerr.HasTag(err, model.ErrTagManifestParse)).Equal(true)
		})
	}
}
