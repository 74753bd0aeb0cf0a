package model

// Package names queried on Packagist
const (
	PackageDrupalCore  = "drupal/core"
	PackageCiviCRMCore = "civicrm/civicrm-core"
)

// PackageVersion is the newest version record of a package as listed by the registry
type PackageVersion struct {
	Package       string
	Version       string
	PHPConstraint string // require.php of that version, may be empty
}
