package domain

import "strings"

// Package names sold by the backend.
const (
	PackageFree    = "Free"
	PackageBasic   = "Basic"
	PackagePremium = "Premium"
)

// Package is a purchasable tier and the download allowance it grants.
type Package struct {
	Name  string
	Quota Quota
}

var catalog = []Package{
	{Name: PackageFree, Quota: Limited(1)},
	{Name: PackageBasic, Quota: Limited(3)},
	{Name: PackagePremium, Quota: Unlimited()},
}

// Catalog returns the known packages in ascending order.
func Catalog() []Package {
	out := make([]Package, len(catalog))
	copy(out, catalog)
	return out
}

// LookupPackage finds a package by its canonical name. Surrounding
// whitespace is ignored; case is not.
func LookupPackage(name string) (Package, bool) {
	name = strings.TrimSpace(name)
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Package{}, false
}
