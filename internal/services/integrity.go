package services

import (
	"fmt"
	"logistics-dashboard-service/internal/store"
	"strings"
)

// Reference is one by-name link that does not resolve.
// Records reference each other by name, and deletes never cascade, so
// dangling names are expected and reported rather than prevented.
type Reference struct {
	Collection string `json:"collection"`
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Field      string `json:"field"`
	Missing    string `json:"missing"`
}

type IntegrityReport struct {
	Orphans []Reference `json:"orphans"`
}

func (r IntegrityReport) OK() bool { return len(r.Orphans) == 0 }

// CheckIntegrity lists product and enterprise names that no record defines.
// An empty product catalog disables product checks.
func CheckIntegrity(snap store.Snapshot) IntegrityReport {
	products := make(map[string]struct{}, len(snap.Products))
	for _, p := range snap.Products {
		products[nameKey(p.Name)] = struct{}{}
	}
	enterprises := make(map[string]struct{}, len(snap.Enterprises))
	for _, e := range snap.Enterprises {
		enterprises[nameKey(e.Name)] = struct{}{}
	}

	report := IntegrityReport{Orphans: []Reference{}}
	checkProduct := func(collection string, id int, name, field, product string) {
		if len(products) == 0 {
			return
		}
		if _, ok := products[nameKey(product)]; !ok {
			report.Orphans = append(report.Orphans, Reference{
				Collection: collection, ID: id, Name: name, Field: field, Missing: product,
			})
		}
	}

	for _, w := range snap.Warehouses {
		for i, s := range w.Products {
			checkProduct("warehouses", w.ID, w.Name, fmt.Sprintf("products[%d]", i), s.Product)
		}
	}

	for _, e := range snap.Enterprises {
		for i, s := range e.Consumed {
			checkProduct("enterprises", e.ID, e.Name, fmt.Sprintf("consumed[%d]", i), s.Product)
		}
		for i, s := range e.Produced {
			checkProduct("enterprises", e.ID, e.Name, fmt.Sprintf("produced[%d]", i), s.Product)
		}
		for i, s := range e.Storage {
			checkProduct("enterprises", e.ID, e.Name, fmt.Sprintf("storage[%d]", i), s.Product)
		}
	}

	for _, v := range snap.Vehicles {
		if v.Enterprise != "" {
			if _, ok := enterprises[nameKey(v.Enterprise)]; !ok {
				report.Orphans = append(report.Orphans, Reference{
					Collection: "vehicles", ID: v.ID, Name: v.Brand, Field: "enterprise", Missing: v.Enterprise,
				})
			}
		}
		for i, pt := range v.ProductTypes {
			checkProduct("vehicles", v.ID, v.Brand, fmt.Sprintf("productTypes[%d]", i), pt)
		}
	}

	return report
}

func nameKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

