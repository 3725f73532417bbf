// Package testutil holds fixtures shared by package tests.
package testutil

import (
	_ "embed"
	"encoding/json"
)

//go:embed testdata/site_content.json
var siteContent []byte

// SiteContentJSON returns a copy of a schema-valid maxreach document for "Acme".
func SiteContentJSON() []byte {
	out := make([]byte, len(siteContent))
	copy(out, siteContent)
	return out
}

// SiteContentMap returns the fixture decoded into a generic map, for tests that mutate it.
func SiteContentMap() map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(siteContent, &m); err != nil {
		panic(err)
	}
	return m
}

// MustJSON marshals v or panics.
func MustJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
