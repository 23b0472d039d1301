// Package testsupport holds fixtures and helpers shared by package tests.
package testsupport

import (
	"context"
	_ "embed"
	"testing"

	"github.com/goliatone/go-formtree/pkg/schema"
)

// PeopleFixture is the name of the embedded people schema.
const PeopleFixture = "people.json"

//go:embed testdata/people.json
var peopleSchema []byte

// PeopleSchema returns the raw people schema document. It declares Person,
// Address, Organisation (a reference selector backed by the "organisations"
// option source) and Team (a mandatory multi field of Person).
func PeopleSchema() []byte {
	return append([]byte(nil), peopleSchema...)
}

// PeopleDocument decodes the people schema.
func PeopleDocument(t testing.TB) schema.Document {
	t.Helper()
	doc, err := schema.DecodeDocument(schema.SourceFromFS(PeopleFixture), peopleSchema)
	if err != nil {
		t.Fatalf("decode people schema: %v", err)
	}
	return doc
}

// PeopleRegistry parses the people schema into a fresh registry.
func PeopleRegistry(t testing.TB, opts ...schema.Option) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry(opts...)
	if _, err := reg.ParseModels(PeopleDocument(t).Data); err != nil {
		t.Fatalf("parse people schema: %v", err)
	}
	return reg
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
