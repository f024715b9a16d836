package snakesboard

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.viam.com/test"
)

func TestStoreSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	s, err := NewMappingStore(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Current(), test.ShouldBeNil)

	doc := testDocument(t)
	test.That(t, s.Save(doc), test.ShouldBeNil)
	test.That(t, doc.Meta.UpdatedAt, test.ShouldNotEqual, "")

	// stored under the fixed key
	_, err = os.Stat(filepath.Join(dir, MappingStoreKey))
	test.That(t, err, test.ShouldBeNil)

	// a fresh store over the same dir loads the saved document
	s2, err := NewMappingStore(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s2.Current(), test.ShouldNotBeNil)
	test.That(t, reflect.DeepEqual(s2.Current(), doc), test.ShouldBeTrue)
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	s, err := NewMappingStore(t.TempDir())
	test.That(t, err, test.ShouldBeNil)

	doc := testDocument(t)
	test.That(t, s.Save(doc), test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, s.Export(&buf), test.ShouldBeNil)

	s2, err := NewMappingStore(t.TempDir())
	test.That(t, err, test.ShouldBeNil)

	imported, err := s2.Import(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reflect.DeepEqual(imported, s.Current()), test.ShouldBeTrue)
}

func TestStoreImportRejectsBadDocuments(t *testing.T) {
	s, err := NewMappingStore(t.TempDir())
	test.That(t, err, test.ShouldBeNil)

	_, err = s.Import(bytes.NewBufferString(`{"version": 99}`))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = s.Import(bytes.NewBufferString(`not json`))
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, s.Current(), test.ShouldBeNil)
}

func TestStoreExportWithoutMapping(t *testing.T) {
	s, err := NewMappingStore(t.TempDir())
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, s.Export(&buf), test.ShouldNotBeNil)
}

func TestStoreClear(t *testing.T) {
	dir := t.TempDir()
	s, err := NewMappingStore(dir)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.Save(testDocument(t)), test.ShouldBeNil)
	test.That(t, s.Clear(), test.ShouldBeNil)
	test.That(t, s.Current(), test.ShouldBeNil)

	_, err = os.Stat(filepath.Join(dir, MappingStoreKey))
	test.That(t, os.IsNotExist(err), test.ShouldBeTrue)
}
