package ml

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStaticEncodingLabels(t *testing.T) {
	encoding := StaticEncoding{"smokes": 2, "never smoked": 0, "formerly smoked": 1}
	expected := []string{"never smoked", "formerly smoked", "smokes"}
	if labels := encoding.Labels(); !reflect.DeepEqual(labels, expected) {
		t.Fatalf("expected %v, got %v", expected, labels)
	}
	if _, ok := encoding.Encode("Smokes"); ok {
		t.Fatal("expected case-sensitive lookup")
	}
}

func TestLabelEncoding(t *testing.T) {
	encoding, err := NewLabelEncoding([]string{"Female", "Male", "Other"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code, ok := encoding.Encode("Male"); !ok || code != 1 {
		t.Fatalf("expected Male=1, got %d (%v)", code, ok)
	}
	if _, ok := encoding.Encode("male"); ok {
		t.Fatal("expected unseen label to be rejected")
	}
	if _, err := NewLabelEncoding([]string{"A", "A"}); err == nil {
		t.Fatal("expected error for duplicate class")
	}
	if _, err := NewLabelEncoding(nil); err == nil {
		t.Fatal("expected error for empty class list")
	}
}

func TestLoadEncoderArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encoder.json")
	payload := `{
		"feature_order": ["gender", "age", "hypertension", "heart_disease", "ever_married",
			"work_type", "Residence_type", "avg_glucose_level", "bmi", "smoking_status"],
		"encoders": {
			"gender": ["Female", "Male", "Other"],
			"ever_married": ["No", "Yes"],
			"work_type": ["Govt_job", "Never_worked", "Private", "Self-employed", "children"],
			"Residence_type": ["Rural", "Urban"],
			"smoking_status": ["Unknown", "formerly smoked", "never smoked", "smokes"]
		}
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	schema, err := LoadEncoderArtifact(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(schema.Names(), StrokeSchema().Names()) {
		t.Fatalf("unexpected feature order: %v", schema.Names())
	}

	record := exampleRecord()
	record["gender"] = "Other"
	vector, err := schema.Encode(NamedInput(record))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := FeatureVector{2, 67, 0, 1, 1, 2, 1, 228.69, 36.6, 1}
	if !reflect.DeepEqual(vector, expected) {
		t.Fatalf("expected %v, got %v", expected, vector)
	}
}

func TestLoadEncoderArtifactErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"missing.json": "",
		"broken.json":  `{"feature_order": [`,
		"empty.json":   `{"feature_order": [], "encoders": {}}`,
		"orphan.json":  `{"feature_order": ["age"], "encoders": {"gender": ["Female", "Male"]}}`,
	}
	for name, payload := range cases {
		path := filepath.Join(dir, name)
		if payload != "" {
			if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := LoadEncoderArtifact(path); !errors.Is(err, ErrModelLoadFailure) {
			t.Fatalf("%s: expected ErrModelLoadFailure, got %v", name, err)
		}
	}
}
