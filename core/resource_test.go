package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestResourceTableIsExhaustive(t *testing.T) {
	seen := make(map[string]ResourceName)
	for _, name := range AllResources {
		path, ok := name.Path()
		if !ok {
			t.Errorf("resource %q has no backend path", name)
			continue
		}
		if path == "" {
			t.Errorf("resource %q maps to an empty path", name)
		}
		if other, dup := seen[path]; dup {
			t.Errorf("resources %q and %q share path %q", other, name, path)
		}
		seen[path] = name

		if _, err := LookupResource(name); err != nil {
			t.Errorf("LookupResource(%q) failed: %v", name, err)
		}
	}
}

func TestResourcePaths(t *testing.T) {
	tests := []struct {
		name ResourceName
		path string
	}{
		{ResourceIPs, "tor"},
		{ResourceUsers, "users"},
		{ResourceCountryCodes, "country_code"},
	}
	for _, tt := range tests {
		path, ok := tt.name.Path()
		if !ok || path != tt.path {
			t.Errorf("%q.Path() = %q, %v; want %q", tt.name, path, ok, tt.path)
		}
	}
}

func TestUnknownResource(t *testing.T) {
	// Resolution is a pure lookup, never inferred from the text of the name
	for _, raw := range []string{"tor", "Users", "ips", "", "user"} {
		_, err := ParseResourceName(raw)
		if !errors.Is(err, ErrUnknownResource) {
			t.Errorf("ParseResourceName(%q) error = %v, want ErrUnknownResource", raw, err)
		}

		var unknown *UnknownResourceError
		if !errors.As(err, &unknown) || unknown.Name != raw {
			t.Errorf("expected UnknownResourceError for %q, got %v", raw, err)
		}
	}

	if _, err := LookupResource("tor"); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("LookupResource(tor) error = %v, want ErrUnknownResource", err)
	}

	name, err := ParseResourceName("IPs")
	if err != nil || name != ResourceIPs {
		t.Errorf("ParseResourceName(IPs) = %q, %v", name, err)
	}
}

func TestLookupResourceNames(t *testing.T) {
	tests := []struct {
		name        ResourceName
		displayName string
		pluralName  string
		readOnly    bool
	}{
		{ResourceIPs, "Tor Exit Node", "Tor Exit Nodes", true},
		{ResourceUsers, "User", "Users", false},
		{ResourceCountryCodes, "Country Code", "Country Codes", true},
	}

	for _, tt := range tests {
		resource, err := LookupResource(tt.name)
		if err != nil {
			t.Fatalf("LookupResource(%q) failed: %v", tt.name, err)
		}
		if resource.DisplayName != tt.displayName {
			t.Errorf("%q display name = %q, want %q", tt.name, resource.DisplayName, tt.displayName)
		}
		if resource.PluralName != tt.pluralName {
			t.Errorf("%q plural name = %q, want %q", tt.name, resource.PluralName, tt.pluralName)
		}
		if resource.ReadOnly != tt.readOnly {
			t.Errorf("%q read only = %v, want %v", tt.name, resource.ReadOnly, tt.readOnly)
		}
	}
}

func TestFieldLabels(t *testing.T) {
	resource, err := LookupResource(ResourceIPs)
	if err != nil {
		t.Fatal(err)
	}

	expected := map[string]string{
		"IP":           "IP",
		"country_name": "Country Name",
		"country_code": "Country Code",
	}
	for name, label := range expected {
		field, ok := resource.GetField(name)
		if !ok {
			t.Errorf("field %q missing", name)
			continue
		}
		if field.DisplayName != label {
			t.Errorf("field %q label = %q, want %q", name, field.DisplayName, label)
		}
	}

	if _, ok := resource.GetField("missing"); ok {
		t.Error("GetField should report unknown fields")
	}
}

func TestSplitDelimited(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"1.2.3.4,5.6.7.8", []string{"1.2.3.4", "5.6.7.8"}},
		{"1.2.3.4", []string{"1.2.3.4"}},
		{" 1.2.3.4 , 5.6.7.8 ", []string{"1.2.3.4", "5.6.7.8"}},
		{"1.2.3.4,,5.6.7.8,", []string{"1.2.3.4", "5.6.7.8"}},
		{"c,b,a", []string{"c", "b", "a"}},
		{"", []string{}},
		{" , ", []string{}},
	}

	for _, tt := range tests {
		got := SplitDelimited(tt.in, ",")
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitDelimited(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestPrepareOutbound(t *testing.T) {
	resource, err := LookupResource(ResourceUsers)
	if err != nil {
		t.Fatal(err)
	}

	data := Record{"Name": "Greg", "AllowedIPs": "1.2.3.4,5.6.7.8"}
	out, err := resource.PrepareOutbound(data)
	if err != nil {
		t.Fatalf("PrepareOutbound failed: %v", err)
	}

	if !reflect.DeepEqual(out["AllowedIPs"], []string{"1.2.3.4", "5.6.7.8"}) {
		t.Errorf("AllowedIPs = %#v", out["AllowedIPs"])
	}
	if out["Name"] != "Greg" {
		t.Errorf("Name = %v", out["Name"])
	}

	// The caller's payload is never modified
	if data["AllowedIPs"] != "1.2.3.4,5.6.7.8" {
		t.Errorf("input was mutated: %#v", data["AllowedIPs"])
	}

	// Sequences pass through unchanged
	seq := []any{"9.9.9.9"}
	out, err = resource.PrepareOutbound(Record{"AllowedIPs": seq})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out["AllowedIPs"], seq) {
		t.Errorf("sequence changed: %#v", out["AllowedIPs"])
	}

	// Absent or null fields are left alone
	out, err = resource.PrepareOutbound(Record{"Name": "x", "AllowedIPs": nil})
	if err != nil {
		t.Fatal(err)
	}
	if out["AllowedIPs"] != nil {
		t.Errorf("nil field changed: %#v", out["AllowedIPs"])
	}

	if _, err := resource.PrepareOutbound(Record{"AllowedIPs": 42}); err == nil {
		t.Error("expected an error for a non-string delimited field")
	}

	// Resources without delimited fields copy the payload verbatim
	ips, _ := LookupResource(ResourceIPs)
	out, err = ips.PrepareOutbound(Record{"AllowedIPs": "a,b"})
	if err != nil {
		t.Fatal(err)
	}
	if out["AllowedIPs"] != "a,b" {
		t.Errorf("unexpected transform on IPs resource: %#v", out["AllowedIPs"])
	}

	out, err = resource.PrepareOutbound(nil)
	if err != nil || out == nil || len(out) != 0 {
		t.Errorf("PrepareOutbound(nil) = %#v, %v", out, err)
	}
}

func TestRecordAliasID(t *testing.T) {
	r := Record{"ID": float64(7), "Name": "Greg"}.AliasID()
	if r[IDField] != r[BackendIDField] {
		t.Errorf("id = %v, ID = %v", r[IDField], r[BackendIDField])
	}

	id, ok := r.ID()
	if !ok || id != float64(7) {
		t.Errorf("ID() = %v, %v", id, ok)
	}

	noKey := Record{"country_code": "AT"}.AliasID()
	if _, ok := noKey[IDField]; ok {
		t.Error("records without a backend key should not gain an id")
	}

	var nilRecord Record
	if nilRecord.AliasID() != nil {
		t.Error("AliasID on nil should return nil")
	}
}
