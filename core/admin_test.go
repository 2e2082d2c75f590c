package core

import (
	"context"
	"errors"
	"testing"
)

type adapterCall struct {
	op       string
	token    SessionToken
	resource ResourceName
	id       any
	query    *Query
	data     Record
}

// recordingAdapter records calls and returns canned records
type recordingAdapter struct {
	calls []adapterCall
}

func (a *recordingAdapter) List(ctx context.Context, token SessionToken, resource ResourceName, query *Query) (*Result, error) {
	a.calls = append(a.calls, adapterCall{op: "list", token: token, resource: resource, query: query})
	return &Result{Items: []Record{{"ID": 1, "id": 1}}, Total: 1, Query: *query}, nil
}

func (a *recordingAdapter) GetOne(ctx context.Context, token SessionToken, resource ResourceName, id any) (Record, error) {
	a.calls = append(a.calls, adapterCall{op: "get", token: token, resource: resource, id: id})
	return Record{"ID": id, "id": id}, nil
}

func (a *recordingAdapter) Create(ctx context.Context, token SessionToken, resource ResourceName, data Record) (Record, error) {
	a.calls = append(a.calls, adapterCall{op: "create", token: token, resource: resource, data: data})
	return data, nil
}

func (a *recordingAdapter) Update(ctx context.Context, token SessionToken, resource ResourceName, id any, data Record) (Record, error) {
	a.calls = append(a.calls, adapterCall{op: "update", token: token, resource: resource, id: id, data: data})
	return data, nil
}

func (a *recordingAdapter) Delete(ctx context.Context, token SessionToken, resource ResourceName, id any) (Record, error) {
	a.calls = append(a.calls, adapterCall{op: "delete", token: token, resource: resource, id: id})
	return Record{"ID": id, "id": id}, nil
}

func staticToken(token SessionToken) TokenSource {
	return TokenSourceFunc(func(ctx context.Context) (SessionToken, error) {
		return token, nil
	})
}

func TestResourceRegistrationOrder(t *testing.T) {
	admin := New(&recordingAdapter{}, nil)

	expectedOrder := []ResourceName{ResourceUsers, ResourceIPs, ResourceCountryCodes}
	for _, name := range expectedOrder {
		admin.RegisterResource(name)
	}
	// Re-registering does not duplicate the entry
	admin.RegisterResource(ResourceUsers)

	ordered := admin.GetResources()
	if len(ordered) != len(expectedOrder) {
		t.Fatalf("Expected %d resources, got %d", len(expectedOrder), len(ordered))
	}
	for i, name := range expectedOrder {
		if ordered[i].Name != name {
			t.Errorf("Expected resource at position %d to be %s, got %s", i, name, ordered[i].Name)
		}
	}
}

func TestRegisterUnknownResourcePanics(t *testing.T) {
	admin := New(&recordingAdapter{}, nil)

	defer func() {
		if recover() == nil {
			t.Error("Expected RegisterResource to panic for an unmapped resource")
		}
	}()
	admin.RegisterResource("tor")
}

func TestResourceBuilder(t *testing.T) {
	admin := New(&recordingAdapter{}, nil)
	admin.RegisterResource(ResourceUsers).
		WithPluralName("Accounts").
		WithDefaultSort("Name", SortDesc).
		Hidden(true).
		WithField("Email", func(f *FieldBuilder) {
			f.DisplayName("Email Address")
		}).
		WithField("LastLogin", func(f *FieldBuilder) {
			f.ReadOnly(true)
		})

	resource, ok := admin.GetResource(ResourceUsers)
	if !ok {
		t.Fatal("users resource not registered")
	}
	if resource.DisplayName != "User" || resource.PluralName != "Accounts" {
		t.Errorf("unexpected names %q / %q", resource.DisplayName, resource.PluralName)
	}
	if !resource.Hidden {
		t.Error("expected resource to be hidden")
	}
	if sort := resource.GetEffectiveDefaultSort(); sort.Field != "Name" || sort.Direction != SortDesc {
		t.Errorf("unexpected default sort %+v", sort)
	}

	email, _ := resource.GetField("Email")
	if email.DisplayName != "Email Address" {
		t.Errorf("Email label = %q", email.DisplayName)
	}
	lastLogin, ok := resource.GetField("LastLogin")
	if !ok || !lastLogin.ReadOnly || lastLogin.DisplayName != "Last Login" {
		t.Errorf("LastLogin = %+v, %v", lastLogin, ok)
	}

	// The delimited list configuration from the resource table survives
	allowed, _ := resource.GetField("AllowedIPs")
	if !allowed.IsDelimitedList() {
		t.Error("AllowedIPs should stay a delimited list field")
	}
}

func TestBackOfficeThreadsToken(t *testing.T) {
	adapter := &recordingAdapter{}
	admin := New(adapter, staticToken("jwt-abc"))
	admin.RegisterResource(ResourceUsers)

	ctx := context.Background()
	if _, err := admin.List(ctx, ResourceUsers, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.GetOne(ctx, ResourceUsers, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Create(ctx, ResourceUsers, Record{"Name": "x"}); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Update(ctx, ResourceUsers, 3, Record{"Name": "y"}); err != nil {
		t.Fatal(err)
	}
	deleted, err := admin.Delete(ctx, ResourceUsers, 3)
	if err != nil {
		t.Fatal(err)
	}
	if deleted["id"] != 3 {
		t.Errorf("Delete should return the deleted record, got %v", deleted)
	}

	if len(adapter.calls) != 5 {
		t.Fatalf("expected 5 adapter calls, got %d", len(adapter.calls))
	}
	for _, call := range adapter.calls {
		if call.token != "jwt-abc" {
			t.Errorf("%s call got token %q", call.op, call.token)
		}
		if call.resource != ResourceUsers {
			t.Errorf("%s call got resource %q", call.op, call.resource)
		}
	}
}

func TestBackOfficeListDefaults(t *testing.T) {
	adapter := &recordingAdapter{}
	admin := New(adapter, nil)
	admin.RegisterResource(ResourceIPs).WithDefaultSort("IP", SortAsc)

	query := &Query{Pagination: Pagination{Page: 2}}
	if _, err := admin.List(context.Background(), ResourceIPs, query); err != nil {
		t.Fatal(err)
	}

	got := adapter.calls[0]
	if got.token != "" {
		t.Errorf("expected empty token without a token source, got %q", got.token)
	}
	if got.query.Sort.Field != "IP" {
		t.Errorf("expected resource default sort, got %+v", got.query.Sort)
	}
	if got.query.Pagination.Page != 2 || got.query.Pagination.PerPage != admin.GetConfig().ItemsPerPage {
		t.Errorf("unexpected pagination %+v", got.query.Pagination)
	}
}

func TestBackOfficeListLeavesCallerQueryUntouched(t *testing.T) {
	adapter := &recordingAdapter{}
	admin := New(adapter, nil)
	admin.RegisterResource(ResourceIPs).WithDefaultSort("IP", SortDesc)

	query := &Query{Filters: map[string]any{"country_code": "DE"}}
	if _, err := admin.List(context.Background(), ResourceIPs, query); err != nil {
		t.Fatal(err)
	}

	if !query.Sort.IsZero() {
		t.Errorf("caller's sort was changed to %+v", query.Sort)
	}
	if query.Pagination != (Pagination{}) {
		t.Errorf("caller's pagination was changed to %+v", query.Pagination)
	}

	sent := adapter.calls[0].query
	if sent == query {
		t.Fatal("adapter received the caller's query")
	}
	if sent.Sort.Field != "IP" || sent.Pagination.PerPage != admin.GetConfig().ItemsPerPage {
		t.Errorf("defaults missing from sent query %+v", sent)
	}
	sent.Filters["country_code"] = "FR"
	if query.Filters["country_code"] != "DE" {
		t.Error("sent query shares its filter map with the caller")
	}
}

func TestBackOfficeAppliesRegisteredFieldSettings(t *testing.T) {
	adapter := &recordingAdapter{}
	admin := New(adapter, nil)
	admin.RegisterResource(ResourceUsers).
		WithField("Tags", func(f *FieldBuilder) { f.DelimitedList(";") })

	ctx := context.Background()
	input := Record{"Name": "Ada", "Tags": "a; b;;", "AllowedIPs": "1.1.1.1, 2.2.2.2"}
	if _, err := admin.Create(ctx, ResourceUsers, input); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.Update(ctx, ResourceUsers, 1, input); err != nil {
		t.Fatal(err)
	}

	for _, call := range adapter.calls {
		tags, ok := call.data["Tags"].([]string)
		if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
			t.Errorf("%s: Tags = %#v, want [a b]", call.op, call.data["Tags"])
		}
		allowed, ok := call.data["AllowedIPs"].([]string)
		if !ok || len(allowed) != 2 {
			t.Errorf("%s: AllowedIPs = %#v", call.op, call.data["AllowedIPs"])
		}
	}
	if input["Tags"] != "a; b;;" {
		t.Error("caller's record was modified")
	}

	_, err := admin.Create(ctx, ResourceUsers, Record{"Tags": 42})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for a non-string list field, got %v", err)
	}
}

func TestBackOfficeRejectsUnregisteredResources(t *testing.T) {
	adapter := &recordingAdapter{}
	admin := New(adapter, nil)
	admin.RegisterResource(ResourceIPs)

	ctx := context.Background()
	_, err := admin.GetOne(ctx, ResourceUsers, 1)
	if !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource for unregistered resource, got %v", err)
	}
	_, err = admin.List(ctx, "nope", nil)
	if !errors.Is(err, ErrUnknownResource) {
		t.Errorf("expected ErrUnknownResource for unmapped resource, got %v", err)
	}
	if len(adapter.calls) != 0 {
		t.Errorf("adapter should not be called, got %d calls", len(adapter.calls))
	}
}

func TestBackOfficeTokenError(t *testing.T) {
	boom := errors.New("store unavailable")
	adapter := &recordingAdapter{}
	admin := New(adapter, TokenSourceFunc(func(ctx context.Context) (SessionToken, error) {
		return "", boom
	}))
	admin.RegisterResource(ResourceUsers)

	_, err := admin.Delete(context.Background(), ResourceUsers, 1)
	if !errors.Is(err, boom) {
		t.Errorf("expected token error to propagate, got %v", err)
	}
	if len(adapter.calls) != 0 {
		t.Error("adapter should not be called when the token cannot be read")
	}
}
