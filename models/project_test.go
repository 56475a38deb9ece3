package models_test

import (
	"errors"
	"strings"
	"testing"

	"costbook/models"
)

func TestProject_LineCostsAndTotal(t *testing.T) {
	p, err := models.NewProject("  Kitchen ")
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	if p.Name() != "Kitchen" {
		t.Errorf("name = %q", p.Name())
	}

	item, err := models.NewLineItem("a", "Widget", 3, models.MoneyFromFloat(500), "https://shop/x")
	if err != nil {
		t.Fatalf("NewLineItem: %v", err)
	}
	if !item.LineCost.Equal(models.MoneyFromFloat(1500)) {
		t.Fatalf("line cost = %s", item.LineCost)
	}
	p.AddItem(item)

	other, _ := models.NewLineItem("b", "Cable", 2, models.MoneyFromFloat(1290.5), "")
	p.AddItem(other)

	if got := p.Total().Format("NPR"); got != "NPR 4081.00" {
		t.Errorf("total = %s", got)
	}

	if _, err := p.RemoveAt(p.IndexOf("a")); err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	if p.Len() != 1 || p.Items()[0].ID != "b" {
		t.Fatalf("items = %+v", p.Items())
	}
	if _, err := p.RemoveAt(p.IndexOf("a")); !errors.Is(err, models.ErrItemNotFound) {
		t.Errorf("second remove err = %v", err)
	}

	p.Clear()
	if p.Len() != 0 || !p.Total().IsZero() {
		t.Errorf("clear left %d items", p.Len())
	}
}

func TestProject_Validation(t *testing.T) {
	if _, err := models.NewProject("   "); !errors.Is(err, models.ErrEmptyName) {
		t.Errorf("empty name err = %v", err)
	}
	for _, qty := range []int{0, -2} {
		if _, err := models.NewLineItem("", "Widget", qty, models.MoneyFromFloat(1), ""); !errors.Is(err, models.ErrInvalidQuantity) {
			t.Errorf("qty %d err = %v", qty, err)
		}
	}
}

func TestProject_Summary(t *testing.T) {
	p, _ := models.NewProject("Office")
	item, _ := models.NewLineItem("", "Mouse", 2, models.MoneyFromFloat(750), "")
	p.AddItem(item)

	summary := p.Summary("")
	for _, want := range []string{
		"Project Name: Office",
		"Item: Mouse",
		"Price: NPR 750.00",
		"Quantity: 2",
		"Total Project Cost: NPR 1500.00",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestNewQuery(t *testing.T) {
	q, err := models.NewQuery("Widget", " https://shop/x ")
	if err != nil || q.Kind != models.QueryDirectLink || q.Value != "https://shop/x" {
		t.Errorf("link wins: %+v %v", q, err)
	}
	q, err = models.NewQuery(" Widget ", "")
	if err != nil || q.Kind != models.QueryNameSearch || q.Value != "Widget" {
		t.Errorf("name: %+v %v", q, err)
	}
	if _, err := models.NewQuery(" ", ""); !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("empty err = %v", err)
	}
}

func TestMoney(t *testing.T) {
	if got := models.MoneyFromFloat(-5); !got.IsZero() {
		t.Errorf("negative clamps to zero, got %s", got)
	}
	b, err := models.MoneyFromFloat(12.5).MarshalJSON()
	if err != nil || string(b) != "12.50" {
		t.Errorf("json = %s %v", b, err)
	}
}
