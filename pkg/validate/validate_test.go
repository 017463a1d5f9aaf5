package validate_test

import (
	"testing"

	"drivebox/pkg/validate"
)

type registerInput struct {
	Name                 string `json:"name"                  validate:"required,min=2,max=100"`
	Email                string `json:"email"                 validate:"required,email"`
	Password             string `json:"password"              validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"confirmed"`
	Role                 string `json:"role"                  validate:"nullable,in=admin,user"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:                 "Demo User",
		Email:                "demo@example.com",
		Password:             "secret-password",
		PasswordConfirmation: "secret-password",
		Role:                 "user",
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(registerInput{})
	if !validate.HasErrors(errs) {
		t.Fatal("expected required errors")
	}
	if _, ok := errs["name"]; !ok {
		t.Error("expected name to be required")
	}
	if _, ok := errs["email"]; !ok {
		t.Error("expected email to be required")
	}
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	if errs := validate.Struct(in{Email: "not-an-email"}); !validate.HasErrors(errs) {
		t.Error("expected email validation error")
	}
	if errs := validate.Struct(in{Email: "valid@example.com"}); validate.HasErrors(errs) {
		t.Errorf("expected valid email to pass, got: %v", errs)
	}
}

func TestMinMaxOnStrings(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"required,min=2,max=5"`
	}
	if errs := validate.Struct(in{Name: "a"}); !validate.HasErrors(errs) {
		t.Error("expected one-char name to fail min=2")
	}
	if errs := validate.Struct(in{Name: "toolongname"}); !validate.HasErrors(errs) {
		t.Error("expected long name to fail max=5")
	}
	if errs := validate.Struct(in{Name: "abc"}); validate.HasErrors(errs) {
		t.Errorf("expected abc to pass: %v", errs)
	}
}

func TestMinMaxOnNumbers(t *testing.T) {
	type in struct {
		Count int `json:"count" validate:"required,min=1,max=120"`
	}
	if errs := validate.Struct(in{Count: 500}); !validate.HasErrors(errs) {
		t.Error("expected count > 120 to fail")
	}
	if errs := validate.Struct(in{Count: 25}); validate.HasErrors(errs) {
		t.Errorf("expected count 25 to pass, got: %v", errs)
	}
}

func TestInRule(t *testing.T) {
	type in struct {
		Order string `json:"order" validate:"required,in=asc,desc"`
	}
	if errs := validate.Struct(in{Order: "sideways"}); !validate.HasErrors(errs) {
		t.Error("expected invalid order to fail")
	}
	if errs := validate.Struct(in{Order: "asc"}); validate.HasErrors(errs) {
		t.Errorf("expected asc to pass: %v", errs)
	}
}

func TestInFollowedByAnotherRule(t *testing.T) {
	type in struct {
		SortBy string `json:"sortBy" validate:"required,in=name,size,modifiedTime,max=20"`
	}
	if errs := validate.Struct(in{SortBy: "size"}); validate.HasErrors(errs) {
		t.Errorf("expected size to pass: %v", errs)
	}
	if errs := validate.Struct(in{SortBy: "owner"}); !validate.HasErrors(errs) {
		t.Error("expected owner to fail the in rule")
	}
}

func TestConfirmedRule(t *testing.T) {
	type in struct {
		Password             string `json:"password"              validate:"required,min=8"`
		PasswordConfirmation string `json:"password_confirmation" validate:"confirmed"`
	}
	if errs := validate.Struct(in{Password: "secret123", PasswordConfirmation: "wrong"}); !validate.HasErrors(errs) {
		t.Error("expected confirmation mismatch to fail")
	}
	if errs := validate.Struct(in{Password: "secret123", PasswordConfirmation: "secret123"}); validate.HasErrors(errs) {
		t.Errorf("expected matching confirmation to pass: %v", errs)
	}
}

func TestNullableSkipsRules(t *testing.T) {
	type in struct {
		Role string `json:"role" validate:"nullable,in=admin,user"`
	}
	if errs := validate.Struct(in{Role: ""}); validate.HasErrors(errs) {
		t.Errorf("expected empty nullable to pass: %v", errs)
	}
	if errs := validate.Struct(in{Role: "superadmin"}); !validate.HasErrors(errs) {
		t.Error("expected invalid role to fail")
	}
}

func TestBetweenRule(t *testing.T) {
	type in struct {
		PerPage int `json:"perPage" validate:"required,between=1,100"`
	}
	if errs := validate.Struct(in{PerPage: 150}); !validate.HasErrors(errs) {
		t.Error("expected perPage > 100 to fail")
	}
	if errs := validate.Struct(in{PerPage: 25}); validate.HasErrors(errs) {
		t.Errorf("expected perPage 25 to pass: %v", errs)
	}
}

func TestAlphaDashRule(t *testing.T) {
	type in struct {
		Slug string `json:"slug" validate:"required,alpha_dash"`
	}
	if errs := validate.Struct(in{Slug: "quarterly-report_2025"}); validate.HasErrors(errs) {
		t.Errorf("expected alpha_dash to pass: %v", errs)
	}
	if errs := validate.Struct(in{Slug: "hello world!"}); !validate.HasErrors(errs) {
		t.Error("expected alpha_dash to fail for spaces/punctuation")
	}
}
